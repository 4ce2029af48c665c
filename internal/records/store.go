package records

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"podcaster/internal/config"
	"podcaster/internal/logging"
	"podcaster/internal/services"
	"podcaster/internal/transport"
)

const (
	queryColumns   = "queryid, querytext, status, textkey, scriptkey, audiokey, lease_token, lease_expires_at, created_at, updated_at"
	articleColumns = "articleid, queryid, url, headline, created_at"

	connectWaitLimit = time.Minute
)

// Store manages query and article persistence.
type Store struct {
	db       *sql.DB
	dialect  dialect
	location string
	policy   transport.Policy
	logger   *slog.Logger
	now      func() time.Time
}

// Open connects to the configured record store, waiting for networked
// databases to come up, and creates the schema on first use.
func Open(cfg *config.Config, logger *slog.Logger) (*Store, error) {
	if cfg == nil {
		return nil, errors.New("records: config is required")
	}
	d, ok := dialectFor(cfg.Store.Driver)
	if !ok {
		return nil, fmt.Errorf("records: unsupported driver %q", cfg.Store.Driver)
	}
	logger = logging.NewComponentLogger(logger, "records")

	dsn := cfg.StoreDSN()
	location := dsn
	if d.name == config.StoreDriverSQLite {
		if err := cfg.EnsureDirectories(); err != nil {
			return nil, fmt.Errorf("ensure directories: %w", err)
		}
		dsn = sqliteDSN(dsn)
	} else {
		location = redactDSN(dsn)
	}

	db, err := sql.Open(d.driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s db: %w", d.name, err)
	}
	switch {
	case cfg.Store.MaxOpenConns > 0:
		db.SetMaxOpenConns(cfg.Store.MaxOpenConns)
	case d.name == config.StoreDriverSQLite:
		db.SetMaxOpenConns(1)
	}

	if err := waitForConnection(db, d, logger); err != nil {
		_ = db.Close()
		return nil, err
	}

	store := &Store{
		db:       db,
		dialect:  d,
		location: location,
		policy:   transport.PolicyFromConfig(cfg, logger),
		logger:   logger,
		now:      time.Now,
	}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	logger.Debug("record store ready", logging.String("driver", d.name), logging.String("location", location))
	return store, nil
}

func sqliteDSN(path string) string {
	if strings.Contains(path, "?") {
		return path
	}
	return path + "?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)"
}

// redactDSN hides credentials before the DSN is logged or reported.
func redactDSN(dsn string) string {
	at := strings.LastIndex(dsn, "@")
	if at < 0 {
		return dsn
	}
	prefix := dsn[:at]
	if scheme := strings.Index(prefix, "://"); scheme >= 0 {
		return prefix[:scheme+3] + "***" + dsn[at:]
	}
	return "***" + dsn[at:]
}

func waitForConnection(db *sql.DB, d dialect, logger *slog.Logger) error {
	if d.name == config.StoreDriverSQLite {
		if err := db.PingContext(context.Background()); err != nil {
			return fmt.Errorf("ping sqlite db: %w", err)
		}
		return nil
	}
	policy := backoff.NewExponentialBackOff()
	policy.MaxElapsedTime = connectWaitLimit
	attempt := 1
	err := backoff.Retry(func() error {
		if err := db.PingContext(context.Background()); err != nil {
			logger.Info("waiting for database", logging.String("driver", d.name), logging.Int("attempt", attempt))
			attempt++
			return err
		}
		return nil
	}, policy)
	if err != nil {
		return fmt.Errorf("connect %s db: %w", d.name, err)
	}
	return nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// WithClock overrides the store's time source. Intended for tests.
func (s *Store) WithClock(now func() time.Time) *Store {
	if now != nil {
		s.now = now
	}
	return s
}

func (s *Store) nowMillis() int64 {
	return s.now().UTC().UnixMilli()
}

// classify tags driver failures so transport.Retry knows which to repeat.
func classify(operation string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, services.ErrNotFound) || errors.Is(err, services.ErrConflict) || errors.Is(err, services.ErrValidation) {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if isTransient(err) {
		return services.Wrap(services.ErrTransient, "records", operation, "database unavailable", err)
	}
	return fmt.Errorf("records %s: %w", operation, err)
}

// retry runs op under the shared retry budget.
func retry[T any](ctx context.Context, s *Store, operation string, op func(context.Context) (T, error)) (T, error) {
	return transport.Retry(ctx, s.policy, "records."+operation, func(ctx context.Context) (T, error) {
		value, err := op(ctx)
		return value, classify(operation, err)
	})
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanQuery(row rowScanner) (*Query, error) {
	var (
		q                            Query
		status                       string
		textRef, scriptRef, audioRef sql.NullString
		leaseToken                   sql.NullString
		leaseExpires                 sql.NullInt64
		createdAt, updatedAt         int64
	)
	if err := row.Scan(&q.ID, &q.Text, &status, &textRef, &scriptRef, &audioRef, &leaseToken, &leaseExpires, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	q.Status = Status(status)
	q.TextRef = textRef.String
	q.ScriptRef = scriptRef.String
	q.AudioRef = audioRef.String
	q.LeaseToken = leaseToken.String
	if leaseExpires.Valid {
		q.LeaseExpiresAt = time.UnixMilli(leaseExpires.Int64).UTC()
	}
	q.CreatedAt = time.UnixMilli(createdAt).UTC()
	q.UpdatedAt = time.UnixMilli(updatedAt).UTC()
	return &q, nil
}

func scanArticle(row rowScanner) (*Article, error) {
	var (
		a         Article
		createdAt int64
	)
	if err := row.Scan(&a.ID, &a.QueryID, &a.URL, &a.Headline, &createdAt); err != nil {
		return nil, err
	}
	a.CreatedAt = time.UnixMilli(createdAt).UTC()
	return &a, nil
}
