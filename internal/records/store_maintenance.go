package records

import (
	"context"
	"fmt"
	"time"

	"podcaster/internal/logging"
)

// Reset deletes every article and query in one transaction. Identity
// counters survive, so ids handed out before the reset are never reissued.
func (s *Store) Reset(ctx context.Context) error {
	_, err := retry(ctx, s, "reset", func(ctx context.Context) (struct{}, error) {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return struct{}{}, err
		}
		defer func() { _ = tx.Rollback() }()

		for _, table := range []string{"articles", "queries"} {
			stmt, args, err := s.dialect.builder.Delete(table).ToSql()
			if err != nil {
				return struct{}{}, err
			}
			if _, err := tx.ExecContext(ctx, stmt, args...); err != nil {
				return struct{}{}, fmt.Errorf("clear %s: %w", table, err)
			}
		}
		return struct{}{}, tx.Commit()
	})
	if err == nil {
		s.logger.Info("record store reset", logging.String(logging.FieldEventType, "records_reset"))
	}
	return err
}

// CheckHealth returns diagnostic information about the record store.
func (s *Store) CheckHealth(ctx context.Context) (DatabaseHealth, error) {
	health := DatabaseHealth{
		Driver:       s.dialect.name,
		Location:     s.location,
		StatusCounts: make(map[Status]int),
	}
	if s.db == nil {
		health.Error = "database connection unavailable"
		return health, fmt.Errorf("record store: %s", health.Error)
	}

	connCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := s.db.PingContext(connCtx); err != nil {
		health.Error = err.Error()
		return health, fmt.Errorf("ping record store: %w", err)
	}
	health.Reachable = true

	version, err := s.readSchemaVersion(connCtx)
	if err != nil {
		health.Error = err.Error()
		return health, err
	}
	health.SchemaVersion = version
	health.SchemaCurrent = version == schemaVersion

	stmt, args, err := s.dialect.builder.Select("status", "COUNT(1)").From("queries").GroupBy("status").ToSql()
	if err != nil {
		return health, err
	}
	rows, err := s.db.QueryContext(connCtx, stmt, args...)
	if err != nil {
		health.Error = err.Error()
		return health, fmt.Errorf("count queries: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			status string
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			return health, err
		}
		health.StatusCounts[Status(status)] = count
		health.TotalQueries += count
	}
	if err := rows.Err(); err != nil {
		return health, err
	}

	stmt, args, err = s.dialect.builder.Select("COUNT(1)").From("articles").ToSql()
	if err != nil {
		return health, err
	}
	if err := s.db.QueryRowContext(connCtx, stmt, args...).Scan(&health.TotalArticles); err != nil {
		health.Error = err.Error()
		return health, fmt.Errorf("count articles: %w", err)
	}
	return health, nil
}
