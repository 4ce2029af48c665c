package records

import (
	"context"
	"database/sql/driver"
	"errors"
	"net"
	"strings"
	"syscall"

	sq "github.com/Masterminds/squirrel"
	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"

	"podcaster/internal/config"
)

// dialect captures the per-driver differences the store cares about.
type dialect struct {
	name        string
	driverName  string
	schemaFile  string
	builder     sq.StatementBuilderType
	returningID bool
	tableExists string
}

var dialects = map[string]dialect{
	config.StoreDriverSQLite: {
		name:        config.StoreDriverSQLite,
		driverName:  "sqlite",
		schemaFile:  "schema/sqlite.sql",
		builder:     sq.StatementBuilder.PlaceholderFormat(sq.Question),
		tableExists: "SELECT COUNT(1) FROM sqlite_master WHERE type = 'table' AND name = ?",
	},
	config.StoreDriverMySQL: {
		name:        config.StoreDriverMySQL,
		driverName:  "mysql",
		schemaFile:  "schema/mysql.sql",
		builder:     sq.StatementBuilder.PlaceholderFormat(sq.Question),
		tableExists: "SELECT COUNT(1) FROM information_schema.tables WHERE table_schema = DATABASE() AND table_name = ?",
	},
	config.StoreDriverPostgres: {
		name:        config.StoreDriverPostgres,
		driverName:  "pgx",
		schemaFile:  "schema/postgres.sql",
		builder:     sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
		returningID: true,
		tableExists: "SELECT COUNT(1) FROM information_schema.tables WHERE table_schema = current_schema() AND table_name = $1",
	},
}

func dialectFor(driver string) (dialect, bool) {
	d, ok := dialects[driver]
	return d, ok
}

const (
	sqliteBusyCode   = 5
	sqliteLockedCode = 6

	mysqlLockWaitTimeout = 1205
	mysqlDeadlock        = 1213
)

// isTransient reports whether a database error is worth retrying: lock
// contention, serialization failures, and dropped connections.
func isTransient(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, mysql.ErrInvalidConn) ||
		errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) {
		if code := coder.Code() & 0xff; code == sqliteBusyCode || code == sqliteLockedCode {
			return true
		}
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == mysqlLockWaitTimeout || myErr.Number == mysqlDeadlock
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "40001" || pgErr.Code == "40P01"
	}
	if pgconn.SafeToRetry(err) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

// splitStatements breaks an embedded schema file into executable statements.
func splitStatements(script string) []string {
	parts := strings.Split(script, ";")
	statements := make([]string, 0, len(parts))
	for _, part := range parts {
		if stmt := strings.TrimSpace(part); stmt != "" {
			statements = append(statements, stmt)
		}
	}
	return statements
}
