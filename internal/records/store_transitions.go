package records

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"

	"podcaster/internal/services"
)

// AdvanceStage moves a query from expected to next and records the stage's
// artifact ref. The write only lands when the row still has status expected,
// the caller still holds the stage lease identified by token and the ref
// column is empty; otherwise services.ErrConflict is returned (or
// services.ErrNotFound when the query is gone). Articles are inserted in the
// same transaction and the stage lease is cleared.
func (s *Store) AdvanceStage(ctx context.Context, id int64, expected, next Status, token, ref string, articles ...Article) error {
	if want, ok := expected.Next(); !ok || want != next {
		return services.Wrap(services.ErrValidation, "records", "advance stage",
			fmt.Sprintf("cannot move from %q to %q", expected, next), nil)
	}
	if strings.TrimSpace(token) == "" {
		return services.Wrap(services.ErrValidation, "records", "advance stage", "lease token is empty", nil)
	}
	column, _ := refColumn(next)
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return services.Wrap(services.ErrValidation, "records", "advance stage", "artifact ref is empty", nil)
	}

	_, err := retry(ctx, s, "advance stage", func(ctx context.Context) (struct{}, error) {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return struct{}{}, err
		}
		defer func() { _ = tx.Rollback() }()

		now := s.nowMillis()
		stmt, args, err := s.dialect.builder.
			Update("queries").
			Set("status", string(next)).
			Set(column, ref).
			Set("lease_token", nil).
			Set("lease_expires_at", nil).
			Set("updated_at", now).
			Where(sq.Eq{"queryid": id, "status": string(expected), "lease_token": token, column: nil}).
			ToSql()
		if err != nil {
			return struct{}{}, err
		}
		res, err := tx.ExecContext(ctx, stmt, args...)
		if err != nil {
			return struct{}{}, err
		}
		if err := s.requireRow(ctx, tx, res, id, "advance stage"); err != nil {
			return struct{}{}, err
		}

		for _, article := range articles {
			insert := s.dialect.builder.
				Insert("articles").
				Columns("queryid", "url", "headline", "created_at").
				Values(id, article.URL, article.Headline, now)
			if _, err := s.insertReturningID(ctx, tx, insert, "articleid"); err != nil {
				return struct{}{}, fmt.Errorf("insert article: %w", err)
			}
		}
		return struct{}{}, tx.Commit()
	})
	return err
}

// ClaimStage takes the stage lease for a query at status expected. It fails
// with services.ErrConflict when the status moved or another unexpired lease
// is held.
func (s *Store) ClaimStage(ctx context.Context, id int64, expected Status, token string, until time.Time) error {
	if strings.TrimSpace(token) == "" {
		return services.Wrap(services.ErrValidation, "records", "claim stage", "lease token is empty", nil)
	}
	_, err := retry(ctx, s, "claim stage", func(ctx context.Context) (struct{}, error) {
		now := s.nowMillis()
		stmt, args, err := s.dialect.builder.
			Update("queries").
			Set("lease_token", token).
			Set("lease_expires_at", until.UTC().UnixMilli()).
			Set("updated_at", now).
			Where(sq.Eq{"queryid": id, "status": string(expected)}).
			Where(sq.Or{sq.Eq{"lease_token": nil}, sq.Lt{"lease_expires_at": now}}).
			ToSql()
		if err != nil {
			return struct{}{}, err
		}
		res, err := s.db.ExecContext(ctx, stmt, args...)
		if err != nil {
			return struct{}{}, err
		}
		return struct{}{}, s.requireRow(ctx, s.db, res, id, "claim stage")
	})
	return err
}

// ReleaseStage drops a lease held under token. Releasing a lease that has
// already been cleared or taken over is not an error.
func (s *Store) ReleaseStage(ctx context.Context, id int64, token string) error {
	_, err := retry(ctx, s, "release stage", func(ctx context.Context) (struct{}, error) {
		stmt, args, err := s.dialect.builder.
			Update("queries").
			Set("lease_token", nil).
			Set("lease_expires_at", nil).
			Set("updated_at", s.nowMillis()).
			Where(sq.Eq{"queryid": id, "lease_token": token}).
			ToSql()
		if err != nil {
			return struct{}{}, err
		}
		_, err = s.db.ExecContext(ctx, stmt, args...)
		return struct{}{}, err
	})
	return err
}

// requireRow turns a zero-row conditional update into NotFound or Conflict.
func (s *Store) requireRow(ctx context.Context, db execer, res sql.Result, id int64, operation string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected > 0 {
		return nil
	}
	stmt, args, err := s.dialect.builder.Select("COUNT(1)").From("queries").Where(sq.Eq{"queryid": id}).ToSql()
	if err != nil {
		return err
	}
	var count int
	if err := db.QueryRowContext(ctx, stmt, args...).Scan(&count); err != nil {
		return err
	}
	if count == 0 {
		return services.Wrap(services.ErrNotFound, "records", operation, fmt.Sprintf("query %d does not exist", id), nil)
	}
	return services.Wrap(services.ErrConflict, "records", operation, fmt.Sprintf("query %d changed concurrently", id), nil)
}
