package records

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"podcaster/internal/services"
)

// CreateQuery inserts a new query in the created state.
func (s *Store) CreateQuery(ctx context.Context, text string) (*Query, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, services.Wrap(services.ErrValidation, "records", "create query", "query text is empty", nil)
	}
	id, err := retry(ctx, s, "create query", func(ctx context.Context) (int64, error) {
		now := s.nowMillis()
		insert := s.dialect.builder.
			Insert("queries").
			Columns("querytext", "status", "created_at", "updated_at").
			Values(text, string(StatusCreated), now, now)
		return s.insertReturningID(ctx, s.db, insert, "queryid")
	})
	if err != nil {
		return nil, err
	}
	return s.GetQuery(ctx, id)
}

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *Store) insertReturningID(ctx context.Context, db execer, insert sq.InsertBuilder, idColumn string) (int64, error) {
	if s.dialect.returningID {
		stmt, args, err := insert.Suffix("RETURNING " + idColumn).ToSql()
		if err != nil {
			return 0, err
		}
		var id int64
		if err := db.QueryRowContext(ctx, stmt, args...).Scan(&id); err != nil {
			return 0, err
		}
		return id, nil
	}
	stmt, args, err := insert.ToSql()
	if err != nil {
		return 0, err
	}
	res, err := db.ExecContext(ctx, stmt, args...)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// GetQuery fetches a query by id. A missing row yields services.ErrNotFound.
func (s *Store) GetQuery(ctx context.Context, id int64) (*Query, error) {
	return retry(ctx, s, "get query", func(ctx context.Context) (*Query, error) {
		stmt, args, err := s.dialect.builder.
			Select(queryColumns).
			From("queries").
			Where(sq.Eq{"queryid": id}).
			ToSql()
		if err != nil {
			return nil, err
		}
		q, err := scanQuery(s.db.QueryRowContext(ctx, stmt, args...))
		if errors.Is(err, sql.ErrNoRows) {
			return nil, services.Wrap(services.ErrNotFound, "records", "get query", fmt.Sprintf("query %d does not exist", id), nil)
		}
		return q, err
	})
}

// ListQueries returns every query ordered by id.
func (s *Store) ListQueries(ctx context.Context) ([]*Query, error) {
	return retry(ctx, s, "list queries", func(ctx context.Context) ([]*Query, error) {
		stmt, args, err := s.dialect.builder.
			Select(queryColumns).
			From("queries").
			OrderBy("queryid").
			ToSql()
		if err != nil {
			return nil, err
		}
		rows, err := s.db.QueryContext(ctx, stmt, args...)
		if err != nil {
			return nil, err
		}
		defer rows.Close()

		var out []*Query
		for rows.Next() {
			q, err := scanQuery(rows)
			if err != nil {
				return nil, err
			}
			out = append(out, q)
		}
		return out, rows.Err()
	})
}

// ListArticles returns every recorded article ordered by id.
func (s *Store) ListArticles(ctx context.Context) ([]*Article, error) {
	return s.listArticles(ctx, "list articles", nil)
}

// ListArticlesForQuery returns the articles gathered for one query.
func (s *Store) ListArticlesForQuery(ctx context.Context, queryID int64) ([]*Article, error) {
	return s.listArticles(ctx, "list query articles", sq.Eq{"queryid": queryID})
}

func (s *Store) listArticles(ctx context.Context, operation string, where sq.Sqlizer) ([]*Article, error) {
	return retry(ctx, s, operation, func(ctx context.Context) ([]*Article, error) {
		query := s.dialect.builder.
			Select(articleColumns).
			From("articles").
			OrderBy("articleid")
		if where != nil {
			query = query.Where(where)
		}
		stmt, args, err := query.ToSql()
		if err != nil {
			return nil, err
		}
		rows, err := s.db.QueryContext(ctx, stmt, args...)
		if err != nil {
			return nil, err
		}
		defer rows.Close()

		var out []*Article
		for rows.Next() {
			a, err := scanArticle(rows)
			if err != nil {
				return nil, err
			}
			out = append(out, a)
		}
		return out, rows.Err()
	})
}
