package store

import (
	"context"
	"errors"

	perr "bemanning/internal/platform/errors"

	"github.com/jackc/pgx/v5"
)

// Exists reports whether sql returns at least one row
func Exists(ctx context.Context, q RowQuerier, sql string, args ...any) (bool, error) {
	var one int
	err := q.QueryRow(ctx, sql, args...).Scan(&one)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return false, nil
	case err != nil:
		return false, err
	}
	return true, nil
}

// One maps a single row with scan, no rows is perr.ErrNotFound
func One[T any](ctx context.Context, q RowQuerier, scan func(Row) (T, error), sql string, args ...any) (T, error) {
	v, err := scan(q.QueryRow(ctx, sql, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		var zero T
		return zero, perr.ErrNotFound
	}
	return v, err
}
