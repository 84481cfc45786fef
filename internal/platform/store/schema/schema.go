// Package schema holds the relational schema and applies it
package schema

import (
	"context"
	_ "embed"

	"bemanning/internal/platform/store"
)

//go:embed schema.sql
var sql string

// SQL returns the schema script
func SQL() string { return sql }

// Apply runs the schema inside one transaction
func Apply(ctx context.Context, db store.TxRunner) error {
	return db.Tx(ctx, func(q store.RowQuerier) error {
		_, err := q.Exec(ctx, sql)
		return err
	})
}
