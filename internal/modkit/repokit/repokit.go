// Package repokit is the seam repositories are built against
// it keeps pgx out of repo and service code
package repokit

import "bemanning/internal/platform/store"

type (
	// Queryer is the read and write surface a bound repo runs against
	Queryer = store.RowQuerier

	// TxRunner is a Queryer that can also open a transaction
	TxRunner = store.TxRunner
)

// Binder attaches a domain repo to a Queryer
// services hold a Binder so tests can hand in fakes without a database
type Binder[T any] interface {
	Bind(Queryer) T
}

// BindFunc adapts a function to Binder
type BindFunc[T any] func(Queryer) T

// Bind calls f
func (f BindFunc[T]) Bind(q Queryer) T { return f(q) }
