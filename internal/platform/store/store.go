// Package store opens the backing stores and exposes small seams over them
package store

import (
	"context"
	"errors"
	"fmt"

	"bemanning/internal/platform/logger"

	"github.com/redis/go-redis/v9"
)

// Store holds whichever backends were configured
// a nil field means the backend is not configured
type Store struct {
	Log logger.Logger

	// PG is the relational store (candidates, jobs, applications, leads)
	PG TxRunner

	// CH is the columnar audit store
	CH Clickhouse

	// RDS backs the rate limiter
	RDS redis.UniversalClient
}

// Row is a single row scan
type Row interface {
	Scan(dest ...any) error
}

// Rows is result set iteration
type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close()
}

// CommandTag reports the outcome of a write
type CommandTag interface {
	RowsAffected() int64
}

// RowQuerier is the sql surface repos run against
type RowQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) Row
}

// TxRunner adds transactions to RowQuerier
type TxRunner interface {
	RowQuerier
	Tx(ctx context.Context, fn func(q RowQuerier) error) error
}

// Clickhouse is the columnar write seam
type Clickhouse interface {
	Insert(ctx context.Context, table string, rows [][]any) error
	Exec(ctx context.Context, query string, args ...any) error
	Ping(ctx context.Context) error
	Close() error
}

// Pinger reports readiness
type Pinger interface{ Ping(context.Context) error }

// Open connects every backend that has a URL or address in cfg
func Open(ctx context.Context, cfg Config, opts ...Option) (*Store, error) {
	s := &Store{Log: logger.Nop()}
	for _, o := range opts {
		if err := o(s); err != nil {
			return nil, err
		}
	}

	if cfg.PG.URL != "" {
		p, err := openPG(ctx, cfg.PG, s.Log)
		if err != nil {
			return nil, fmt.Errorf("pg: %w", err)
		}
		s.PG = p
	}
	if cfg.CH.URL != "" {
		c, err := openCH(ctx, cfg)
		if err != nil {
			_ = s.Close(ctx)
			return nil, fmt.Errorf("clickhouse: %w", err)
		}
		s.CH = c
	}
	if cfg.RDS.Addr != "" {
		r, err := openRedis(ctx, cfg.RDS)
		if err != nil {
			_ = s.Close(ctx)
			return nil, fmt.Errorf("redis: %w", err)
		}
		s.RDS = r
	}
	return s, nil
}

// Check pings each configured backend and reports per backend results
// unconfigured backends are absent from the map
func (s *Store) Check(ctx context.Context) map[string]error {
	out := map[string]error{}
	if s == nil {
		return out
	}
	if p, ok := s.PG.(Pinger); ok {
		out["postgres"] = p.Ping(ctx)
	}
	if s.CH != nil {
		out["clickhouse"] = s.CH.Ping(ctx)
	}
	if s.RDS != nil {
		out["redis"] = s.RDS.Ping(ctx).Err()
	}
	return out
}

// Guard joins every failing Check into one error
func (s *Store) Guard(ctx context.Context) error {
	if s == nil {
		return errors.New("nil store")
	}
	var errs []error
	for name, err := range s.Check(ctx) {
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

// Close releases every backend
func (s *Store) Close(context.Context) error {
	var errs []error
	if s.CH != nil {
		errs = append(errs, s.CH.Close())
	}
	if s.RDS != nil {
		errs = append(errs, s.RDS.Close())
	}
	if c, ok := s.PG.(interface{ Close() error }); ok {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}
