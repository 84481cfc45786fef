package store

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	"bemanning/internal/platform/logger"
	chx "bemanning/internal/platform/store/ch"
	"bemanning/internal/platform/store/pg"

	"github.com/redis/go-redis/v9"
)

// retryPing pings with exponential backoff until ok, ctx ends or attempts run out
func retryPing(ctx context.Context, attempts int, timeout time.Duration, ping func(context.Context) error) error {
	backoff := 150 * time.Millisecond
	var last error
	for i := 0; i < attempts; i++ {
		pctx, cancel := context.WithTimeout(ctx, timeout)
		last = ping(pctx)
		cancel()
		if last == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, 2*time.Second)
	}
	return fmt.Errorf("ping failed after %d attempts: %w", attempts, last)
}

func openPG(ctx context.Context, cfg PGConfig, log logger.Logger) (TxRunner, error) {
	var tracer pg.QueryTracer
	if cfg.LogSQL {
		tracer = pg.Tracer(log)
	}
	p, err := pg.Open(ctx, pg.Config{URL: cfg.URL, MaxConns: cfg.MaxConns, SlowMs: cfg.SlowQueryMs}, tracer, nil)
	if err != nil {
		return nil, err
	}

	attempts := cfg.ConnectRetries
	if attempts <= 0 {
		attempts = 20
	}
	timeout := cfg.PingTimeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	if err := retryPing(ctx, attempts, timeout, p.Pool.Ping); err != nil {
		p.Close()
		return nil, err
	}
	return newPGAdapter(p), nil
}

func openCH(ctx context.Context, cfg Config) (Clickhouse, error) {
	return chx.Open(ctx, chx.Config{URL: cfg.CH.URL, Role: cfg.CH.Role, Tag: cfg.AppName})
}

var newRedis = func(o *redis.Options) redis.UniversalClient { return redis.NewClient(o) }

func openRedis(ctx context.Context, cfg RedisConfig) (redis.UniversalClient, error) {
	o := &redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	}
	if cfg.TLS {
		o.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	c := newRedis(o)
	if err := retryPing(ctx, 5, time.Second, func(ctx context.Context) error { return c.Ping(ctx).Err() }); err != nil {
		_ = c.Close()
		return nil, err
	}
	return c, nil
}
