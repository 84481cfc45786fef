package store

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"bemanning/internal/platform/config"
	perr "bemanning/internal/platform/errors"

	"github.com/jackc/pgx/v5"
)

type fakeCH struct {
	pingErr error
	closed  bool
}

func (f *fakeCH) Insert(context.Context, string, [][]any) error { return nil }
func (f *fakeCH) Exec(context.Context, string, ...any) error    { return nil }
func (f *fakeCH) Ping(context.Context) error                    { return f.pingErr }
func (f *fakeCH) Close() error                                  { f.closed = true; return nil }

// fakePG answers QueryRow with a canned scan and records Exec calls
type fakePG struct {
	scan     func(dst ...any) error
	affected int64
	execErr  error
	pingErr  error
	closed   bool
}

type fakeRow struct{ scan func(dst ...any) error }

func (r fakeRow) Scan(dst ...any) error { return r.scan(dst...) }

type fakeTag int64

func (t fakeTag) RowsAffected() int64 { return int64(t) }

func (f *fakePG) Exec(context.Context, string, ...any) (CommandTag, error) {
	return fakeTag(f.affected), f.execErr
}
func (f *fakePG) Query(context.Context, string, ...any) (Rows, error) { return nil, errors.New("unused") }
func (f *fakePG) QueryRow(context.Context, string, ...any) Row        { return fakeRow{scan: f.scan} }
func (f *fakePG) Tx(ctx context.Context, fn func(RowQuerier) error) error {
	return fn(f)
}
func (f *fakePG) Ping(context.Context) error { return f.pingErr }
func (f *fakePG) Close() error               { f.closed = true; return nil }

func TestCheckAndGuard(t *testing.T) {
	s := &Store{PG: &fakePG{}, CH: &fakeCH{pingErr: errors.New("down")}}
	got := s.Check(context.Background())
	if len(got) != 2 || got["postgres"] != nil || got["clickhouse"] == nil {
		t.Fatalf("Check = %v", got)
	}
	if _, ok := got["redis"]; ok {
		t.Fatal("unconfigured redis reported")
	}
	err := s.Guard(context.Background())
	if err == nil || !strings.Contains(err.Error(), "clickhouse: down") {
		t.Fatalf("Guard = %v", err)
	}
	var nilStore *Store
	if nilStore.Guard(context.Background()) == nil {
		t.Fatal("nil store should fail Guard")
	}
}

func TestClose(t *testing.T) {
	pg, ch := &fakePG{}, &fakeCH{}
	s := &Store{PG: pg, CH: ch}
	if err := s.Close(context.Background()); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !pg.closed || !ch.closed {
		t.Fatal("backends not closed")
	}
}

func TestOpenWithNothingConfigured(t *testing.T) {
	s, err := Open(context.Background(), Config{})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if s.PG != nil || s.CH != nil || s.RDS != nil {
		t.Fatalf("unexpected backends: %+v", s)
	}
}

func TestHelpers(t *testing.T) {
	ctx := context.Background()

	noRows := &fakePG{scan: func(...any) error { return pgx.ErrNoRows }}
	if ok, err := Exists(ctx, noRows, "select"); ok || err != nil {
		t.Fatalf("Exists no rows = %v %v", ok, err)
	}
	scanInt := func(r Row) (int, error) {
		var v int
		err := r.Scan(&v)
		return v, err
	}
	_, err := One(ctx, noRows, scanInt, "select")
	if !errors.Is(err, perr.ErrNotFound) {
		t.Fatalf("One no rows = %v", err)
	}

	hit := &fakePG{scan: func(dst ...any) error {
		*(dst[0].(*int)) = 1
		return nil
	}}
	if ok, err := Exists(ctx, hit, "select"); !ok || err != nil {
		t.Fatalf("Exists hit = %v %v", ok, err)
	}
}

func TestRetryPing(t *testing.T) {
	calls := 0
	err := retryPing(context.Background(), 3, time.Second, func(context.Context) error {
		calls++
		if calls < 2 {
			return errors.New("not yet")
		}
		return nil
	})
	if err != nil || calls != 2 {
		t.Fatalf("err=%v calls=%d", err, calls)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := retryPing(ctx, 5, time.Second, func(context.Context) error { return errors.New("x") }); !errors.Is(err, context.Canceled) {
		t.Fatalf("canceled retry = %v", err)
	}
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("SERVICE_PGSQL_DBURL", "postgres://u:p@localhost/db")
	t.Setenv("SERVICE_REDIS_ADDR", "localhost:6379")
	t.Setenv("SERVICE_REDIS_DB", "2")

	cfg := ConfigFromEnv(config.New(), "bemanning-api")
	if cfg.PG.URL == "" || cfg.RDS.Addr != "localhost:6379" || cfg.RDS.DB != 2 || cfg.CH.URL != "" {
		t.Fatalf("cfg = %+v", cfg)
	}
}
