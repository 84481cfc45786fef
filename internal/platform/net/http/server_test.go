package http

import (
	"context"
	"errors"
	stdhttp "net/http"
	"net/http/httptest"
	"testing"
	"time"

	"bemanning/internal/platform/config"
)

func TestNewServerDefaults(t *testing.T) {
	s := NewServer(config.New().Prefix("SRVTEST_"))
	if s.Addr() != ":4000" {
		t.Fatalf("Addr = %q", s.Addr())
	}
	s.Router().Get("/hi", func(w stdhttp.ResponseWriter, _ *stdhttp.Request) { w.WriteHeader(200) })
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, httptest.NewRequest(stdhttp.MethodGet, "/hi", nil))
	if rr.Code != 200 {
		t.Fatalf("status = %d", rr.Code)
	}
}

func TestRunStopsOnCancelAndRunsHooks(t *testing.T) {
	t.Setenv("SRVRUN_API_PORT", "127.0.0.1:0")
	s := NewServer(config.New().Prefix("SRVRUN_"))

	hooked := make(chan struct{}, 1)
	s.OnShutdown(func(context.Context) error { hooked <- struct{}{}; return nil })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	select {
	case <-hooked:
	default:
		t.Fatal("shutdown hook not run")
	}
}

func TestShutdownJoinsHookErrors(t *testing.T) {
	s := NewServer(config.New().Prefix("SRVHOOK_"))
	boom := errors.New("boom")
	s.OnShutdown(func(context.Context) error { return boom })
	if err := s.Shutdown(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("Shutdown err = %v", err)
	}
}
