package http

import (
	"encoding/json"
	stdhttp "net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"bemanning/internal/core/ratelimit"
	"bemanning/internal/platform/logger"
	phttp "bemanning/internal/platform/net/http"
	"bemanning/internal/services/api/csrf/domain"
	svc "bemanning/internal/services/api/csrf/service"
)

func init() { logger.Init(logger.Options{Level: "panic"}) }

func router(s svc.Service) stdhttp.Handler {
	r := phttp.AdaptChi(chi.NewRouter())
	Register(r, s)
	r.With(RequireToken(s)).Post("/submit", func(w stdhttp.ResponseWriter, _ *stdhttp.Request) {
		w.WriteHeader(stdhttp.StatusCreated)
	})
	return r.Mux()
}

func issue(t *testing.T, h stdhttp.Handler) (*httptest.ResponseRecorder, domain.Token) {
	t.Helper()
	req := httptest.NewRequest(stdhttp.MethodGet, "/", nil)
	req.RemoteAddr = "203.0.113.7:4000"
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	var env struct {
		Data domain.Token `json:"data"`
	}
	_ = json.Unmarshal(rr.Body.Bytes(), &env)
	return rr, env.Data
}

func TestIssueThenGuard(t *testing.T) {
	s := svc.New(svc.Options{Secret: "k", Limiter: ratelimit.New(ratelimit.NewMemoryStore(), nil)})
	h := router(s)

	rr, tok := issue(t, h)
	if rr.Code != stdhttp.StatusOK || tok.Token == "" {
		t.Fatalf("issue status=%d body=%s", rr.Code, rr.Body.String())
	}
	if rr.Header().Get(ratelimit.HeaderRemaining) != "19" {
		t.Fatalf("rate headers = %v", rr.Header())
	}

	cases := []struct {
		name   string
		token  string
		status int
	}{
		{"missing", "", stdhttp.StatusForbidden},
		{"tampered", tok.Token + "0", stdhttp.StatusForbidden},
		{"valid", tok.Token, stdhttp.StatusCreated},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(stdhttp.MethodPost, "/submit", nil)
			if tc.token != "" {
				req.Header.Set(domain.HeaderToken, tc.token)
			}
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)
			if rr.Code != tc.status {
				t.Fatalf("status = %d, want %d", rr.Code, tc.status)
			}
		})
	}
}

func TestIssueThrottledCarriesHeaders(t *testing.T) {
	s := svc.New(svc.Options{Secret: "k", Limiter: ratelimit.New(ratelimit.NewMemoryStore(), nil)})
	h := router(s)
	for range 20 {
		issue(t, h)
	}
	rr, _ := issue(t, h)
	if rr.Code != stdhttp.StatusTooManyRequests || rr.Header().Get(ratelimit.HeaderRemaining) != "0" {
		t.Fatalf("status=%d headers=%v", rr.Code, rr.Header())
	}
}

func TestDisabledWithoutSecret(t *testing.T) {
	h := router(svc.New(svc.Options{}))
	rr, _ := issue(t, h)
	if rr.Code != stdhttp.StatusServiceUnavailable {
		t.Fatalf("status = %d", rr.Code)
	}
}
