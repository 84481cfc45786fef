package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"bemanning/internal/core/ratelimit"
	"bemanning/internal/modkit"
	"bemanning/internal/platform/config"
	"bemanning/internal/platform/logger"
	"bemanning/internal/platform/metrics"
	phttp "bemanning/internal/platform/net/http"
	"bemanning/internal/services/api/session"
	"bemanning/internal/services/effects"
)

func init() { logger.Init(logger.Options{Level: "panic"}) }

func newAPI(t *testing.T) http.Handler {
	t.Helper()
	t.Setenv("CSRF_SECRET", "csrf-test-secret")

	r := phttp.AdaptChi(chi.NewRouter())
	Mount(r, Options{
		Deps: modkit.Deps{
			Log:     logger.Nop(),
			Cfg:     config.New(),
			Limiter: ratelimit.New(ratelimit.NewMemoryStore(), nil),
			Metrics: metrics.New(),
			Effects: effects.New(effects.Options{}),

			Unconfigured: modkit.MissingBackends(nil),
		},
		Session:       session.New("session-test-secret"),
		EnableSwagger: true,
	})
	return r.Mux()
}

func csrfToken(t *testing.T, h http.Handler) string {
	t.Helper()
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/csrf", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("GET /api/v1/csrf = %d %s", rr.Code, rr.Body.String())
	}
	var env struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &env); err != nil || env.Data.Token == "" {
		t.Fatalf("csrf body %s: %v", rr.Body.String(), err)
	}
	return env.Data.Token
}

func TestRoutesMounted(t *testing.T) {
	h := newAPI(t)
	for _, path := range []string{"/api/v1/meta/health", "/api/v1/meta/version", "/metrics", "/api/docs/doc.json"} {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
		if rr.Code != http.StatusOK {
			t.Fatalf("GET %s = %d", path, rr.Code)
		}
	}
}

func TestStateChangingRoutesOrder(t *testing.T) {
	h := newAPI(t)
	tok := csrfToken(t, h)

	cases := []struct {
		name   string
		path   string
		token  string
		bearer string
		status int
		code   string
	}{
		{"applications without token", "/api/v1/applications", "", "", http.StatusForbidden, "forbidden"},
		{"contact without token", "/api/v1/contact", "", "", http.StatusForbidden, "forbidden"},
		{"bad session before guard", "/api/v1/applications", "", "forged", http.StatusUnauthorized, "unauthorized"},
		{"applications preflight", "/api/v1/applications", tok, "", http.StatusInternalServerError, "configuration"},
		{"contact preflight", "/api/v1/contact", tok, "", http.StatusInternalServerError, "configuration"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, tc.path, nil)
			if tc.token != "" {
				req.Header.Set("X-CSRF-Token", tc.token)
			}
			if tc.bearer != "" {
				req.Header.Set("Authorization", "Bearer "+tc.bearer)
			}
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)
			if rr.Code != tc.status {
				t.Fatalf("status = %d, want %d (%s)", rr.Code, tc.status, rr.Body.String())
			}
			var env phttp.Envelope
			_ = json.Unmarshal(rr.Body.Bytes(), &env)
			if env.Success || env.Code != tc.code {
				t.Fatalf("envelope = %+v, want code %q", env, tc.code)
			}
		})
	}
}
