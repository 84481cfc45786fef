package httpkit

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"bemanning/internal/platform/logger"
	phttp "bemanning/internal/platform/net/http"
	kit "bemanning/internal/platform/testkit"
)

func init() { logger.Init(logger.Options{Level: "panic"}) }

func newRouter() (Router, http.Handler) {
	m := chi.NewRouter()
	return phttp.AdaptChi(m), m
}

func decode(t *testing.T, rr *httptest.ResponseRecorder) Envelope {
	t.Helper()
	var env Envelope
	if err := json.Unmarshal(rr.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode: %v body=%s", err, rr.Body.String())
	}
	return env
}

func TestRespondMethods(t *testing.T) {
	r, h := newRouter()
	for _, m := range []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions} {
		Respond(r, m, "/x", func(r *http.Request) Response { return OK(r.Method) })
	}
	for _, m := range []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions} {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(m, "/x", nil))
		if rr.Code != http.StatusOK || decode(t, rr).Data != m {
			t.Fatalf("%s: code=%d body=%s", m, rr.Code, rr.Body.String())
		}
	}
	kit.MustPanic(t, func() { Respond(r, "TRACE", "/x", nil) })
}

func TestGetJSONError(t *testing.T) {
	r, h := newRouter()
	GetJSON(r, "/boom", func(*http.Request) (any, error) { return nil, errors.New("secret detail") })

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/boom", nil))
	if rr.Code != http.StatusInternalServerError || strings.Contains(rr.Body.String(), "secret detail") {
		t.Fatalf("code=%d body=%s", rr.Code, rr.Body.String())
	}
}

func TestMountAPIAndUnder(t *testing.T) {
	r, h := newRouter()
	tag := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Scope", "api")
			next.ServeHTTP(w, r)
		})
	}
	MountAPIV1(r, []func(http.Handler) http.Handler{tag}, func(api Router) {
		MountUnder(api, "/jobs", nil, func(sub Router) {
			GetJSON(sub, "/", func(*http.Request) (any, error) { return "jobs", nil })
		})
	})

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/jobs", nil))
	if rr.Code != http.StatusOK || rr.Header().Get("X-Scope") != "api" {
		t.Fatalf("code=%d headers=%v", rr.Code, rr.Header())
	}
}

func TestCommonStack(t *testing.T) {
	plain := CommonStack(StackOptions{})
	trusted := CommonStack(StackOptions{TrustForwarded: true, Extra: []func(http.Handler) http.Handler{
		func(next http.Handler) http.Handler { return next },
	}})
	if len(trusted) != len(plain)+2 {
		t.Fatalf("trusted stack has %d, plain %d", len(trusted), len(plain))
	}

	m := chi.NewRouter()
	m.Use(CommonStack(StackOptions{TrustForwarded: true})...)
	m.Get("/ip", func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte(r.RemoteAddr)) })

	req := httptest.NewRequest(http.MethodGet, "/ip", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	rr := httptest.NewRecorder()
	m.ServeHTTP(rr, req)
	if rr.Body.String() != "203.0.113.9" || rr.Header().Get("Cache-Control") == "" {
		t.Fatalf("body=%q headers=%v", rr.Body.String(), rr.Header())
	}

	rr = httptest.NewRecorder()
	m.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("heartbeat code = %d", rr.Code)
	}
}
