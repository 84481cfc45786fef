package session

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	perr "bemanning/internal/platform/errors"
	"bemanning/internal/platform/logger"
	pnet "bemanning/internal/platform/net"
	"bemanning/internal/platform/net/middleware"
)

func init() { logger.Init(logger.Options{Level: "panic"}) }

var _ middleware.SessionPort = (*Verifier)(nil)

const cand = "9d1e2a3b-0000-4000-8000-000000000001"

func request(auth string) *http.Request {
	r := httptest.NewRequest(http.MethodPost, "/applications", nil)
	if auth != "" {
		r.Header.Set("Authorization", auth)
	}
	return r
}

func TestCandidate(t *testing.T) {
	now := time.Unix(1767225600, 0)
	v := New("session-secret")
	v.now = func() time.Time { return now }

	good, err := v.Issue(cand, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	expired, _ := v.Issue(cand, -time.Minute)
	foreign, _ := New("other").Issue(cand, time.Hour)

	cases := []struct {
		name string
		auth string
		ok   bool
		err  bool
	}{
		{"anonymous", "", false, false},
		{"valid", "Bearer " + good, true, false},
		{"wrong scheme", "Basic " + good, false, true},
		{"expired", "Bearer " + expired, false, true},
		{"foreign secret", "Bearer " + foreign, false, true},
		{"garbage", "Bearer nope", false, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			id, ok, err := v.Candidate(request(tc.auth))
			if ok != tc.ok || (err != nil) != tc.err {
				t.Fatalf("Candidate = %q, %v, %v", id, ok, err)
			}
			if tc.ok && id != cand {
				t.Fatalf("id = %q", id)
			}
			if tc.err && perr.HTTPStatus(err) != http.StatusUnauthorized {
				t.Fatalf("status = %d", perr.HTTPStatus(err))
			}
		})
	}
}

func TestEmptySecretRejectsPresentedCredential(t *testing.T) {
	v := New("")
	if _, ok, err := v.Candidate(request("")); ok || err != nil {
		t.Fatalf("anonymous should pass")
	}
	if _, _, err := v.Candidate(request("Bearer " + cand + ".1.abc")); err == nil {
		t.Fatalf("credential accepted without a secret")
	}
}

func TestMiddlewareRecordsCandidate(t *testing.T) {
	v := New("session-secret")
	tok, _ := v.Issue(cand, time.Hour)

	var seen string
	h := middleware.Session(v)(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen = pnet.SessionCandidate(r.Context())
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, request("Bearer "+tok))
	if seen != cand {
		t.Fatalf("session candidate = %q", seen)
	}

	rr = httptest.NewRecorder()
	seen = "untouched"
	h.ServeHTTP(rr, request("Bearer broken"))
	if rr.Code != http.StatusUnauthorized || seen != "untouched" {
		t.Fatalf("status=%d seen=%q", rr.Code, seen)
	}
}
