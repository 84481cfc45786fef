package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCountersAndHandler(t *testing.T) {
	m := New()
	m.ObserveSubmission("created", 40*time.Millisecond)
	m.ObserveSubmission("conflict", time.Millisecond)
	m.RateLimit("apply", "fail_open")
	m.Notification("operator", "failed")
	m.Effect("sign_links", "ok")
	m.ObserveLead("created")

	if got := testutil.ToFloat64(m.Submissions.WithLabelValues("created")); got != 1 {
		t.Fatalf("created = %v", got)
	}
	if got := testutil.ToFloat64(m.RateLimitDecisions.WithLabelValues("apply", "fail_open")); got != 1 {
		t.Fatalf("fail_open = %v", got)
	}

	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rr.Body.String()
	for _, want := range []string{
		`bemanning_submissions_total{outcome="conflict"} 1`,
		`bemanning_notifications_total{outcome="failed",recipient="operator"} 1`,
		`bemanning_effects_total{effect="sign_links",outcome="ok"} 1`,
		`bemanning_leads_total{outcome="created"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("scrape missing %q", want)
		}
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveSubmission("created", time.Second)
	m.RateLimit("apply", "admitted")
	m.Notification("applicant", "sent")
	m.Effect("x", "ok")
	m.ObserveLead("invalid")
}

func TestMiddlewareUsesRoutePattern(t *testing.T) {
	m := New()
	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/jobs/{id}", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) })

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/jobs/42", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nope", nil))

	if got := testutil.ToFloat64(m.HTTPRequests.WithLabelValues("GET", "/jobs/{id}", "204")); got != 1 {
		t.Fatalf("route counter = %v", got)
	}
	if got := testutil.ToFloat64(m.HTTPRequests.WithLabelValues("GET", "unmatched", "404")); got != 1 {
		t.Fatalf("unmatched counter = %v", got)
	}
}
