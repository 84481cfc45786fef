// Package http provides meta endpoints
package http

import (
	stdctx "context"
	"net/http"
	"sort"
	"time"

	"bemanning/internal/core/version"
	"bemanning/internal/modkit/httpkit"
)

// Checker reports per backend readiness, *store.Store satisfies it
type Checker interface {
	Check(ctx stdctx.Context) map[string]error
}

// Deps are the handler dependencies
type Deps struct {
	ServiceName string
	StartedAt   time.Time
	Store       Checker
	// Required names the backends whose failure makes the service not ready
	Required []string
}

type handlers struct {
	deps Deps
	now  func() time.Time
}

// Register mounts the meta routes
func Register(r httpkit.Router, d Deps) {
	h := &handlers{deps: d, now: time.Now}

	httpkit.GetJSON(r, "/health", h.health)
	httpkit.GetJSON(r, "/ready", h.ready)
	httpkit.GetJSON(r, "/version", h.version)
	httpkit.GetJSON(r, "/service", h.service)
}

// HealthResponse is the health payload
type HealthResponse struct {
	OK      bool   `json:"ok"      example:"true"`
	Service string `json:"service" example:"bemanning-api"`
	Started string `json:"started" example:"2026-03-01T09:00:00Z"`
	Now     string `json:"now"     example:"2026-03-01T09:05:00Z"`
}

// ReadyCheck describes a single dependency check
type ReadyCheck struct {
	Name   string `json:"name"   example:"postgres"`
	Status string `json:"status" example:"ok"` // ok fail skipped
	Error  string `json:"error,omitempty" example:"dial tcp 127.0.0.1:5432 connect: connection refused"`
}

// ReadyResponse summarizes readiness
type ReadyResponse struct {
	Status string       `json:"status" example:"ok"` // ok degraded fail
	Checks []ReadyCheck `json:"checks"`
	Now    string       `json:"now"    example:"2026-03-01T09:05:00Z"`
}

// ServiceResponse describes service info
type ServiceResponse struct {
	Name    string `json:"name"    example:"bemanning-api"`
	Started string `json:"started" example:"2026-03-01T09:00:00Z"`
	Uptime  int64  `json:"uptime"  example:"300"`
}

// swagger:route GET /meta/health Meta metaHealth
// @Summary Health check
// @Tags Meta
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /meta/health [get]
func (h *handlers) health(_ *http.Request) (any, error) {
	return HealthResponse{
		OK:      true,
		Service: h.deps.ServiceName,
		Started: h.deps.StartedAt.UTC().Format(time.RFC3339),
		Now:     h.now().UTC().Format(time.RFC3339),
	}, nil
}

// swagger:route GET /meta/ready Meta metaReady
// @Summary Readiness probe with dependency checks
// @Tags Meta
// @Produce json
// @Success 200 {object} ReadyResponse
// @Router /meta/ready [get]
func (h *handlers) ready(r *http.Request) (any, error) {
	ctx, cancel := stdctx.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	results := map[string]error{}
	if h.deps.Store != nil {
		results = h.deps.Store.Check(ctx)
	}

	names := make([]string, 0, len(results)+len(h.deps.Required))
	for n := range results {
		names = append(names, n)
	}
	required := map[string]bool{}
	for _, n := range h.deps.Required {
		required[n] = true
		if _, ok := results[n]; !ok {
			names = append(names, n)
		}
	}
	sort.Strings(names)

	overall := "ok"
	checks := make([]ReadyCheck, 0, len(names))
	for _, n := range names {
		c := ReadyCheck{Name: n, Status: "ok"}
		if err, ok := results[n]; !ok {
			c.Status = "skipped"
		} else if err != nil {
			c.Status, c.Error = "fail", err.Error()
		}
		switch {
		case c.Status == "ok":
		case required[n]:
			overall = "fail"
		case overall == "ok":
			overall = "degraded"
		}
		checks = append(checks, c)
	}

	return ReadyResponse{Status: overall, Checks: checks, Now: h.now().UTC().Format(time.RFC3339)}, nil
}

// swagger:route GET /meta/version Meta metaVersion
// @Summary Build and version info
// @Tags Meta
// @Produce json
// @Success 200 {object} version.BuildInfo
// @Router /meta/version [get]
func (h *handlers) version(_ *http.Request) (any, error) {
	return version.Info(), nil
}

// swagger:route GET /meta/service Meta metaService
// @Summary Service info and uptime
// @Tags Meta
// @Produce json
// @Success 200 {object} ServiceResponse
// @Router /meta/service [get]
func (h *handlers) service(_ *http.Request) (any, error) {
	return ServiceResponse{
		Name:    h.deps.ServiceName,
		Started: h.deps.StartedAt.UTC().Format(time.RFC3339),
		Uptime:  int64(h.now().Sub(h.deps.StartedAt) / time.Second),
	}, nil
}
