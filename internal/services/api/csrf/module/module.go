// Package module wires anti forgery tokens into the API using modkit
package module

import (
	"net/http"

	modkit "bemanning/internal/modkit"
	phttp "bemanning/internal/platform/net/http"
	chttp "bemanning/internal/services/api/csrf/http"
	csvc "bemanning/internal/services/api/csrf/service"
)

// Ports are what other modules consume
type Ports struct {
	// Guard rejects state changing requests without a valid token
	Guard func(http.Handler) http.Handler
}

// Module implements the csrf API module
type Module struct {
	b     modkit.Built
	svc   csvc.Service
	ports Ports
}

// New constructs the module, CSRF_SECRET and CSRF_TTL come from deps.Cfg
func New(deps modkit.Deps, opts ...modkit.Option) modkit.Module {
	b := modkit.Build(append([]modkit.Option{
		modkit.WithName("csrf"),
		modkit.WithPrefix("/csrf"),
	}, opts...)...)

	cc := deps.Cfg.Prefix("CSRF_")
	s := csvc.New(csvc.Options{
		Secret:  cc.MayString("SECRET", ""),
		TTL:     cc.MayDuration("TTL", 0),
		Limiter: deps.Limiter,
	})
	return &Module{b: b, svc: s, ports: Ports{Guard: chttp.RequireToken(s)}}
}

// MountRoutes mounts GET /csrf
func (m *Module) MountRoutes(r phttp.Router) {
	modkit.Mount(r, m.b, func(rr phttp.Router) { chttp.Register(rr, m.svc) })
}

// Ports exposes the Guard
func (m *Module) Ports() any { return m.ports }

// Name returns the module name
func (m *Module) Name() string { return m.b.Name }
