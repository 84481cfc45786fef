// Package module wires the contact form into the API using modkit
package module

import (
	"net/http"
	"time"

	modkit "bemanning/internal/modkit"
	phttp "bemanning/internal/platform/net/http"
	chttp "bemanning/internal/services/api/contact/http"
	crepo "bemanning/internal/services/api/contact/repo"
	csvc "bemanning/internal/services/api/contact/service"
)

// Ports are injected by the API composer
type Ports struct {
	Guard func(http.Handler) http.Handler
}

// Module implements the contact API module
type Module struct {
	b   modkit.Built
	svc csvc.Service
	grd func(http.Handler) http.Handler
}

// New constructs the module from shared deps
func New(deps modkit.Deps, opts ...modkit.Option) modkit.Module {
	b := modkit.Build(append([]modkit.Option{
		modkit.WithName("contact"),
		modkit.WithPrefix("/contact"),
	}, opts...)...)

	p, _ := b.Ports.(Ports)
	if p.Guard == nil {
		panic("contact API module requires the anti forgery Guard port")
	}

	opt := csvc.Options{
		Limiter:      deps.Limiter,
		Effects:      deps.Effects,
		Preflight:    deps.Missing,
		Production:   deps.Production,
		StoreTimeout: deps.Cfg.Prefix("CORE_API_").MayDuration("STORE_TIMEOUT", 5*time.Second),
	}
	if deps.Notify != nil {
		opt.Notify = deps.Notify
	}
	if deps.Audit != nil {
		opt.Audit = deps.Audit
	}
	if deps.Metrics != nil {
		opt.Metrics = deps.Metrics
	}

	return &Module{b: b, svc: csvc.New(deps.PG, crepo.NewPG(), opt), grd: p.Guard}
}

// MountRoutes mounts the module routes
func (m *Module) MountRoutes(r phttp.Router) {
	modkit.Mount(r, m.b, func(rr phttp.Router) { chttp.Register(rr, m.svc, m.grd) })
}

// Ports exposes the contact service
func (m *Module) Ports() any { return m.svc }

// Name returns the module name
func (m *Module) Name() string { return m.b.Name }
