// Package module wires application submission into the API using modkit
package module

import (
	"net/http"
	"time"

	modkit "bemanning/internal/modkit"
	phttp "bemanning/internal/platform/net/http"
	ahttp "bemanning/internal/services/api/applications/http"
	arepo "bemanning/internal/services/api/applications/repo"
	asvc "bemanning/internal/services/api/applications/service"
)

// Ports are injected by the API composer
type Ports struct {
	// Guard rejects requests without a valid anti forgery token
	Guard func(http.Handler) http.Handler
}

// Module implements the applications API module
type Module struct {
	b   modkit.Built
	svc asvc.Service
	grd func(http.Handler) http.Handler
}

// New constructs the module from shared deps
func New(deps modkit.Deps, opts ...modkit.Option) modkit.Module {
	b := modkit.Build(append([]modkit.Option{
		modkit.WithName("applications"),
		modkit.WithPrefix("/applications"),
	}, opts...)...)

	var injected Ports
	if p, ok := b.Ports.(Ports); ok {
		injected = p
	}
	if injected.Guard == nil {
		panic("applications API module requires the anti forgery Guard port")
	}

	ac := deps.Cfg.Prefix("CORE_API_")
	opt := asvc.Options{
		Limiter:      deps.Limiter,
		Effects:      deps.Effects,
		Preflight:    deps.Missing,
		Production:   deps.Production,
		StoreTimeout: ac.MayDuration("STORE_TIMEOUT", 5*time.Second),
	}
	if deps.Signer != nil {
		opt.Signer = deps.Signer
		opt.LinkTTL = deps.Signer.TTL()
	}
	if deps.Notify != nil {
		opt.Notify = deps.Notify
	}
	if deps.Events != nil {
		opt.Events = deps.Events
	}
	if deps.Audit != nil {
		opt.Audit = deps.Audit
	}
	if deps.Metrics != nil {
		opt.Metrics = deps.Metrics
	}

	return &Module{
		b:   b,
		svc: asvc.New(deps.PG, arepo.NewPG(), opt),
		grd: injected.Guard,
	}
}

// MountRoutes mounts the module routes on the given router
func (m *Module) MountRoutes(r phttp.Router) {
	modkit.Mount(r, m.b, func(rr phttp.Router) { ahttp.Register(rr, m.svc, m.grd) })
}

// Ports exposes the submission service
func (m *Module) Ports() any { return m.svc }

// Name returns the module name
func (m *Module) Name() string { return m.b.Name }
