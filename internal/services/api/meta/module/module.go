// Package module wires meta endpoints into the API using a tiny module
package module

import (
	"time"

	"bemanning/internal/core/version"
	modkit "bemanning/internal/modkit"
	phttp "bemanning/internal/platform/net/http"

	metahttp "bemanning/internal/services/api/meta/http"
)

// Module implements the modkit.Module interface
type Module struct {
	b    modkit.Built
	deps metahttp.Deps
}

// New constructs a meta module, postgres and redis gate readiness
func New(deps modkit.Deps, opts ...modkit.Option) modkit.Module {
	b := modkit.Build(append([]modkit.Option{
		modkit.WithName("meta"),
		modkit.WithPrefix("/meta"),
	}, opts...)...)

	return &Module{b: b, deps: metahttp.Deps{
		ServiceName: version.Info().Service,
		StartedAt:   time.Now(),
		Store:       deps.Store,
		Required:    []string{"postgres", "redis"},
	}}
}

// MountRoutes implements the modkit.Module interface
func (m *Module) MountRoutes(r phttp.Router) {
	modkit.Mount(r, m.b, func(rr phttp.Router) { metahttp.Register(rr, m.deps) })
}

// Name implements the modkit.Module interface
func (m *Module) Name() string { return m.b.Name }

// Ports implements the modkit.Module interface
func (m *Module) Ports() any { return nil }
