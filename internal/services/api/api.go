// Package api composes the HTTP modules into the versioned API
package api

import (
	"bemanning/internal/modkit"
	"bemanning/internal/modkit/httpkit"
	"bemanning/internal/modkit/module"
	"bemanning/internal/modkit/swaggerkit"
	phttp "bemanning/internal/platform/net/http"
	"bemanning/internal/platform/net/middleware"

	appmod "bemanning/internal/services/api/applications/module"
	contactmod "bemanning/internal/services/api/contact/module"
	csrfmod "bemanning/internal/services/api/csrf/module"
	metamod "bemanning/internal/services/api/meta/module"
)

// Options are the API options
type Options struct {
	Deps modkit.Deps

	// Session verifies the optional candidate bearer credential, nil keeps every caller anonymous
	Session middleware.SessionPort

	Stack          httpkit.StackOptions
	EnableSwagger  bool
	EnableProfiler bool
}

// Modules builds the API modules in mount order
// csrf is built first because applications and contact consume its Guard port
func Modules(opt Options) []module.Module {
	deps := opt.Deps
	csrf := csrfmod.New(deps)
	guard := module.MustPortsOf[csrfmod.Ports](csrf).Guard

	return []module.Module{
		metamod.New(deps),
		csrf,
		appmod.New(deps,
			modkit.WithPorts(appmod.Ports{Guard: guard}),
			modkit.WithMiddlewares(httpkit.Session(opt.Session)),
		),
		contactmod.New(deps, modkit.WithPorts(contactmod.Ports{Guard: guard})),
	}
}

// Mount mounts the API onto r
func Mount(r phttp.Router, opt Options) {
	swaggerkit.Mount(r, opt.EnableSwagger)
	phttp.MountProfiler(r, "/debug", opt.EnableProfiler)

	stack := httpkit.CommonStack(opt.Stack)
	if m := opt.Deps.Metrics; m != nil {
		r.Handle("/metrics", m.Handler())
		stack = append(stack, m.Middleware)
	}

	mods := Modules(opt)
	httpkit.MountAPIV1(r, stack, func(api httpkit.Router) {
		for _, m := range mods {
			m.MountRoutes(api)
		}
	})

}
