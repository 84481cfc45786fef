package modkit

import (
	"net/http"

	phttp "bemanning/internal/platform/net/http"
	pstrings "bemanning/internal/platform/strings"
)

// Built is a plain struct with the fields modules care about
type Built struct {
	Name     string
	Prefix   string
	Mw       []func(http.Handler) http.Handler
	Ports    any
	Register func(phttp.Router)
}

// Build applies Option funcs and returns a plain struct
// Register defaults to a no op
func Build(opts ...Option) Built {
	var c buildCfg
	for _, o := range opts {
		o(&c)
	}
	if c.register == nil {
		c.register = func(phttp.Router) {}
	}
	prefix := c.prefix
	if prefix != "" {
		prefix = pstrings.MustPrefix(prefix)
	}
	return Built{
		Name:     c.name,
		Prefix:   prefix,
		Mw:       append([]func(http.Handler) http.Handler(nil), c.mw...),
		Ports:    c.ports,
		Register: c.register,
	}
}

// Mount is the MountRoutes body every module shares
// it scopes b.Mw to b.Prefix and runs own then b.Register
func Mount(r phttp.Router, b Built, own func(phttp.Router)) {
	body := func(rr phttp.Router) {
		if len(b.Mw) > 0 {
			rr.Use(b.Mw...)
		}
		own(rr)
		b.Register(rr)
	}
	if b.Prefix == "" {
		r.Group(body)
		return
	}
	r.Route(b.Prefix, body)
}
