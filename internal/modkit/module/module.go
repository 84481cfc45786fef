// Package module holds helpers over modkit modules
package module

import phttp "bemanning/internal/platform/net/http"

// Module defines the minimal contract used by modkit
// keep this sibling to avoid import knots when a module also exports its own ports type
type Module interface {
	MountRoutes(r phttp.Router)
	Ports() any
	Name() string
}
