package httpkit

import (
	"compress/flate"
	"net/http"
	"time"

	"bemanning/internal/platform/net/middleware"
)

// StackOptions tunes CommonStack
type StackOptions struct {
	// TrustForwarded rewrites the client address from proxy headers
	TrustForwarded bool
	CORS           middleware.CORSOptions
	AccessLog      middleware.AccessLogOptions
	// Timeout cancels handlers, zero means 30s
	Timeout time.Duration
	// Extra runs last, after the built in middleware
	Extra []func(http.Handler) http.Handler
}

// CommonStack returns the baseline middleware chain in mount order
func CommonStack(o StackOptions) []func(http.Handler) http.Handler {
	if o.Timeout <= 0 {
		o.Timeout = 30 * time.Second
	}
	mw := []func(http.Handler) http.Handler{
		// tracing / correlation
		middleware.RequestID(),
	}
	if o.TrustForwarded {
		mw = append(mw, middleware.RealIP())
	}
	mw = append(mw,
		middleware.LogContext(),

		// safety
		middleware.RecoverJSON,

		// cache / freshness
		middleware.NoCache(),

		// observability
		middleware.AccessLogZerolog(o.AccessLog),

		middleware.CORS(o.CORS),
		middleware.Compress(flate.BestSpeed),
		middleware.Heartbeat("/health"),
		middleware.StripSlashes(),
		middleware.Timeout(o.Timeout),
	)
	return append(mw, o.Extra...)
}

// Session wires the optional candidate session middleware
func Session(p middleware.SessionPort) func(http.Handler) http.Handler {
	return middleware.Session(p)
}
