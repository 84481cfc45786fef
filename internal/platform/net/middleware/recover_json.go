package middleware

import (
	stdhttp "net/http"
	"runtime/debug"

	perr "bemanning/internal/platform/errors"
	"bemanning/internal/platform/logger"
	pnet "bemanning/internal/platform/net"
	phttp "bemanning/internal/platform/net/http"
)

// MsgPanic is what callers see when a handler panics
const MsgPanic = "Noe gikk galt. Prøv igjen senere."

// RecoverJSON turns a panic into a JSON 500 envelope and logs the stack
func RecoverJSON(next stdhttp.Handler) stdhttp.Handler {
	return stdhttp.HandlerFunc(func(w stdhttp.ResponseWriter, r *stdhttp.Request) {
		defer func() {
			v := recover()
			if v == nil {
				return
			}
			if v == stdhttp.ErrAbortHandler {
				panic(v)
			}
			logger.C(r.Context()).Error().
				Interface("panic", v).
				Bytes("stack", debug.Stack()).
				Msg("panic recovered")

			if id := pnet.RequestID(r.Context()); id != "" {
				w.Header().Set("X-Request-Id", id)
			}
			phttp.WriteError(w, r, perr.New(perr.ErrorCodePanic, MsgPanic))
		}()
		next.ServeHTTP(w, r)
	})
}
