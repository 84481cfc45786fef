package middleware

import (
	"net/http"

	pnet "bemanning/internal/platform/net"
	phttp "bemanning/internal/platform/net/http"
)

// SessionPort resolves the candidate behind an optional session credential
type SessionPort interface {
	// Candidate returns ok=false when the request carries no credential
	// and an error when it carries one that does not verify
	Candidate(r *http.Request) (candidateID string, ok bool, err error)
}

// Session records the session candidate on the context when one is presented
// anonymous requests pass through, bad credentials are answered with the port's error
func Session(p SessionPort) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if p == nil {
				next.ServeHTTP(w, r)
				return
			}
			id, ok, err := p.Candidate(r)
			if err != nil {
				phttp.WriteError(w, r, err)
				return
			}
			if ok {
				r = r.WithContext(pnet.WithSessionCandidate(r.Context(), id))
			}
			next.ServeHTTP(w, r)
		})
	}
}
