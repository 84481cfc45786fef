// Package net holds request scoped values shared by transports
package net

import (
	"context"
	stdnet "net"
	"net/http"
	"strings"

	chimw "github.com/go-chi/chi/v5/middleware"
)

type ctxKey string

const keySessionCandidate ctxKey = "session_candidate"

// RequestID returns the chi request id on ctx, empty if none
func RequestID(ctx context.Context) string { return chimw.GetReqID(ctx) }

// WithRequestID sets the request id the way chi's RequestID middleware does
func WithRequestID(ctx context.Context, reqID string) context.Context {
	if reqID == "" {
		return ctx
	}
	return context.WithValue(ctx, chimw.RequestIDKey, reqID)
}

// WithSessionCandidate records the candidate an authenticated session belongs to
func WithSessionCandidate(ctx context.Context, candidateID string) context.Context {
	if candidateID == "" {
		return ctx
	}
	return context.WithValue(ctx, keySessionCandidate, candidateID)
}

// SessionCandidate returns the session candidate id, empty for anonymous requests
func SessionCandidate(ctx context.Context) string {
	v, _ := ctx.Value(keySessionCandidate).(string)
	return v
}

// ClientIP returns the caller address without port
// RemoteAddr is already rewritten by RealIP when forwarded headers are trusted
func ClientIP(r *http.Request) string {
	addr := strings.TrimSpace(r.RemoteAddr)
	if host, _, err := stdnet.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}
