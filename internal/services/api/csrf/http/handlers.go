// Package http provides the anti forgery transport
package http

import (
	stdhttp "net/http"

	"bemanning/internal/modkit/httpkit"
	pnet "bemanning/internal/platform/net"
	phttp "bemanning/internal/platform/net/http"
	"bemanning/internal/services/api/csrf/domain"
	svc "bemanning/internal/services/api/csrf/service"
)

// Register mounts GET / for token issuance
func Register(r httpkit.Router, s svc.Service) {
	h := &handlers{svc: s}
	httpkit.Respond(r, stdhttp.MethodGet, "/", h.issue)
}

type handlers struct{ svc svc.Service }

// swagger:route GET /csrf CSRF issue
// @Summary Issue an anti forgery token
// @Tags csrf
// @Produce json
// @Success 200 {object} domain.Token
// @Failure 429,503 {object} phttp.Envelope
// @Router /csrf [get]
func (h *handlers) issue(r *stdhttp.Request) phttp.Response {
	res, err := h.svc.Issue(r.Context(), pnet.ClientIP(r))
	resp := phttp.OK(res.Output)
	if err != nil {
		resp = phttp.Error(err)
	}
	if res.Checked {
		resp = resp.WithHeader(res.Decision.Headers())
	}
	return resp
}

// RequireToken answers 403 unless X-CSRF-Token verifies
func RequireToken(s svc.Service) func(stdhttp.Handler) stdhttp.Handler {
	return func(next stdhttp.Handler) stdhttp.Handler {
		return stdhttp.HandlerFunc(func(w stdhttp.ResponseWriter, r *stdhttp.Request) {
			if err := s.Verify(r.Context(), r.Header.Get(domain.HeaderToken)); err != nil {
				phttp.WriteError(w, r, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
