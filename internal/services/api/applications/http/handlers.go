// Package http provides the application submission transport
package http

import (
	stdhttp "net/http"

	"bemanning/internal/modkit/httpkit"
	pnet "bemanning/internal/platform/net"
	phttp "bemanning/internal/platform/net/http"
	"bemanning/internal/platform/net/http/bind"
	"bemanning/internal/services/api/applications/domain"
	svc "bemanning/internal/services/api/applications/service"
)

// Register mounts the routes, guard wraps state changing routes
func Register(r httpkit.Router, s svc.Service, guard func(stdhttp.Handler) stdhttp.Handler) {
	h := &handlers{svc: s}
	rr := r
	if guard != nil {
		rr = r.With(guard)
	}
	httpkit.Respond(rr, stdhttp.MethodPost, "/", h.submit)
}

type handlers struct{ svc svc.Service }

// swagger:route POST /applications Applications submit
// @Summary Submit a job application
// @Tags applications
// @Accept json
// @Produce json
// @Param X-CSRF-Token header string true "anti forgery token"
// @Param payload body domain.SubmitInput true "Application"
// @Success 201 {object} domain.SubmitOutput "created"
// @Failure 400,401,403,404,409,429,500 {object} phttp.Envelope
// @Router /applications [post]
func (h *handlers) submit(r *stdhttp.Request) phttp.Response {
	meta := domain.Meta{
		ClientIP:         pnet.ClientIP(r),
		UserAgent:        r.UserAgent(),
		RequestID:        pnet.RequestID(r.Context()),
		SessionCandidate: pnet.SessionCandidate(r.Context()),
	}
	res, err := h.svc.Submit(r.Context(), meta, func() (domain.SubmitInput, error) {
		return bind.ParseJSON[domain.SubmitInput](r)
	})

	var resp phttp.Response
	if err != nil {
		resp = phttp.Error(err)
	} else {
		resp = phttp.Created(res.Output)
	}
	if res.Checked {
		resp = resp.WithHeader(res.Decision.Headers())
	}
	return resp
}
