// Package http provides the contact form transport
package http

import (
	stdhttp "net/http"

	"bemanning/internal/modkit/httpkit"
	pnet "bemanning/internal/platform/net"
	phttp "bemanning/internal/platform/net/http"
	"bemanning/internal/platform/net/http/bind"
	"bemanning/internal/services/api/contact/domain"
	svc "bemanning/internal/services/api/contact/service"
)

// Register mounts POST / behind guard
func Register(r httpkit.Router, s svc.Service, guard func(stdhttp.Handler) stdhttp.Handler) {
	h := &handlers{svc: s}
	rr := r
	if guard != nil {
		rr = r.With(guard)
	}
	httpkit.Respond(rr, stdhttp.MethodPost, "/", h.submit)
}

type handlers struct{ svc svc.Service }

// swagger:route POST /contact Contact submit
// @Summary Send a contact request
// @Tags contact
// @Accept json
// @Produce json
// @Param X-CSRF-Token header string true "anti forgery token"
// @Param payload body domain.SubmitInput true "Lead"
// @Success 201 {object} domain.SubmitOutput "created"
// @Failure 400,403,429,500 {object} phttp.Envelope
// @Router /contact [post]
func (h *handlers) submit(r *stdhttp.Request) phttp.Response {
	meta := domain.Meta{
		ClientIP:  pnet.ClientIP(r),
		UserAgent: r.UserAgent(),
		RequestID: pnet.RequestID(r.Context()),
	}
	res, err := h.svc.Submit(r.Context(), meta, func() (domain.SubmitInput, error) {
		return bind.ParseJSON[domain.SubmitInput](r)
	})

	resp := phttp.Created(res.Output)
	if err != nil {
		resp = phttp.Error(err)
	}
	if res.Checked {
		resp = resp.WithHeader(res.Decision.Headers())
	}
	return resp
}
