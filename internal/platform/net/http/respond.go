// Package http writes JSON responses in the project envelope and serves the router
package http

import (
	"encoding/json"
	stdhttp "net/http"

	perr "bemanning/internal/platform/errors"
	pnet "bemanning/internal/platform/net"
)

// Envelope is the body every endpoint answers with
type Envelope struct {
	Success    bool              `json:"success"`
	StatusCode int               `json:"status_code"`
	Status     string            `json:"status"`
	Code       string            `json:"code,omitempty"`
	Error      string            `json:"error,omitempty"`
	Details    map[string]string `json:"details,omitempty"`
	RequestID  string            `json:"request_id,omitempty"`
	Data       any               `json:"data,omitempty"`
}

// JSON writes v as application/json with the given status
func JSON(w stdhttp.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// ErrorEnvelope maps err into a failure envelope
func ErrorEnvelope(r *stdhttp.Request, err error) Envelope {
	status := perr.HTTPStatus(err)
	wire := perr.WireFrom(err)
	if _, ok := perr.As(err); !ok {
		// foreign error text is internal detail
		wire.Message = stdhttp.StatusText(status)
	}
	return Envelope{
		StatusCode: status,
		Status:     stdhttp.StatusText(status),
		Code:       wire.Code.String(),
		Error:      wire.Message,
		Details:    wire.Details,
		RequestID:  pnet.RequestID(r.Context()),
	}
}

// WriteError writes err as a failure envelope
func WriteError(w stdhttp.ResponseWriter, r *stdhttp.Request, err error) {
	env := ErrorEnvelope(r, err)
	JSON(w, env.StatusCode, env)
}

// Response is what return style handlers hand back
type Response struct {
	Status int
	Body   any
	Header stdhttp.Header
}

// WithHeader returns a copy of resp carrying the extra headers
func (resp Response) WithHeader(h stdhttp.Header) Response {
	if len(h) == 0 {
		return resp
	}
	merged := resp.Header.Clone()
	if merged == nil {
		merged = stdhttp.Header{}
	}
	for k, vv := range h {
		for _, v := range vv {
			merged.Add(k, v)
		}
	}
	resp.Header = merged
	return resp
}

// Handle adapts a Response returning func to net/http
func Handle(h func(r *stdhttp.Request) Response) stdhttp.HandlerFunc {
	return func(w stdhttp.ResponseWriter, r *stdhttp.Request) {
		h(r).write(w, r)
	}
}

func (resp Response) write(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	for k, vv := range resp.Header {
		for _, v := range vv {
			w.Header().Add(k, v)
		}
	}

	if err, ok := resp.Body.(error); ok && err != nil {
		WriteError(w, r, err)
		return
	}

	status := resp.Status
	if status == 0 {
		status = stdhttp.StatusOK
	}
	if status == stdhttp.StatusNoContent {
		w.WriteHeader(status)
		return
	}
	JSON(w, status, Envelope{
		Success:    true,
		StatusCode: status,
		Status:     stdhttp.StatusText(status),
		RequestID:  pnet.RequestID(r.Context()),
		Data:       resp.Body,
	})
}

// OK returns a 200 response
func OK(data any) Response { return Response{Status: stdhttp.StatusOK, Body: data} }

// Created returns a 201 response
func Created(data any) Response { return Response{Status: stdhttp.StatusCreated, Body: data} }

// Error returns a response whose status and body come from err
func Error(err error) Response { return Response{Body: err} }
