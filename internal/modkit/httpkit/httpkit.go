// Package httpkit provides handler and routing helpers that alias the platform http package
// use these from modules so they do not import internal/platform/net/http directly
package httpkit

import (
	"net/http"

	phttp "bemanning/internal/platform/net/http"
)

type (
	// Envelope is the transport envelope type
	Envelope = phttp.Envelope

	// Response is the HTTP response type
	Response = phttp.Response

	// Handler is the platform handler type
	Handler = phttp.Handler

	// Router is a re-export of the platform router seam
	Router = phttp.Router
)

// OK returns a 200 response
func OK(data any) Response { return phttp.OK(data) }

// Created returns a 201 response
func Created(data any) Response { return phttp.Created(data) }

// Error returns a response that maps an error to status and envelope
func Error(err error) Response { return phttp.Error(err) }

// Respond mounts a Response returning handler under method and path
func Respond(r Router, method, path string, fn func(*http.Request) Response) {
	h := phttp.Handle(fn)
	switch method {
	case http.MethodGet:
		r.Get(path, h)
	case http.MethodPost:
		r.Post(path, h)
	case http.MethodPut:
		r.Put(path, h)
	case http.MethodPatch:
		r.Patch(path, h)
	case http.MethodDelete:
		r.Delete(path, h)
	case http.MethodOptions:
		r.Options(path, h)
	default:
		panic("httpkit: unsupported method " + method)
	}
}

// GetJSON mounts a body-less handler under GET answering 200
func GetJSON(r Router, path string, h func(*http.Request) (any, error)) {
	r.Get(path, phttp.NoBodyHandler(h))
}
