// Package swaggerkit mounts Swagger UI over the embedded OpenAPI document
package swaggerkit

import (
	"net/http"

	phttp "bemanning/internal/platform/net/http"

	httpSwagger "github.com/swaggo/http-swagger"
)

const docsRoot = "/api/docs"

// Mount serves the UI under /api/docs/ and the document at /api/docs/doc.json
// nothing is mounted when enabled is false
func Mount(r phttp.Router, enabled bool) {
	if !enabled {
		return
	}
	r.Get(docsRoot, func(w http.ResponseWriter, req *http.Request) {
		http.Redirect(w, req, docsRoot+"/", http.StatusPermanentRedirect)
	})
	r.Get(docsRoot+"/doc.json", serveDocJSON())
	r.Handle(docsRoot+"/*", httpSwagger.Handler(
		httpSwagger.URL(docsRoot+"/doc.json"),
		httpSwagger.DocExpansion("list"),
		httpSwagger.DeepLinking(true),
	))
}
