package swaggerkit

import (
	_ "embed"
	"encoding/json"
	"net/http"

	"bemanning/internal/platform/config"
)

//go:embed openapi.json
var openapiJSON string

// SpecMutator lets modules tweak the parsed spec before it is served
type SpecMutator func(map[string]any)

// mutators is the in process registry for spec mutators
var mutators []SpecMutator

// docReader is a seam so tests can inject invalid JSON
var docReader = func() string { return openapiJSON }

// Register adds a spec mutator
func Register(m SpecMutator) {
	if m != nil {
		mutators = append(mutators, m)
	}
}

// serveDocJSON serves the spec with the shared error envelope filled in
func serveDocJSON() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var spec map[string]any
		if err := json.Unmarshal([]byte(docReader()), &spec); err != nil {
			http.Error(w, "spec parse error", http.StatusInternalServerError)
			return
		}

		ensureServers(spec, "/api/v1")

		cfg := config.New().Prefix("CORE_API_")
		if v := cfg.MayString("DOCS_TITLE_SUFFIX", ""); v != "" {
			if info, ok := spec["info"].(map[string]any); ok {
				if title, ok := info["title"].(string); ok {
					info["title"] = title + " " + v
				}
			}
		}

		ensureErrorResponseDefinition(spec)
		addDefault(spec, "400", "Bad Request", map[string]any{
			"success":     false,
			"status_code": 400,
			"status":      "Bad Request",
			"code":        "validation",
			"error":       "Ett eller flere felt er ugyldige.",
			"details":     map[string]any{"coverLetter": "coverLetter must be at least 50 characters"},
			"request_id":  "579f33bf50b1/abc-000001",
		})
		addDefault(spec, "500", "Internal Server Error", map[string]any{
			"success":     false,
			"status_code": 500,
			"status":      "Internal Server Error",
			"code":        "configuration",
			"error":       "Tjenesten er midlertidig utilgjengelig. Prøv igjen senere.",
			"request_id":  "579f33bf50b1/abc-000001",
		})

		for _, m := range mutators {
			m(spec)
		}

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		_ = json.NewEncoder(w).Encode(spec)
	}
}

// ensureServers pins the OAS version the UI supports and adds a servers entry
func ensureServers(spec map[string]any, url string) {
	spec["openapi"] = "3.0.3"
	delete(spec, "swagger")
	if _, ok := spec["servers"]; !ok {
		spec["servers"] = []any{map[string]any{"url": url}}
	}
}

// ensureErrorResponseDefinition adds the failure envelope model if missing
// kept minimal so it does not drift from the runtime wire
func ensureErrorResponseDefinition(spec map[string]any) {
	comps, ok := spec["components"].(map[string]any)
	if !ok {
		comps = map[string]any{}
		spec["components"] = comps
	}
	schemas, ok := comps["schemas"].(map[string]any)
	if !ok {
		schemas = map[string]any{}
		comps["schemas"] = schemas
	}
	if _, ok := schemas["ErrorResponse"]; ok {
		return
	}
	schemas["ErrorResponse"] = map[string]any{
		"type":        "object",
		"description": "Failure envelope",
		"properties": map[string]any{
			"success":     map[string]any{"type": "boolean"},
			"status_code": map[string]any{"type": "integer", "format": "int32"},
			"status":      map[string]any{"type": "string"},
			"code":        map[string]any{"type": "string"},
			"error":       map[string]any{"type": "string"},
			"details":     map[string]any{"type": "object", "additionalProperties": map[string]any{"type": "string"}},
			"request_id":  map[string]any{"type": "string"},
		},
		"required": []any{"success", "status_code", "status", "error"},
	}
}

// addDefault injects a response for status into every operation lacking one
func addDefault(spec map[string]any, status, desc string, example map[string]any) {
	paths, ok := spec["paths"].(map[string]any)
	if !ok {
		return
	}
	resp := map[string]any{
		"description": desc,
		"content": map[string]any{
			"application/json": map[string]any{
				"schema":  map[string]any{"$ref": "#/components/schemas/ErrorResponse"},
				"example": example,
			},
		},
	}
	for _, p := range paths {
		node, ok := p.(map[string]any)
		if !ok {
			continue
		}
		for _, opAny := range node {
			op, ok := opAny.(map[string]any)
			if !ok {
				continue
			}
			responses, ok := op["responses"].(map[string]any)
			if !ok {
				responses = map[string]any{}
				op["responses"] = responses
			}
			if _, exists := responses[status]; !exists {
				responses[status] = resp
			}
		}
	}
}
