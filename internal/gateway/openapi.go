package gateway

import "net/http"

// openapiHandler answers `GET /{prefix}/openapi.json` with an OpenAPI 3.1
// projection of every registered node's aspects. This is a minimal,
// schema-less projection — full JSON Schema generation from
// registry.Contract fields is left to SDK codegen tooling outside this
// service; this gateway is not a schema/codegen tool.
func (rt *Router) openapiHandler(w http.ResponseWriter, r *http.Request) {
	paths := map[string]any{}
	for _, p := range rt.Nodes.ListPaths("") {
		meta, ok := rt.Nodes.Get(p)
		if !ok {
			continue
		}
		item := map[string]any{}
		for _, a := range meta.Aspects {
			route := "/" + p + "/" + a.Name
			op := map[string]any{
				"summary":  p + ":" + a.Name,
				"tags":     []string{string(a.Category)},
				"responses": map[string]any{
					"200": map[string]any{"description": "ok"},
					"404": map[string]any{"description": "path not found"},
					"403": map[string]any{"description": "affordance denied"},
					"429": map[string]any{"description": "budget exhausted"},
				},
			}
			item[route] = map[string]any{"get": op, "post": op}
		}
		for route, ops := range item {
			paths[route] = ops
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"openapi": "3.1.0",
		"info":    map[string]any{"title": "agentese", "version": rt.Version},
		"paths":   paths,
	})
}
