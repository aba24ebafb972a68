package gateway

import (
	"net/http"

	"github.com/agentese/logos/internal/observer"
)

// discoverHandler answers `GET /{prefix}/discover[?include_schemas&include_metadata]`
// with every path registered on the node registry, optionally including
// per-aspect contracts and node metadata.
func (rt *Router) discoverHandler(w http.ResponseWriter, r *http.Request) {
	includeSchemas := r.URL.Query().Has("include_schemas")
	includeMetadata := r.URL.Query().Has("include_metadata")

	paths := rt.Nodes.ListPaths("")

	resp := map[string]any{"paths": paths}

	if includeSchemas {
		schemas := map[string]any{}
		for _, p := range paths {
			if contracts := rt.Nodes.GetContracts(p); len(contracts) > 0 {
				schemas[p] = contracts
			}
		}
		resp["schemas"] = schemas
	}

	if includeMetadata {
		metadata := map[string]any{}
		for _, p := range paths {
			meta, ok := rt.Nodes.Get(p)
			if !ok {
				continue
			}
			metadata[p] = map[string]any{
				"singleton": meta.Singleton,
				"lazy":      meta.Lazy,
				"aspects":   observer.SortedAffordanceNames(aspectNames(meta.Aspects)),
				"examples":  meta.Examples,
			}
		}
		resp["metadata"] = metadata
	}

	writeJSON(w, http.StatusOK, resp)
}
