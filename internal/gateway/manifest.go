package gateway

import (
	"net/http"

	"github.com/agentese/logos/internal/agenteseerr"
	"github.com/agentese/logos/internal/observer"
	"github.com/agentese/logos/internal/registry"
)

func aspectNames(aspects []registry.Aspect) []string {
	out := make([]string, 0, len(aspects))
	for _, a := range aspects {
		out = append(out, a.Name)
	}
	return out
}

// manifestHandler answers `GET /{prefix}/{path}/manifest`: the node's full
// declared metadata, independent of the requesting observer's affordances.
func (rt *Router) manifestHandler(w http.ResponseWriter, r *http.Request) {
	handle := chiPathParam(r)
	meta, ok := rt.Nodes.Get(handle)
	if !ok {
		writeError(w, agenteseerr.NewPathNotFoundError(handle, nil))
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"path":      meta.Path,
		"singleton": meta.Singleton,
		"lazy":      meta.Lazy,
		"aspects":   aspectNames(meta.Aspects),
		"contracts": meta.Contracts,
		"examples":  meta.Examples,
	})
}

// affordancesHandler answers `GET /{prefix}/{path}/affordances`: the
// aspect names actually usable by the requesting observer, sorted for
// deterministic output.
func (rt *Router) affordancesHandler(w http.ResponseWriter, r *http.Request) {
	handle := chiPathParam(r)
	meta, ok := rt.Nodes.Get(handle)
	if !ok {
		writeError(w, agenteseerr.NewPathNotFoundError(handle, nil))
		return
	}

	obs := observerFromContext(r)
	names := observer.Affordances(meta.Aspects, rt.Logos.Archetypes, obs)
	writeJSON(w, http.StatusOK, map[string]any{
		"affordances": observer.SortedAffordanceNames(names),
	})
}
