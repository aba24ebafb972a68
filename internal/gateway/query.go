package gateway

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/agentese/logos/internal/observer"
	"github.com/agentese/logos/pkg/middleware"
)

// queryHandler answers `GET /{prefix}/query` — the HTTP projection of the
// programmatic `query(pattern, limit, offset, tenant?, observer?,
// capability_check?, dry_run?) -> QueryResult` operation.
// `pattern` matches registered paths by substring; `capability_check=true`
// additionally drops any path the resolved observer has no affordance on.
// `dry_run=true` reports the match count without the path list.
func (rt *Router) queryHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	pattern := q.Get("pattern")
	limit := queryInt(q, "limit", 50)
	offset := queryInt(q, "offset", 0)
	tenant := middleware.GetTenant(r.Context())
	capabilityCheck := q.Get("capability_check") == "true"
	dryRun := q.Get("dry_run") == "true"
	obs := observerFromContext(r)

	matched := make([]string, 0)
	for _, p := range rt.Nodes.ListPaths("") {
		if pattern != "" && !strings.Contains(p, pattern) {
			continue
		}
		if capabilityCheck {
			meta, ok := rt.Nodes.Get(p)
			if !ok || len(observer.Affordances(meta.Aspects, rt.Logos.Archetypes, obs)) == 0 {
				continue
			}
		}
		matched = append(matched, p)
	}

	total := len(matched)
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total || limit <= 0 {
		end = total
	}
	page := matched[offset:end]

	resp := map[string]any{"total": total, "tenant": tenant}
	if !dryRun {
		resp["paths"] = page
	}
	writeJSON(w, http.StatusOK, resp)
}

func queryInt(q map[string][]string, key string, fallback int) int {
	v, ok := q[key]
	if !ok || len(v) == 0 {
		return fallback
	}
	n, err := strconv.Atoi(v[0])
	if err != nil {
		return fallback
	}
	return n
}
