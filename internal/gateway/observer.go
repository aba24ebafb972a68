package gateway

import (
	"net/http"
	"strings"

	"github.com/agentese/logos/internal/observer"
)

// ExtractObserver builds an Observer from request headers:
// X-Observer-Archetype and X-Observer-Capabilities (comma-joined); the
// body never carries observer identity. Follows the same
// header-priority-then-default shape as a tenant extractor.
func ExtractObserver(r *http.Request) observer.Observer {
	archetype := strings.TrimSpace(r.Header.Get("X-Observer-Archetype"))
	if archetype == "" {
		archetype = "guest"
	}

	caps := map[string]bool{}
	if raw := r.Header.Get("X-Observer-Capabilities"); raw != "" {
		for _, c := range strings.Split(raw, ",") {
			if name := strings.TrimSpace(c); name != "" {
				caps[name] = true
			}
		}
	}

	return observer.Observer{
		Archetype:    archetype,
		Capabilities: caps,
		ID:           strings.TrimSpace(r.Header.Get("X-Observer-Id")),
	}
}
