// Package alias implements the AGENTESE alias registry: user-defined
// path-prefix substitution with reserved-root shadow protection, cycle
// detection, and human-editable YAML persistence.
package alias

import (
	"os"
	"strings"
	"sync"

	"github.com/agentese/logos/internal/agenteseerr"
	"github.com/agentese/logos/internal/path"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// Registry holds alias -> target bindings and expands prefixes longest-match-first.
type Registry struct {
	mu      sync.RWMutex
	targets map[string]string
}

// NewRegistry returns an empty alias registry.
func NewRegistry() *Registry {
	return &Registry{targets: map[string]string{}}
}

// Register binds alias -> target. Rejects reserved context roots and
// cycles that would form under repeated expansion.
func (r *Registry) Register(alias, target string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if path.ReservedContexts[alias] {
		return agenteseerr.NewAliasShadowError(alias)
	}

	trial := map[string]string{}
	for k, v := range r.targets {
		trial[k] = v
	}
	trial[alias] = target

	if chain, cyclic := detectCycle(trial, alias); cyclic {
		return agenteseerr.NewAliasRecursionError(chain)
	}

	r.targets[alias] = target
	return nil
}

// Unregister removes an alias binding.
func (r *Registry) Unregister(alias string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.targets[alias]; !ok {
		return agenteseerr.NewAliasNotFoundError(alias)
	}
	delete(r.targets, alias)
	return nil
}

// Expand performs longest-prefix substitution: the alias matching the
// longest leading dot-segment run of p is replaced by its target. Expansion
// is prefix-only — it never rewrites an aspect or mid-path segment.
func (r *Registry) Expand(p string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	best := ""
	bestTarget := ""
	for aliasName, target := range r.targets {
		if p == aliasName || strings.HasPrefix(p, aliasName+".") {
			if len(aliasName) > len(best) {
				best = aliasName
				bestTarget = target
			}
		}
	}
	if best == "" {
		return p
	}
	rest := strings.TrimPrefix(p, best)
	return bestTarget + rest
}

// List returns a snapshot of all alias -> target bindings.
func (r *Registry) List() map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]string, len(r.targets))
	for k, v := range r.targets {
		out[k] = v
	}
	return out
}

// Save persists the registry to a human-editable YAML file shaped as
// {alias: target, ...}.
func (r *Registry) Save(filePath string) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	data, err := yaml.Marshal(r.targets)
	if err != nil {
		return err
	}
	return os.WriteFile(filePath, data, 0o644)
}

// Load reads bindings from a YAML file, merging them into the registry.
// Load is idempotent: loading the same file twice leaves the registry in
// the same state. A missing file is not an error (treated as empty).
func (r *Registry) Load(filePath string) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	var parsed map[string]string
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for alias, target := range parsed {
		if path.ReservedContexts[alias] {
			log.Warn().Str("alias", alias).Msg("skipping reserved-root alias from file")
			continue
		}
		r.targets[alias] = target
	}
	return nil
}

// detectCycle walks the alias chain starting at start under a trial binding
// set, returning the cycle (as a printable chain) if expansion never
// terminates at a reserved context root within len(trial)+1 hops.
func detectCycle(bindings map[string]string, start string) ([]string, bool) {
	visited := map[string]bool{start: true}
	chain := []string{start}
	cur := start
	for i := 0; i <= len(bindings); i++ {
		next, ok := bindings[cur]
		if !ok {
			return nil, false
		}
		// Only the leading identifier segment of `next` can itself be an alias.
		head := next
		if idx := strings.IndexByte(next, '.'); idx >= 0 {
			head = next[:idx]
		}
		if path.ReservedContexts[head] {
			return nil, false
		}
		if visited[head] {
			chain = append(chain, head)
			return chain, true
		}
		visited[head] = true
		chain = append(chain, head)
		cur = head
	}
	return chain, true
}
