// Package observer implements AGENTESE's Observer & Affordances model:
// the frozen Observer record, the archetype DAG and its transitive
// affordance closure, per-observer affordance filtering, the composable
// AspectAgent lens, and the tagged-union rendering variants.
package observer

import (
	"sort"

	"github.com/agentese/logos/internal/registry"
)

// Observer is a frozen capability-gated caller identity. Observers never
// store state; they are passed to every invocation by value.
type Observer struct {
	Archetype    string
	Capabilities map[string]bool
	ID           string // optional
}

// Guest returns the zero-privilege observer.
func Guest() Observer {
	return Observer{Archetype: "guest", Capabilities: map[string]bool{}}
}

// HasCapability reports whether the observer carries capability name.
func (o Observer) HasCapability(name string) bool {
	return o.Capabilities != nil && o.Capabilities[name]
}

// ── Archetype Registry ──────────────────────────────────────

// ArchetypeNode is one entry in the archetype DAG: parents plus any
// affordances granted in addition to what parents already confer.
type ArchetypeNode struct {
	Name                  string
	Parents               []string
	AdditionalAffordances []string
}

// ArchetypeRegistry is a DAG `archetype -> parents[] + additional_affordances[]`.
type ArchetypeRegistry struct {
	nodes map[string]ArchetypeNode
}

// NewArchetypeRegistry seeds the standard archetypes: architect, poet,
// scientist, developer, admin, economist, philosopher, guest.
func NewArchetypeRegistry() *ArchetypeRegistry {
	r := &ArchetypeRegistry{nodes: map[string]ArchetypeNode{}}
	r.Register(ArchetypeNode{Name: "guest"})
	r.Register(ArchetypeNode{Name: "developer", Parents: []string{"guest"}, AdditionalAffordances: []string{"inspect", "debug"}})
	r.Register(ArchetypeNode{Name: "scientist", Parents: []string{"guest"}, AdditionalAffordances: []string{"observe", "measure"}})
	r.Register(ArchetypeNode{Name: "poet", Parents: []string{"guest"}, AdditionalAffordances: []string{"render_poetic"}})
	r.Register(ArchetypeNode{Name: "architect", Parents: []string{"developer"}, AdditionalAffordances: []string{"compose", "define_concept"}})
	r.Register(ArchetypeNode{Name: "economist", Parents: []string{"scientist"}, AdditionalAffordances: []string{"budget_inspect", "settle"}})
	r.Register(ArchetypeNode{Name: "philosopher", Parents: []string{"poet", "scientist"}, AdditionalAffordances: []string{"lineage_inspect"}})
	r.Register(ArchetypeNode{Name: "admin", Parents: []string{"architect", "economist"}, AdditionalAffordances: []string{"promote", "rollback"}})
	return r
}

// Register adds or replaces an archetype node.
func (r *ArchetypeRegistry) Register(n ArchetypeNode) {
	r.nodes[n.Name] = n
}

// Affordances computes the transitive closure of additional affordances
// granted to archetype (itself plus every ancestor).
func (r *ArchetypeRegistry) Affordances(archetype string) []string {
	seen := map[string]bool{}
	var out []string
	var walk func(name string)
	walk = func(name string) {
		if seen[name] {
			return
		}
		seen[name] = true
		n, ok := r.nodes[name]
		if !ok {
			return
		}
		out = append(out, n.AdditionalAffordances...)
		for _, p := range n.Parents {
			walk(p)
		}
	}
	walk(archetype)
	return out
}

// ── Affordance Matcher ──────────────────────────────────────

// Affordances computes affordances(node, observer):
//  1. base set from node metadata (declared aspect names, in order)
//  2. intersect with observer's transitive archetype affordances is NOT
//     applied here — archetype affordances gate non-aspect capabilities
//     (compose, define_concept, etc); aspects are instead gated by each
//     aspect's own RequiresArchetype / RequiredCapability declarations.
//  3. subtract aspects whose RequiredCapability is absent from the observer
//  4. subtract aspects whose RequiresArchetype excludes the observer's archetype
//
// Order-preserving: the node's declared aspect order is preserved.
func Affordances(aspects []registry.Aspect, archRegistry *ArchetypeRegistry, obs Observer) []string {
	var out []string
	for _, a := range aspects {
		if len(a.RequiresArchetype) > 0 && !archetypeAllowed(a.RequiresArchetype, obs.Archetype, archRegistry) {
			continue
		}
		if a.RequiredCapability != "" && !obs.HasCapability(a.RequiredCapability) {
			continue
		}
		out = append(out, a.Name)
	}
	return out
}

func archetypeAllowed(allowed []string, archetype string, reg *ArchetypeRegistry) bool {
	// the observer's archetype itself, or any ancestor in its DAG chain, may match
	chain := ancestorChain(reg, archetype)
	for _, a := range allowed {
		for _, c := range chain {
			if a == c {
				return true
			}
		}
	}
	return false
}

func ancestorChain(r *ArchetypeRegistry, archetype string) []string {
	seen := map[string]bool{}
	var out []string
	var walk func(name string)
	walk = func(name string) {
		if seen[name] {
			return
		}
		seen[name] = true
		out = append(out, name)
		if n, ok := r.nodes[name]; ok {
			for _, p := range n.Parents {
				walk(p)
			}
		}
	}
	walk(archetype)
	return out
}

// HasAffordance is a convenience check used by the resolver (module F).
func HasAffordance(aspects []registry.Aspect, archRegistry *ArchetypeRegistry, obs Observer, aspectName string) bool {
	for _, a := range Affordances(aspects, archRegistry, obs) {
		if a == aspectName {
			return true
		}
	}
	return false
}

// SortedAffordanceNames is a stable-sorted helper for API surfaces that need
// deterministic output (e.g. the gateway's /affordances endpoint), distinct
// from the order-preserving Affordances() used internally.
func SortedAffordanceNames(names []string) []string {
	out := append([]string(nil), names...)
	sort.Strings(out)
	return out
}
