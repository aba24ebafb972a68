// Package registry implements AGENTESE's Node Registry & Contracts:
// decorator-time node registration keyed by canonical path, per-aspect
// contracts, and container-mediated resolution.
package registry

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/agentese/logos/internal/agenteseerr"
)

// AspectCategory is the category a node's aspect belongs to.
type AspectCategory string

const (
	CategoryPerception  AspectCategory = "perception"
	CategoryAction      AspectCategory = "action"
	CategoryComposition AspectCategory = "composition"
	CategoryMeta        AspectCategory = "meta"
	CategoryStream      AspectCategory = "stream"
	CategoryLifecycle   AspectCategory = "lifecycle"
)

// Effect is a declared side effect an aspect may have on a resource.
type Effect struct {
	Kind     string // e.g. "read", "write", "network", "economic"
	Resource string
}

// Aspect is the handler-attached metadata for a single named operation on a node.
type Aspect struct {
	Name               string
	Category           AspectCategory
	DeclaredEffects    []Effect
	RequiresArchetype  []string
	IdempotentFlag     bool
	Streaming          bool
	Interactive        bool
	BudgetEstimate     string // expr-lang expression string, evaluated by module H
	RequiredCapability string // empty if none required

	// Handler is invoked by the resolver. kwargs carries query/body params;
	// the return value is any Renderable-shaped value (module E projects it).
	Handler func(ctx context.Context, observerArchetype string, kwargs map[string]any) (any, error)
}

func (a Aspect) Idempotent() bool { return a.IdempotentFlag }

// Contract is the optional request/response descriptor for a (path, aspect)
// pair, used by schema generation, gateway validation, and SDK codegen.
type Contract struct {
	RequestFields  []Field
	ResponseFields []Field
}

// Field is one record field of a Contract's request/response schema. A
// contract without at least one response field is invalid — request and
// response types must be record types with declared fields.
type Field struct {
	Name     string
	Type     string
	Required bool
}

// Valid reports whether c has a non-empty response schema.
func (c Contract) Valid() bool {
	return len(c.ResponseFields) > 0
}

// Dependency declares a single named constructor dependency. Optional
// dependencies carry a Default used when the container cannot resolve them.
type Dependency struct {
	Name     string
	Optional bool
	Default  any
}

// NodeMetadata is attached to a node at registration time (the Go
// equivalent of decorator-time metadata attachment, e.g. a driver-kind
// registration call).
type NodeMetadata struct {
	Path         string // canonical context.holon handle
	Dependencies []Dependency
	Singleton    bool
	Lazy         bool
	Aspects      []Aspect // declared order preserved for affordance ordering
	Contracts    map[string]Contract // aspect name -> contract
	Examples     []string

	// Factory builds the node instance given resolved dependencies, keyed
	// by dependency name. Built nodes are plain `any`; module F type-asserts
	// only the shape it needs (AspectAgent lookups go through Aspects above).
	Factory func(deps map[string]any) (any, error)
}

// Registry is the global, write-mostly-at-startup node registry.
type Registry struct {
	mu      sync.RWMutex
	nodes   map[string]NodeMetadata
	decls   []NodeMetadata // insertion order, for repopulate()
}

// New returns an empty node registry.
func New() *Registry {
	return &Registry{nodes: map[string]NodeMetadata{}}
}

// Register attaches metadata to the registry, keyed by canonical path.
// Re-registering the same path overwrites it (hot JIT promotion, module J,
// relies on this).
func (r *Registry) Register(meta NodeMetadata) error {
	if meta.Path == "" {
		return fmt.Errorf("registry: node metadata missing path")
	}
	for aspectName, c := range meta.Contracts {
		if !c.Valid() {
			return fmt.Errorf("registry: contract for %s:%s has no response fields", meta.Path, aspectName)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.nodes[meta.Path] = meta
	r.decls = append(r.decls, meta)
	return nil
}

// Get returns the metadata for path, if registered.
func (r *Registry) Get(path string) (NodeMetadata, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.nodes[path]
	return m, ok
}

// Has reports whether path is registered.
func (r *Registry) Has(path string) bool {
	_, ok := r.Get(path)
	return ok
}

// ListPaths returns every registered path, optionally filtered by context
// prefix (e.g. "world").
func (r *Registry) ListPaths(contextFilter string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.nodes))
	for p := range r.nodes {
		if contextFilter == "" || hasContextPrefix(p, contextFilter) {
			out = append(out, p)
		}
	}
	sort.Strings(out)
	return out
}

func hasContextPrefix(p, ctx string) bool {
	return len(p) >= len(ctx) && p[:len(ctx)] == ctx &&
		(len(p) == len(ctx) || p[len(ctx)] == '.')
}

// GetContracts returns all per-aspect contracts declared for path.
func (r *Registry) GetContracts(path string) map[string]Contract {
	m, ok := r.Get(path)
	if !ok {
		return nil
	}
	return m.Contracts
}

// Clear empties the registry; used for test-time reset.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nodes = map[string]NodeMetadata{}
}

// Repopulate re-registers every previously declared node. Go has no
// decorator-time class scan to re-run, so the declaration list is kept
// around instead and replayed.
func (r *Registry) Repopulate() {
	r.mu.Lock()
	decls := append([]NodeMetadata(nil), r.decls...)
	r.mu.Unlock()
	for _, d := range decls {
		_ = r.Register(d)
	}
}

// Resolver is the narrow interface module D's container exposes to Resolve.
type Resolver interface {
	Resolve(ctx context.Context, name string) (any, error)
}

// Resolve instantiates path's node through its Factory on every call,
// resolving each declared dependency through container. The Singleton
// flag is not consulted and no instance is cached. Required
// dependencies that cannot be resolved fail hard; optional ones (those
// with a constructor default) are silently skipped.
func (r *Registry) Resolve(ctx context.Context, path string, container Resolver) (any, error) {
	meta, ok := r.Get(path)
	if !ok {
		return nil, agenteseerr.NewPathNotFoundError(path, nil)
	}

	deps := make(map[string]any, len(meta.Dependencies))
	for _, d := range meta.Dependencies {
		v, err := container.Resolve(ctx, d.Name)
		if err != nil {
			if d.Optional {
				deps[d.Name] = d.Default
				continue
			}
			return nil, agenteseerr.NewDependencyNotFoundError(d.Name)
		}
		deps[d.Name] = v
	}

	if meta.Factory == nil {
		return nil, fmt.Errorf("registry: node %s has no factory", path)
	}
	return meta.Factory(deps)
}

// Aspects returns the node's declared aspects in registration order.
func (r *Registry) Aspects(path string) []Aspect {
	m, ok := r.Get(path)
	if !ok {
		return nil
	}
	return m.Aspects
}

// FindAspect looks up a single named aspect on path.
func (r *Registry) FindAspect(path, aspect string) (Aspect, bool) {
	for _, a := range r.Aspects(path) {
		if a.Name == aspect {
			return a, true
		}
	}
	return Aspect{}, false
}
