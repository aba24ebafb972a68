// Package lattice implements AGENTESE's Lattice Consistency Checker:
// parent-lineage resolution, depth computation, DAG cycle detection, and
// affordance/constraint intersection for concept creation.
package lattice

import (
	"context"
	"sync"

	"github.com/agentese/logos/internal/agenteseerr"
	"golang.org/x/sync/errgroup"
)

// Concept is a single node in the lattice: a handle with its resolved
// parents, depth, affordances, and constraints.
type Concept struct {
	Handle       string
	Parents      []string
	Children     []string
	Depth        int
	Affordances  map[string]struct{}
	Constraints  map[string]struct{}
}

// ConsistencyResult is the outcome of a lattice consistency check.
type ConsistencyResult struct {
	OK      bool
	Concept *Concept
}

// Success builds a passing ConsistencyResult.
func Success(c *Concept) ConsistencyResult { return ConsistencyResult{OK: true, Concept: c} }

// Lattice holds the set of known concepts and their lineages in an
// in-memory map; it provides no serialization or deserialization of it.
type Lattice struct {
	mu       sync.RWMutex
	concepts map[string]*Concept
	lineageResolver LineageResolver
}

// LineageResolver resolves a parent handle to its already-registered
// Concept, or reports it missing. In-process lattices resolve against
// their own `concepts` map; a distributed deployment could resolve
// against a shared store instead.
type LineageResolver func(ctx context.Context, handle string) (*Concept, bool)

// New constructs an empty Lattice. If resolver is nil, parent lookups use
// the lattice's own in-memory concept map.
func New(resolver LineageResolver) *Lattice {
	l := &Lattice{concepts: make(map[string]*Concept)}
	if resolver != nil {
		l.lineageResolver = resolver
	} else {
		l.lineageResolver = l.resolveLocal
	}
	return l
}

func (l *Lattice) resolveLocal(_ context.Context, handle string) (*Concept, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	c, ok := l.concepts[handle]
	return c, ok
}

// Get returns a previously registered concept.
func (l *Lattice) Get(handle string) (*Concept, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	c, ok := l.concepts[handle]
	return c, ok
}

// Define runs the six-step consistency check and, on success, registers
// the new concept into the lattice.
func (l *Lattice) Define(ctx context.Context, handle string, parents, children []string, affordances, constraints map[string]struct{}) (ConsistencyResult, error) {
	resolved, err := l.resolveParents(ctx, parents)
	if err != nil {
		return ConsistencyResult{}, err
	}

	depth := 0
	for _, p := range resolved {
		if p.Depth+1 > depth {
			depth = p.Depth + 1
		}
	}

	if cyclePath, found := l.detectCycle(handle, parents); found {
		return ConsistencyResult{}, agenteseerr.NewLatticeError("cycle detected in proposed lineage", cyclePath)
	}

	intersectedAffordances := intersectAffordanceSets(resolved)
	if len(resolved) > 0 && len(intersectedAffordances) == 0 {
		return ConsistencyResult{}, agenteseerr.NewLatticeError("affordance intersection across parents is empty", nil)
	}

	intersectedConstraints := intersectConstraintSets(resolved)
	if len(resolved) > 0 && len(intersectedConstraints) == 0 {
		return ConsistencyResult{}, agenteseerr.NewLatticeError("constraint intersection across parents is empty", nil)
	}

	concept := &Concept{
		Handle:      handle,
		Parents:     parents,
		Children:    children,
		Depth:       depth,
		Affordances: mergeSets(intersectedAffordances, affordances),
		Constraints: mergeSets(intersectedConstraints, constraints),
	}

	l.mu.Lock()
	l.concepts[handle] = concept
	l.mu.Unlock()

	return Success(concept), nil
}

// resolveParents resolves every parent handle concurrently via errgroup,
// rejecting with LineageError naming the first missing parent encountered.
func (l *Lattice) resolveParents(ctx context.Context, parents []string) ([]*Concept, error) {
	resolved := make([]*Concept, len(parents))
	g, gctx := errgroup.WithContext(ctx)

	for i, handle := range parents {
		i, handle := i, handle
		g.Go(func() error {
			c, ok := l.lineageResolver(gctx, handle)
			if !ok {
				return agenteseerr.NewLineageError(handle, []string{handle})
			}
			resolved[i] = c
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return resolved, nil
}

// detectCycle walks the proposed edge (handle -> parents) against the
// existing lattice to see whether any parent's own ancestry already
// contains handle, which would close a cycle. Returns the cycle path in
// creation order, e.g. ["concept.fruit", "concept.fig", "concept.fruit"].
func (l *Lattice) detectCycle(handle string, parents []string) ([]string, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	for _, parent := range parents {
		if path, found := l.ancestorPathTo(parent, handle, map[string]bool{}); found {
			full := append([]string{handle}, path...)
			return full, true
		}
	}
	return nil, false
}

// ancestorPathTo returns the path from `from` up through its ancestors to
// `target`, if `target` appears anywhere in from's lineage.
func (l *Lattice) ancestorPathTo(from, target string, visited map[string]bool) ([]string, bool) {
	if from == target {
		return []string{from}, true
	}
	if visited[from] {
		return nil, false
	}
	visited[from] = true

	c, ok := l.concepts[from]
	if !ok {
		return nil, false
	}
	for _, p := range c.Parents {
		if path, found := l.ancestorPathTo(p, target, visited); found {
			return append([]string{from}, path...), true
		}
	}
	return nil, false
}

func intersectAffordanceSets(concepts []*Concept) map[string]struct{} {
	return intersectSets(concepts, func(c *Concept) map[string]struct{} { return c.Affordances })
}

func intersectConstraintSets(concepts []*Concept) map[string]struct{} {
	return intersectSets(concepts, func(c *Concept) map[string]struct{} { return c.Constraints })
}

func intersectSets(concepts []*Concept, pick func(*Concept) map[string]struct{}) map[string]struct{} {
	if len(concepts) == 0 {
		return map[string]struct{}{}
	}
	result := cloneSet(pick(concepts[0]))
	for _, c := range concepts[1:] {
		next := pick(c)
		for k := range result {
			if _, ok := next[k]; !ok {
				delete(result, k)
			}
		}
	}
	return result
}

func cloneSet(s map[string]struct{}) map[string]struct{} {
	out := make(map[string]struct{}, len(s))
	for k := range s {
		out[k] = struct{}{}
	}
	return out
}

func mergeSets(a, b map[string]struct{}) map[string]struct{} {
	out := cloneSet(a)
	for k := range b {
		out[k] = struct{}{}
	}
	return out
}
