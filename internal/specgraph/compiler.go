package specgraph

import (
	"context"
	"fmt"
)

// AspectHandler is the generated signature for a compiled aspect: pure
// between calls given the same kwargs and dependency snapshot.
type AspectHandler func(ctx context.Context, observerArchetype string, kwargs map[string]any) (any, error)

// CompiledNode is the output of Compile: a constructor plus per-aspect
// handlers, ready to hot-mount into a node registry.
type CompiledNode struct {
	Path         string
	Dependencies []string
	Handlers     map[string]AspectHandler
	Aspects      []AspectSpec
}

// Affordances returns the aspect names this compiled node exposes — the
// generated node's own `affordances(observer)` obligation before archetype
// filtering is applied by the observer package.
func (c *CompiledNode) Affordances() []string {
	names := make([]string, 0, len(c.Aspects))
	for _, a := range c.Aspects {
		names = append(names, a.Name)
	}
	return names
}

// Lens returns the handler for a named aspect, or false if undeclared.
func (c *CompiledNode) Lens(aspect string) (AspectHandler, bool) {
	h, ok := c.Handlers[aspect]
	return h, ok
}

// Compile emits a CompiledNode from a ParsedSpec. Each aspect's handler is
// a referentially-pure stub that echoes its kwargs tagged with the
// aspect's declared effects; real nodes replace the stub via
// WithHandler before mounting — Compile's job is to produce a
// structurally sound node that satisfies the category laws on first
// invocation, not business logic.
func Compile(spec *ParsedSpec) (*CompiledNode, error) {
	if spec.Path == "" {
		return nil, fmt.Errorf("specgraph: cannot compile a spec with no path")
	}

	node := &CompiledNode{
		Path:    spec.Path,
		Handlers: make(map[string]AspectHandler),
		Aspects: spec.Aspects,
	}
	if spec.Service != nil {
		node.Dependencies = spec.Service.Dependencies
	}

	for _, aspect := range spec.Aspects {
		aspect := aspect
		node.Handlers[aspect.Name] = func(ctx context.Context, observerArchetype string, kwargs map[string]any) (any, error) {
			out := map[string]any{"aspect": aspect.Name, "effects": aspect.Effects}
			for k, v := range kwargs {
				out[k] = v
			}
			return out, nil
		}
	}
	return node, nil
}

// WithHandler replaces a compiled stub with a real implementation,
// returning an error if the aspect was never declared for this node.
func (c *CompiledNode) WithHandler(aspect string, h AspectHandler) error {
	if _, ok := c.Handlers[aspect]; !ok {
		return fmt.Errorf("specgraph: aspect %q not declared for %s", aspect, c.Path)
	}
	c.Handlers[aspect] = h
	return nil
}
