package observer

import (
	"context"
	"fmt"

	"github.com/agentese/logos/internal/agenteseerr"
	"github.com/agentese/logos/internal/registry"
)

// AspectAgent is a composable, gated single-aspect invocation lens:
// `name = path + ":" + aspect`. Invoking it performs the same
// affordance-gated dispatch the resolver performs for a bare invoke.
type AspectAgent struct {
	Name      string
	path      string
	aspect    registry.Aspect
	allAspects []registry.Aspect
	archRegistry *ArchetypeRegistry
}

// NewAspectAgent builds a lens for a single aspect of a node.
func NewAspectAgent(path string, aspect registry.Aspect, allAspects []registry.Aspect, archRegistry *ArchetypeRegistry) AspectAgent {
	return AspectAgent{
		Name:         path + ":" + aspect.Name,
		path:         path,
		aspect:       aspect,
		allAspects:   allAspects,
		archRegistry: archRegistry,
	}
}

// Invoke runs the aspect handler after re-checking the observer's affordance,
// so a lens handed out once cannot later be used to bypass gating.
func (a AspectAgent) Invoke(ctx context.Context, obs Observer, kwargs map[string]any) (any, error) {
	if !HasAffordance(a.allAspects, a.archRegistry, obs, a.aspect.Name) {
		return nil, agenteseerr.NewAffordanceError(a.path, a.aspect.Name, obs.Archetype)
	}
	if a.aspect.Handler == nil {
		return nil, fmt.Errorf("observer: aspect %s has no handler", a.Name)
	}
	return a.aspect.Handler(ctx, obs.Archetype, kwargs)
}

// Agent is an agent-shaped invocable. ComposedAspectAgent chains two of
// them, forming a monoid under composition with left/right identity (the
// identity agent simply passes its input through).
type Agent interface {
	Invoke(ctx context.Context, obs Observer, input map[string]any) (any, error)
}

// identityAgent is the left/right identity element of the AspectAgent monoid.
type identityAgent struct{}

func (identityAgent) Invoke(ctx context.Context, obs Observer, input map[string]any) (any, error) {
	return input, nil
}

// Identity is the shared identity agent instance.
var Identity Agent = identityAgent{}

// ComposedAspectAgent represents `first >> second`.
type ComposedAspectAgent struct {
	First  Agent
	Second Agent
}

func (c ComposedAspectAgent) Invoke(ctx context.Context, obs Observer, input map[string]any) (any, error) {
	mid, err := c.First.Invoke(ctx, obs, input)
	if err != nil {
		return nil, err
	}
	midMap, ok := mid.(map[string]any)
	if !ok {
		midMap = map[string]any{"value": mid}
	}
	return c.Second.Invoke(ctx, obs, midMap)
}

// Compose builds `first >> second`, collapsing identities so that
// `Compose(Identity, f) == f` and `Compose(f, Identity) == f` by
// construction rather than by a runtime equality check.
func Compose(first, second Agent) Agent {
	if _, ok := first.(identityAgent); ok {
		return second
	}
	if _, ok := second.(identityAgent); ok {
		return first
	}
	return ComposedAspectAgent{First: first, Second: second}
}
