// Package container implements AGENTESE's Service Container: named
// provider registration, lazy topological resolution, singleton
// caching, and cycle detection.
package container

import (
	"context"
	"sync"

	"github.com/agentese/logos/internal/agenteseerr"
	"golang.org/x/sync/singleflight"
)

// Provider constructs a value, given a resolve function for its own
// dependencies. Providers are async-shaped so they can themselves be
// async factories — expressed in Go as accepting a context and
// returning an error.
type Provider func(ctx context.Context, resolve func(ctx context.Context, name string) (any, error)) (any, error)

type registration struct {
	name      string
	provider  Provider
	singleton bool
	lazy      bool
}

// Container is the DI container. The zero value is not usable; use New().
type Container struct {
	mu          sync.Mutex
	regs        map[string]*registration
	cache       map[string]any
	resolving   map[string]bool // current resolution stack, for cycle detection
	group       singleflight.Group
}

// New returns an empty container.
func New() *Container {
	return &Container{
		regs:      map[string]*registration{},
		cache:     map[string]any{},
		resolving: map[string]bool{},
	}
}

// Register adds a named provider. If eager (lazy=false), the container
// resolves it immediately so startup errors surface early; lazy providers
// resolve on first Resolve() call.
func (c *Container) Register(ctx context.Context, name string, p Provider, singleton, lazy bool) error {
	c.mu.Lock()
	c.regs[name] = &registration{name: name, provider: p, singleton: singleton, lazy: lazy}
	c.mu.Unlock()

	if !lazy {
		_, err := c.Resolve(ctx, name)
		return err
	}
	return nil
}

// Resolve returns the (possibly freshly constructed) value bound to name.
// Concurrent first-callers for the same cold singleton are collapsed into
// a single provider invocation via singleflight, so a stampede of
// dependents never triggers redundant construction work.
func (c *Container) Resolve(ctx context.Context, name string) (any, error) {
	c.mu.Lock()
	if v, ok := c.cache[name]; ok {
		c.mu.Unlock()
		return v, nil
	}
	if c.resolving[name] {
		cycle := c.cycleTrace(name)
		c.mu.Unlock()
		return nil, agenteseerr.NewDependencyCycleError(cycle)
	}
	reg, ok := c.regs[name]
	c.mu.Unlock()
	if !ok {
		return nil, agenteseerr.NewDependencyNotFoundError(name)
	}

	v, err, _ := c.group.Do(name, func() (any, error) {
		c.mu.Lock()
		c.resolving[name] = true
		c.mu.Unlock()
		defer func() {
			c.mu.Lock()
			delete(c.resolving, name)
			c.mu.Unlock()
		}()

		built, err := reg.provider(ctx, c.Resolve)
		if err != nil {
			return nil, err
		}
		if reg.singleton {
			c.mu.Lock()
			c.cache[name] = built
			c.mu.Unlock()
		}
		return built, nil
	})
	return v, err
}

// cycleTrace renders a human-readable cycle path for the error message.
// Since Go's call stack already encodes the chain, we report the repeating
// name as a minimal (if not maximally detailed) cycle indicator.
func (c *Container) cycleTrace(name string) []string {
	names := make([]string, 0, len(c.resolving)+1)
	for n := range c.resolving {
		names = append(names, n)
	}
	return append(names, name)
}

// ClearCache drops all cached singletons; providers remain registered.
func (c *Container) ClearCache() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache = map[string]any{}
}

// Has reports whether name has a registered provider.
func (c *Container) Has(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.regs[name]
	return ok
}

// MustRegisterValue is a convenience for binding an already-constructed
// singleton value (used heavily by pkg/server wiring, mirroring the
// teacher's pattern of constructing services up front in buildServer()).
func (c *Container) MustRegisterValue(name string, value any) {
	_ = c.Register(context.Background(), name, func(ctx context.Context, resolve func(context.Context, string) (any, error)) (any, error) {
		return value, nil
	}, true, false)
}
