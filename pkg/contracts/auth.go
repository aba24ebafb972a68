// Package contracts — the boundary between OSS and enterprise observer
// resolution.
//
// AGENTESE's Observer is header-derived by default
// (X-Observer-Archetype / X-Observer-Capabilities). This file generalizes
// that into a pluggable chain so an enterprise deployment can substitute
// an OIDC/SSO-backed resolver — mapping a bearer token to an Observer with
// richer capabilities — without OSS handlers ever knowing the difference.
package contracts

import (
	"context"
	"net/http"

	"github.com/agentese/logos/internal/observer"
)

// ── ObserverResolver ────────────────────────────────────────

// ObserverResolver inspects an HTTP request and returns an Observer.
// Each resolver implements one resolution strategy (header, OIDC token,
// mTLS client cert, ...).
//
// The chain pattern:
//   - Return (obs, true, nil)  → resolved, stop chain
//   - Return (_, false, nil)   → this resolver doesn't apply, try next
//   - Return (_, false, error) → resolution was attempted but failed, reject
type ObserverResolver interface {
	// Name returns the resolver identifier (e.g. "header", "oidc", "mtls").
	Name() string

	// Resolve inspects the request and returns an Observer.
	Resolve(ctx context.Context, r *http.Request) (observer.Observer, bool, error)

	// Enabled returns whether this resolver is configured and active.
	Enabled() bool
}

// ObserverResolverChain tries resolvers in priority order until one
// claims the request, falling back to observer.Guest() if none do.
//
// Pro adds enterprise resolvers (OIDC, mTLS) to the same chain ahead of
// the OSS header resolver, so header-only and SSO-backed callers can both
// reach the same gateway routes.
type ObserverResolverChain interface {
	// Resolve walks the chain in order, returning the first claimed
	// Observer, or observer.Guest() if none claim the request.
	Resolve(ctx context.Context, r *http.Request) (observer.Observer, error)

	// RegisterResolver adds a resolver to the front of the chain, ahead of
	// those already registered.
	RegisterResolver(resolver ObserverResolver)
}
