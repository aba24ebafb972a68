package middleware

import (
	"context"

	"github.com/agentese/logos/internal/observer"
)

const observerKey contextKey = "observer"

// SetObserver stores the resolved Observer in the context. Called by
// gateway handlers after resolving the request through a
// contracts.ObserverResolverChain.
func SetObserver(ctx context.Context, obs observer.Observer) context.Context {
	return context.WithValue(ctx, observerKey, obs)
}

// GetObserver retrieves the Observer from the context, falling back to
// observer.Guest() if none was set (unauthenticated/anonymous request).
//
// This function is shared between OSS and enterprise builds (lives in
// pkg/). An enterprise RBAC layer uses it to check capabilities beyond
// what the OSS archetype registry grants.
func GetObserver(ctx context.Context) observer.Observer {
	if v, ok := ctx.Value(observerKey).(observer.Observer); ok {
		return v
	}
	return observer.Guest()
}
