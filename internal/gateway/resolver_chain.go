package gateway

import (
	"context"
	"net/http"

	"github.com/agentese/logos/internal/observer"
	"github.com/agentese/logos/pkg/contracts"
)

// headerResolver is the OSS ObserverResolver: it always claims the
// request and builds an Observer from X-Observer-* headers.
type headerResolver struct{}

func (headerResolver) Name() string    { return "header" }
func (headerResolver) Enabled() bool   { return true }
func (headerResolver) Resolve(ctx context.Context, r *http.Request) (observer.Observer, bool, error) {
	return ExtractObserver(r), true, nil
}

// chain is a minimal contracts.ObserverResolverChain: it tries each
// registered resolver in order and falls back to observer.Guest() if none
// claim the request.
type chain struct {
	resolvers []contracts.ObserverResolver
}

// NewResolverChain returns a chain seeded with the OSS header resolver.
// An enterprise deployment registers additional resolvers (OIDC, mTLS)
// ahead of it via RegisterResolver.
func NewResolverChain() contracts.ObserverResolverChain {
	return &chain{resolvers: []contracts.ObserverResolver{headerResolver{}}}
}

func (c *chain) RegisterResolver(r contracts.ObserverResolver) {
	c.resolvers = append([]contracts.ObserverResolver{r}, c.resolvers...)
}

func (c *chain) Resolve(ctx context.Context, r *http.Request) (observer.Observer, error) {
	for _, resolver := range c.resolvers {
		if !resolver.Enabled() {
			continue
		}
		obs, claimed, err := resolver.Resolve(ctx, r)
		if err != nil {
			return observer.Observer{}, err
		}
		if claimed {
			return obs, nil
		}
	}
	return observer.Guest(), nil
}
