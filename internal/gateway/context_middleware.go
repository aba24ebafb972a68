package gateway

import (
	"net/http"

	"github.com/agentese/logos/internal/observer"
	"github.com/agentese/logos/pkg/middleware"
)

// observerMiddleware resolves the requesting Observer through rt.Resolvers
// and the tenant scope from the "tenant" query param or "X-Tenant" header,
// stashing both in the request context — every downstream handler reads
// them back via middleware.GetObserver/GetTenant instead of re-resolving.
func (rt *Router) observerMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		obs, err := rt.Resolvers.Resolve(r.Context(), r)
		if err != nil {
			writeError(w, err)
			return
		}

		tenant := r.URL.Query().Get("tenant")
		if tenant == "" {
			tenant = r.Header.Get("X-Tenant")
		}

		ctx := middleware.SetObserver(r.Context(), obs)
		if tenant != "" {
			ctx = middleware.SetTenant(ctx, tenant)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func observerFromContext(r *http.Request) observer.Observer {
	return middleware.GetObserver(r.Context())
}
