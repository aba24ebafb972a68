// Package gateway implements AGENTESE's HTTP surface: discover/openapi/
// manifest/affordances/aspect/stream/websocket routes fronting a
// *logos.Logos resolver, in a chi-based router composition style.
package gateway

import (
	"net/http"

	"github.com/agentese/logos/internal/alias"
	"github.com/agentese/logos/internal/config"
	"github.com/agentese/logos/internal/logos"
	"github.com/agentese/logos/internal/registry"
	"github.com/agentese/logos/internal/telemetry"
	"github.com/agentese/logos/pkg/contracts"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Router bundles the dependencies every gateway handler closes over.
type Router struct {
	Logos     *logos.Logos
	Nodes     *registry.Registry
	Version   string
	Prefix    string // e.g. "/a"; every route below is mounted under it
	Resolvers contracts.ObserverResolverChain
	Aliases   *alias.Registry // optional: powers the /aliases and /alias routes
}

// NewRouter builds the full chi.Router: global middleware (request id,
// recoverer, telemetry, CORS) then the route table, plus the ambient
// /healthz and /version ops surface every pack service carries.
func NewRouter(cfg *config.Config, rt *Router) http.Handler {
	if rt.Prefix == "" {
		rt.Prefix = "/a"
	}
	if rt.Resolvers == nil {
		rt.Resolvers = NewResolverChain()
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(telemetry.HTTPMiddleware)

	isWildcard := len(cfg.CORSOrigins) == 1 && cfg.CORSOrigins[0] == "*"
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Observer-Archetype", "X-Observer-Capabilities", "X-Observer-Id", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: !isWildcard,
		MaxAge:           300,
	}))

	r.Get("/healthz", rt.healthHandler)
	r.Get("/version", rt.versionHandler)

	r.Route(rt.Prefix, func(pr chi.Router) {
		pr.Use(rt.observerMiddleware)
		pr.Get("/discover", rt.discoverHandler)
		pr.Get("/openapi.json", rt.openapiHandler)
		pr.Get("/query", rt.queryHandler)
		pr.Get("/aliases", rt.listAliasesHandler)
		pr.Post("/alias", rt.createAliasHandler)
		pr.Delete("/alias/{name}", rt.deleteAliasHandler)
		pr.Get("/{path}/manifest", rt.manifestHandler)
		pr.Get("/{path}/affordances", rt.affordancesHandler)
		pr.Get("/{path}/{aspect}/stream", rt.streamHandler)
		pr.Get("/{path}/{aspect}", rt.aspectHandler)
		pr.Post("/{path}/{aspect}", rt.aspectHandler)
		pr.Get("/{path}", rt.wsHandler)
	})

	return r
}

func (rt *Router) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) versionHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"version": rt.Version})
}
