package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/agentese/logos/internal/alias"
	"github.com/agentese/logos/internal/config"
	"github.com/agentese/logos/internal/container"
	"github.com/agentese/logos/internal/logos"
	"github.com/agentese/logos/internal/observer"
	"github.com/agentese/logos/internal/registry"
	"github.com/agentese/logos/internal/subscription"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T) (http.Handler, *logos.Logos) {
	t.Helper()
	nodes := registry.New()
	require.NoError(t, nodes.Register(registry.NodeMetadata{
		Path: "world.orchard",
		Aspects: []registry.Aspect{
			{
				Name:     "manifest",
				Category: registry.CategoryPerception,
				Handler: func(ctx context.Context, archetype string, kwargs map[string]any) (any, error) {
					return map[string]any{"fruit": kwargs["fruit"]}, nil
				},
			},
			{Name: "prune", RequiresArchetype: []string{"admin"}, Handler: func(context.Context, string, map[string]any) (any, error) { return "pruned", nil }},
		},
	}))
	aliases := alias.NewRegistry()
	lg := logos.New(aliases, nodes, container.New(), observer.NewArchetypeRegistry(), subscription.NewManager(nil), 100, 100, 1)

	cfg := config.Load()
	handler := NewRouter(cfg, &Router{Logos: lg, Nodes: nodes, Version: "test", Prefix: "/a", Aliases: aliases})
	return handler, lg
}

func TestDiscover_ListsRegisteredPaths(t *testing.T) {
	handler, _ := newTestRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/a/discover", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body["paths"], "world.orchard")
}

func TestManifest_UnknownPathReturns404(t *testing.T) {
	handler, _ := newTestRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/a/world.missing/manifest", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAffordances_FiltersByObserverArchetype(t *testing.T) {
	handler, _ := newTestRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/a/world.orchard/affordances", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body["affordances"], "manifest")
	assert.NotContains(t, body["affordances"], "prune")
}

func TestAspectHandler_InvokesAndReturnsResult(t *testing.T) {
	handler, _ := newTestRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/a/world.orchard/manifest?fruit=apple", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	result := body["result"].(map[string]any)
	assert.Equal(t, "apple", result["fruit"])
}

func TestAspectHandler_AffordanceDeniedReturns403(t *testing.T) {
	handler, _ := newTestRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/a/world.orchard/prune", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAspectHandler_GrantedViaObserverHeader(t *testing.T) {
	handler, _ := newTestRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/a/world.orchard/prune", nil)
	req.Header.Set("X-Observer-Archetype", "admin")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestQuery_FiltersByPatternAndPaginates(t *testing.T) {
	handler, _ := newTestRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/a/query?pattern=orchard&limit=10", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.EqualValues(t, 1, body["total"])
	assert.Contains(t, body["paths"], "world.orchard")
}

func TestQuery_DryRunOmitsPaths(t *testing.T) {
	handler, _ := newTestRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/a/query?dry_run=true", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotContains(t, body, "paths")
}

func TestAlias_CreateListDelete(t *testing.T) {
	handler, _ := newTestRouter(t)

	createReq := httptest.NewRequest(http.MethodPost, "/a/alias", strings.NewReader(`{"name":"tree","target":"world.orchard"}`))
	createRec := httptest.NewRecorder()
	handler.ServeHTTP(createRec, createReq)
	require.Equal(t, http.StatusOK, createRec.Code)

	listReq := httptest.NewRequest(http.MethodGet, "/a/aliases", nil)
	listRec := httptest.NewRecorder()
	handler.ServeHTTP(listRec, listReq)
	var listBody map[string]any
	require.NoError(t, json.Unmarshal(listRec.Body.Bytes(), &listBody))
	aliases := listBody["aliases"].(map[string]any)
	assert.Equal(t, "world.orchard", aliases["tree"])

	delReq := httptest.NewRequest(http.MethodDelete, "/a/alias/tree", nil)
	delRec := httptest.NewRecorder()
	handler.ServeHTTP(delRec, delReq)
	assert.Equal(t, http.StatusOK, delRec.Code)
}

func TestHealthzAndVersion(t *testing.T) {
	handler, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/version", nil)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
