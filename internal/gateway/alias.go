package gateway

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// listAliasesHandler answers `GET /{prefix}/aliases`, the HTTP projection
// of the programmatic `get_aliases()` operation.
func (rt *Router) listAliasesHandler(w http.ResponseWriter, r *http.Request) {
	if rt.Aliases == nil {
		writeJSON(w, http.StatusOK, map[string]any{"aliases": map[string]string{}})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"aliases": rt.Aliases.List()})
}

type aliasRequest struct {
	Name   string `json:"name"`
	Target string `json:"target"`
}

// createAliasHandler answers `POST /{prefix}/alias`, the HTTP projection
// of the programmatic `alias(name, target)` operation.
func (rt *Router) createAliasHandler(w http.ResponseWriter, r *http.Request) {
	if rt.Aliases == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"message": "aliases not configured"})
		return
	}

	var req aliasRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "malformed JSON body: " + err.Error()})
		return
	}

	if err := rt.Aliases.Register(req.Name, req.Target); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"name": req.Name, "target": req.Target})
}

// deleteAliasHandler answers `DELETE /{prefix}/alias/{name}`, the HTTP
// projection of the programmatic `unalias(name)` operation.
func (rt *Router) deleteAliasHandler(w http.ResponseWriter, r *http.Request) {
	if rt.Aliases == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"message": "aliases not configured"})
		return
	}

	name := chi.URLParam(r, "name")
	if err := rt.Aliases.Unregister(name); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"name": name})
}
