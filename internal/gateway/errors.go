package gateway

import (
	"encoding/json"
	"net/http"

	"github.com/agentese/logos/internal/agenteseerr"
)

// writeError projects any resolver/gateway error into its wire shape
// and sets the matching HTTP status.
func writeError(w http.ResponseWriter, err error) {
	status := agenteseerr.StatusCode(err)
	projection := agenteseerr.Project(err)
	writeJSON(w, status, projection)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
