package gateway

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
)

func chiPathParam(r *http.Request) string {
	return chi.URLParam(r, "path")
}

// kwargsFromRequest merges query parameters with a JSON request body (POST
// only) into a single kwargs map, query params losing to body fields of
// the same name.
func kwargsFromRequest(r *http.Request) (map[string]any, error) {
	kwargs := map[string]any{}
	for k, v := range r.URL.Query() {
		if k == "include_schemas" || k == "include_metadata" {
			continue
		}
		if len(v) == 1 {
			kwargs[k] = v[0]
		} else {
			kwargs[k] = v
		}
	}

	if r.Method == http.MethodPost && r.Body != nil {
		var body map[string]any
		dec := json.NewDecoder(r.Body)
		if err := dec.Decode(&body); err != nil && err.Error() != "EOF" {
			return nil, err
		}
		for k, v := range body {
			kwargs[k] = v
		}
	}

	return kwargs, nil
}

// aspectHandler answers `GET|POST /{prefix}/{path}/{aspect}` by invoking
// the resolver with an observer built from the request headers.
func (rt *Router) aspectHandler(w http.ResponseWriter, r *http.Request) {
	handle := chiPathParam(r)
	aspect := chi.URLParam(r, "aspect")

	kwargs, err := kwargsFromRequest(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "malformed JSON body: " + err.Error()})
		return
	}

	obs := observerFromContext(r)
	result, err := rt.Logos.Invoke(r.Context(), handle+":"+aspect, &obs, kwargs)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"result": result})
}
