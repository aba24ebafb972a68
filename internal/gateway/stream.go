package gateway

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// streamHandler answers `GET /{prefix}/{path}/{aspect}/stream` with
// server-sent events, one per logos.StreamChunk.
func (rt *Router) streamHandler(w http.ResponseWriter, r *http.Request) {
	handle := chiPathParam(r)
	aspect := chi.URLParam(r, "aspect")

	kwargs, err := kwargsFromRequest(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "malformed JSON body: " + err.Error()})
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "streaming unsupported"})
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	obs := observerFromContext(r)
	chunks := rt.Logos.InvokeStream(r.Context(), handle+":"+aspect, &obs, kwargs)

	for chunk := range chunks {
		var payload any
		if chunk.Err != nil {
			payload = map[string]any{"error": chunk.Err.Error(), "done": true}
		} else {
			payload = map[string]any{"value": chunk.Value, "done": chunk.Done}
		}
		data, _ := json.Marshal(payload)
		fmt.Fprintf(w, "data: %s\n\n", data)
		flusher.Flush()
		if chunk.Err != nil {
			return
		}
	}
}
