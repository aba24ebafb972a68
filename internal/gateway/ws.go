package gateway

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// wsRequest is one inbound frame on a `WS /{prefix}/{path}` connection:
// the caller names the aspect and kwargs to invoke against the path fixed
// by the connection's URL.
type wsRequest struct {
	Aspect string         `json:"aspect"`
	Kwargs map[string]any `json:"kwargs"`
}

type wsResponse struct {
	Value any    `json:"value,omitempty"`
	Error string `json:"error,omitempty"`
}

// wsHandler answers `WS /{prefix}/{path}`: every inbound frame names an
// aspect to invoke against the fixed path, the result (or error) is sent
// back as one outbound frame. A non-upgrade GET to this route falls back
// to the manifest payload, since `{path}` alone has no other defined GET
// behavior.
func (rt *Router) wsHandler(w http.ResponseWriter, r *http.Request) {
	if !websocket.IsWebSocketUpgrade(r) {
		rt.manifestHandler(w, r)
		return
	}

	handle := chiPathParam(r)
	obs := observerFromContext(r)

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Str("path", handle).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	ctx := r.Context()
	for {
		var req wsRequest
		if err := conn.ReadJSON(&req); err != nil {
			return
		}
		result, err := rt.Logos.Invoke(ctx, handle+":"+req.Aspect, &obs, req.Kwargs)
		resp := wsResponse{Value: result}
		if err != nil {
			resp = wsResponse{Error: err.Error()}
		}
		if err := conn.WriteJSON(resp); err != nil {
			return
		}
	}
}
