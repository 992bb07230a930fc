// internal/handler/presence_handler.go
package handler

import (
	"context"
	"net/http"
)

// Heartbeater is what the heartbeat endpoint needs from the presence store.
type Heartbeater interface {
	Heartbeat(ctx context.Context) error
}

type PresenceHandler struct {
	Presence Heartbeater
}

// Heartbeat marks a human as present on the messaging surface. The UI calls
// this every few seconds while focused; the delivery agent defers sends
// while the heartbeat is fresh.
func (h *PresenceHandler) Heartbeat(w http.ResponseWriter, r *http.Request) {
	if err := h.Presence.Heartbeat(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, map[string]interface{}{"success": true})
}
