package api

import (
	"encoding/json"
	"net/http"
)

func (h *routerHandlers) handleHealthz(w http.ResponseWriter, r *http.Request) {
	snap := h.source.Latest()
	writeJSON(w, map[string]any{
		"status":      "ok",
		"tick":        snap.Tick,
		"particles":   len(snap.Particles),
		"playerCount": len(snap.Players),
	})
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}
