package rest

import (
	"net/http"
	"time"
)

// Health handles GET /api/saude
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.repo.Ping(r.Context()); err != nil {
		respondJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":    "Erro",
			"database":  "Desconectado",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "Ok",
		"database":  "Conectado",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
