package rest

import (
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/smartbin/smartbin-backend/internal/auth"
)

const (
	defaultAuditLimit = 100
	maxAuditLimit     = 1000
)

// ListAuditLogs handles GET /api/auditoria/logs
func (h *Handler) ListAuditLogs(w http.ResponseWriter, r *http.Request) {
	if u := h.requireRole(w, r, auth.RoleAdmin); u == nil {
		return
	}

	limit := defaultAuditLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			respondErrorWithCode(w, http.StatusBadRequest, ErrCodeInvalidRequest, "limit invalido")
			return
		}
		limit = n
	}
	if limit > maxAuditLimit {
		limit = maxAuditLimit
	}

	entries, err := h.repo.ListAuditLog(r.Context(), r.URL.Query().Get("usuario"), limit)
	if err != nil {
		h.log.Error("failed to list audit log", zap.Error(err))
		respondErrorWithCode(w, http.StatusInternalServerError, ErrCodeInternalError, "Erro interno")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"total": len(entries),
		"logs":  entries,
	})
}
