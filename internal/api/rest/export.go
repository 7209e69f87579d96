package rest

import (
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/smartbin/smartbin-backend/internal/auth"
	"github.com/smartbin/smartbin-backend/internal/models"
)

// GetExecutiveReport handles GET /api/relatorios/executivo
func (h *Handler) GetExecutiveReport(w http.ResponseWriter, r *http.Request) {
	u := h.requirePermission(w, r, auth.PermExport)
	if u == nil {
		return
	}

	report, err := h.analyzer.Report(r.Context())
	if err != nil {
		h.log.Error("failed to build executive report", zap.Error(err))
		respondErrorWithCode(w, http.StatusInternalServerError, ErrCodeInternalError, "Erro interno")
		return
	}

	h.audit.Record(r.Context(), u.Username, "EXPORT", "relatorio executivo gerado", models.AuditStatusSuccess)
	respondJSON(w, http.StatusOK, report)
}

// ExportCSV handles GET /api/relatorios/csv
func (h *Handler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	u := h.requirePermission(w, r, auth.PermExport)
	if u == nil {
		return
	}

	data, err := h.export.ExportToCSV(r.Context())
	if err != nil {
		h.log.Error("failed to export CSV", zap.Error(err))
		respondErrorWithCode(w, http.StatusInternalServerError, ErrCodeInternalError, "Erro interno")
		return
	}

	h.audit.Record(r.Context(), u.Username, "EXPORT", "leituras exportadas em CSV", models.AuditStatusSuccess)
	filename := fmt.Sprintf("leituras_%s.csv", time.Now().UTC().Format("20060102_150405"))
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// ExportXLSX handles GET /api/relatorios/xlsx
func (h *Handler) ExportXLSX(w http.ResponseWriter, r *http.Request) {
	u := h.requirePermission(w, r, auth.PermExport)
	if u == nil {
		return
	}

	data, err := h.export.ExportToXLSX(r.Context())
	if err != nil {
		h.log.Error("failed to export XLSX", zap.Error(err))
		respondErrorWithCode(w, http.StatusInternalServerError, ErrCodeInternalError, "Erro interno")
		return
	}

	h.audit.Record(r.Context(), u.Username, "EXPORT", "leituras exportadas em XLSX", models.AuditStatusSuccess)
	filename := fmt.Sprintf("leituras_%s.xlsx", time.Now().UTC().Format("20060102_150405"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
