package rest

import (
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/smartbin/smartbin-backend/internal/analytics"
	"github.com/smartbin/smartbin-backend/internal/auth"
)

// GetPatterns handles GET /api/analytics/padroes
func (h *Handler) GetPatterns(w http.ResponseWriter, r *http.Request) {
	if u := h.requirePermission(w, r, auth.PermAnalyze); u == nil {
		return
	}

	days := analytics.DefaultStatsWindow
	if s := r.URL.Query().Get("dias"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			respondErrorWithCode(w, http.StatusBadRequest, ErrCodeInvalidRequest, "dias invalido")
			return
		}
		days = n
	}

	patterns, err := h.analyzer.Patterns(r.Context(), days)
	if err == analytics.ErrNoData {
		respondErrorWithCode(w, http.StatusNotFound, ErrCodeNotFound, "Sem leituras no periodo")
		return
	}
	if err != nil {
		h.log.Error("failed to compute patterns", zap.Error(err))
		respondErrorWithCode(w, http.StatusInternalServerError, ErrCodeInternalError, "Erro interno")
		return
	}

	respondJSON(w, http.StatusOK, patterns)
}

// GetForecast handles GET /api/analytics/predicoes
func (h *Handler) GetForecast(w http.ResponseWriter, r *http.Request) {
	if u := h.requirePermission(w, r, auth.PermAnalyze); u == nil {
		return
	}

	days := analytics.DefaultForecastDays
	if s := r.URL.Query().Get("dias"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			respondErrorWithCode(w, http.StatusBadRequest, ErrCodeInvalidRequest, "dias invalido")
			return
		}
		days = n
	}

	forecast, err := h.analyzer.Forecast(r.Context(), days)
	switch err {
	case nil:
	case analytics.ErrNoData:
		respondErrorWithCode(w, http.StatusNotFound, ErrCodeNotFound, "Sem leituras no periodo")
		return
	case analytics.ErrInsufficientData:
		respondErrorWithCode(w, http.StatusBadRequest, ErrCodeInvalidRequest, "Historico insuficiente para previsao")
		return
	default:
		h.log.Error("failed to compute forecast", zap.Error(err))
		respondErrorWithCode(w, http.StatusInternalServerError, ErrCodeInternalError, "Erro interno")
		return
	}

	respondJSON(w, http.StatusOK, forecast)
}

// GetAnomalies handles GET /api/analytics/anomalias
func (h *Handler) GetAnomalies(w http.ResponseWriter, r *http.Request) {
	if u := h.requirePermission(w, r, auth.PermAnalyze); u == nil {
		return
	}

	sensitivity := analytics.DefaultSensitivity
	if s := r.URL.Query().Get("sensibilidade"); s != "" {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || f <= 0 {
			respondErrorWithCode(w, http.StatusBadRequest, ErrCodeInvalidRequest, "sensibilidade invalida")
			return
		}
		sensitivity = f
	}

	anomalies, err := h.analyzer.Anomalies(r.Context(), sensitivity)
	if err != nil {
		h.log.Error("failed to detect anomalies", zap.Error(err))
		respondErrorWithCode(w, http.StatusInternalServerError, ErrCodeInternalError, "Erro interno")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"total":     len(anomalies),
		"anomalias": anomalies,
	})
}

// GetComparison handles GET /api/analytics/comparacao
func (h *Handler) GetComparison(w http.ResponseWriter, r *http.Request) {
	if u := h.requirePermission(w, r, auth.PermAnalyze); u == nil {
		return
	}

	d1 := analytics.DefaultCompareWindow
	d2 := analytics.DefaultCompareWindow
	if s := r.URL.Query().Get("periodo1"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			respondErrorWithCode(w, http.StatusBadRequest, ErrCodeInvalidRequest, "periodo1 invalido")
			return
		}
		d1 = n
	}
	if s := r.URL.Query().Get("periodo2"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			respondErrorWithCode(w, http.StatusBadRequest, ErrCodeInvalidRequest, "periodo2 invalido")
			return
		}
		d2 = n
	}

	comparison, err := h.analyzer.ComparePeriods(r.Context(), d1, d2)
	if err == analytics.ErrNoData {
		respondErrorWithCode(w, http.StatusNotFound, ErrCodeNotFound, "Sem leituras no periodo")
		return
	}
	if err != nil {
		h.log.Error("failed to compare periods", zap.Error(err))
		respondErrorWithCode(w, http.StatusInternalServerError, ErrCodeInternalError, "Erro interno")
		return
	}

	respondJSON(w, http.StatusOK, comparison)
}
