package rest

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/smartbin/smartbin-backend/internal/analytics"
	"github.com/smartbin/smartbin-backend/internal/auth"
	"github.com/smartbin/smartbin-backend/internal/models"
	"github.com/smartbin/smartbin-backend/internal/pkg/metrics"
)

const defaultListLimit = 100

// IngestReading handles POST /api/dados
func (h *Handler) IngestReading(w http.ResponseWriter, r *http.Request) {
	var req models.IngestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondErrorWithCode(w, http.StatusBadRequest, ErrCodeInvalidRequest, "JSON invalido")
		return
	}
	if req.WeightKg == nil || req.SensorID == "" {
		respondErrorWithCode(w, http.StatusBadRequest, ErrCodeInvalidRequest, "peso_kg e sensor_id obrigatorios")
		return
	}

	ts := time.Now().UTC()
	if req.Timestamp != "" {
		parsed, err := time.Parse(time.RFC3339, req.Timestamp)
		if err != nil {
			respondErrorWithCode(w, http.StatusBadRequest, ErrCodeInvalidRequest, "timestamp invalido, use RFC3339")
			return
		}
		ts = parsed.UTC()
	}

	reading := &models.Reading{
		Timestamp:   ts,
		WeightKg:    *req.WeightKg,
		SensorID:    req.SensorID,
		Temperature: req.Temperature,
		Humidity:    req.Humidity,
		Location:    req.Location,
		Source:      "api",
	}
	if err := h.repo.CreateReading(r.Context(), reading); err != nil {
		h.log.Error("failed to store reading", zap.Error(err))
		respondErrorWithCode(w, http.StatusInternalServerError, ErrCodeInternalError, "Erro interno")
		return
	}

	metrics.ReadingsIngestedTotal.WithLabelValues("api").Inc()
	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"sucesso": true,
		"id":      reading.ID,
	})
}

// ListReadings handles GET /api/leituras
func (h *Handler) ListReadings(w http.ResponseWriter, r *http.Request) {
	if u := h.requirePermission(w, r, auth.PermRead); u == nil {
		return
	}

	limit := defaultListLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			respondErrorWithCode(w, http.StatusBadRequest, ErrCodeInvalidRequest, "limit invalido")
			return
		}
		limit = n
	}

	sensorID := r.URL.Query().Get("sensor_id")
	var readings []*models.Reading
	var err error
	if sensorID != "" {
		// A sensor filter narrows to the analysis window used elsewhere.
		since := time.Now().UTC().AddDate(0, 0, -analytics.DefaultStatsWindow)
		readings, err = h.repo.ListReadingsSince(r.Context(), since, sensorID, false)
		if err == nil && len(readings) > limit {
			readings = readings[:limit]
		}
	} else {
		readings, err = h.repo.ListReadings(r.Context(), limit)
	}
	if err != nil {
		h.log.Error("failed to list readings", zap.Error(err))
		respondErrorWithCode(w, http.StatusInternalServerError, ErrCodeInternalError, "Erro interno")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"total":    len(readings),
		"leituras": readings,
	})
}

// GetStatistics handles GET /api/estatisticas
func (h *Handler) GetStatistics(w http.ResponseWriter, r *http.Request) {
	if u := h.requirePermission(w, r, auth.PermRead); u == nil {
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

	stats, err := h.analyzer.Stats(r.Context(), days, r.URL.Query().Get("sensor_id"))
	if err == analytics.ErrNoData {
		respondErrorWithCode(w, http.StatusNotFound, ErrCodeNotFound, "Sem leituras no periodo")
		return
	}
	if err != nil {
		h.log.Error("failed to compute statistics", zap.Error(err))
		respondErrorWithCode(w, http.StatusInternalServerError, ErrCodeInternalError, "Erro interno")
		return
	}

	respondJSON(w, http.StatusOK, stats)
}

// ListSensors handles GET /api/sensores
func (h *Handler) ListSensors(w http.ResponseWriter, r *http.Request) {
	if u := h.requirePermission(w, r, auth.PermRead); u == nil {
		return
	}

	sensors, err := h.repo.DistinctSensors(r.Context())
	if err != nil {
		h.log.Error("failed to list sensors", zap.Error(err))
		respondErrorWithCode(w, http.StatusInternalServerError, ErrCodeInternalError, "Erro interno")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"total":    len(sensors),
		"sensores": sensors,
	})
}
