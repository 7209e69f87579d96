package rest

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/smartbin/smartbin-backend/internal/analytics"
	"github.com/smartbin/smartbin-backend/internal/audit"
	"github.com/smartbin/smartbin-backend/internal/auth"
	"github.com/smartbin/smartbin-backend/internal/auth/mfa"
	"github.com/smartbin/smartbin-backend/internal/models"
	"github.com/smartbin/smartbin-backend/internal/repository"
	"github.com/smartbin/smartbin-backend/internal/service"
)

// Handler manages HTTP request handlers
type Handler struct {
	repo     repository.Repository
	gate     *auth.Gate
	verifier *mfa.Verifier
	analyzer *analytics.Analyzer
	export   service.ExportService
	audit    *audit.Recorder
	log      *zap.Logger
	limiter  *loginLimiter
}

// NewHandler creates a new HTTP handler
func NewHandler(repo repository.Repository, gate *auth.Gate, verifier *mfa.Verifier, analyzer *analytics.Analyzer, export service.ExportService, rec *audit.Recorder, log *zap.Logger, ratePerMin float64, burst int) *Handler {
	return &Handler{
		repo:     repo,
		gate:     gate,
		verifier: verifier,
		analyzer: analyzer,
		export:   export,
		audit:    rec,
		log:      log,
		limiter:  newLoginLimiter(ratePerMin, burst),
	}
}

// SetupRoutes configures API routes
func SetupRoutes(router *mux.Router, h *Handler) {
	// Ingestion and readings
	router.HandleFunc("/api/dados", h.IngestReading).Methods("POST")
	router.HandleFunc("/api/leituras", h.ListReadings).Methods("GET")
	router.HandleFunc("/api/estatisticas", h.GetStatistics).Methods("GET")
	router.HandleFunc("/api/sensores", h.ListSensors).Methods("GET")

	// Analytics
	router.HandleFunc("/api/analytics/padroes", h.GetPatterns).Methods("GET")
	router.HandleFunc("/api/analytics/predicoes", h.GetForecast).Methods("GET")
	router.HandleFunc("/api/analytics/anomalias", h.GetAnomalies).Methods("GET")
	router.HandleFunc("/api/analytics/comparacao", h.GetComparison).Methods("GET")

	// Reports
	router.HandleFunc("/api/relatorios/executivo", h.GetExecutiveReport).Methods("GET")
	router.HandleFunc("/api/relatorios/csv", h.ExportCSV).Methods("GET")
	router.HandleFunc("/api/relatorios/xlsx", h.ExportXLSX).Methods("GET")

	// Auth and user management
	router.HandleFunc("/api/login", h.Login).Methods("POST")
	router.HandleFunc("/api/logout", h.Logout).Methods("POST")
	router.HandleFunc("/api/criar-usuario", h.CreateUser).Methods("POST")
	router.HandleFunc("/api/usuarios", h.ListUsers).Methods("GET")
	router.HandleFunc("/api/usuarios/{username}", h.DeleteUser).Methods("DELETE")

	// MFA
	router.HandleFunc("/api/mfa/gerar-qrcode", h.GenerateMFAQRCode).Methods("POST")
	router.HandleFunc("/api/mfa/ativar", h.ActivateMFA).Methods("POST")
	router.HandleFunc("/api/mfa/verificar", h.VerifyMFA).Methods("POST")

	// Audit trail
	router.HandleFunc("/api/auditoria/logs", h.ListAuditLogs).Methods("GET")

	// Health check
	router.HandleFunc("/api/saude", h.Health).Methods("GET")
}

// requireRole returns the authenticated user when it holds one of the
// roles. Writes 401/403 and returns nil otherwise.
func (h *Handler) requireRole(w http.ResponseWriter, r *http.Request, roles ...auth.Role) *models.User {
	u := auth.UserFromContext(r.Context())
	if u == nil {
		respondErrorWithCode(w, http.StatusUnauthorized, ErrCodeUnauthorized, "Nao autorizado")
		return nil
	}
	for _, role := range roles {
		if auth.Role(u.Role) == role {
			return u
		}
	}
	respondErrorWithCode(w, http.StatusForbidden, ErrCodeForbidden, "Permissao insuficiente")
	return nil
}

// requirePermission returns the authenticated user when its role grants
// the action. Writes 401/403 and returns nil otherwise.
func (h *Handler) requirePermission(w http.ResponseWriter, r *http.Request, action auth.Permission) *models.User {
	u := auth.UserFromContext(r.Context())
	if u == nil {
		respondErrorWithCode(w, http.StatusUnauthorized, ErrCodeUnauthorized, "Nao autorizado")
		return nil
	}
	if !auth.HasPermission(auth.Role(u.Role), action) {
		respondErrorWithCode(w, http.StatusForbidden, ErrCodeForbidden, "Permissao insuficiente")
		return nil
	}
	return u
}

// Helper functions
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
