package rest

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"
	"sync"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/smartbin/smartbin-backend/internal/auth"
	"github.com/smartbin/smartbin-backend/internal/models"
	"github.com/smartbin/smartbin-backend/internal/pkg/metrics"
)

// loginLimiter holds one token bucket per source IP.
type loginLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
}

func newLoginLimiter(perMin float64, burst int) *loginLimiter {
	if perMin <= 0 {
		perMin = 10
	}
	if burst <= 0 {
		burst = 5
	}
	return &loginLimiter{
		limiters: make(map[string]*rate.Limiter),
		limit:    rate.Limit(perMin / 60.0),
		burst:    burst,
	}
}

func (l *loginLimiter) allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	lim, ok := l.limiters[ip]
	if !ok {
		lim = rate.NewLimiter(l.limit, l.burst)
		l.limiters[ip] = lim
	}
	return lim.Allow()
}

func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.Index(xff, ","); idx > 0 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// Login handles POST /api/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	if !h.limiter.allow(clientIP(r)) {
		metrics.LoginAttemptsTotal.WithLabelValues("rate_limited").Inc()
		respondErrorWithCode(w, http.StatusTooManyRequests, ErrCodeRateLimitExceeded, "Muitas tentativas, aguarde")
		return
	}

	var req struct {
		Username string `json:"username"`
		Password string `json:"senha"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondErrorWithCode(w, http.StatusBadRequest, ErrCodeInvalidRequest, "JSON invalido")
		return
	}
	if req.Username == "" || req.Password == "" {
		respondErrorWithCode(w, http.StatusBadRequest, ErrCodeInvalidRequest, "username e senha obrigatorios")
		return
	}

	token, u, err := h.gate.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrUserNotFound),
			errors.Is(err, auth.ErrWrongPassword),
			errors.Is(err, auth.ErrUserDisabled):
			metrics.LoginAttemptsTotal.WithLabelValues("failure").Inc()
			h.audit.Record(r.Context(), req.Username, "LOGIN", "falha de autenticacao", models.AuditStatusError)
			// One message for every credential failure.
			respondErrorWithCode(w, http.StatusUnauthorized, ErrCodeUnauthorized, "Credenciais invalidas")
		default:
			h.log.Error("login failed", zap.Error(err))
			respondErrorWithCode(w, http.StatusInternalServerError, ErrCodeInternalError, "Erro interno")
		}
		return
	}

	metrics.LoginAttemptsTotal.WithLabelValues("success").Inc()
	h.audit.Record(r.Context(), u.Username, "LOGIN", "usuario fez login", models.AuditStatusSuccess)

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"sucesso":     true,
		"token":       token,
		"usuario":     u.Profile(),
		"mfa_ativado": u.MFAEnabled,
		"requer_mfa":  u.MFAEnabled,
	})
}

// Logout handles POST /api/logout
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	u := auth.UserFromContext(r.Context())
	if u == nil {
		respondErrorWithCode(w, http.StatusUnauthorized, ErrCodeUnauthorized, "Nao autorizado")
		return
	}

	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	h.gate.Logout(strings.TrimSpace(token))
	h.audit.Record(r.Context(), u.Username, "LOGOUT", "usuario fez logout", models.AuditStatusSuccess)
	respondJSON(w, http.StatusOK, map[string]interface{}{"sucesso": true})
}

// CreateUser handles POST /api/criar-usuario
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	actor := h.requireRole(w, r, auth.RoleAdmin)
	if actor == nil {
		if u := auth.UserFromContext(r.Context()); u != nil {
			h.audit.Record(r.Context(), u.Username, "CREATE_USER", "tentativa nao autorizada", models.AuditStatusError)
		}
		return
	}

	var req struct {
		Username string `json:"username"`
		Password string `json:"senha"`
		Name     string `json:"nome"`
		Role     string `json:"role"`
		Email    string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondErrorWithCode(w, http.StatusBadRequest, ErrCodeInvalidRequest, "JSON invalido")
		return
	}
	if req.Username == "" || req.Password == "" {
		respondErrorWithCode(w, http.StatusBadRequest, ErrCodeInvalidRequest, "username e senha obrigatorios")
		return
	}
	if req.Role == "" {
		req.Role = string(auth.RoleUser)
	}
	if !auth.ValidRole(req.Role) {
		respondErrorWithCode(w, http.StatusBadRequest, ErrCodeInvalidRequest, "role invalida")
		return
	}

	u, err := h.gate.CreateUser(r.Context(), req.Username, req.Password, req.Name, req.Role, req.Email)
	if err != nil {
		if errors.Is(err, auth.ErrUserExists) {
			respondErrorWithCode(w, http.StatusBadRequest, ErrCodeInvalidRequest, "username ja existe")
			return
		}
		h.log.Error("failed to create user", zap.Error(err))
		respondErrorWithCode(w, http.StatusInternalServerError, ErrCodeInternalError, "Erro interno")
		return
	}

	h.audit.RecordSensitive(r.Context(), actor.Username, "CREATE_USER",
		"usuario "+u.Username+" criado com role "+u.Role, models.AuditStatusSuccess)
	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"sucesso": true,
		"usuario": u.Profile(),
	})
}

// ListUsers handles GET /api/usuarios
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	if u := h.requireRole(w, r, auth.RoleAdmin, auth.RoleManager); u == nil {
		return
	}

	users, err := h.repo.ListUsers(r.Context())
	if err != nil {
		h.log.Error("failed to list users", zap.Error(err))
		respondErrorWithCode(w, http.StatusInternalServerError, ErrCodeInternalError, "Erro interno")
		return
	}

	profiles := make([]models.Profile, 0, len(users))
	for _, u := range users {
		profiles = append(profiles, u.Profile())
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"total":    len(profiles),
		"usuarios": profiles,
	})
}

// DeleteUser handles DELETE /api/usuarios/{username}
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	actor := h.requireRole(w, r, auth.RoleAdmin)
	if actor == nil {
		return
	}

	username := mux.Vars(r)["username"]
	if username == actor.Username {
		respondErrorWithCode(w, http.StatusBadRequest, ErrCodeInvalidRequest, "nao e possivel remover a propria conta")
		return
	}

	u, err := h.repo.GetUserByUsername(r.Context(), username)
	if err != nil {
		h.log.Error("failed to load user", zap.Error(err))
		respondErrorWithCode(w, http.StatusInternalServerError, ErrCodeInternalError, "Erro interno")
		return
	}
	if u == nil {
		respondErrorWithCode(w, http.StatusNotFound, ErrCodeNotFound, "usuario nao encontrado")
		return
	}

	if err := h.repo.DeleteUser(r.Context(), u.ID); err != nil {
		h.log.Error("failed to delete user", zap.Error(err))
		respondErrorWithCode(w, http.StatusInternalServerError, ErrCodeInternalError, "Erro interno")
		return
	}

	h.audit.RecordSensitive(r.Context(), actor.Username, "DELETE_USER",
		"usuario "+username+" removido", models.AuditStatusSuccess)
	respondJSON(w, http.StatusOK, map[string]interface{}{"sucesso": true})
}
