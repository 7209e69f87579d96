package rest

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/smartbin/smartbin-backend/internal/auth"
	"github.com/smartbin/smartbin-backend/internal/auth/mfa"
	"github.com/smartbin/smartbin-backend/internal/models"
)

// GenerateMFAQRCode handles POST /api/mfa/gerar-qrcode
func (h *Handler) GenerateMFAQRCode(w http.ResponseWriter, r *http.Request) {
	u := auth.UserFromContext(r.Context())
	if u == nil {
		respondErrorWithCode(w, http.StatusUnauthorized, ErrCodeUnauthorized, "Nao autorizado")
		return
	}

	prov, err := h.verifier.Provision(u.Username)
	if err != nil {
		h.log.Error("failed to provision TOTP secret", zap.Error(err))
		respondErrorWithCode(w, http.StatusInternalServerError, ErrCodeInternalError, "Erro interno")
		return
	}

	h.audit.Record(r.Context(), u.Username, "MFA_SETUP", "segredo TOTP provisionado", models.AuditStatusSuccess)
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"sucesso": true,
		"qr_code": prov.QRCode,
		"url":     prov.URL,
		"secret":  prov.Secret,
	})
}

// ActivateMFA handles POST /api/mfa/ativar
func (h *Handler) ActivateMFA(w http.ResponseWriter, r *http.Request) {
	u := auth.UserFromContext(r.Context())
	if u == nil {
		respondErrorWithCode(w, http.StatusUnauthorized, ErrCodeUnauthorized, "Nao autorizado")
		return
	}

	var req struct {
		Code string `json:"codigo"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Code == "" {
		respondErrorWithCode(w, http.StatusBadRequest, ErrCodeInvalidRequest, "codigo obrigatorio")
		return
	}

	if err := h.verifier.Activate(r.Context(), u.Username, req.Code); err != nil {
		switch {
		case errors.Is(err, mfa.ErrNoSecretPending):
			respondErrorWithCode(w, http.StatusBadRequest, ErrCodeInvalidRequest, "nenhum segredo pendente, gere o QR code primeiro")
		case errors.Is(err, mfa.ErrInvalidCode):
			h.audit.Record(r.Context(), u.Username, "MFA_ACTIVATE", "codigo invalido", models.AuditStatusError)
			respondErrorWithCode(w, http.StatusUnauthorized, ErrCodeUnauthorized, "codigo invalido")
		default:
			h.log.Error("failed to activate MFA", zap.Error(err))
			respondErrorWithCode(w, http.StatusInternalServerError, ErrCodeInternalError, "Erro interno")
		}
		return
	}

	h.audit.Record(r.Context(), u.Username, "MFA_ACTIVATE", "MFA ativado", models.AuditStatusSuccess)
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"sucesso":     true,
		"mfa_ativado": true,
	})
}

// VerifyMFA handles POST /api/mfa/verificar. Public: called during the
// login flow before the client holds a session token.
func (h *Handler) VerifyMFA(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Code     string `json:"codigo"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Username == "" || req.Code == "" {
		respondErrorWithCode(w, http.StatusBadRequest, ErrCodeInvalidRequest, "username e codigo obrigatorios")
		return
	}

	if err := h.verifier.VerifyLogin(r.Context(), req.Username, req.Code); err != nil {
		switch {
		case errors.Is(err, mfa.ErrNotRequired):
			respondErrorWithCode(w, http.StatusBadRequest, ErrCodeInvalidRequest, "MFA nao esta ativado para este usuario")
		case errors.Is(err, mfa.ErrInvalidCode):
			h.audit.Record(r.Context(), req.Username, "MFA_VERIFY", "codigo invalido", models.AuditStatusError)
			respondErrorWithCode(w, http.StatusUnauthorized, ErrCodeUnauthorized, "codigo invalido")
		default:
			h.log.Error("failed to verify MFA code", zap.Error(err))
			respondErrorWithCode(w, http.StatusInternalServerError, ErrCodeInternalError, "Erro interno")
		}
		return
	}

	h.audit.Record(r.Context(), req.Username, "MFA_VERIFY", "codigo verificado", models.AuditStatusSuccess)
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"sucesso":   true,
		"verificado": true,
	})
}
