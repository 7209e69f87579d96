package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/smartbin/smartbin-backend/internal/analytics"
	"github.com/smartbin/smartbin-backend/internal/api/middleware"
	"github.com/smartbin/smartbin-backend/internal/audit"
	"github.com/smartbin/smartbin-backend/internal/auth"
	"github.com/smartbin/smartbin-backend/internal/auth/mfa"
	"github.com/smartbin/smartbin-backend/internal/repository"
	"github.com/smartbin/smartbin-backend/internal/service"
	"github.com/smartbin/smartbin-backend/migrations"
)

type testServer struct {
	router *mux.Router
	repo   *repository.SQLiteRepository
	gate   *auth.Gate
}

func setupTestServer(t *testing.T) *testServer {
	t.Helper()
	repo, err := repository.NewSQLiteRepository(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	migrationSQL, err := migrations.Load()
	require.NoError(t, err)
	require.NoError(t, repo.RunMigrations(migrationSQL))

	log := zap.NewNop()
	gate := auth.NewGate(repo, auth.NewMemorySessionStore())
	verifier := mfa.NewVerifier(repo, mfa.NewPendingSecrets(mfa.DefaultPendingTTL))
	handler := NewHandler(repo, gate, verifier,
		analytics.NewAnalyzer(repo),
		service.NewExportService(repo),
		audit.NewRecorder(repo, log),
		log, 6000, 1000)

	router := mux.NewRouter()
	router.Use(middleware.Auth(gate))
	SetupRoutes(router, handler)
	return &testServer{router: router, repo: repo, gate: gate}
}

// loginAs seeds a user with the role and returns a session token.
func (s *testServer) loginAs(t *testing.T, username, role string) string {
	t.Helper()
	_, err := s.gate.CreateUser(context.Background(), username, "senha123", username, role, "")
	require.NoError(t, err)
	token, _, err := s.gate.Authenticate(context.Background(), username, "senha123")
	require.NoError(t, err)
	return token
}

func (s *testServer) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.RemoteAddr = "127.0.0.1:12345"
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func TestIngestReading(t *testing.T) {
	s := setupTestServer(t)

	// Ingestion is public.
	w := s.do("POST", "/api/dados", "", map[string]interface{}{
		"peso_kg":   2.5,
		"sensor_id": "esp32-lixeira-001",
	})
	assert.Equal(t, http.StatusCreated, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, true, resp["sucesso"])
	assert.NotEmpty(t, resp["id"])
}

func TestIngestValidation(t *testing.T) {
	s := setupTestServer(t)

	w := s.do("POST", "/api/dados", "", map[string]interface{}{"sensor_id": "s1"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do("POST", "/api/dados", "", map[string]interface{}{"peso_kg": 1.0})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do("POST", "/api/dados", "", map[string]interface{}{
		"peso_kg": 1.0, "sensor_id": "s1", "timestamp": "ontem",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLoginFlow(t *testing.T) {
	s := setupTestServer(t)
	_, err := s.gate.CreateUser(context.Background(), "alice", "senha123", "Alice", "admin", "")
	require.NoError(t, err)

	// Wrong credentials all collapse into one message.
	w := s.do("POST", "/api/login", "", map[string]string{"username": "alice", "senha": "errada"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Credenciais invalidas")

	w = s.do("POST", "/api/login", "", map[string]string{"username": "nao-existe", "senha": "x"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Credenciais invalidas")

	w = s.do("POST", "/api/login", "", map[string]string{"username": "alice", "senha": "senha123"})
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Token      string `json:"token"`
		RequireMFA bool   `json:"requer_mfa"`
		Usuario    struct {
			Role string `json:"role"`
		} `json:"usuario"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Token)
	assert.False(t, resp.RequireMFA)
	assert.Equal(t, "admin", resp.Usuario.Role)

	// The token opens protected routes.
	w = s.do("GET", "/api/leituras", resp.Token, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	// No token does not.
	w = s.do("GET", "/api/leituras", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRBACEnforcement(t *testing.T) {
	s := setupTestServer(t)
	adminToken := s.loginAs(t, "root", "admin")
	managerToken := s.loginAs(t, "gerente", "gestor")
	userToken := s.loginAs(t, "comum", "usuario")

	// Only admin creates accounts.
	body := map[string]string{"username": "novo", "senha": "senha123", "role": "usuario"}
	w := s.do("POST", "/api/criar-usuario", userToken, body)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = s.do("POST", "/api/criar-usuario", managerToken, body)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = s.do("POST", "/api/criar-usuario", adminToken, body)
	assert.Equal(t, http.StatusCreated, w.Code)

	// usuario cannot export or analyze.
	w = s.do("GET", "/api/relatorios/csv", userToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = s.do("GET", "/api/analytics/anomalias", userToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// gestor can.
	w = s.do("GET", "/api/relatorios/csv", managerToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	// Audit log is admin-only.
	w = s.do("GET", "/api/auditoria/logs", managerToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = s.do("GET", "/api/auditoria/logs", adminToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	// User listing allows admin and gestor.
	w = s.do("GET", "/api/usuarios", userToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = s.do("GET", "/api/usuarios", managerToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCreateUserValidation(t *testing.T) {
	s := setupTestServer(t)
	adminToken := s.loginAs(t, "root", "admin")

	w := s.do("POST", "/api/criar-usuario", adminToken, map[string]string{
		"username": "novo", "senha": "x", "role": "superuser",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "role invalida")

	w = s.do("POST", "/api/criar-usuario", adminToken, map[string]string{"username": "novo"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Duplicates rejected.
	body := map[string]string{"username": "novo", "senha": "senha123"}
	w = s.do("POST", "/api/criar-usuario", adminToken, body)
	require.Equal(t, http.StatusCreated, w.Code)
	w = s.do("POST", "/api/criar-usuario", adminToken, body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "ja existe")
}

func TestDeleteUser(t *testing.T) {
	s := setupTestServer(t)
	adminToken := s.loginAs(t, "root", "admin")
	s.loginAs(t, "alvo", "usuario")

	w := s.do("DELETE", "/api/usuarios/root", adminToken, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do("DELETE", "/api/usuarios/fantasma", adminToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do("DELETE", "/api/usuarios/alvo", adminToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestMFAVerifyPublic(t *testing.T) {
	s := setupTestServer(t)
	s.loginAs(t, "alice", "usuario")

	// Reachable without a token, but MFA must be enabled first.
	w := s.do("POST", "/api/mfa/verificar", "", map[string]string{
		"username": "alice", "codigo": "123456",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "MFA nao esta ativado")
}

func TestMFAProvisionFlow(t *testing.T) {
	s := setupTestServer(t)
	token := s.loginAs(t, "alice", "usuario")

	w := s.do("POST", "/api/mfa/gerar-qrcode", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Contains(t, resp["qr_code"], "data:image/png;base64,")
	assert.Contains(t, resp["url"], "otpauth://totp/")

	// A bad activation code is rejected.
	w = s.do("POST", "/api/mfa/ativar", token, map[string]string{"codigo": "000000"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestExportCSV(t *testing.T) {
	s := setupTestServer(t)
	adminToken := s.loginAs(t, "root", "admin")

	s.do("POST", "/api/dados", "", map[string]interface{}{
		"peso_kg": 2.5, "sensor_id": "s1",
	})

	w := s.do("GET", "/api/relatorios/csv", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))

	lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "timestamp,sensor_id,peso_kg,temperatura,umidade", lines[0])
	assert.Contains(t, lines[1], "s1")
}

func TestStatisticsEndpoint(t *testing.T) {
	s := setupTestServer(t)
	token := s.loginAs(t, "comum", "usuario")

	// No readings yet.
	w := s.do("GET", "/api/estatisticas", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	s.do("POST", "/api/dados", "", map[string]interface{}{"peso_kg": 2.0, "sensor_id": "s1"})
	s.do("POST", "/api/dados", "", map[string]interface{}{"peso_kg": 4.0, "sensor_id": "s1"})

	w = s.do("GET", "/api/estatisticas", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var stats analytics.Statistics
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, 2, stats.Count)
	assert.InDelta(t, 3.0, stats.MeanKg, 1e-9)

	w = s.do("GET", "/api/estatisticas?dias=zero", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHealth(t *testing.T) {
	s := setupTestServer(t)

	w := s.do("GET", "/api/saude", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Ok")
}
