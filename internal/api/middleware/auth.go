package middleware

import (
	"net/http"
	"strings"

	"github.com/smartbin/smartbin-backend/internal/auth"
)

// publicPaths are reachable without a session token.
var publicPaths = map[string]bool{
	"/api/saude":        true,
	"/api/dados":        true,
	"/api/login":        true,
	"/api/mfa/verificar": true,
	"/metrics":          true,
}

// Auth returns middleware that resolves the Bearer session token and puts
// the user record in the request context. Public paths pass through
// untouched; everything else requires a valid token.
func Auth(gate *auth.Gate) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if publicPaths[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			token := extractBearer(r)
			if token == "" {
				w.Header().Set("WWW-Authenticate", "Bearer")
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":"Nao autorizado"}`))
				return
			}

			u, err := gate.ResolveToken(r.Context(), token)
			if err != nil {
				w.Header().Set("WWW-Authenticate", "Bearer")
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":"Token invalido ou expirado"}`))
				return
			}

			ctx := auth.WithUser(r.Context(), u)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func extractBearer(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
