// Package middleware provides HTTP middleware for auth, structured
// logging, and Prometheus metrics.
package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/smartbin/smartbin-backend/internal/pkg/metrics"
)

// responseWriter captures status code for logging.
type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

// Observe logs each request and records the HTTP metrics.
func Observe(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rw, r)
			duration := time.Since(start)

			// Prometheus: path normalized via route template to avoid
			// high cardinality.
			pathLabel := r.URL.Path
			if route := mux.CurrentRoute(r); route != nil {
				if tpl, err := route.GetPathTemplate(); err == nil && tpl != "" {
					pathLabel = tpl
				}
			}
			statusStr := strconv.Itoa(rw.status)
			metrics.HTTPRequestTotal.WithLabelValues(r.Method, pathLabel, statusStr).Inc()
			metrics.HTTPRequestDurationSeconds.WithLabelValues(r.Method, pathLabel).Observe(duration.Seconds())

			log.Info("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", rw.status),
				zap.Duration("duration", duration))
		})
	}
}
