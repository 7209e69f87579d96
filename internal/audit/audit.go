// Package audit writes append-only audit records for sensitive actions.
// Audit writes are best-effort: a failed write is logged and never masks
// the outcome of the primary operation.
package audit

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/smartbin/smartbin-backend/internal/models"
)

// Store is the slice of the repository the recorder needs.
type Store interface {
	CreateAuditLog(ctx context.Context, e *models.AuditLogEntry) error
}

// Recorder emits audit entries.
type Recorder struct {
	store Store
	log   *zap.Logger
}

// NewRecorder creates a recorder over the given audit store.
func NewRecorder(store Store, log *zap.Logger) *Recorder {
	return &Recorder{store: store, log: log}
}

// Record appends one entry. status is sucesso or erro.
func (r *Recorder) Record(ctx context.Context, username, action, description, status string) {
	r.record(ctx, username, action, description, status, false)
}

// RecordSensitive appends one entry flagged as touching sensitive data.
func (r *Recorder) RecordSensitive(ctx context.Context, username, action, description, status string) {
	r.record(ctx, username, action, description, status, true)
}

func (r *Recorder) record(ctx context.Context, username, action, description, status string, sensitive bool) {
	if r == nil || r.store == nil {
		return
	}
	e := &models.AuditLogEntry{
		Timestamp:     time.Now().UTC(),
		Username:      username,
		Action:        action,
		Description:   description,
		Status:        status,
		SensitiveData: sensitive,
	}
	if err := r.store.CreateAuditLog(ctx, e); err != nil {
		r.log.Warn("audit write failed",
			zap.String("usuario", username),
			zap.String("acao", action),
			zap.Error(err))
	}
}
