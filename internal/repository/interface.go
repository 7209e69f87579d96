package repository

import (
	"context"
	"time"

	"github.com/smartbin/smartbin-backend/internal/models"
)

// ReadingRepository defines reading data access methods
type ReadingRepository interface {
	CreateReading(ctx context.Context, r *models.Reading) error
	ListReadings(ctx context.Context, limit int) ([]*models.Reading, error)
	ListReadingsSince(ctx context.Context, since time.Time, sensorID string, ascending bool) ([]*models.Reading, error)
	DistinctSensors(ctx context.Context) ([]string, error)
	ThingSpeakTimestampExists(ctx context.Context, ts string) (bool, error)
	DeleteReadingsBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// UserRepository defines user account data access methods
type UserRepository interface {
	CreateUser(ctx context.Context, u *models.User) error
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	ListUsers(ctx context.Context) ([]*models.User, error)
	UpdateUserLastLogin(ctx context.Context, id string, t time.Time) error
	UpdateUserPassword(ctx context.Context, id, hash, salt string) error
	SetUserMFA(ctx context.Context, id, secret string) error
	SetUserActive(ctx context.Context, id string, active bool) error
	DeleteUser(ctx context.Context, id string) error
	CountUsers(ctx context.Context) (int, error)
}

// AuditRepository defines audit trail data access methods
type AuditRepository interface {
	CreateAuditLog(ctx context.Context, e *models.AuditLogEntry) error
	ListAuditLog(ctx context.Context, username string, limit int) ([]*models.AuditLogEntry, error)
}

// Repository aggregates all data access behind one handle
type Repository interface {
	ReadingRepository
	UserRepository
	AuditRepository

	RunMigrations(migrationSQL string) error
	Ping(ctx context.Context) error
	Close() error
}
