package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/smartbin/smartbin-backend/internal/models"
	_ "modernc.org/sqlite"
)

// SQLiteRepository implements Repository using SQLite
type SQLiteRepository struct {
	db *sqlx.DB
}

// NewSQLiteRepository creates a new SQLite repository
func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	db, err := sqlx.Connect("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to SQLite: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

// Close closes the database connection
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

// Ping verifies the database connection
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// RunMigrations runs database migrations
func (r *SQLiteRepository) RunMigrations(migrationSQL string) error {
	_, err := r.db.Exec(migrationSQL)
	return err
}

// ReadingRepository implementation

func (r *SQLiteRepository) CreateReading(ctx context.Context, reading *models.Reading) error {
	if reading.ID == "" {
		reading.ID = uuid.New().String()
	}
	if reading.Timestamp.IsZero() {
		reading.Timestamp = time.Now().UTC()
	}

	query := `
		INSERT INTO leituras (id, timestamp, peso_kg, sensor_id, temperatura, umidade, localizacao, fonte, timestamp_thingspeak)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		reading.ID,
		reading.Timestamp,
		reading.WeightKg,
		reading.SensorID,
		reading.Temperature,
		reading.Humidity,
		reading.Location,
		reading.Source,
		reading.ThingSpeakTimestamp,
	)

	return err
}

func (r *SQLiteRepository) ListReadings(ctx context.Context, limit int) ([]*models.Reading, error) {
	readings := []*models.Reading{}
	query := `SELECT * FROM leituras ORDER BY timestamp DESC LIMIT ?`

	err := r.db.SelectContext(ctx, &readings, query, limit)
	return readings, err
}

func (r *SQLiteRepository) ListReadingsSince(ctx context.Context, since time.Time, sensorID string, ascending bool) ([]*models.Reading, error) {
	readings := []*models.Reading{}
	order := "DESC"
	if ascending {
		order = "ASC"
	}

	if sensorID != "" {
		query := `SELECT * FROM leituras WHERE timestamp >= ? AND sensor_id = ? ORDER BY timestamp ` + order
		err := r.db.SelectContext(ctx, &readings, query, since, sensorID)
		return readings, err
	}

	query := `SELECT * FROM leituras WHERE timestamp >= ? ORDER BY timestamp ` + order
	err := r.db.SelectContext(ctx, &readings, query, since)
	return readings, err
}

func (r *SQLiteRepository) DistinctSensors(ctx context.Context) ([]string, error) {
	sensors := []string{}
	query := `SELECT DISTINCT sensor_id FROM leituras WHERE sensor_id != '' ORDER BY sensor_id`

	err := r.db.SelectContext(ctx, &sensors, query)
	return sensors, err
}

func (r *SQLiteRepository) ThingSpeakTimestampExists(ctx context.Context, ts string) (bool, error) {
	var count int
	query := `SELECT COUNT(1) FROM leituras WHERE timestamp_thingspeak = ?`

	if err := r.db.GetContext(ctx, &count, query, ts); err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *SQLiteRepository) DeleteReadingsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `DELETE FROM leituras WHERE timestamp < ?`

	res, err := r.db.ExecContext(ctx, query, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// UserRepository implementation

func (r *SQLiteRepository) CreateUser(ctx context.Context, u *models.User) error {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO usuarios (id, username, password_hash, password_salt, nome, role, email, criado_em, ultimo_login, ativo, mfa_ativado, mfa_secret)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		u.ID,
		u.Username,
		u.PasswordHash,
		u.PasswordSalt,
		u.Name,
		u.Role,
		u.Email,
		u.CreatedAt,
		u.LastLogin,
		u.Active,
		u.MFAEnabled,
		u.MFASecret,
	)

	return err
}

func (r *SQLiteRepository) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var u models.User
	query := `SELECT * FROM usuarios WHERE username = ?`

	err := r.db.GetContext(ctx, &u, query, username)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *SQLiteRepository) ListUsers(ctx context.Context) ([]*models.User, error) {
	users := []*models.User{}
	query := `SELECT * FROM usuarios ORDER BY criado_em ASC`

	err := r.db.SelectContext(ctx, &users, query)
	return users, err
}

func (r *SQLiteRepository) UpdateUserLastLogin(ctx context.Context, id string, t time.Time) error {
	query := `UPDATE usuarios SET ultimo_login = ? WHERE id = ?`
	_, err := r.db.ExecContext(ctx, query, t, id)
	return err
}

func (r *SQLiteRepository) UpdateUserPassword(ctx context.Context, id, hash, salt string) error {
	query := `UPDATE usuarios SET password_hash = ?, password_salt = ? WHERE id = ?`
	_, err := r.db.ExecContext(ctx, query, hash, salt, id)
	return err
}

func (r *SQLiteRepository) SetUserMFA(ctx context.Context, id, secret string) error {
	query := `UPDATE usuarios SET mfa_ativado = ?, mfa_secret = ? WHERE id = ?`
	_, err := r.db.ExecContext(ctx, query, true, secret, id)
	return err
}

func (r *SQLiteRepository) SetUserActive(ctx context.Context, id string, active bool) error {
	query := `UPDATE usuarios SET ativo = ? WHERE id = ?`
	_, err := r.db.ExecContext(ctx, query, active, id)
	return err
}

func (r *SQLiteRepository) DeleteUser(ctx context.Context, id string) error {
	query := `DELETE FROM usuarios WHERE id = ?`
	_, err := r.db.ExecContext(ctx, query, id)
	return err
}

func (r *SQLiteRepository) CountUsers(ctx context.Context) (int, error) {
	var count int
	query := `SELECT COUNT(1) FROM usuarios`

	err := r.db.GetContext(ctx, &count, query)
	return count, err
}

// AuditRepository implementation

func (r *SQLiteRepository) CreateAuditLog(ctx context.Context, e *models.AuditLogEntry) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}

	query := `
		INSERT INTO auditoria (id, timestamp, usuario, acao, descricao, status, dados_senseis)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		e.ID,
		e.Timestamp,
		e.Username,
		e.Action,
		e.Description,
		e.Status,
		e.SensitiveData,
	)

	return err
}

func (r *SQLiteRepository) ListAuditLog(ctx context.Context, username string, limit int) ([]*models.AuditLogEntry, error) {
	entries := []*models.AuditLogEntry{}

	if username != "" {
		query := `SELECT * FROM auditoria WHERE usuario = ? ORDER BY timestamp DESC LIMIT ?`
		err := r.db.SelectContext(ctx, &entries, query, username, limit)
		return entries, err
	}

	query := `SELECT * FROM auditoria ORDER BY timestamp DESC LIMIT ?`
	err := r.db.SelectContext(ctx, &entries, query, limit)
	return entries, err
}
