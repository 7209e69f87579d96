package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/smartbin/smartbin-backend/internal/models"
)

// PostgresRepository implements Repository using PostgreSQL
type PostgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(connectionString string) (*PostgresRepository, error) {
	db, err := sqlx.Connect("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}

	// Set connection pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	return &PostgresRepository{db: db}, nil
}

// Close closes the database connection
func (r *PostgresRepository) Close() error {
	return r.db.Close()
}

// Ping verifies the database connection
func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// RunMigrations runs database migrations
func (r *PostgresRepository) RunMigrations(migrationSQL string) error {
	_, err := r.db.Exec(migrationSQL)
	return err
}

// ReadingRepository implementation

func (r *PostgresRepository) CreateReading(ctx context.Context, reading *models.Reading) error {
	if reading.ID == "" {
		reading.ID = uuid.New().String()
	}
	if reading.Timestamp.IsZero() {
		reading.Timestamp = time.Now().UTC()
	}

	query := `
		INSERT INTO leituras (id, timestamp, peso_kg, sensor_id, temperatura, umidade, localizacao, fonte, timestamp_thingspeak)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
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

func (r *PostgresRepository) ListReadings(ctx context.Context, limit int) ([]*models.Reading, error) {
	readings := []*models.Reading{}
	query := `SELECT * FROM leituras ORDER BY timestamp DESC LIMIT $1`

	err := r.db.SelectContext(ctx, &readings, query, limit)
	return readings, err
}

func (r *PostgresRepository) ListReadingsSince(ctx context.Context, since time.Time, sensorID string, ascending bool) ([]*models.Reading, error) {
	readings := []*models.Reading{}
	order := "DESC"
	if ascending {
		order = "ASC"
	}

	if sensorID != "" {
		query := `SELECT * FROM leituras WHERE timestamp >= $1 AND sensor_id = $2 ORDER BY timestamp ` + order
		err := r.db.SelectContext(ctx, &readings, query, since, sensorID)
		return readings, err
	}

	query := `SELECT * FROM leituras WHERE timestamp >= $1 ORDER BY timestamp ` + order
	err := r.db.SelectContext(ctx, &readings, query, since)
	return readings, err
}

func (r *PostgresRepository) DistinctSensors(ctx context.Context) ([]string, error) {
	sensors := []string{}
	query := `SELECT DISTINCT sensor_id FROM leituras WHERE sensor_id != '' ORDER BY sensor_id`

	err := r.db.SelectContext(ctx, &sensors, query)
	return sensors, err
}

func (r *PostgresRepository) ThingSpeakTimestampExists(ctx context.Context, ts string) (bool, error) {
	var count int
	query := `SELECT COUNT(1) FROM leituras WHERE timestamp_thingspeak = $1`

	if err := r.db.GetContext(ctx, &count, query, ts); err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *PostgresRepository) DeleteReadingsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `DELETE FROM leituras WHERE timestamp < $1`

	res, err := r.db.ExecContext(ctx, query, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// UserRepository implementation

func (r *PostgresRepository) CreateUser(ctx context.Context, u *models.User) error {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO usuarios (id, username, password_hash, password_salt, nome, role, email, criado_em, ultimo_login, ativo, mfa_ativado, mfa_secret)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
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

func (r *PostgresRepository) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var u models.User
	query := `SELECT * FROM usuarios WHERE username = $1`

	err := r.db.GetContext(ctx, &u, query, username)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *PostgresRepository) ListUsers(ctx context.Context) ([]*models.User, error) {
	users := []*models.User{}
	query := `SELECT * FROM usuarios ORDER BY criado_em ASC`

	err := r.db.SelectContext(ctx, &users, query)
	return users, err
}

func (r *PostgresRepository) UpdateUserLastLogin(ctx context.Context, id string, t time.Time) error {
	query := `UPDATE usuarios SET ultimo_login = $1 WHERE id = $2`
	_, err := r.db.ExecContext(ctx, query, t, id)
	return err
}

func (r *PostgresRepository) UpdateUserPassword(ctx context.Context, id, hash, salt string) error {
	query := `UPDATE usuarios SET password_hash = $1, password_salt = $2 WHERE id = $3`
	_, err := r.db.ExecContext(ctx, query, hash, salt, id)
	return err
}

func (r *PostgresRepository) SetUserMFA(ctx context.Context, id, secret string) error {
	query := `UPDATE usuarios SET mfa_ativado = $1, mfa_secret = $2 WHERE id = $3`
	_, err := r.db.ExecContext(ctx, query, true, secret, id)
	return err
}

func (r *PostgresRepository) SetUserActive(ctx context.Context, id string, active bool) error {
	query := `UPDATE usuarios SET ativo = $1 WHERE id = $2`
	_, err := r.db.ExecContext(ctx, query, active, id)
	return err
}

func (r *PostgresRepository) DeleteUser(ctx context.Context, id string) error {
	query := `DELETE FROM usuarios WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)
	return err
}

func (r *PostgresRepository) CountUsers(ctx context.Context) (int, error) {
	var count int
	query := `SELECT COUNT(1) FROM usuarios`

	err := r.db.GetContext(ctx, &count, query)
	return count, err
}

// AuditRepository implementation

func (r *PostgresRepository) CreateAuditLog(ctx context.Context, e *models.AuditLogEntry) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}

	query := `
		INSERT INTO auditoria (id, timestamp, usuario, acao, descricao, status, dados_senseis)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
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

func (r *PostgresRepository) ListAuditLog(ctx context.Context, username string, limit int) ([]*models.AuditLogEntry, error) {
	entries := []*models.AuditLogEntry{}

	if username != "" {
		query := `SELECT * FROM auditoria WHERE usuario = $1 ORDER BY timestamp DESC LIMIT $2`
		err := r.db.SelectContext(ctx, &entries, query, username, limit)
		return entries, err
	}

	query := `SELECT * FROM auditoria ORDER BY timestamp DESC LIMIT $1`
	err := r.db.SelectContext(ctx, &entries, query, limit)
	return entries, err
}
