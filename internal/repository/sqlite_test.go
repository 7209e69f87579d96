package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartbin/smartbin-backend/internal/models"
	"github.com/smartbin/smartbin-backend/migrations"
)

func setupTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	migrationSQL, err := migrations.Load()
	require.NoError(t, err)
	require.NoError(t, repo.RunMigrations(migrationSQL))
	return repo
}

func TestCreateAndListReadings(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()
	base := time.Date(2025, 6, 30, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		err := repo.CreateReading(ctx, &models.Reading{
			Timestamp: base.Add(time.Duration(i) * time.Hour),
			WeightKg:  float64(i + 1),
			SensorID:  "s1",
			Source:    "api",
		})
		require.NoError(t, err)
	}

	readings, err := repo.ListReadings(ctx, 10)
	require.NoError(t, err)
	require.Len(t, readings, 3)
	// Newest first.
	assert.Equal(t, 3.0, readings[0].WeightKg)
	assert.Equal(t, 1.0, readings[2].WeightKg)
	assert.NotEmpty(t, readings[0].ID)

	limited, err := repo.ListReadings(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestListReadingsSince(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()
	base := time.Date(2025, 6, 30, 12, 0, 0, 0, time.UTC)

	old := &models.Reading{Timestamp: base.AddDate(0, 0, -40), WeightKg: 99, SensorID: "s1"}
	recent1 := &models.Reading{Timestamp: base.AddDate(0, 0, -2), WeightKg: 1, SensorID: "s1"}
	recent2 := &models.Reading{Timestamp: base.AddDate(0, 0, -1), WeightKg: 2, SensorID: "s2"}
	for _, r := range []*models.Reading{old, recent1, recent2} {
		require.NoError(t, repo.CreateReading(ctx, r))
	}

	since := base.AddDate(0, 0, -30)
	readings, err := repo.ListReadingsSince(ctx, since, "", true)
	require.NoError(t, err)
	require.Len(t, readings, 2)
	assert.Equal(t, 1.0, readings[0].WeightKg)
	assert.Equal(t, 2.0, readings[1].WeightKg)

	filtered, err := repo.ListReadingsSince(ctx, since, "s2", true)
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, "s2", filtered[0].SensorID)

	desc, err := repo.ListReadingsSince(ctx, since, "", false)
	require.NoError(t, err)
	assert.Equal(t, 2.0, desc[0].WeightKg)
}

func TestDistinctSensors(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	for _, sensor := range []string{"s2", "s1", "s2", "s1"} {
		require.NoError(t, repo.CreateReading(ctx, &models.Reading{
			Timestamp: time.Now().UTC(),
			SensorID:  sensor,
		}))
	}

	sensors, err := repo.DistinctSensors(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"s1", "s2"}, sensors)
}

func TestThingSpeakTimestampExists(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	ts := "2025-06-30T11:59:00Z"
	require.NoError(t, repo.CreateReading(ctx, &models.Reading{
		Timestamp:           time.Now().UTC(),
		SensorID:            "esp32-lixeira-001",
		ThingSpeakTimestamp: &ts,
	}))

	exists, err := repo.ThingSpeakTimestampExists(ctx, ts)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.ThingSpeakTimestampExists(ctx, "2025-06-30T12:00:00Z")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestDeleteReadingsBefore(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()
	base := time.Date(2025, 6, 30, 12, 0, 0, 0, time.UTC)

	require.NoError(t, repo.CreateReading(ctx, &models.Reading{Timestamp: base.AddDate(0, 0, -100), SensorID: "s1"}))
	require.NoError(t, repo.CreateReading(ctx, &models.Reading{Timestamp: base, SensorID: "s1"}))

	deleted, err := repo.DeleteReadingsBefore(ctx, base.AddDate(0, 0, -30))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	remaining, err := repo.ListReadings(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, remaining, 1)
}

func TestUserLifecycle(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	u := &models.User{
		Username:     "alice",
		PasswordHash: "hash",
		PasswordSalt: "salt",
		Name:         "Alice",
		Role:         "gestor",
		Email:        "alice@example.com",
		Active:       true,
	}
	require.NoError(t, repo.CreateUser(ctx, u))
	assert.NotEmpty(t, u.ID)

	got, err := repo.GetUserByUsername(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "gestor", got.Role)
	assert.True(t, got.Active)
	assert.False(t, got.MFAEnabled)

	// Missing users are (nil, nil).
	missing, err := repo.GetUserByUsername(ctx, "bob")
	require.NoError(t, err)
	assert.Nil(t, missing)

	// Duplicate username violates the unique constraint.
	err = repo.CreateUser(ctx, &models.User{Username: "alice", PasswordHash: "x", PasswordSalt: "y"})
	assert.Error(t, err)

	now := time.Date(2025, 6, 30, 12, 0, 0, 0, time.UTC)
	require.NoError(t, repo.UpdateUserLastLogin(ctx, u.ID, now))
	require.NoError(t, repo.UpdateUserPassword(ctx, u.ID, "hash2", "salt2"))
	require.NoError(t, repo.SetUserMFA(ctx, u.ID, "totp-secret"))
	require.NoError(t, repo.SetUserActive(ctx, u.ID, false))

	got, err = repo.GetUserByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "hash2", got.PasswordHash)
	require.NotNil(t, got.LastLogin)
	assert.True(t, got.MFAEnabled)
	require.NotNil(t, got.MFASecret)
	assert.Equal(t, "totp-secret", *got.MFASecret)
	assert.False(t, got.Active)

	count, err := repo.CountUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	require.NoError(t, repo.DeleteUser(ctx, u.ID))
	count, err = repo.CountUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestListUsers(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	base := time.Date(2025, 6, 30, 12, 0, 0, 0, time.UTC)
	for i, name := range []string{"alice", "bob"} {
		require.NoError(t, repo.CreateUser(ctx, &models.User{
			Username:     name,
			PasswordHash: "h",
			PasswordSalt: "s",
			CreatedAt:    base.Add(time.Duration(i) * time.Minute),
		}))
	}

	users, err := repo.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "alice", users[0].Username)
	assert.Equal(t, "bob", users[1].Username)
}

func TestAuditLog(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()
	base := time.Date(2025, 6, 30, 12, 0, 0, 0, time.UTC)

	entries := []*models.AuditLogEntry{
		{Timestamp: base, Username: "alice", Action: "LOGIN", Status: models.AuditStatusSuccess},
		{Timestamp: base.Add(time.Minute), Username: "bob", Action: "LOGIN", Status: models.AuditStatusError},
		{Timestamp: base.Add(2 * time.Minute), Username: "alice", Action: "EXPORT", Status: models.AuditStatusSuccess, SensitiveData: true},
	}
	for _, e := range entries {
		require.NoError(t, repo.CreateAuditLog(ctx, e))
	}

	all, err := repo.ListAuditLog(ctx, "", 10)
	require.NoError(t, err)
	require.Len(t, all, 3)
	// Newest first.
	assert.Equal(t, "EXPORT", all[0].Action)
	assert.True(t, all[0].SensitiveData)

	alice, err := repo.ListAuditLog(ctx, "alice", 10)
	require.NoError(t, err)
	require.Len(t, alice, 2)
	for _, e := range alice {
		assert.Equal(t, "alice", e.Username)
	}

	limited, err := repo.ListAuditLog(ctx, "", 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}
