package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartbin/smartbin-backend/internal/models"
)

// memUserStore is an in-memory UserStore for gate tests.
type memUserStore struct {
	users map[string]*models.User
}

func newMemUserStore() *memUserStore {
	return &memUserStore{users: make(map[string]*models.User)}
}

func (s *memUserStore) GetUserByUsername(_ context.Context, username string) (*models.User, error) {
	return s.users[username], nil
}

func (s *memUserStore) CreateUser(_ context.Context, u *models.User) error {
	s.users[u.Username] = u
	return nil
}

func (s *memUserStore) UpdateUserLastLogin(_ context.Context, id string, t time.Time) error {
	for _, u := range s.users {
		if u.ID == id {
			u.LastLogin = &t
		}
	}
	return nil
}

func (s *memUserStore) UpdateUserPassword(_ context.Context, id, hash, salt string) error {
	for _, u := range s.users {
		if u.ID == id {
			u.PasswordHash = hash
			u.PasswordSalt = salt
		}
	}
	return nil
}

func newTestGate(t *testing.T) (*Gate, *memUserStore) {
	t.Helper()
	store := newMemUserStore()
	return NewGate(store, NewMemorySessionStore()), store
}

func TestAuthenticate(t *testing.T) {
	gate, _ := newTestGate(t)
	ctx := context.Background()

	_, err := gate.CreateUser(ctx, "alice", "s3cret", "Alice", string(RoleAdmin), "alice@example.com")
	require.NoError(t, err)

	token, u, err := gate.Authenticate(ctx, "alice", "s3cret")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, "alice", u.Username)
	require.NotNil(t, u.LastLogin)

	resolved, err := gate.ResolveToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "alice", resolved.Username)
}

func TestAuthenticateErrorTaxonomy(t *testing.T) {
	gate, store := newTestGate(t)
	ctx := context.Background()

	_, err := gate.CreateUser(ctx, "alice", "s3cret", "Alice", string(RoleUser), "")
	require.NoError(t, err)

	// Unknown user and wrong password are distinct sentinels.
	_, _, err = gate.Authenticate(ctx, "bob", "whatever")
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, _, err = gate.Authenticate(ctx, "alice", "wrong")
	assert.ErrorIs(t, err, ErrWrongPassword)

	store.users["alice"].Active = false
	_, _, err = gate.Authenticate(ctx, "alice", "s3cret")
	assert.ErrorIs(t, err, ErrUserDisabled)
}

func TestCreateUserDuplicate(t *testing.T) {
	gate, _ := newTestGate(t)
	ctx := context.Background()

	_, err := gate.CreateUser(ctx, "alice", "pw1", "", string(RoleUser), "")
	require.NoError(t, err)

	_, err = gate.CreateUser(ctx, "alice", "pw2", "", string(RoleUser), "")
	assert.ErrorIs(t, err, ErrUserExists)
}

func TestChangePassword(t *testing.T) {
	gate, store := newTestGate(t)
	ctx := context.Background()

	_, err := gate.CreateUser(ctx, "alice", "old", "", string(RoleUser), "")
	require.NoError(t, err)
	oldSalt := store.users["alice"].PasswordSalt

	require.NoError(t, gate.ChangePassword(ctx, "alice", "new"))
	assert.NotEqual(t, oldSalt, store.users["alice"].PasswordSalt)

	_, _, err = gate.Authenticate(ctx, "alice", "old")
	assert.ErrorIs(t, err, ErrWrongPassword)
	_, _, err = gate.Authenticate(ctx, "alice", "new")
	assert.NoError(t, err)
}

func TestLogoutInvalidatesToken(t *testing.T) {
	gate, _ := newTestGate(t)
	ctx := context.Background()

	_, err := gate.CreateUser(ctx, "alice", "s3cret", "", string(RoleUser), "")
	require.NoError(t, err)
	token, _, err := gate.Authenticate(ctx, "alice", "s3cret")
	require.NoError(t, err)

	gate.Logout(token)
	_, err = gate.ResolveToken(ctx, token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestPasswordHashing(t *testing.T) {
	hash, salt, err := HashPassword("correct horse")
	require.NoError(t, err)
	assert.Len(t, salt, 32)  // 16 random bytes, hex
	assert.Len(t, hash, 64)  // 32-byte key, hex

	assert.NoError(t, CheckPassword(hash, salt, "correct horse"))
	assert.ErrorIs(t, CheckPassword(hash, salt, "battery staple"), ErrWrongPassword)

	// Same password, fresh salt, different hash.
	hash2, salt2, err := HashPassword("correct horse")
	require.NoError(t, err)
	assert.NotEqual(t, salt, salt2)
	assert.NotEqual(t, hash, hash2)
}

func TestTTLSessionStoreExpiry(t *testing.T) {
	s := NewTTLSessionStore(time.Minute)
	base := time.Date(2025, 6, 30, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return base }

	s.Put("tok", "alice")
	username, ok := s.Get("tok")
	require.True(t, ok)
	assert.Equal(t, "alice", username)

	s.now = func() time.Time { return base.Add(2 * time.Minute) }
	_, ok = s.Get("tok")
	assert.False(t, ok)
}

func TestNewSessionTokenUnique(t *testing.T) {
	t1, err := NewSessionToken()
	require.NoError(t, err)
	t2, err := NewSessionToken()
	require.NoError(t, err)
	assert.NotEqual(t, t1, t2)
	assert.Len(t, t1, 43) // 32 bytes, unpadded base64url
}
