package mfa

import (
	"context"
	"testing"
	"time"

	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartbin/smartbin-backend/internal/models"
)

type memUserStore struct {
	users map[string]*models.User
}

func (s *memUserStore) GetUserByUsername(_ context.Context, username string) (*models.User, error) {
	return s.users[username], nil
}

func (s *memUserStore) SetUserMFA(_ context.Context, id, secret string) error {
	for _, u := range s.users {
		if u.ID == id {
			u.MFAEnabled = true
			u.MFASecret = &secret
		}
	}
	return nil
}

var testNow = time.Date(2025, 6, 30, 12, 0, 0, 0, time.UTC)

func newTestVerifier(users ...*models.User) (*Verifier, *memUserStore) {
	store := &memUserStore{users: make(map[string]*models.User)}
	for _, u := range users {
		store.users[u.Username] = u
	}
	v := NewVerifier(store, NewPendingSecrets(DefaultPendingTTL))
	v.now = func() time.Time { return testNow }
	return v, store
}

func codeAt(t *testing.T, secret string, at time.Time) string {
	t.Helper()
	code, err := totp.GenerateCode(secret, at)
	require.NoError(t, err)
	return code
}

func TestProvisionAndActivate(t *testing.T) {
	v, store := newTestVerifier(&models.User{ID: "u1", Username: "alice"})

	prov, err := v.Provision("alice")
	require.NoError(t, err)
	assert.NotEmpty(t, prov.Secret)
	assert.Contains(t, prov.URL, "otpauth://totp/")
	assert.Contains(t, prov.URL, "Lixeira")
	assert.Contains(t, prov.QRCode, "data:image/png;base64,")

	err = v.Activate(context.Background(), "alice", codeAt(t, prov.Secret, testNow))
	require.NoError(t, err)

	u := store.users["alice"]
	assert.True(t, u.MFAEnabled)
	require.NotNil(t, u.MFASecret)
	assert.Equal(t, prov.Secret, *u.MFASecret)

	// Pending entry is consumed.
	err = v.Activate(context.Background(), "alice", codeAt(t, prov.Secret, testNow))
	assert.ErrorIs(t, err, ErrNoSecretPending)
}

func TestActivateRejectsBadCode(t *testing.T) {
	v, store := newTestVerifier(&models.User{ID: "u1", Username: "alice"})

	_, err := v.Provision("alice")
	require.NoError(t, err)

	err = v.Activate(context.Background(), "alice", "000000")
	assert.ErrorIs(t, err, ErrInvalidCode)
	assert.False(t, store.users["alice"].MFAEnabled)
}

func TestActivateWithoutProvision(t *testing.T) {
	v, _ := newTestVerifier(&models.User{ID: "u1", Username: "alice"})

	err := v.Activate(context.Background(), "alice", "123456")
	assert.ErrorIs(t, err, ErrNoSecretPending)
}

func TestVerifyLoginSkewWindow(t *testing.T) {
	secret := "JBSWY3DPEHPK3PXPJBSWY3DPEHPK3PXP"
	v, _ := newTestVerifier(&models.User{
		ID: "u1", Username: "alice", MFAEnabled: true, MFASecret: &secret,
	})
	ctx := context.Background()

	// Codes drifted up to 5 minutes either way are accepted.
	assert.NoError(t, v.VerifyLogin(ctx, "alice", codeAt(t, secret, testNow)))
	assert.NoError(t, v.VerifyLogin(ctx, "alice", codeAt(t, secret, testNow.Add(300*time.Second))))
	assert.NoError(t, v.VerifyLogin(ctx, "alice", codeAt(t, secret, testNow.Add(-300*time.Second))))

	// Outside the window the code is rejected.
	err := v.VerifyLogin(ctx, "alice", codeAt(t, secret, testNow.Add(-360*time.Second)))
	assert.ErrorIs(t, err, ErrInvalidCode)
	err = v.VerifyLogin(ctx, "alice", codeAt(t, secret, testNow.Add(360*time.Second)))
	assert.ErrorIs(t, err, ErrInvalidCode)
}

func TestVerifyLoginNotRequired(t *testing.T) {
	v, _ := newTestVerifier(&models.User{ID: "u1", Username: "alice"})

	err := v.VerifyLogin(context.Background(), "alice", "123456")
	assert.ErrorIs(t, err, ErrNotRequired)

	// Unknown users look the same as users without MFA.
	err = v.VerifyLogin(context.Background(), "bob", "123456")
	assert.ErrorIs(t, err, ErrNotRequired)
}

func TestPendingSecretsTTL(t *testing.T) {
	p := NewPendingSecrets(time.Minute)
	base := testNow
	p.now = func() time.Time { return base }

	p.Put("alice", "secret-a")
	p.Put("bob", "secret-b")
	assert.Equal(t, 2, p.Len())

	secret, ok := p.Get("alice")
	require.True(t, ok)
	assert.Equal(t, "secret-a", secret)

	// Refresh alice, let bob expire.
	base = base.Add(45 * time.Second)
	p.Put("alice", "secret-a2")
	base = base.Add(30 * time.Second)

	// Only bob is past its expiry now.
	assert.Equal(t, 1, p.Evict())
	assert.Equal(t, 1, p.Len())

	_, ok = p.Get("bob")
	assert.False(t, ok)
	secret, ok = p.Get("alice")
	require.True(t, ok)
	assert.Equal(t, "secret-a2", secret)
}
