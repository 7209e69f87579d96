// Package mfa implements TOTP provisioning and verification with a wide
// clock-skew window: codes are accepted for time offsets of -10..+10
// periods (30s each) around now, i.e. +-5 minutes. The wide window
// tolerates drifting sensor-kiosk clocks at the cost of a larger
// brute-force acceptance window.
package mfa

import (
	"bytes"
	"context"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"image/png"
	"time"

	"github.com/pquerna/otp/totp"

	"github.com/smartbin/smartbin-backend/internal/models"
)

const (
	// Issuer is shown in authenticator apps.
	Issuer = "Lixeira Inteligente"
	// SecretSize is the TOTP secret size in bytes.
	SecretSize = 20

	totpPeriod = 30 * time.Second
	// skewSteps periods are tested on either side of now.
	skewSteps = 10

	qrImageSize = 256
)

// UserStore is the slice of the repository the verifier needs.
type UserStore interface {
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	SetUserMFA(ctx context.Context, id, secret string) error
}

// Provisioned is the result of a QR-provisioning request.
type Provisioned struct {
	Secret string `json:"secret"`
	URL    string `json:"url"`
	QRCode string `json:"qr_code"` // base64 PNG data URI
}

// Verifier provisions and verifies TOTP secrets.
type Verifier struct {
	users   UserStore
	pending *PendingSecrets
	now     func() time.Time
}

// NewVerifier creates a TOTP verifier over the given user store.
func NewVerifier(users UserStore, pending *PendingSecrets) *Verifier {
	return &Verifier{users: users, pending: pending, now: time.Now}
}

// Provision generates a fresh secret for the user, parks it in the
// pending cache, and returns the otpauth:// URL plus a scannable QR code.
func (v *Verifier) Provision(username string) (*Provisioned, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      Issuer,
		AccountName: username,
		SecretSize:  SecretSize,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate TOTP key: %w", err)
	}

	img, err := key.Image(qrImageSize, qrImageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to render QR code: %w", err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode QR code: %w", err)
	}

	v.pending.Put(username, key.Secret())

	return &Provisioned{
		Secret: key.Secret(),
		URL:    key.URL(),
		QRCode: "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()),
	}, nil
}

// Activate resolves the pending secret for the user and tests the code
// against the skew window. On a match the secret is persisted on the user
// record and the pending entry dropped.
func (v *Verifier) Activate(ctx context.Context, username, code string) error {
	secret, ok := v.pending.Get(username)
	if !ok {
		return ErrNoSecretPending
	}
	if !v.matchCode(secret, code) {
		return ErrInvalidCode
	}

	u, err := v.users.GetUserByUsername(ctx, username)
	if err != nil {
		return fmt.Errorf("failed to load user: %w", err)
	}
	if u == nil {
		return ErrNoSecretPending
	}
	if err := v.users.SetUserMFA(ctx, u.ID, secret); err != nil {
		return fmt.Errorf("failed to persist MFA secret: %w", err)
	}
	v.pending.Delete(username)
	return nil
}

// VerifyLogin checks a login-time code against the user's stored secret.
// Users without MFA enabled fail fast with ErrNotRequired.
func (v *Verifier) VerifyLogin(ctx context.Context, username, code string) error {
	u, err := v.users.GetUserByUsername(ctx, username)
	if err != nil {
		return fmt.Errorf("failed to load user: %w", err)
	}
	if u == nil || !u.MFAEnabled {
		return ErrNotRequired
	}
	if u.MFASecret == nil || *u.MFASecret == "" {
		return ErrInvalidCode
	}
	if !v.matchCode(*u.MFASecret, code) {
		return ErrInvalidCode
	}
	return nil
}

// matchCode tests the code at every offset in the skew window, accepting
// on first match.
func (v *Verifier) matchCode(secret, code string) bool {
	now := v.now()
	for i := -skewSteps; i <= skewSteps; i++ {
		expected, err := totp.GenerateCode(secret, now.Add(time.Duration(i)*totpPeriod))
		if err != nil {
			return false
		}
		if subtle.ConstantTimeCompare([]byte(expected), []byte(code)) == 1 {
			return true
		}
	}
	return false
}
