package mfa

import "errors"

var (
	ErrNoSecretPending = errors.New("no pending MFA secret; generate a QR code first")
	ErrInvalidCode     = errors.New("invalid MFA code")
	ErrNotRequired     = errors.New("MFA not enabled for this user")
)
