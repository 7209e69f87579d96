package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

const (
	pbkdf2Iterations = 100000
	pbkdf2KeyLen     = 32
	saltBytes        = 16
)

// HashPassword derives a PBKDF2-HMAC-SHA256 hash (100k iterations) with a
// fresh random 16-byte salt. Both hash and salt are returned hex-encoded.
func HashPassword(password string) (hash, salt string, err error) {
	raw := make([]byte, saltBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", "", fmt.Errorf("failed to generate salt: %w", err)
	}
	salt = hex.EncodeToString(raw)
	return hashWithSalt(password, salt), salt, nil
}

// CheckPassword recomputes the hash with the stored salt and compares in
// constant time. Returns nil on match.
func CheckPassword(hash, salt, password string) error {
	computed := hashWithSalt(password, salt)
	if subtle.ConstantTimeCompare([]byte(computed), []byte(hash)) != 1 {
		return ErrWrongPassword
	}
	return nil
}

func hashWithSalt(password, salt string) string {
	key := pbkdf2.Key([]byte(password), []byte(salt), pbkdf2Iterations, pbkdf2KeyLen, sha256.New)
	return hex.EncodeToString(key)
}
