package auth

import "errors"

var (
	ErrUserNotFound  = errors.New("user not found")
	ErrUserExists    = errors.New("user already exists")
	ErrUserDisabled  = errors.New("user disabled")
	ErrWrongPassword = errors.New("wrong password")
	ErrInvalidToken  = errors.New("invalid or missing session token")
)
