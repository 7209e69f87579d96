package models

import "time"

// User is a dashboard/API account. Password material is stored as a
// hex-encoded PBKDF2 hash plus its per-user salt and is never serialized.
type User struct {
	ID           string     `json:"id,omitempty" db:"id"`
	Username     string     `json:"username" db:"username"`
	PasswordHash string     `json:"-" db:"password_hash"`
	PasswordSalt string     `json:"-" db:"password_salt"`
	Name         string     `json:"nome" db:"nome"`
	Role         string     `json:"role" db:"role"` // admin | gestor | usuario
	Email        string     `json:"email" db:"email"`
	CreatedAt    time.Time  `json:"criado_em" db:"criado_em"`
	LastLogin    *time.Time `json:"ultimo_login,omitempty" db:"ultimo_login"`
	Active       bool       `json:"ativo" db:"ativo"`
	MFAEnabled   bool       `json:"mfa_ativado" db:"mfa_ativado"`
	MFASecret    *string    `json:"-" db:"mfa_secret"`
}

// Profile is the user view returned on login and from user listings,
// stripped of anything secret.
type Profile struct {
	Username string `json:"username"`
	Name     string `json:"nome"`
	Role     string `json:"role"`
	Email    string `json:"email"`
}

// Profile returns the public view of the user.
func (u *User) Profile() Profile {
	return Profile{
		Username: u.Username,
		Name:     u.Name,
		Role:     u.Role,
		Email:    u.Email,
	}
}
