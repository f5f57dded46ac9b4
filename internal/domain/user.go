package domain

import (
	"time"

	"github.com/google/uuid"
)

type AuthProvider string

const (
	ProviderPassword  AuthProvider = "password"
	ProviderFederated AuthProvider = "federated"
)

type User struct {
	ID           uuid.UUID    `db:"id" json:"id"`
	Email        string       `db:"email" json:"email"`
	Name         string       `db:"name" json:"name"`
	PasswordHash *string      `db:"password_hash" json:"-"`
	PhotoURL     *string      `db:"photo_url" json:"photo_url,omitempty"`
	Provider     AuthProvider `db:"auth_provider" json:"auth_provider"`
	CreatedAt    time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time    `db:"updated_at" json:"updated_at"`
}

// HasPassword reports whether the account can sign in with a password.
func (u *User) HasPassword() bool {
	return u.PasswordHash != nil && *u.PasswordHash != ""
}
