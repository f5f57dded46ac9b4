package domain

import (
	"time"

	"github.com/google/uuid"
)

// PasswordResetToken is a single-use credential mailed to the account owner.
// Token is the lookup secret; ID only identifies the row.
type PasswordResetToken struct {
	ID        uuid.UUID `db:"id" json:"id"`
	UserID    uuid.UUID `db:"user_id" json:"user_id"`
	Token     string    `db:"token" json:"-"`
	ExpiresAt time.Time `db:"expires_at" json:"expires_at"`
	Used      bool      `db:"used" json:"used"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Actionable reports whether the token can still be consumed at now.
func (t *PasswordResetToken) Actionable(now time.Time) bool {
	return !t.Used && t.ExpiresAt.After(now)
}
