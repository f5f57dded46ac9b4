package ports

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/njprem/authcore-api/internal/domain"
)

type PasswordResetRepository interface {
	Create(ctx context.Context, userID uuid.UUID, token string, expiresAt time.Time) (*domain.PasswordResetToken, error)
	// FindActiveByToken returns the unused token whose expiry is after now.
	FindActiveByToken(ctx context.Context, token string, now time.Time) (*domain.PasswordResetToken, error)
	// MarkUsed flips an unused token to used. It reports a not-found error
	// when the token is missing or was already used, so at most one caller
	// can claim a token.
	MarkUsed(ctx context.Context, id uuid.UUID) error
	// DeleteByUser removes the user's tokens except the ids listed in keep.
	DeleteByUser(ctx context.Context, userID uuid.UUID, keep ...uuid.UUID) error
}
