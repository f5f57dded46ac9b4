package service

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/njprem/authcore-api/internal/repository/ports"
	"github.com/njprem/authcore-api/internal/util"
)

const (
	minPasswordLength = 8

	DefaultResetTTL         = time.Hour
	DefaultResetMaxRequests = 5
	DefaultResetWindow      = time.Minute

	resetRateKeyPrefix = "password-reset:"
)

type RateLimiter interface {
	Allow(key string, max int, period time.Duration) bool
}

type PasswordResetConfig struct {
	TTL         time.Duration
	MaxRequests int
	Window      time.Duration
	// LinkBaseURL is the frontend origin the reset link points at.
	LinkBaseURL string
}

// IssuedReset is handed to the delivery channel; Token must never be logged.
type IssuedReset struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Email     string
	Token     string
	Link      string
	ExpiresAt time.Time
}

type PasswordResetService struct {
	users   ports.UserRepository
	resets  ports.PasswordResetRepository
	limiter RateLimiter
	cfg     PasswordResetConfig
	now     func() time.Time
}

func NewPasswordResetService(users ports.UserRepository, resets ports.PasswordResetRepository, limiter RateLimiter, cfg PasswordResetConfig) *PasswordResetService {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultResetTTL
	}
	if cfg.MaxRequests <= 0 {
		cfg.MaxRequests = DefaultResetMaxRequests
	}
	if cfg.Window <= 0 {
		cfg.Window = DefaultResetWindow
	}
	cfg.LinkBaseURL = strings.TrimRight(strings.TrimSpace(cfg.LinkBaseURL), "/")
	return &PasswordResetService{
		users:   users,
		resets:  resets,
		limiter: limiter,
		cfg:     cfg,
		now:     time.Now,
	}
}

// Request issues a reset token for the account registered under email.
// It returns (nil, nil) when no such account exists; callers must answer both
// cases identically. The limiter is charged before the lookup so the
// throttling behaviour does not reveal which addresses are registered.
func (s *PasswordResetService) Request(ctx context.Context, email string) (*IssuedReset, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, ErrInvalidInput
	}
	if s.limiter != nil && !s.limiter.Allow(resetRateKeyPrefix+email, s.cfg.MaxRequests, s.cfg.Window) {
		return nil, ErrRateLimited
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, err
	}

	token, err := util.GenerateResetToken()
	if err != nil {
		return nil, fmt.Errorf("generate reset token: %w", err)
	}
	expiresAt := s.now().Add(s.cfg.TTL)
	record, err := s.resets.Create(ctx, user.ID, token, expiresAt)
	if err != nil {
		return nil, fmt.Errorf("store reset token: %w", err)
	}

	return &IssuedReset{
		ID:        record.ID,
		UserID:    user.ID,
		Email:     user.Email,
		Token:     token,
		Link:      s.resetLink(token),
		ExpiresAt: record.ExpiresAt,
	}, nil
}

// Consume sets a new password using an actionable reset token. The token is
// claimed before the password is written, so concurrent calls with the same
// token succeed at most once. Every other token of the user is deleted.
func (s *PasswordResetService) Consume(ctx context.Context, token, newPassword string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return ErrResetTokenInvalid
	}

	reset, err := s.resets.FindActiveByToken(ctx, token, s.now())
	if err != nil {
		if isNotFound(err) {
			return ErrResetTokenInvalid
		}
		return err
	}
	if !reset.Actionable(s.now()) {
		return ErrResetTokenInvalid
	}

	if err := validatePassword(newPassword); err != nil {
		return err
	}
	hash, err := util.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.resets.MarkUsed(ctx, reset.ID); err != nil {
		if isNotFound(err) {
			return ErrResetTokenInvalid
		}
		return err
	}
	if err := s.users.UpdatePassword(ctx, reset.UserID, hash); err != nil {
		if isNotFound(err) {
			return ErrResetTokenInvalid
		}
		return err
	}
	return s.resets.DeleteByUser(ctx, reset.UserID, reset.ID)
}

// ChangePassword replaces the password of a signed-in user and closes every
// outstanding reset link.
func (s *PasswordResetService) ChangePassword(ctx context.Context, userID uuid.UUID, currentPassword, newPassword string) error {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if isNotFound(err) {
			return ErrUserNotFound
		}
		return err
	}
	if !user.HasPassword() || !util.VerifyPassword(currentPassword, *user.PasswordHash) {
		return ErrIncorrectPassword
	}
	if err := validatePassword(newPassword); err != nil {
		return err
	}

	hash, err := util.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.users.UpdatePassword(ctx, user.ID, hash); err != nil {
		return err
	}
	return s.resets.DeleteByUser(ctx, user.ID)
}

// Revoke makes an issued token unusable, e.g. when it could not be delivered.
func (s *PasswordResetService) Revoke(ctx context.Context, resetID uuid.UUID) error {
	if err := s.resets.MarkUsed(ctx, resetID); err != nil && !isNotFound(err) {
		return err
	}
	return nil
}

func (s *PasswordResetService) resetLink(token string) string {
	return s.cfg.LinkBaseURL + "/reset-password?token=" + url.QueryEscape(token)
}

func validatePassword(password string) error {
	if strings.TrimSpace(password) == "" {
		return ErrInvalidInput
	}
	if utf8.RuneCountInString(password) < minPasswordLength {
		return ErrPasswordTooWeak
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.TrimSpace(email)
}
