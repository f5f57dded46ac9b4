package service

import (
	"database/sql"
	"errors"

	"github.com/njprem/authcore-api/internal/repository/ports"
	"github.com/njprem/authcore-api/internal/repository/postgres"
)

var (
	ErrInvalidInput         = errors.New("invalid input")
	ErrPasswordTooWeak      = errors.New("password must be at least 8 characters")
	ErrInvalidCredentials   = errors.New("invalid email or password")
	ErrUnauthorized         = errors.New("unauthorized")
	ErrEmailAlreadyUsed     = errors.New("email already registered")
	ErrRateLimited          = errors.New("too many requests, please try again later")
	ErrResetTokenInvalid    = errors.New("reset token is invalid or has expired")
	ErrIncorrectPassword    = errors.New("current password is incorrect")
	ErrUserNotFound         = errors.New("user not found")
	ErrProjectNotFound      = errors.New("project not found")
	ErrFederatedUnavailable = errors.New("federated login is not configured")
)

func isNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows) || errors.Is(err, ports.ErrNotFound)
}

func isUniqueViolation(err error) bool {
	return postgres.IsUniqueViolation(err) || errors.Is(err, ports.ErrConflict)
}
