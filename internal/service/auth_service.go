package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/njprem/authcore-api/internal/domain"
	"github.com/njprem/authcore-api/internal/repository/ports"
	"github.com/njprem/authcore-api/internal/util"
)

// PasswordResetRequestedMessage is returned for every forgot-password call,
// whether or not the address belongs to an account.
const PasswordResetRequestedMessage = "If an account exists for that email, a password reset link has been sent."

// Verified against when the email is unknown so both signin branches cost one
// key derivation.
var dummyPasswordHash = mustHash("authcore-dummy-password")

type PasswordResetSender interface {
	SendPasswordReset(ctx context.Context, email, link string) error
}

type AuthService struct {
	users      ports.UserRepository
	resets     *PasswordResetService
	jwt        *util.JWTManager
	identities IdentityVerifier
	mailer     PasswordResetSender
	photos     *ProfilePhotoCache
}

type AuthResult struct {
	User      *domain.User
	Token     string
	ExpiresAt time.Time
}

func NewAuthService(users ports.UserRepository, resets *PasswordResetService, jwtManager *util.JWTManager, identities IdentityVerifier, mailer PasswordResetSender, photos *ProfilePhotoCache) *AuthService {
	return &AuthService{
		users:      users,
		resets:     resets,
		jwt:        jwtManager,
		identities: identities,
		mailer:     mailer,
		photos:     photos,
	}
}

func (s *AuthService) Signup(ctx context.Context, email, password, name string) (*AuthResult, error) {
	email = normalizeEmail(email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, ErrInvalidInput
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}

	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return nil, ErrEmailAlreadyUsed
	} else if !isNotFound(err) {
		return nil, err
	}

	hash, err := util.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	name = strings.TrimSpace(name)
	if name == "" {
		name = defaultDisplayName(email)
	}
	user, err := s.users.Create(ctx, &domain.User{
		Email:        email,
		Name:         name,
		PasswordHash: &hash,
		Provider:     domain.ProviderPassword,
	})
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrEmailAlreadyUsed
		}
		return nil, err
	}
	return s.issue(user)
}

// Signin reports ErrInvalidCredentials for unknown emails, federated-only
// accounts and wrong passwords alike.
func (s *AuthService) Signin(ctx context.Context, email, password string) (*AuthResult, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if isNotFound(err) {
			util.VerifyPassword(password, dummyPasswordHash)
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !user.HasPassword() {
		util.VerifyPassword(password, dummyPasswordHash)
		return nil, ErrInvalidCredentials
	}
	if !util.VerifyPassword(password, *user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	return s.issue(user)
}

// LoginWithGoogle verifies a Google ID token and signs the user in.
func (s *AuthService) LoginWithGoogle(ctx context.Context, idToken string) (*AuthResult, error) {
	if s.identities == nil {
		return nil, ErrFederatedUnavailable
	}
	identity, err := s.identities.Verify(ctx, idToken)
	if err != nil {
		if errors.Is(err, ErrFederatedUnavailable) {
			return nil, ErrFederatedUnavailable
		}
		log.Printf("auth: federated assertion rejected: %v", err)
		return nil, ErrInvalidCredentials
	}
	return s.FederatedLogin(ctx, *identity)
}

// FederatedLogin trusts identity as already verified. Accounts created here
// never get a password.
func (s *AuthService) FederatedLogin(ctx context.Context, identity FederatedIdentity) (*AuthResult, error) {
	email := normalizeEmail(identity.Email)
	if email == "" {
		return nil, ErrInvalidInput
	}

	user, err := s.users.FindByEmail(ctx, email)
	switch {
	case err == nil:
	case isNotFound(err):
		user, err = s.createFederatedUser(ctx, email, identity)
		if err != nil {
			return nil, err
		}
	default:
		return nil, err
	}

	if s.shouldCachePhoto(user, identity.PhotoURL) {
		if cached, err := s.photos.Cache(ctx, user.ID, identity.PhotoURL); err != nil {
			log.Printf("auth: cache profile photo for user %s: %v", user.ID, err)
		} else if updated, err := s.users.UpdateProfile(ctx, user.ID, nil, &cached); err != nil {
			log.Printf("auth: store cached profile photo for user %s: %v", user.ID, err)
		} else {
			user = updated
		}
	}

	return s.issue(user)
}

func (s *AuthService) createFederatedUser(ctx context.Context, email string, identity FederatedIdentity) (*domain.User, error) {
	name := strings.TrimSpace(identity.Name)
	if name == "" {
		name = defaultDisplayName(email)
	}
	var photo *string
	if p := strings.TrimSpace(identity.PhotoURL); p != "" {
		photo = &p
	}

	user, err := s.users.Create(ctx, &domain.User{
		Email:    email,
		Name:     name,
		PhotoURL: photo,
		Provider: domain.ProviderFederated,
	})
	if err == nil {
		return user, nil
	}
	if !isUniqueViolation(err) {
		return nil, err
	}
	// Lost a race with a concurrent first login for the same address.
	return s.users.FindByEmail(ctx, email)
}

// The provider photo is copied only while the account still points at the
// provider's URL or has no photo at all.
func (s *AuthService) shouldCachePhoto(user *domain.User, picture string) bool {
	picture = strings.TrimSpace(picture)
	if s.photos == nil || picture == "" {
		return false
	}
	if user.PhotoURL == nil || strings.TrimSpace(*user.PhotoURL) == "" {
		return true
	}
	return *user.PhotoURL == picture
}

// Authorize verifies a session token and returns its claims.
func (s *AuthService) Authorize(token string) (*util.Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrUnauthorized
	}
	claims, err := s.jwt.Parse(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	return claims, nil
}

// AuthorizeHeader is Authorize for a raw Authorization header value.
func (s *AuthService) AuthorizeHeader(header string) (*util.Claims, error) {
	token, ok := ParseBearer(header)
	if !ok {
		return nil, ErrUnauthorized
	}
	return s.Authorize(token)
}

// ParseBearer extracts the token from "Bearer <token>". The scheme is case
// insensitive.
func ParseBearer(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	if token == "" || strings.ContainsAny(token, " \t") {
		return "", false
	}
	return token, true
}

func (s *AuthService) Me(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *AuthService) UpdateProfile(ctx context.Context, userID uuid.UUID, name string) (*domain.User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrInvalidInput
	}
	user, err := s.users.UpdateProfile(ctx, userID, &name, nil)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// RequestPasswordReset answers every well-formed request with the same
// message. Delivery failures are logged and the undelivered token is revoked.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	issued, err := s.resets.Request(ctx, email)
	if err != nil {
		return "", err
	}
	if issued == nil {
		return PasswordResetRequestedMessage, nil
	}

	if err := s.sendReset(ctx, issued); err != nil {
		log.Printf("auth: deliver password reset for user %s: %v", issued.UserID, err)
		if rerr := s.resets.Revoke(ctx, issued.ID); rerr != nil {
			log.Printf("auth: revoke undelivered reset %s: %v", issued.ID, rerr)
		}
	}
	return PasswordResetRequestedMessage, nil
}

func (s *AuthService) sendReset(ctx context.Context, issued *IssuedReset) error {
	if s.mailer == nil {
		return errors.New("no password reset sender configured")
	}
	return s.mailer.SendPasswordReset(ctx, issued.Email, issued.Link)
}

func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	return s.resets.Consume(ctx, token, newPassword)
}

// ChangePassword authenticates with the bearer token before touching the
// account.
func (s *AuthService) ChangePassword(ctx context.Context, bearerToken, currentPassword, newPassword string) error {
	claims, err := s.Authorize(bearerToken)
	if err != nil {
		return err
	}
	err = s.resets.ChangePassword(ctx, claims.UserID, currentPassword, newPassword)
	if errors.Is(err, ErrUserNotFound) {
		return ErrUnauthorized
	}
	return err
}

func (s *AuthService) issue(user *domain.User) (*AuthResult, error) {
	token, expiresAt, err := s.jwt.Generate(user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("sign session token: %w", err)
	}
	return &AuthResult{User: user, Token: token, ExpiresAt: expiresAt}, nil
}

func defaultDisplayName(email string) string {
	local, _, _ := strings.Cut(email, "@")
	if local == "" {
		return email
	}
	return local
}

func mustHash(password string) string {
	hash, err := util.HashPassword(password)
	if err != nil {
		panic(err)
	}
	return hash
}
