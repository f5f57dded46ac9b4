package http

import (
	"encoding/json"
	"time"

	"github.com/njprem/authcore-api/internal/domain"
	"github.com/njprem/authcore-api/internal/service"
)

// ErrorResponse represents a generic error payload.
type ErrorResponse struct {
	Error string `json:"error" example:"invalid email or password"`
}

// AuthUser is the public view of an account.
type AuthUser struct {
	ID        string    `json:"id" example:"9fd13fd2-63c5-4f29-a210-4a1a8e285f74"`
	Email     string    `json:"email" example:"user@example.com"`
	Name      string    `json:"name" example:"Alex"`
	PhotoURL  *string   `json:"photo_url,omitempty" example:"https://cdn.example.com/avatar.png"`
	Provider  string    `json:"auth_provider" example:"password"`
	CreatedAt time.Time `json:"created_at" example:"2024-01-01T12:00:00Z"`
	UpdatedAt time.Time `json:"updated_at" example:"2024-01-02T09:30:00Z"`
}

// AuthTokenResponse is returned by endpoints that issue session tokens.
type AuthTokenResponse struct {
	Token     string   `json:"token" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."`
	ExpiresAt string   `json:"expires_at" example:"2024-02-01T09:30:00Z"`
	User      AuthUser `json:"user"`
}

type AuthUserResponse struct {
	User AuthUser `json:"user"`
}

// MessageResponse is the body of the forgot/reset/change password endpoints.
type MessageResponse struct {
	Success bool   `json:"success" example:"true"`
	Message string `json:"message,omitempty"`
}

type SignupRequest struct {
	Email    string `json:"email" validate:"required,email,max=320" example:"user@example.com"`
	Password string `json:"password" validate:"required,max=512" example:"StrongPass123"`
	Name     string `json:"name" validate:"max=200" example:"Alex"`
}

type SigninRequest struct {
	Email    string `json:"email" validate:"required" example:"user@example.com"`
	Password string `json:"password" validate:"required" example:"StrongPass123"`
}

type GoogleLoginRequest struct {
	IDToken string `json:"id_token" validate:"required" example:"eyJhbGciOiJSUzI1NiIsInR5cCI6IkpXVCJ9..."`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email,max=320" example:"user@example.com"`
}

type ResetPasswordRequest struct {
	Token       string `json:"token" validate:"required,max=256" example:"0b0f8d6e-...-9a1c"`
	NewPassword string `json:"new_password" validate:"required,max=512" example:"NewPass12345"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required" example:"OldPass12345"`
	NewPassword     string `json:"new_password" validate:"required,max=512" example:"NewPass12345"`
}

type UpdateProfileRequest struct {
	Name string `json:"name" validate:"required,max=200" example:"Alex"`
}

type ProjectRequest struct {
	Name string          `json:"name" validate:"required,max=200" example:"Household budget"`
	Data json.RawMessage `json:"data" swaggertype:"object"`
}

type ProjectResponse struct {
	Project domain.Project `json:"project"`
}

type ProjectListResponse struct {
	Projects []domain.Project `json:"projects"`
}

func toAuthUser(u *domain.User) AuthUser {
	return AuthUser{
		ID:        u.ID.String(),
		Email:     u.Email,
		Name:      u.Name,
		PhotoURL:  u.PhotoURL,
		Provider:  string(u.Provider),
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func toTokenResponse(result *service.AuthResult) AuthTokenResponse {
	return AuthTokenResponse{
		Token:     result.Token,
		ExpiresAt: result.ExpiresAt.UTC().Format(time.RFC3339),
		User:      toAuthUser(result.User),
	}
}
