package service

import (
	"context"
	"errors"
	"strings"

	"google.golang.org/api/idtoken"
)

var ErrIdentityRejected = errors.New("identity assertion rejected")

// FederatedIdentity is what a trusted identity provider asserts about a user.
type FederatedIdentity struct {
	Email    string
	Name     string
	PhotoURL string
}

type IdentityVerifier interface {
	Verify(ctx context.Context, assertion string) (*FederatedIdentity, error)
}

type idTokenValidator func(ctx context.Context, idToken, audience string) (*idtoken.Payload, error)

// GoogleVerifier checks Google ID tokens issued for a single audience.
type GoogleVerifier struct {
	audience string
	validate idTokenValidator
}

func NewGoogleVerifier(audience string) *GoogleVerifier {
	return &GoogleVerifier{
		audience: strings.TrimSpace(audience),
		validate: idtoken.Validate,
	}
}

func (v *GoogleVerifier) Verify(ctx context.Context, assertion string) (*FederatedIdentity, error) {
	if v.audience == "" {
		return nil, ErrFederatedUnavailable
	}
	assertion = strings.TrimSpace(assertion)
	if assertion == "" {
		return nil, ErrIdentityRejected
	}
	payload, err := v.validate(ctx, assertion, v.audience)
	if err != nil {
		return nil, errors.Join(ErrIdentityRejected, err)
	}

	email, _ := payload.Claims["email"].(string)
	if strings.TrimSpace(email) == "" {
		return nil, ErrIdentityRejected
	}
	if verified, ok := payload.Claims["email_verified"].(bool); ok && !verified {
		return nil, ErrIdentityRejected
	}
	name, _ := payload.Claims["name"].(string)
	picture, _ := payload.Claims["picture"].(string)

	return &FederatedIdentity{
		Email:    strings.TrimSpace(email),
		Name:     strings.TrimSpace(name),
		PhotoURL: strings.TrimSpace(picture),
	}, nil
}
