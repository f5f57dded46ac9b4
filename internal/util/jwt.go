package util

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// SessionTTL is the fixed lifetime of every issued session token.
const SessionTTL = 30 * 24 * time.Hour

var (
	ErrTokenMalformed   = errors.New("token is malformed")
	ErrInvalidSignature = errors.New("token signature is invalid")
	ErrTokenExpired     = errors.New("token has expired")
)

type Claims struct {
	UserID uuid.UUID `json:"userId"`
	Email  string    `json:"email"`
	jwt.RegisteredClaims
}

type JWTManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
	parser *jwt.Parser
}

type JWTOption func(*JWTManager)

// WithClock replaces time.Now for issuing and verifying tokens.
func WithClock(now func() time.Time) JWTOption {
	return func(m *JWTManager) {
		m.now = now
	}
}

func NewJWTManager(secret string, ttl time.Duration, opts ...JWTOption) *JWTManager {
	if ttl <= 0 {
		ttl = SessionTTL
	}
	m := &JWTManager{secret: []byte(secret), ttl: ttl, now: time.Now}
	for _, opt := range opts {
		opt(m)
	}
	m.parser = jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return m.now() }),
	)
	return m
}

func (m *JWTManager) Generate(userID uuid.UUID, email string) (string, time.Time, error) {
	issuedAt := ceilSecond(m.now())
	expiresAt := issuedAt.Add(m.ttl)
	claims := Claims{
		UserID: userID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, claims.ExpiresAt.Time, nil
}

// ceilSecond rounds t up to the next whole second. Registered claims carry
// second precision, and rounding down would expire tokens before now+ttl.
func ceilSecond(t time.Time) time.Time {
	truncated := t.Truncate(time.Second)
	if truncated.Equal(t) {
		return t
	}
	return truncated.Add(time.Second)
}

// Parse checks the signature over the first two segments before looking at the
// payload, so any change to header or claims reports ErrInvalidSignature.
func (m *JWTManager) Parse(tokenString string) (*Claims, error) {
	parts := strings.Split(tokenString, ".")
	if len(parts) != 3 {
		return nil, ErrTokenMalformed
	}
	signature, err := m.parser.DecodeSegment(parts[2])
	if err != nil {
		return nil, ErrInvalidSignature
	}
	// HMAC verification compares with hmac.Equal.
	if err := jwt.SigningMethodHS256.Verify(parts[0]+"."+parts[1], signature, m.secret); err != nil {
		return nil, ErrInvalidSignature
	}

	claims := &Claims{}
	_, err = m.parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return m.secret, nil
	})
	switch {
	case err == nil:
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return nil, ErrInvalidSignature
	default:
		return nil, fmt.Errorf("%w: %v", ErrTokenMalformed, err)
	}
	if claims.UserID == uuid.Nil {
		return nil, ErrTokenMalformed
	}
	return claims, nil
}
