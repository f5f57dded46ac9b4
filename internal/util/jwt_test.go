package util

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time { return c.now }

func newTestManager(t *testing.T) (*JWTManager, *testClock) {
	t.Helper()
	clock := &testClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	return NewJWTManager("top-secret", SessionTTL, WithClock(clock.Now)), clock
}

func TestJWTManagerGenerateAndParse(t *testing.T) {
	manager, clock := newTestManager(t)
	userID := uuid.New()

	token, expiresAt, err := manager.Generate(userID, "user@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.True(t, clock.now.Add(SessionTTL).Equal(expiresAt))
	assert.Len(t, strings.Split(token, "."), 3)

	clock.now = clock.now.Add(SessionTTL - time.Second)
	claims, err := manager.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, "user@example.com", claims.Email)
	assert.True(t, expiresAt.Equal(claims.ExpiresAt.Time))
	assert.True(t, expiresAt.Add(-SessionTTL).Equal(claims.IssuedAt.Time))
}

func TestJWTManagerSubSecondIssueTime(t *testing.T) {
	issued := time.Date(2025, 1, 1, 0, 0, 0, 900*int(time.Millisecond), time.UTC)
	clock := &testClock{now: issued}
	manager := NewJWTManager("top-secret", SessionTTL, WithClock(clock.Now))

	token, expiresAt, err := manager.Generate(uuid.New(), "user@example.com")
	require.NoError(t, err)
	assert.False(t, expiresAt.Before(issued.Add(SessionTTL)), "expiry %s precedes issue time plus lifetime", expiresAt)

	clock.now = issued.Add(SessionTTL - 100*time.Millisecond)
	claims, err := manager.Parse(token)
	require.NoError(t, err)
	assert.True(t, expiresAt.Equal(claims.ExpiresAt.Time))
	assert.True(t, claims.ExpiresAt.Time.Sub(claims.IssuedAt.Time) == SessionTTL)

	clock.now = expiresAt
	_, err = manager.Parse(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestJWTManagerTokenLayout(t *testing.T) {
	manager, _ := newTestManager(t)
	token, _, err := manager.Generate(uuid.New(), "user@example.com")
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	for _, part := range parts {
		assert.NotContains(t, part, "=")
	}

	rawHeader, err := base64.RawURLEncoding.DecodeString(parts[0])
	require.NoError(t, err)
	var header map[string]string
	require.NoError(t, json.Unmarshal(rawHeader, &header))
	assert.Equal(t, "HS256", header["alg"])
	assert.Equal(t, "JWT", header["typ"])

	rawPayload, err := base64.RawURLEncoding.DecodeString(parts[1])
	require.NoError(t, err)
	var payload map[string]any
	require.NoError(t, json.Unmarshal(rawPayload, &payload))
	for _, key := range []string{"userId", "email", "iat", "exp"} {
		assert.Contains(t, payload, key)
	}
}

func TestJWTManagerParseExpiredToken(t *testing.T) {
	manager, clock := newTestManager(t)
	token, _, err := manager.Generate(uuid.New(), "user@example.com")
	require.NoError(t, err)

	clock.now = clock.now.Add(SessionTTL)
	_, err = manager.Parse(token)
	assert.ErrorIs(t, err, ErrTokenExpired)

	clock.now = clock.now.Add(time.Hour)
	_, err = manager.Parse(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestJWTManagerRejectsTamperedPayload(t *testing.T) {
	manager, _ := newTestManager(t)
	token, _, err := manager.Generate(uuid.New(), "user@example.com")
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	payload := []byte(parts[1])
	for i := range payload {
		tampered := append([]byte(nil), payload...)
		tampered[i] ^= 0x01
		forged := parts[0] + "." + string(tampered) + "." + parts[2]
		_, err := manager.Parse(forged)
		require.ErrorIs(t, err, ErrInvalidSignature, "byte %d", i)
	}
}

func TestJWTManagerRejectsForeignSecret(t *testing.T) {
	manager, clock := newTestManager(t)
	other := NewJWTManager("other-secret", SessionTTL, WithClock(clock.Now))

	token, _, err := other.Generate(uuid.New(), "user@example.com")
	require.NoError(t, err)

	_, err = manager.Parse(token)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestJWTManagerRejectsMalformedToken(t *testing.T) {
	manager, _ := newTestManager(t)

	for _, token := range []string{"", "abc", "a.b", "a.b.c.d"} {
		_, err := manager.Parse(token)
		assert.ErrorIs(t, err, ErrTokenMalformed, token)
	}
}

func TestJWTManagerTokensAreUnique(t *testing.T) {
	manager, _ := newTestManager(t)
	userID := uuid.New()

	first, _, err := manager.Generate(userID, "user@example.com")
	require.NoError(t, err)
	second, _, err := manager.Generate(userID, "user@example.com")
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}
