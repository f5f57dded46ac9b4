package util

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

const (
	saltLength       = 16
	hashLength       = 32
	pbkdf2Iterations = 100_000

	hashSeparator = ":"
)

func GenerateSalt() ([]byte, error) {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return nil, err
	}
	return salt, nil
}

// HashPassword derives a salted PBKDF2-SHA256 digest and encodes it as
// "<salt hex>:<hash hex>". Empty passwords are rejected by the callers.
func HashPassword(password string) (string, error) {
	salt, err := GenerateSalt()
	if err != nil {
		return "", err
	}
	return encodeHash(salt, derive(password, salt)), nil
}

// VerifyPassword checks password against a stored digest. Digests without a
// separator are legacy unsalted SHA-256 hex strings.
func VerifyPassword(password, stored string) bool {
	if stored == "" {
		return false
	}
	saltHex, hashHex, ok := strings.Cut(stored, hashSeparator)
	if !ok {
		return subtle.ConstantTimeCompare([]byte(LegacyHash(password)), []byte(stored)) == 1
	}
	salt, err := hex.DecodeString(saltHex)
	if err != nil || len(salt) == 0 {
		return false
	}
	candidate := hex.EncodeToString(derive(password, salt))
	return subtle.ConstantTimeCompare([]byte(candidate), []byte(hashHex)) == 1
}

// LegacyHash is the pre-salting digest format still found on old accounts.
func LegacyHash(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}

// IsLegacyHash reports whether stored uses the unsalted format.
func IsLegacyHash(stored string) bool {
	return stored != "" && !strings.Contains(stored, hashSeparator)
}

func derive(password string, salt []byte) []byte {
	return pbkdf2.Key([]byte(password), salt, pbkdf2Iterations, hashLength, sha256.New)
}

func encodeHash(salt, hash []byte) string {
	return hex.EncodeToString(salt) + hashSeparator + hex.EncodeToString(hash)
}
