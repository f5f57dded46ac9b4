package util

import (
	"github.com/google/uuid"
)

// GenerateResetToken returns an opaque single-use secret built from two
// random UUIDs. The value carries no structure a client may rely on.
func GenerateResetToken() (string, error) {
	first, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	second, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	return first.String() + second.String(), nil
}
