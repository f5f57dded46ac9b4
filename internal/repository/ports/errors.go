package ports

import "errors"

// Stores that do not surface driver errors report lookups and uniqueness
// failures with these values.
var (
	ErrNotFound = errors.New("record not found")
	ErrConflict = errors.New("record already exists")
)
