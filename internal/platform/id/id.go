// Package id generates record identifiers.
package id

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// NewID returns a random version 4 UUID in canonical string form.
//
// Postgres stores ids in uuid columns, so the canonical hyphenated form is
// used everywhere.
func NewID() (string, error) {
	value, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("generate uuid: %w", err)
	}
	return value.String(), nil
}

// Valid reports whether value parses as a UUID.
func Valid(value string) bool {
	_, err := uuid.Parse(strings.TrimSpace(value))
	return err == nil
}

// NewToken returns an unpadded base64url token built from n random bytes.
func NewToken(n int) (string, error) {
	if n <= 0 {
		return "", fmt.Errorf("token size must be positive")
	}
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
