package internal

import (
	"crypto/rand"
	"errors"

	"github.com/google/uuid"
)

// MinSecretLength is the smallest session secret accepted by NewSecret.
const MinSecretLength = 32

// NewSessionID returns a random (version 4) UUID string.
func NewSessionID() string {
	return uuid.NewString()
}

// NewSecret returns n bytes from crypto/rand.
func NewSecret(n int) ([]byte, error) {
	if n < MinSecretLength {
		return nil, errors.New("secret length too short")
	}
	secret := make([]byte, n)
	if _, err := rand.Read(secret); err != nil {
		return nil, err
	}
	return secret, nil
}

// ValidID reports whether id is a canonical UUID string.
func ValidID(id string) bool {
	if len(id) != 36 {
		return false
	}
	_, err := uuid.Parse(id)
	return err == nil
}
