package vault

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// bcryptHasher is the default [PasswordHasher], backed by bcrypt.
// bcrypt.CompareHashAndPassword is constant-time by construction.
type bcryptHasher struct {
	cost int
}

// NewBcryptHasher constructs a bcrypt-backed hasher with the given work
// factor. Costs outside bcrypt's supported range fall back to the library
// default.
func NewBcryptHasher(cost int) PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &bcryptHasher{cost: cost}
}

// Hash implements [PasswordHasher].
func (h *bcryptHasher) Hash(secret string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(secret), h.cost)
	if err != nil {
		return "", fmt.Errorf("hash secret: %w", err)
	}
	return string(digest), nil
}

// Verify implements [PasswordHasher].
func (h *bcryptHasher) Verify(secret, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(secret)) == nil
}
