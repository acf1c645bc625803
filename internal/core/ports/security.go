package ports

import (
	"context"
	"time"
)

// PasswordHasher hashes and verifies passwords. Verify never returns an error:
// a malformed stored hash simply does not match.
type PasswordHasher interface {
	Hash(ctx context.Context, plaintext string) (string, error)
	Verify(ctx context.Context, plaintext, hash string) bool
}

// TokenService issues and validates signed bearer tokens bound to a subject.
type TokenService interface {
	Issue(subject string, ttl time.Duration) (string, error)
	// Validate returns the subject, or domain.ErrTokenInvalid for any failure.
	Validate(token string) (string, error)
}
