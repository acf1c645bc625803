package ports

import (
	"context"
	"time"

	"github.com/taskhub/taskhub-api/internal/core/domain"
)

// LoginResult is returned by a successful login.
type LoginResult struct {
	Token     string
	ExpiresIn time.Duration
	Principal *domain.Principal
}

// AuthService is the authentication facade consumed by the transport layer.
type AuthService interface {
	Register(ctx context.Context, email, password string, roleID domain.RoleID) (*domain.Principal, error)
	Login(ctx context.Context, email, password string) (*LoginResult, error)
	AuthenticateRequest(ctx context.Context, token string) (*domain.Principal, error)
	Authorize(principal domain.Principal, ownerID string) bool
}
