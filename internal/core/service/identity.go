package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/taskhub/taskhub-api/internal/core/domain"
	"github.com/taskhub/taskhub-api/internal/core/ports"
)

// IdentityResolver maps a token subject (an email) back to a principal.
type IdentityResolver struct {
	principals ports.PrincipalRepository
}

func NewIdentityResolver(principals ports.PrincipalRepository) *IdentityResolver {
	return &IdentityResolver{principals: principals}
}

// Resolve returns the principal registered under email, or
// domain.ErrPrincipalNotFound.
func (r *IdentityResolver) Resolve(ctx context.Context, email string) (*domain.Principal, error) {
	email = domain.NormalizeEmail(email)
	if email == "" {
		return nil, domain.ErrPrincipalNotFound
	}

	p, err := r.principals.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrPrincipalNotFound) {
			return nil, domain.ErrPrincipalNotFound
		}
		return nil, fmt.Errorf("resolve principal: %w", err)
	}
	return p, nil
}
