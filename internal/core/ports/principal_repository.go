package ports

import (
	"context"

	"github.com/taskhub/taskhub-api/internal/core/domain"
)

// PrincipalRepository defines persistence for principals and their credentials.
// Lookups return domain.ErrPrincipalNotFound when nothing matches.
type PrincipalRepository interface {
	FindByEmail(ctx context.Context, email string) (*domain.Principal, error)
	FindByID(ctx context.Context, id string) (*domain.Principal, error)
	// Credential returns the stored password hash of the principal.
	Credential(ctx context.Context, id string) (*domain.Credential, error)
	// Create stores a new active principal. A duplicate email yields domain.ErrEmailTaken.
	Create(ctx context.Context, email, passwordHash string, roleID domain.RoleID) (*domain.Principal, error)
	// Update applies the set fields and returns the stored result.
	Update(ctx context.Context, id string, update domain.PrincipalUpdate) (*domain.Principal, error)
	SetActive(ctx context.Context, id string, active bool) (*domain.Principal, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]*domain.Principal, error)
	CountByRole(ctx context.Context, roleID domain.RoleID) (int64, error)
}

// RoleRepository defines persistence for roles.
type RoleRepository interface {
	FindByID(ctx context.Context, id domain.RoleID) (*domain.Role, error)
	List(ctx context.Context) ([]domain.Role, error)
	Create(ctx context.Context, role domain.Role) (*domain.Role, error)
	Delete(ctx context.Context, id domain.RoleID) error
	// EnsureSeeded upserts the given roles, leaving existing ones untouched.
	EnsureSeeded(ctx context.Context, roles []domain.Role) error
}
