package ports

import (
	"context"

	"github.com/taskhub/taskhub-api/internal/core/domain"
)

// UpdateUserInput carries an admin profile update. Nil fields are left
// unchanged; Password is plaintext and is hashed by the service.
type UpdateUserInput struct {
	Email    *string
	Password *string
	RoleID   *domain.RoleID
}

// UserService defines administrator-only user management.
type UserService interface {
	List(ctx context.Context, actor domain.Principal) ([]*domain.Principal, error)
	Get(ctx context.Context, actor domain.Principal, id string) (*domain.Principal, error)
	Create(ctx context.Context, actor domain.Principal, email, password string, roleID domain.RoleID) (*domain.Principal, error)
	Update(ctx context.Context, actor domain.Principal, id string, input UpdateUserInput) (*domain.Principal, error)
	Delete(ctx context.Context, actor domain.Principal, id string) error
	ToggleActive(ctx context.Context, actor domain.Principal, id string) (*domain.Principal, error)
}

// RoleService defines administrator-only role management.
type RoleService interface {
	List(ctx context.Context, actor domain.Principal) ([]domain.Role, error)
	Get(ctx context.Context, actor domain.Principal, id domain.RoleID) (*domain.Role, error)
	Create(ctx context.Context, actor domain.Principal, name string) (*domain.Role, error)
	Delete(ctx context.Context, actor domain.Principal, id domain.RoleID) error
}
