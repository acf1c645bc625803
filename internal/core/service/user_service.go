package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/taskhub/taskhub-api/internal/core/domain"
	"github.com/taskhub/taskhub-api/internal/core/ports"
)

type userService struct {
	principals ports.PrincipalRepository
	roles      ports.RoleRepository
	hasher     ports.PasswordHasher
	log        zerolog.Logger
}

// NewUserService returns the administrator user management service.
func NewUserService(
	principals ports.PrincipalRepository,
	roles ports.RoleRepository,
	hasher ports.PasswordHasher,
	log zerolog.Logger,
) ports.UserService {
	return &userService{principals: principals, roles: roles, hasher: hasher, log: log}
}

func requireAdmin(actor domain.Principal) error {
	if !actor.IsAdmin() {
		return domain.ErrForbidden
	}
	return nil
}

func (s *userService) List(ctx context.Context, actor domain.Principal) ([]*domain.Principal, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	users, err := s.principals.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

func (s *userService) Get(ctx context.Context, actor domain.Principal, id string) (*domain.Principal, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	return s.find(ctx, id)
}

func (s *userService) find(ctx context.Context, id string) (*domain.Principal, error) {
	p, err := s.principals.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrPrincipalNotFound) {
			return nil, domain.ErrPrincipalNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return p, nil
}

// Create registers a principal on behalf of an administrator.
func (s *userService) Create(ctx context.Context, actor domain.Principal, email, password string, roleID domain.RoleID) (*domain.Principal, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	email = domain.NormalizeEmail(email)
	if err := domain.ValidateEmail(email); err != nil {
		return nil, err
	}
	if err := domain.ValidatePassword(password); err != nil {
		return nil, err
	}
	if err := roleID.Validate(); err != nil {
		return nil, err
	}
	if err := ensureRole(ctx, s.roles, roleID); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(ctx, password)
	if err != nil {
		return nil, fmt.Errorf("create user: hash password: %w", err)
	}
	p, err := s.principals.Create(ctx, email, hash, roleID)
	if err != nil {
		if errors.Is(err, domain.ErrEmailTaken) {
			return nil, err
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.log.Info().Str("principal_id", p.ID).Str("actor_id", actor.ID).Msg("user created")
	return p, nil
}

// Update applies a partial profile update and returns the stored principal.
func (s *userService) Update(ctx context.Context, actor domain.Principal, id string, input ports.UpdateUserInput) (*domain.Principal, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	var update domain.PrincipalUpdate
	if input.Email != nil {
		email := domain.NormalizeEmail(*input.Email)
		if err := domain.ValidateEmail(email); err != nil {
			return nil, err
		}
		update.Email = &email
	}
	if input.RoleID != nil {
		if err := input.RoleID.Validate(); err != nil {
			return nil, err
		}
		if err := ensureRole(ctx, s.roles, *input.RoleID); err != nil {
			return nil, err
		}
		update.RoleID = input.RoleID
	}
	if input.Password != nil {
		if err := domain.ValidatePassword(*input.Password); err != nil {
			return nil, err
		}
		hash, err := s.hasher.Hash(ctx, *input.Password)
		if err != nil {
			return nil, fmt.Errorf("update user: hash password: %w", err)
		}
		update.PasswordHash = &hash
	}

	if update.Empty() {
		return s.find(ctx, id)
	}

	p, err := s.principals.Update(ctx, id, update)
	if err != nil {
		if errors.Is(err, domain.ErrPrincipalNotFound) || errors.Is(err, domain.ErrEmailTaken) {
			return nil, err
		}
		return nil, fmt.Errorf("update user: %w", err)
	}
	return p, nil
}

func (s *userService) Delete(ctx context.Context, actor domain.Principal, id string) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	if actor.ID == id {
		return fmt.Errorf("%w: administrators cannot delete themselves", domain.ErrValidation)
	}
	if err := s.principals.Delete(ctx, id); err != nil {
		if errors.Is(err, domain.ErrPrincipalNotFound) {
			return err
		}
		return fmt.Errorf("delete user: %w", err)
	}
	s.log.Info().Str("principal_id", id).Str("actor_id", actor.ID).Msg("user deleted")
	return nil
}

// ToggleActive flips the is_active flag of a principal.
func (s *userService) ToggleActive(ctx context.Context, actor domain.Principal, id string) (*domain.Principal, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if actor.ID == id {
		return nil, fmt.Errorf("%w: administrators cannot deactivate themselves", domain.ErrValidation)
	}
	current, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	p, err := s.principals.SetActive(ctx, id, !current.IsActive)
	if err != nil {
		if errors.Is(err, domain.ErrPrincipalNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("toggle active: %w", err)
	}
	s.log.Info().Str("principal_id", id).Bool("is_active", p.IsActive).Msg("user activation changed")
	return p, nil
}
