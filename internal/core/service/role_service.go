package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/taskhub/taskhub-api/internal/core/domain"
	"github.com/taskhub/taskhub-api/internal/core/ports"
)

type roleService struct {
	roles      ports.RoleRepository
	principals ports.PrincipalRepository
	log        zerolog.Logger
}

// NewRoleService returns the administrator role management service.
func NewRoleService(roles ports.RoleRepository, principals ports.PrincipalRepository, log zerolog.Logger) ports.RoleService {
	return &roleService{roles: roles, principals: principals, log: log}
}

func (s *roleService) List(ctx context.Context, actor domain.Principal) ([]domain.Role, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	roles, err := s.roles.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}
	return roles, nil
}

func (s *roleService) Get(ctx context.Context, actor domain.Principal, id domain.RoleID) (*domain.Role, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	role, err := s.roles.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrRoleNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("get role: %w", err)
	}
	return role, nil
}

func (s *roleService) Create(ctx context.Context, actor domain.Principal, name string) (*domain.Role, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: role name is required", domain.ErrValidation)
	}

	role, err := s.roles.Create(ctx, domain.Role{ID: domain.RoleID(uuid.NewString()), Name: name})
	if err != nil {
		if errors.Is(err, domain.ErrRoleExists) {
			return nil, err
		}
		return nil, fmt.Errorf("create role: %w", err)
	}
	s.log.Info().Str("role_id", string(role.ID)).Str("name", role.Name).Msg("role created")
	return role, nil
}

// Delete removes a role nobody holds. Seeded roles are never removed.
func (s *roleService) Delete(ctx context.Context, actor domain.Principal, id domain.RoleID) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	if id.IsProtected() {
		return domain.ErrRoleProtected
	}

	if _, err := s.roles.FindByID(ctx, id); err != nil {
		if errors.Is(err, domain.ErrRoleNotFound) {
			return err
		}
		return fmt.Errorf("delete role: %w", err)
	}

	n, err := s.principals.CountByRole(ctx, id)
	if err != nil {
		return fmt.Errorf("delete role: %w", err)
	}
	if n > 0 {
		return domain.ErrRoleInUse
	}

	if err := s.roles.Delete(ctx, id); err != nil {
		if errors.Is(err, domain.ErrRoleNotFound) {
			return err
		}
		return fmt.Errorf("delete role: %w", err)
	}
	s.log.Info().Str("role_id", string(id)).Msg("role deleted")
	return nil
}
