package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/taskhub/taskhub-api/internal/core/domain"
	"github.com/taskhub/taskhub-api/internal/core/ports"
)

const (
	defaultTokenTTL = 30 * time.Minute

	// timingPassword is hashed once and verified against when a login names
	// an unknown email, so both failure paths cost one bcrypt comparison.
	timingPassword = "taskhub-login-timing"
)

// AuthService implements registration, login and request authentication.
type AuthService struct {
	principals ports.PrincipalRepository
	roles      ports.RoleRepository
	resolver   *IdentityResolver
	hasher     ports.PasswordHasher
	tokens     ports.TokenService
	tokenTTL   time.Duration
	log        zerolog.Logger

	timingMu   sync.Mutex
	timingHash string
}

func NewAuthService(
	principals ports.PrincipalRepository,
	roles ports.RoleRepository,
	hasher ports.PasswordHasher,
	tokens ports.TokenService,
	tokenTTL time.Duration,
	log zerolog.Logger,
) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = defaultTokenTTL
	}
	return &AuthService{
		principals: principals,
		roles:      roles,
		resolver:   NewIdentityResolver(principals),
		hasher:     hasher,
		tokens:     tokens,
		tokenTTL:   tokenTTL,
		log:        log,
	}
}

// Register creates a principal with the given role. The email must be free
// and the role must exist.
func (s *AuthService) Register(ctx context.Context, email, password string, roleID domain.RoleID) (*domain.Principal, error) {
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

	if _, err := s.principals.FindByEmail(ctx, email); err == nil {
		return nil, domain.ErrEmailTaken
	} else if !errors.Is(err, domain.ErrPrincipalNotFound) {
		return nil, fmt.Errorf("register: %w", err)
	}

	hash, err := s.hasher.Hash(ctx, password)
	if err != nil {
		return nil, fmt.Errorf("register: hash password: %w", err)
	}

	p, err := s.principals.Create(ctx, email, hash, roleID)
	if err != nil {
		if errors.Is(err, domain.ErrEmailTaken) {
			return nil, err
		}
		return nil, fmt.Errorf("register: %w", err)
	}

	s.log.Info().Str("principal_id", p.ID).Str("role", string(p.Role.ID)).Msg("principal registered")
	return p, nil
}

// Login verifies an email/password pair and issues a bearer token for it.
// Unknown email, wrong password and inactive account are indistinguishable
// to the caller.
func (s *AuthService) Login(ctx context.Context, email, password string) (*ports.LoginResult, error) {
	email = domain.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	p, err := s.resolver.Resolve(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrPrincipalNotFound) {
			s.equaliseTiming(ctx, password)
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("login: %w", err)
	}

	cred, err := s.principals.Credential(ctx, p.ID)
	if err != nil {
		if errors.Is(err, domain.ErrPrincipalNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("login: %w", err)
	}

	if !s.hasher.Verify(ctx, password, cred.PasswordHash) {
		return nil, domain.ErrInvalidCredentials
	}

	if !p.IsActive {
		s.log.Info().Str("principal_id", p.ID).Msg("login refused for inactive principal")
		return nil, domain.ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(p.Email, s.tokenTTL)
	if err != nil {
		return nil, fmt.Errorf("login: issue token: %w", err)
	}

	return &ports.LoginResult{Token: token, ExpiresIn: s.tokenTTL, Principal: p}, nil
}

// AuthenticateRequest turns a bearer token into the principal it was issued
// for. Every rejection is domain.ErrTokenInvalid; only persistence faults
// surface as other errors.
func (s *AuthService) AuthenticateRequest(ctx context.Context, token string) (*domain.Principal, error) {
	if token == "" {
		return nil, domain.ErrTokenInvalid
	}

	subject, err := s.tokens.Validate(token)
	if err != nil {
		return nil, domain.ErrTokenInvalid
	}

	p, err := s.resolver.Resolve(ctx, subject)
	if err != nil {
		if errors.Is(err, domain.ErrPrincipalNotFound) {
			return nil, domain.ErrTokenInvalid
		}
		return nil, fmt.Errorf("authenticate request: %w", err)
	}

	if !p.IsActive {
		return nil, domain.ErrTokenInvalid
	}
	return p, nil
}

// Authorize applies the ownership policy.
func (s *AuthService) Authorize(principal domain.Principal, ownerID string) bool {
	return domain.CanAccess(principal, ownerID)
}

func (s *AuthService) equaliseTiming(ctx context.Context, password string) {
	s.timingMu.Lock()
	hash := s.timingHash
	s.timingMu.Unlock()

	if hash == "" {
		h, err := s.hasher.Hash(ctx, timingPassword)
		if err != nil {
			return
		}
		s.timingMu.Lock()
		s.timingHash = h
		s.timingMu.Unlock()
		hash = h
	}
	s.hasher.Verify(ctx, password, hash)
}

// ensureRole maps a missing role to domain.ErrUnknownRole.
func ensureRole(ctx context.Context, roles ports.RoleRepository, id domain.RoleID) error {
	if _, err := roles.FindByID(ctx, id); err != nil {
		if errors.Is(err, domain.ErrRoleNotFound) {
			return fmt.Errorf("%w: %s", domain.ErrUnknownRole, id)
		}
		return fmt.Errorf("lookup role: %w", err)
	}
	return nil
}
