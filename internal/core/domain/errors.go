package domain

import "errors"

// Authentication.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenInvalid       = errors.New("unauthenticated")
)

// Authorization.
var ErrForbidden = errors.New("access forbidden")

// Input and state conflicts.
var (
	ErrValidation    = errors.New("validation failed")
	ErrEmailTaken    = errors.New("email already registered")
	ErrUnknownRole   = errors.New("unknown role")
	ErrRoleInUse     = errors.New("role is assigned to users")
	ErrRoleProtected = errors.New("role cannot be deleted")
	ErrRoleExists    = errors.New("role already exists")

	ErrIdempotencyInProgress = errors.New("a request with this idempotency key is in progress")
)

// Lookups.
var (
	ErrPrincipalNotFound = errors.New("user not found")
	ErrRoleNotFound      = errors.New("role not found")
	ErrTaskNotFound      = errors.New("task not found")
)
