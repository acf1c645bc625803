package domain

import (
	"fmt"
	"net/mail"
	"strings"
	"time"
)

// RoleID is the opaque identifier of a role.
type RoleID string

// Seeded roles. Both always exist and cannot be deleted.
const (
	RoleAdministrator RoleID = "administrator"
	RoleUser          RoleID = "user"
)

// Validate rejects the empty role reference. It is the only place role ids
// are checked for emptiness; everything past the boundary trusts the type.
func (id RoleID) Validate() error {
	if strings.TrimSpace(string(id)) == "" {
		return fmt.Errorf("%w: role_id is required", ErrValidation)
	}
	return nil
}

// IsProtected reports whether the role is one of the seeded roles.
func (id RoleID) IsProtected() bool {
	return id == RoleAdministrator || id == RoleUser
}

// Role is a named permission level a principal holds.
type Role struct {
	ID   RoleID `json:"id"`
	Name string `json:"name"`
}

// SeedRoles returns the roles that must exist for the system to work.
func SeedRoles() []Role {
	return []Role{
		{ID: RoleAdministrator, Name: "Administrator"},
		{ID: RoleUser, Name: "User"},
	}
}

// Principal is an authenticated identity. It never carries the password hash.
type Principal struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsAdmin reports whether the principal holds the administrator role.
func (p Principal) IsAdmin() bool {
	return p.Role.ID == RoleAdministrator
}

// Credential is the stored secret of a principal.
type Credential struct {
	PrincipalID  string
	Email        string
	PasswordHash string
}

// PrincipalUpdate carries the optional fields of a profile update. Nil means
// "leave unchanged". PasswordHash is already hashed when it reaches the
// repository.
type PrincipalUpdate struct {
	Email        *string
	PasswordHash *string
	RoleID       *RoleID
}

// Empty reports whether the update changes nothing.
func (u PrincipalUpdate) Empty() bool {
	return u.Email == nil && u.PasswordHash == nil && u.RoleID == nil
}

// NormalizeEmail trims and lower-cases an address so lookups do not depend on
// the caller's casing.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateEmail checks that email is a bare, well-formed address.
func ValidateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("%w: email is required", ErrValidation)
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return fmt.Errorf("%w: email format is invalid", ErrValidation)
	}
	at := strings.LastIndex(email, "@")
	domainPart := email[at+1:]
	dot := strings.LastIndex(domainPart, ".")
	if dot < 1 || len(domainPart)-dot-1 < 2 {
		return fmt.Errorf("%w: email domain is invalid", ErrValidation)
	}
	return nil
}

// MaxPasswordBytes is the longest password bcrypt accepts.
const MaxPasswordBytes = 72

// ValidatePassword rejects blank passwords and passwords longer than
// MaxPasswordBytes once UTF-8 encoded.
func ValidatePassword(password string) error {
	if strings.TrimSpace(password) == "" {
		return fmt.Errorf("%w: password is required", ErrValidation)
	}
	if len(password) > MaxPasswordBytes {
		return fmt.Errorf("%w: password must be at most %d bytes", ErrValidation, MaxPasswordBytes)
	}
	return nil
}
