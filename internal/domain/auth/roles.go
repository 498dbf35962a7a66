package auth

import (
	"fmt"
	"strings"

	"hrcore/internal/apperrors"
)

type Role string

const (
	RoleAdmin    Role = "admin"
	RoleEmployee Role = "employee"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleEmployee:
		return true
	}
	return false
}

func (r Role) String() string {
	return string(r)
}

// ParseRole normalises raw and rejects anything outside the closed role set.
func ParseRole(raw string) (Role, error) {
	role := Role(strings.ToLower(strings.TrimSpace(raw)))
	if !role.Valid() {
		return "", fmt.Errorf("%w: unknown role %q", apperrors.ErrValidation, raw)
	}
	return role, nil
}

// UserContext is the authenticated caller attached to a request.
type UserContext struct {
	AccountID string
	LoginID   string
	Role      Role
}

func (u UserContext) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// CanAccess reports whether the caller may read data owned by accountID.
func (u UserContext) CanAccess(accountID string) bool {
	return u.IsAdmin() || (u.AccountID != "" && u.AccountID == accountID)
}
