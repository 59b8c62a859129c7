package models

import (
	"errors"
	"fmt"
)

// Role is the coarse permission tag carried by every user.
// Only the constants below are valid; use ParseRole at trust boundaries.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// ErrInvalidRole is returned by ParseRole for anything outside the enumeration.
var ErrInvalidRole = errors.New("invalid role")

// ParseRole converts a raw string into a Role. Matching is case-sensitive.
func ParseRole(s string) (Role, error) {
	switch r := Role(s); r {
	case RoleUser, RoleAdmin:
		return r, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidRole, s)
	}
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	_, err := ParseRole(string(r))
	return err == nil
}

func (r Role) String() string {
	return string(r)
}
