package shared

import (
	"errors"
	"strings"
)

var ErrInvalidRole = errors.New("invalid actor role")

// Role identifies which kind of platform user is acting on a request
type Role string

const (
	RoleDriver Role = "driver"
	RoleVendor Role = "vendor"
	RoleAdmin  Role = "admin"
)

// ParseRole validates and normalizes a raw role string
func ParseRole(s string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleDriver:
		return RoleDriver, nil
	case RoleVendor:
		return RoleVendor, nil
	case RoleAdmin:
		return RoleAdmin, nil
	default:
		return "", ErrInvalidRole
	}
}

// Actor is the authenticated identity the upstream auth layer attaches to
// each request. The platform trusts it; verification happens upstream.
type Actor struct {
	ID   string `json:"id"`
	Role Role   `json:"role"`
}
