package auth

import (
	"context"
	"strings"
)

const (
	RoleAdmin = "admin"
	RoleUser  = "user"

	// DefaultRole is assigned at registration when no valid role is requested.
	DefaultRole = RoleUser
)

// BuiltinRoles is the static role set created at process initialization.
var BuiltinRoles = []string{RoleAdmin, RoleUser}

// ValidRole reports whether name identifies a known role.
func ValidRole(name string) bool {
	for _, r := range BuiltinRoles {
		if r == name {
			return true
		}
	}
	return false
}

// NormalizeRole trims and lower-cases a requested role and coerces anything
// outside the builtin set to DefaultRole. Unknown roles are not an error.
func NormalizeRole(requested string) string {
	requested = strings.TrimSpace(strings.ToLower(requested))
	if !ValidRole(requested) {
		return DefaultRole
	}
	return requested
}

// EnsureRoles creates the builtin roles if absent. It is idempotent and is
// invoked once before the service accepts traffic.
func EnsureRoles(ctx context.Context, store Store) error {
	return store.EnsureRoles(ctx, BuiltinRoles)
}
