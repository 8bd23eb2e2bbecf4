package auth

import "context"

// Store describes persistence operations required by the auth subsystem.
type Store interface {
	// CreateUser persists a new user together with its role memberships.
	// Returns ErrConflict when the username is already taken.
	CreateUser(ctx context.Context, u *User) error
	// FindUser loads a user by id with roles resolved. Returns ErrNotFound.
	FindUser(ctx context.Context, id string) (*User, error)
	// FindUserByUsername loads a user by username with roles resolved.
	FindUserByUsername(ctx context.Context, username string) (*User, error)
	// AddRole grants a role to a user. Granting an already-held role is a
	// no-op, not an error.
	AddRole(ctx context.Context, userID, role string) error
	// EnsureRoles creates the named roles if absent. Idempotent.
	EnsureRoles(ctx context.Context, names []string) error
}
