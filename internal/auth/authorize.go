package auth

// Operation identifies a task CRUD operation for authorization purposes.
type Operation string

const (
	OpList   Operation = "list"
	OpGet    Operation = "get"
	OpCreate Operation = "create"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
)

// Scope identifies which task collection an operation targets.
type Scope string

const (
	// ScopeShared is the global task view: readable by any authenticated
	// identity, mutable by admins only.
	ScopeShared Scope = "shared"
	// ScopeOwner is the per-owner collection: ownership alone governs it,
	// independent of role.
	ScopeOwner Scope = "owner"
)

func (op Operation) read() bool {
	return op == OpList || op == OpGet
}

// Authorize is the pure access decision for a task operation. ownerID is the
// owner recorded on the target resource ("" for the shared view or for
// collection-level operations on it).
//
// Existence is the caller's concern: the task manager resolves the resource
// before consulting Authorize so a missing id yields NotFound rather than
// Forbidden. A nil identity always loses, which keeps the overall precedence
// Unauthenticated > NotFound > Forbidden > Allow.
func Authorize(identity *Identity, op Operation, scope Scope, ownerID string) error {
	if identity == nil || identity.ID == "" {
		return ErrUnauthenticated
	}
	switch scope {
	case ScopeShared:
		if op.read() {
			return nil
		}
		if identity.HasRole(RoleAdmin) {
			return nil
		}
		return ErrForbidden
	case ScopeOwner:
		if ownerID == identity.ID {
			return nil
		}
		return ErrForbidden
	default:
		return ErrForbidden
	}
}
