package task

import "context"

// Store describes persistence operations required by the task manager.
// Implementations must provide per-row atomicity; no cross-entity
// transactions are required.
type Store interface {
	Create(ctx context.Context, t *Task) error
	// Find loads a task by id regardless of scope. Returns ErrNotFound.
	Find(ctx context.Context, id string) (*Task, error)
	// ListShared returns tasks without an owner, oldest first.
	ListShared(ctx context.Context) ([]Task, error)
	// ListByOwner returns the owner's tasks, oldest first.
	ListByOwner(ctx context.Context, ownerID string) ([]Task, error)
	// Update replaces title/description/updated_at of an existing task.
	Update(ctx context.Context, t *Task) error
	Delete(ctx context.Context, id string) error
}
