package task

import (
	"context"
	"errors"
	"time"

	"taskdesk.org/internal/auth"
	"taskdesk.org/internal/ids"
)

// Service is the task resource manager. Every operation resolves existence
// first (item operations), then consults the authorization engine, then
// validates input, then mutates. That ordering is what keeps a missing id a
// 404 rather than a 403, while an unauthenticated caller stays a 401.
type Service struct {
	store Store
	now   func() time.Time
}

// Option configures Service behavior.
type Option func(*Service)

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) Option {
	return func(s *Service) {
		if fn != nil {
			s.now = fn
		}
	}
}

// NewService constructs the task manager.
func NewService(store Store, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("task: store is required")
	}
	s := &Service{store: store, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// List returns the tasks visible in the given scope.
func (s *Service) List(ctx context.Context, identity *auth.Identity, scope auth.Scope) ([]Task, error) {
	if err := auth.Authorize(identity, auth.OpList, scope, collectionOwner(identity, scope)); err != nil {
		return nil, err
	}
	if scope == auth.ScopeOwner {
		return s.store.ListByOwner(ctx, identity.ID)
	}
	return s.store.ListShared(ctx)
}

// Get returns a single task by id within the scope.
func (s *Service) Get(ctx context.Context, identity *auth.Identity, scope auth.Scope, id string) (*Task, error) {
	t, err := s.resolve(ctx, identity, scope, id)
	if err != nil {
		return nil, err
	}
	if err := auth.Authorize(identity, auth.OpGet, scope, t.OwnerID); err != nil {
		return nil, err
	}
	return t, nil
}

// Create validates the input and persists a new task. In the shared scope
// the task has no owner; in the owner scope it belongs to the caller.
func (s *Service) Create(ctx context.Context, identity *auth.Identity, scope auth.Scope, in Input) (*Task, error) {
	if err := auth.Authorize(identity, auth.OpCreate, scope, collectionOwner(identity, scope)); err != nil {
		return nil, err
	}
	in = in.normalize()
	if err := in.validate(); err != nil {
		return nil, err
	}
	now := s.now().UTC()
	t := &Task{
		ID:          ids.New(),
		Title:       in.Title,
		Description: in.Description,
		OwnerID:     collectionOwner(identity, scope),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.Create(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// Update replaces the task's title and description.
func (s *Service) Update(ctx context.Context, identity *auth.Identity, scope auth.Scope, id string, in Input) (*Task, error) {
	t, err := s.resolve(ctx, identity, scope, id)
	if err != nil {
		return nil, err
	}
	if err := auth.Authorize(identity, auth.OpUpdate, scope, t.OwnerID); err != nil {
		return nil, err
	}
	in = in.normalize()
	if err := in.validate(); err != nil {
		return nil, err
	}
	t.Title = in.Title
	t.Description = in.Description
	t.UpdatedAt = s.now().UTC()
	if err := s.store.Update(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// Delete removes the task.
func (s *Service) Delete(ctx context.Context, identity *auth.Identity, scope auth.Scope, id string) error {
	t, err := s.resolve(ctx, identity, scope, id)
	if err != nil {
		return err
	}
	if err := auth.Authorize(identity, auth.OpDelete, scope, t.OwnerID); err != nil {
		return err
	}
	return s.store.Delete(ctx, t.ID)
}

// resolve loads the target of an item operation. An unauthenticated caller
// is rejected before the lookup so 401 keeps precedence over 404. In the
// shared scope an owned task is outside the view and reads as absent; in the
// owner scope it surfaces with its owner so Authorize can deny it.
func (s *Service) resolve(ctx context.Context, identity *auth.Identity, scope auth.Scope, id string) (*Task, error) {
	if identity == nil || identity.ID == "" {
		return nil, auth.ErrUnauthenticated
	}
	t, err := s.store.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if scope == auth.ScopeShared && t.OwnerID != "" {
		return nil, ErrNotFound
	}
	return t, nil
}

func collectionOwner(identity *auth.Identity, scope auth.Scope) string {
	if scope == auth.ScopeOwner && identity != nil {
		return identity.ID
	}
	return ""
}
