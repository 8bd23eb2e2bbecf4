package task

import (
	"errors"
	"sort"
	"strings"
	"time"
)

// ErrNotFound marks an absent task id.
var ErrNotFound = errors.New("task: not found")

// Task is a task entity. An empty OwnerID means the task belongs to the
// shared, admin-managed view.
type Task struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	OwnerID     string    `json:"owner_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Input is the allow-listed create/update payload. Unknown fields in the
// incoming JSON are dropped during decoding and never reach storage.
type Input struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

func (in Input) normalize() Input {
	in.Title = strings.TrimSpace(in.Title)
	return in
}

func (in Input) validate() error {
	fields := map[string]string{}
	if in.Title == "" {
		fields["title"] = "title must not be empty"
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// ValidationError reports per-field input problems, keyed by field name.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return "task: invalid input: " + strings.Join(keys, ", ")
}
