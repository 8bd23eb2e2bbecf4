package task

import (
	"context"
	"database/sql"
	"errors"
)

var _ Store = (*PGStore)(nil)

// PGStore implements Store using PostgreSQL. tasks.owner_id is NULL for the
// shared view and maps to an empty OwnerID in Go.
type PGStore struct {
	db *sql.DB
}

func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{db: db}
}

func (s *PGStore) Create(ctx context.Context, t *Task) error {
	_, err := s.db.ExecContext(ctx,
		`insert into tasks(id, title, description, owner_id, created_at, updated_at)
		 values($1,$2,$3,$4,$5,$6)`,
		t.ID, t.Title, t.Description, nullable(t.OwnerID), t.CreatedAt, t.UpdatedAt,
	)
	return err
}

func (s *PGStore) Find(ctx context.Context, id string) (*Task, error) {
	row := s.db.QueryRowContext(ctx,
		`select id, title, description, owner_id, created_at, updated_at from tasks where id=$1`, id)
	return scanTask(row)
}

func (s *PGStore) ListShared(ctx context.Context) ([]Task, error) {
	return s.listWhere(ctx, `owner_id is null`)
}

func (s *PGStore) ListByOwner(ctx context.Context, ownerID string) ([]Task, error) {
	return s.listWhere(ctx, `owner_id=$1`, ownerID)
}

func (s *PGStore) Update(ctx context.Context, t *Task) error {
	res, err := s.db.ExecContext(ctx,
		`update tasks set title=$2, description=$3, updated_at=$4 where id=$1`,
		t.ID, t.Title, t.Description, t.UpdatedAt,
	)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (s *PGStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `delete from tasks where id=$1`, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (s *PGStore) listWhere(ctx context.Context, where string, args ...any) ([]Task, error) {
	rows, err := s.db.QueryContext(ctx,
		`select id, title, description, owner_id, created_at, updated_at from tasks where `+
			where+` order by created_at asc, id asc`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Task, 0)
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*Task, error) {
	var (
		t     Task
		owner sql.NullString
	)
	if err := row.Scan(&t.ID, &t.Title, &t.Description, &owner, &t.CreatedAt, &t.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	t.OwnerID = owner.String
	return &t, nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
