package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

var _ Store = (*PGStore)(nil)

// PGStore implements Store using PostgreSQL.
type PGStore struct {
	db *sql.DB
}

func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{db: db}
}

func (s *PGStore) CreateUser(ctx context.Context, u *User) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`insert into users(id, username, password_hash, created_at, updated_at)
		 values($1,$2,$3,$4,$5)`,
		u.ID, u.Username, u.PasswordHash, u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: username %s", ErrConflict, u.Username)
		}
		return err
	}
	for _, role := range u.Roles {
		_, err = tx.ExecContext(ctx,
			`insert into user_roles(user_id, role_name) values($1,$2) on conflict do nothing`,
			u.ID, role,
		)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *PGStore) FindUser(ctx context.Context, id string) (*User, error) {
	return s.findUser(ctx, `where id=$1`, id)
}

func (s *PGStore) FindUserByUsername(ctx context.Context, username string) (*User, error) {
	return s.findUser(ctx, `where username=$1`, username)
}

func (s *PGStore) findUser(ctx context.Context, where string, arg any) (*User, error) {
	row := s.db.QueryRowContext(ctx,
		`select id, username, password_hash, created_at, updated_at from users `+where, arg)
	var u User
	if err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		`select role_name from user_roles where user_id=$1 order by role_name`, u.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var role string
		if err := rows.Scan(&role); err != nil {
			return nil, err
		}
		u.Roles = append(u.Roles, role)
	}
	return &u, rows.Err()
}

func (s *PGStore) AddRole(ctx context.Context, userID, role string) error {
	res, err := s.db.ExecContext(ctx,
		`insert into user_roles(user_id, role_name)
		 select $1, $2 where exists (select 1 from users where id=$1)
		 on conflict do nothing`,
		userID, role,
	)
	if err != nil {
		return err
	}
	// Zero rows means either the membership already existed (fine) or the
	// user is gone; distinguish with a lookup only when it matters.
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		if _, err := s.FindUser(ctx, userID); err != nil {
			return err
		}
	}
	return nil
}

func (s *PGStore) EnsureRoles(ctx context.Context, names []string) error {
	for _, name := range names {
		_, err := s.db.ExecContext(ctx,
			`insert into roles(name) values($1) on conflict (name) do nothing`, name)
		if err != nil {
			return err
		}
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
