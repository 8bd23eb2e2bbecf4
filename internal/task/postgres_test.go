package task

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestPGStoreCreateSharedTaskNullOwner(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	now := time.Now().UTC()
	mock.ExpectExec("insert into tasks").
		WithArgs("t1", "title", "desc", nil, now, now).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err = NewPGStore(db).Create(context.Background(), &Task{
		ID: "t1", Title: "title", Description: "desc", CreatedAt: now, UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPGStoreFindNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("select id, title, description, owner_id, created_at, updated_at from tasks").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err = NewPGStore(db).Find(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestPGStoreListShared(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	now := time.Now().UTC()
	mock.ExpectQuery("select id, title, description, owner_id, created_at, updated_at from tasks where owner_id is null").
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "description", "owner_id", "created_at", "updated_at"}).
			AddRow("t1", "first", "", nil, now, now).
			AddRow("t2", "second", "d", nil, now, now))

	list, err := NewPGStore(db).ListShared(context.Background())
	if err != nil {
		t.Fatalf("ListShared: %v", err)
	}
	if len(list) != 2 || list[0].ID != "t1" || list[1].Title != "second" {
		t.Fatalf("unexpected list: %+v", list)
	}
	if list[0].OwnerID != "" {
		t.Fatalf("null owner should scan as empty, got %q", list[0].OwnerID)
	}
}

func TestPGStoreListByOwner(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	now := time.Now().UTC()
	mock.ExpectQuery("select id, title, description, owner_id, created_at, updated_at from tasks where owner_id=").
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "description", "owner_id", "created_at", "updated_at"}).
			AddRow("t1", "mine", "", "u1", now, now))

	list, err := NewPGStore(db).ListByOwner(context.Background(), "u1")
	if err != nil {
		t.Fatalf("ListByOwner: %v", err)
	}
	if len(list) != 1 || list[0].OwnerID != "u1" {
		t.Fatalf("unexpected list: %+v", list)
	}
}

func TestPGStoreUpdateMissingRow(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("update tasks set").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = NewPGStore(db).Update(context.Background(), &Task{ID: "gone", Title: "x"})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestPGStoreDeleteMissingRow(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("delete from tasks").
		WithArgs("gone").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = NewPGStore(db).Delete(context.Background(), "gone")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
