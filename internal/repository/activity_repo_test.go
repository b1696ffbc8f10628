package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"task_manager/internal/models"
)

func ctx(t *testing.T) context.Context {
	t.Helper()
	c, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	t.Cleanup(cancel)
	return c
}

func newSQLMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("mock expectations: %v", err)
		}
		_ = db.Close()
	})
	return db, mock
}

const selectActivityPrefix = `SELECT id, occurred_at, user_id, type, message, meta FROM activity_events WHERE `

func TestActivityAppend_Success_WithDefaults(t *testing.T) {
	t.Parallel()

	db, mock := newSQLMock(t)
	repo := NewActivityRepository(db, SQLite)

	mock.ExpectExec(regexp.QuoteMeta(insertActivitySQL)).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), 7, "TASK_CREATED", "task created", `{"task_id":3}`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Append(ctx(t), models.ActivityEvent{
		// EventID empty -> repo generates
		// OccurredAt zero -> repo sets now
		UserID:      7,
		Type:        "  task_created ",
		Description: "task created",
		Metadata:    map[string]any{"task_id": 3},
	})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
}

func TestActivityAppend_DBError(t *testing.T) {
	t.Parallel()

	db, mock := newSQLMock(t)
	repo := NewActivityRepository(db, SQLite)

	mock.ExpectExec("INSERT INTO activity_events").
		WillReturnError(errors.New("down"))

	err := repo.Append(ctx(t), models.ActivityEvent{UserID: 1, Type: "login", Description: "x"})
	if err == nil || !strings.Contains(err.Error(), "down") {
		t.Fatalf("expected error, got %v", err)
	}
}

func TestActivityList_NoFilters_And_MetadataParsing(t *testing.T) {
	t.Parallel()

	db, mock := newSQLMock(t)
	repo := NewActivityRepository(db, SQLite)

	now := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	js, _ := json.Marshal(map[string]any{"a": "b"})

	rows := sqlmock.NewRows([]string{"id", "occurred_at", "user_id", "type", "message", "meta"}).
		AddRow("1", now, 7, "LOGIN", "m1", string(js)).
		AddRow("2", now.Add(time.Hour), 7, "TASK_DELETED", "m2", nil).
		AddRow("3", now.Add(2*time.Hour), 7, "LOGIN", "m3", "{broken")

	mock.ExpectQuery(regexp.QuoteMeta(selectActivityPrefix + `user_id = ? ORDER BY occurred_at ASC`)).
		WithArgs(7).
		WillReturnRows(rows)

	got, err := repo.List(ctx(t), 7, time.Time{}, time.Time{}, "")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("want 3, got %d", len(got))
	}
	b1, _ := json.Marshal(got[0].Metadata)
	if string(b1) != string(js) {
		t.Fatalf("metadata mismatch: %s vs %s", string(b1), string(js))
	}
	if got[1].Metadata != nil {
		t.Fatalf("expected nil meta, got %#v", got[1].Metadata)
	}
	if got[2].Metadata != "{broken" {
		t.Fatalf("expected raw meta kept, got %#v", got[2].Metadata)
	}
}

func TestActivityList_WithFilters(t *testing.T) {
	t.Parallel()

	db, mock := newSQLMock(t)
	repo := NewActivityRepository(db, SQLite)

	from := time.Date(2025, 1, 1, 11, 0, 0, 0, time.UTC)
	to := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	query := selectActivityPrefix + `user_id = ? AND occurred_at >= ? AND occurred_at <= ? AND type = ? ORDER BY occurred_at ASC`
	rows := sqlmock.NewRows([]string{"id", "occurred_at", "user_id", "type", "message", "meta"}).
		AddRow("2", from, 7, "LOGIN", "b", nil)

	mock.ExpectQuery(regexp.QuoteMeta(query)).
		WithArgs(7, "2025-01-01 11:00:00.000", "2025-01-01 12:00:00.000", "LOGIN").
		WillReturnRows(rows)

	got, err := repo.List(ctx(t), 7, from, to, " login ")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 1 || got[0].EventID != "2" {
		t.Fatalf("unexpected results: %+v", got)
	}
}

func TestActivityList_PostgresPlaceholders(t *testing.T) {
	t.Parallel()

	db, mock := newSQLMock(t)
	repo := NewActivityRepository(db, Postgres)

	from := time.Date(2025, 1, 1, 11, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta(selectActivityPrefix + `user_id = $1 AND occurred_at >= $2 ORDER BY occurred_at ASC`)).
		WithArgs(7, from).
		WillReturnRows(sqlmock.NewRows([]string{"id", "occurred_at", "user_id", "type", "message", "meta"}))

	got, err := repo.List(ctx(t), 7, from, time.Time{}, "")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty, got %d", len(got))
	}
}

func TestActivityList_ScanError(t *testing.T) {
	t.Parallel()

	db, mock := newSQLMock(t)
	repo := NewActivityRepository(db, SQLite)

	rows := sqlmock.NewRows([]string{"id", "occurred_at", "user_id", "type", "message", "meta"}).
		// occurred_at wrong type to force scan error
		AddRow("x", 123, 7, "LOGIN", "msg", nil)

	mock.ExpectQuery("SELECT id, occurred_at").WillReturnRows(rows)

	if _, err := repo.List(ctx(t), 7, time.Time{}, time.Time{}, ""); err == nil {
		t.Fatalf("expected scan error, got nil")
	}
}
