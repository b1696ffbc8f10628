package db

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/pressly/goose/v3"
)

func openMemory(t *testing.T) *sql.DB {
	t.Helper()
	db, err := Open(context.Background(), Options{Driver: DriverSQLite, Path: ":memory:"})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestOpen_SQLiteAppliesMigrations(t *testing.T) {
	db := openMemory(t)

	for _, table := range []string{"users", "tasks", "activity_events"} {
		var name string
		err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name)
		if err != nil {
			t.Fatalf("table %s missing: %v", table, err)
		}
	}

	// a second run is a no-op
	if err := Migrate(context.Background(), db, DriverSQLite); err != nil {
		t.Fatalf("re-migrate: %v", err)
	}
}

func TestOpen_UnknownDriver(t *testing.T) {
	if _, err := Open(context.Background(), Options{Driver: "mysql"}); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

func TestOpen_EmptyPaths(t *testing.T) {
	if _, err := Open(context.Background(), Options{Driver: DriverSQLite}); err == nil {
		t.Fatal("expected error for empty sqlite path")
	}
	if _, err := Open(context.Background(), Options{Driver: DriverPostgres}); err == nil {
		t.Fatal("expected error for empty postgres dsn")
	}
}

func TestPingWithRetry_ClosedDB(t *testing.T) {
	db, err := openSQLite(":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	_ = db.Close()

	if err := pingWithRetry(context.Background(), db, 2); err == nil {
		t.Fatal("expected ping on a closed handle to fail")
	}
}

func TestMigrate_PropagatesGooseError(t *testing.T) {
	orig := gooseUpContext
	t.Cleanup(func() { gooseUpContext = orig })

	boom := errors.New("boom")
	gooseUpContext = func(context.Context, *sql.DB, string, ...goose.OptionsFunc) error { return boom }

	if err := Migrate(context.Background(), nil, DriverSQLite); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped boom, got %v", err)
	}
	if err := Migrate(context.Background(), nil, "oracle"); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

func TestWithTx(t *testing.T) {
	db := openMemory(t)
	ctx := context.Background()

	insert := func(ctx context.Context, tx DBTX, name string) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO users (username, email, password_hash, created_at) VALUES (?, ?, 'h', '2025-01-01 00:00:00')`,
			name, name+"@x.com")
		return err
	}
	count := func() int {
		var n int
		if err := db.QueryRow(`SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
			t.Fatalf("count: %v", err)
		}
		return n
	}

	if err := WithTx(ctx, db, func(ctx context.Context, tx DBTX) error { return insert(ctx, tx, "alice") }); err != nil {
		t.Fatalf("commit path: %v", err)
	}
	if count() != 1 {
		t.Fatal("committed row missing")
	}

	fail := errors.New("fail")
	err := WithTx(ctx, db, func(ctx context.Context, tx DBTX) error {
		if err := insert(ctx, tx, "bob"); err != nil {
			return err
		}
		return fail
	})
	if !errors.Is(err, fail) {
		t.Fatalf("expected fail, got %v", err)
	}
	if count() != 1 {
		t.Fatal("rolled back row is visible")
	}

	func() {
		defer func() {
			if recover() == nil {
				t.Fatal("panic was swallowed")
			}
		}()
		_ = WithTx(ctx, db, func(ctx context.Context, tx DBTX) error {
			_ = insert(ctx, tx, "carol")
			panic("kaboom")
		})
	}()
	if count() != 1 {
		t.Fatal("row from panicking tx is visible")
	}
}
