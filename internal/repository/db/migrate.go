package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"sync"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var migrations embed.FS

// goose keeps its base FS and dialect in package globals.
var gooseMu sync.Mutex

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

func dialectFor(driver string) (dialect, dir string, err error) {
	switch driver {
	case DriverSQLite, "":
		return "sqlite3", "migrations/sqlite", nil
	case DriverPostgres:
		return "pgx", "migrations/postgres", nil
	default:
		return "", "", fmt.Errorf("no migrations for driver %q", driver)
	}
}

// Migrate applies every pending embedded migration for driver.
func Migrate(ctx context.Context, db *sql.DB, driver string) error {
	dialect, dir, err := dialectFor(driver)
	if err != nil {
		return err
	}
	sub, err := fs.Sub(migrations, dir)
	if err != nil {
		return fmt.Errorf("open migrations %s: %w", dir, err)
	}

	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(sub)
	defer goose.SetBaseFS(nil)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("set goose dialect %s: %w", dialect, err)
	}
	if err := gooseUpContext(ctx, db, "."); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}
