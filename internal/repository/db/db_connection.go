package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/sethvargo/go-retry"
	_ "modernc.org/sqlite"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	sqliteDriverName   = "sqlite"
	postgresDriverName = "pgx"

	defaultMaxOpenConns = 10
	pingBackoffBase     = 200 * time.Millisecond
)

// Options select and tune the backing database.
type Options struct {
	Driver         string // sqlite | postgres
	Path           string // sqlite file, ":memory:" for tests
	DSN            string // postgres connection string
	MaxOpenConns   int
	ConnectRetries int
}

// Open connects to the configured database, waits for it to answer and
// applies pending migrations.
func Open(ctx context.Context, opts Options) (*sql.DB, error) {
	var (
		db  *sql.DB
		err error
	)
	switch opts.Driver {
	case DriverSQLite, "":
		db, err = openSQLite(opts.Path)
	case DriverPostgres:
		db, err = openPostgres(opts.DSN, opts.MaxOpenConns)
	default:
		return nil, fmt.Errorf("unsupported db driver %q", opts.Driver)
	}
	if err != nil {
		return nil, err
	}

	if err := pingWithRetry(ctx, db, opts.ConnectRetries); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := Migrate(ctx, db, opts.Driver); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// openSQLite opens/creates a SQLite DB file.
func openSQLite(path string) (*sql.DB, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite path is empty")
	}
	db, err := sql.Open(sqliteDriverName, path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite at %q: %w", path, err)
	}

	// Conservative pool settings for SQLite; a single connection also keeps
	// ":memory:" databases alive for the life of the handle.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL;",
		"PRAGMA foreign_keys = ON;",
		"PRAGMA busy_timeout = 5000;",
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("set %s: %w", pragma, err)
		}
	}
	return db, nil
}

func openPostgres(dsn string, maxOpen int) (*sql.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres dsn is empty")
	}
	db, err := sql.Open(postgresDriverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if maxOpen <= 0 {
		maxOpen = defaultMaxOpenConns
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxOpen / 2)
	db.SetConnMaxIdleTime(5 * time.Minute)
	return db, nil
}

// pingWithRetry fails fast once the retry budget is spent. Postgres started
// by the same compose file is usually a few seconds behind the service.
func pingWithRetry(ctx context.Context, db *sql.DB, retries int) error {
	if retries < 0 {
		retries = 0
	}
	backoff := retry.WithMaxRetries(uint64(retries), retry.NewExponential(pingBackoffBase))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := db.PingContext(ctx); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("ping database: %w", err)
	}
	return nil
}
