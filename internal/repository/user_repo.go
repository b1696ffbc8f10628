package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"task_manager/internal/models"
	"task_manager/internal/repository/db"
)

type UserRepository struct {
	db *sql.DB
	d  Dialect
}

func NewUserRepository(conn *sql.DB, d Dialect) *UserRepository {
	return &UserRepository{db: conn, d: d}
}

// Ensure implementation of UserDirectory interface at compile time.
var _ UserDirectory = (*UserRepository)(nil)

const (
	insertUserSQL = `INSERT INTO users (username, email, password_hash, is_active, created_at)
VALUES (?, ?, ?, ?, ?) RETURNING id`
	selectUserByUsernameSQL = `SELECT id, username, email, password_hash, is_active, created_at
FROM users WHERE username = ?`
)

// Insert creates a user. The uniqueness of username and email is enforced by
// the schema, never by a prior lookup.
func (r *UserRepository) Insert(ctx context.Context, u models.User) (*models.User, error) {
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	u.CreatedAt = u.CreatedAt.UTC().Truncate(time.Millisecond)

	err := db.WithTx(ctx, r.db, func(ctx context.Context, tx db.DBTX) error {
		return tx.QueryRowContext(ctx, r.d.rebind(insertUserSQL),
			u.Username, u.Email, u.PasswordHash, u.IsActive, r.d.timeArg(u.CreatedAt),
		).Scan(&u.ID)
	})
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("insert user %q: %w", u.Username, err)
	}
	return &u, nil
}

// FindByUsername fetches a user by exact username. Returns (nil, nil) if not found.
func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	var u models.User
	err := r.db.QueryRowContext(ctx, r.d.rebind(selectUserByUsernameSQL), username).
		Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.IsActive, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select user %q: %w", username, err)
	}
	u.CreatedAt = u.CreatedAt.UTC()
	return &u, nil
}
