package repository

import (
	"context"
	"database/sql"
	"time"

	"task_manager/internal/models"
)

// UserDirectory is the persistence-backed lookup of users by username.
type UserDirectory interface {
	// FindByUsername returns (nil, nil) when no user has that exact username.
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	// Insert stores u and returns it with ID and CreatedAt set, or ErrConflict
	// when the username or email is taken.
	Insert(ctx context.Context, u models.User) (*models.User, error)
}

type TaskRepo interface {
	List(ctx context.Context, ownerID int, status string) ([]models.Task, error)
	Get(ctx context.Context, ownerID, id int) (*models.Task, error)
	Create(ctx context.Context, t models.Task) (*models.Task, error)
	Update(ctx context.Context, t models.Task) (*models.Task, error)
	Delete(ctx context.Context, ownerID, id int) error
}

type ActivityRepo interface {
	Append(ctx context.Context, e models.ActivityEvent) error
	List(ctx context.Context, userID int, from, to time.Time, typ string) ([]models.ActivityEvent, error)
}

type Repository struct {
	Users    UserDirectory
	Tasks    TaskRepo
	Activity ActivityRepo
}

// NewRepository wires every store to db. driver selects placeholder and
// timestamp encoding ("sqlite" or "postgres").
func NewRepository(db *sql.DB, driver string) *Repository {
	d := dialectOf(driver)
	return &Repository{
		Users:    NewUserRepository(db, d),
		Tasks:    NewTaskRepository(db, d),
		Activity: NewActivityRepository(db, d),
	}
}
