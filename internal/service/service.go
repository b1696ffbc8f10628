package service

import (
	"context"
	"time"

	"task_manager/internal/auth"
	"task_manager/internal/logger"
	"task_manager/internal/models"
	"task_manager/internal/repository"
)

// Authorization covers registration, login and per-request identity.
type Authorization interface {
	Register(ctx context.Context, in RegisterInput) (string, error)
	Login(ctx context.Context, username, password string) (string, error)
	Authenticate(ctx context.Context, token string) (*models.User, error)
}

// Tasks is owner-scoped CRUD: ownerID always comes from the authenticated user.
type Tasks interface {
	ListTasks(ctx context.Context, ownerID int, status string) ([]models.Task, error)
	GetTask(ctx context.Context, ownerID, id int) (*models.Task, error)
	CreateTask(ctx context.Context, ownerID int, in TaskInput) (*models.Task, error)
	UpdateTask(ctx context.Context, ownerID, id int, in TaskInput) (*models.Task, error)
	DeleteTask(ctx context.Context, ownerID, id int) error
}

// ActivityLog exposes a user's append-only activity history.
type ActivityLog interface {
	ListActivity(ctx context.Context, userID int, f LogFilter) ([]models.ActivityEvent, error)
}

type Service struct {
	Authorization
	Tasks
	ActivityLog
}

// Deps are the auth primitives shared by the services.
type Deps struct {
	Hasher *auth.Hasher
	Tokens *auth.TokenManager
	Log    *logger.Logger
}

// NewService wires the repository layer into concrete services.
func NewService(repos *repository.Repository, deps Deps) *Service {
	log := logger.OrNop(deps.Log)
	rec := newRecorder(repos.Activity, log)
	return &Service{
		Authorization: NewAuthService(repos.Users, deps.Hasher, deps.Tokens, rec, log),
		Tasks:         NewTaskService(repos.Tasks, rec),
		ActivityLog:   NewActivityService(repos.Activity),
	}
}

// RegisterInput is the registration payload.
type RegisterInput struct {
	Username string
	Email    string
	Password string
}

// TaskInput carries the client-settable task fields.
type TaskInput struct {
	Title       string
	Description string
	Status      string // "" keeps the current status (todo on create)
	DueDate     *time.Time
}

// LogFilter supports history filtering by time range and type.
type LogFilter struct {
	From time.Time // inclusive; zero means no lower bound
	To   time.Time // inclusive; zero means no upper bound
	Type string    // "", "REGISTER", "LOGIN", "TASK_CREATED", "TASK_UPDATED", "TASK_DELETED"
}
