package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"task_manager/internal/models"
	"task_manager/internal/repository"
)

const maxTitleLen = 100

type TaskService struct {
	repo repository.TaskRepo
	rec  *recorder
}

func NewTaskService(repo repository.TaskRepo, rec *recorder) *TaskService {
	return &TaskService{repo: repo, rec: rec}
}

// ValidStatus reports whether s is a known task status.
func ValidStatus(s string) bool {
	switch s {
	case models.TaskTodo, models.TaskInProgress, models.TaskDone:
		return true
	}
	return false
}

// normalizeTaskInput trims fields and checks title and status.
func normalizeTaskInput(in TaskInput) (TaskInput, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Status = strings.ToLower(strings.TrimSpace(in.Status))

	if in.Title == "" {
		return in, fmt.Errorf("%w: title is required", ErrInvalidTask)
	}
	if utf8.RuneCountInString(in.Title) > maxTitleLen {
		return in, fmt.Errorf("%w: title is longer than %d characters", ErrInvalidTask, maxTitleLen)
	}
	if in.Status != "" && !ValidStatus(in.Status) {
		return in, fmt.Errorf("%w: status must be one of todo, in_progress, done", ErrInvalidTask)
	}
	if in.DueDate != nil {
		d := in.DueDate.UTC()
		in.DueDate = &d
	}
	return in, nil
}

func (s *TaskService) ListTasks(ctx context.Context, ownerID int, status string) ([]models.Task, error) {
	status = strings.ToLower(strings.TrimSpace(status))
	if status != "" && !ValidStatus(status) {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidTask, status)
	}
	return s.repo.List(ctx, ownerID, status)
}

func (s *TaskService) GetTask(ctx context.Context, ownerID, id int) (*models.Task, error) {
	t, err := s.repo.Get(ctx, ownerID, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrTaskNotFound
	}
	return t, err
}

func (s *TaskService) CreateTask(ctx context.Context, ownerID int, in TaskInput) (*models.Task, error) {
	in, err := normalizeTaskInput(in)
	if err != nil {
		return nil, err
	}
	if in.Status == "" {
		in.Status = models.TaskTodo
	}

	t, err := s.repo.Create(ctx, models.Task{
		Title:       in.Title,
		Description: in.Description,
		Status:      in.Status,
		DueDate:     in.DueDate,
		OwnerID:     ownerID,
	})
	if err != nil {
		return nil, err
	}
	s.rec.record(ctx, ownerID, models.EventTaskCreated, "task created", map[string]any{"task_id": t.ID, "title": t.Title})
	return t, nil
}

// UpdateTask replaces title, description and due date. An empty status keeps
// the current one.
func (s *TaskService) UpdateTask(ctx context.Context, ownerID, id int, in TaskInput) (*models.Task, error) {
	in, err := normalizeTaskInput(in)
	if err != nil {
		return nil, err
	}

	cur, err := s.GetTask(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	prevStatus := cur.Status

	cur.Title = in.Title
	cur.Description = in.Description
	cur.DueDate = in.DueDate
	if in.Status != "" {
		cur.Status = in.Status
	}

	t, err := s.repo.Update(ctx, *cur)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// deleted between read and write
			return nil, ErrTaskNotFound
		}
		return nil, err
	}

	meta := map[string]any{"task_id": t.ID}
	if prevStatus != t.Status {
		meta["status_from"] = prevStatus
		meta["status_to"] = t.Status
	}
	s.rec.record(ctx, ownerID, models.EventTaskUpdated, "task updated", meta)
	return t, nil
}

func (s *TaskService) DeleteTask(ctx context.Context, ownerID, id int) error {
	if err := s.repo.Delete(ctx, ownerID, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrTaskNotFound
		}
		return err
	}
	s.rec.record(ctx, ownerID, models.EventTaskDeleted, "task deleted", map[string]any{"task_id": id})
	return nil
}
