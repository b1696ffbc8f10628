package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"task_manager/internal/models"
)

// TaskRepository stores tasks. Every read and write is scoped to an owner, so
// a task id belonging to someone else behaves exactly like a missing one.
type TaskRepository struct {
	db *sql.DB
	d  Dialect
}

func NewTaskRepository(db *sql.DB, d Dialect) *TaskRepository {
	return &TaskRepository{db: db, d: d}
}

var _ TaskRepo = (*TaskRepository)(nil)

const (
	taskColumns = `id, title, description, status, created_at, due_date, owner_id`

	selectTasksSQL      = `SELECT ` + taskColumns + ` FROM tasks WHERE owner_id = ?`
	selectTaskSQL       = `SELECT ` + taskColumns + ` FROM tasks WHERE owner_id = ? AND id = ?`
	insertTaskSQL       = `INSERT INTO tasks (title, description, status, created_at, due_date, owner_id) VALUES (?, ?, ?, ?, ?, ?) RETURNING id`
	updateTaskSQL       = `UPDATE tasks SET title = ?, description = ?, status = ?, due_date = ? WHERE owner_id = ? AND id = ?`
	deleteTaskSQL       = `DELETE FROM tasks WHERE owner_id = ? AND id = ?`
	taskOrderSQL        = ` ORDER BY id ASC`
	taskStatusFilterSQL = ` AND status = ?`
)

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(s rowScanner) (models.Task, error) {
	var (
		t    models.Task
		desc sql.NullString
		due  sql.NullTime
	)
	if err := s.Scan(&t.ID, &t.Title, &desc, &t.Status, &t.CreatedAt, &due, &t.OwnerID); err != nil {
		return models.Task{}, err
	}
	t.Description = desc.String
	t.CreatedAt = t.CreatedAt.UTC()
	if due.Valid {
		d := due.Time.UTC()
		t.DueDate = &d
	}
	return t, nil
}

func (r *TaskRepository) nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return r.d.timeArg(*t)
}

// List returns the owner's tasks ordered by id, optionally filtered by status.
func (r *TaskRepository) List(ctx context.Context, ownerID int, status string) ([]models.Task, error) {
	q := selectTasksSQL
	args := []any{ownerID}
	if status != "" {
		q += taskStatusFilterSQL
		args = append(args, status)
	}
	q += taskOrderSQL

	rows, err := r.db.QueryContext(ctx, r.d.rebind(q), args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks for user %d: %w", ownerID, err)
	}
	defer rows.Close()

	out := make([]models.Task, 0, 16)
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list tasks for user %d: %w", ownerID, err)
	}
	return out, nil
}

// Get returns ErrNotFound when the task does not exist or is not ownerID's.
func (r *TaskRepository) Get(ctx context.Context, ownerID, id int) (*models.Task, error) {
	t, err := scanTask(r.db.QueryRowContext(ctx, r.d.rebind(selectTaskSQL), ownerID, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("select task %d: %w", id, err)
	}
	return &t, nil
}

func (r *TaskRepository) Create(ctx context.Context, t models.Task) (*models.Task, error) {
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	t.CreatedAt = t.CreatedAt.UTC().Truncate(time.Millisecond)

	err := r.db.QueryRowContext(ctx, r.d.rebind(insertTaskSQL),
		t.Title, t.Description, t.Status, r.d.timeArg(t.CreatedAt), r.nullableTime(t.DueDate), t.OwnerID,
	).Scan(&t.ID)
	if err != nil {
		return nil, fmt.Errorf("insert task for user %d: %w", t.OwnerID, err)
	}
	return &t, nil
}

// Update overwrites the mutable fields of t and returns the stored row.
func (r *TaskRepository) Update(ctx context.Context, t models.Task) (*models.Task, error) {
	res, err := r.db.ExecContext(ctx, r.d.rebind(updateTaskSQL),
		t.Title, t.Description, t.Status, r.nullableTime(t.DueDate), t.OwnerID, t.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("update task %d: %w", t.ID, err)
	}
	if err := expectOneRow(res); err != nil {
		return nil, err
	}
	return r.Get(ctx, t.OwnerID, t.ID)
}

func (r *TaskRepository) Delete(ctx context.Context, ownerID, id int) error {
	res, err := r.db.ExecContext(ctx, r.d.rebind(deleteTaskSQL), ownerID, id)
	if err != nil {
		return fmt.Errorf("delete task %d: %w", id, err)
	}
	return expectOneRow(res)
}

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
