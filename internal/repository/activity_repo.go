package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"task_manager/internal/models"
)

type ActivityRepository struct {
	db *sql.DB
	d  Dialect
}

func NewActivityRepository(db *sql.DB, d Dialect) *ActivityRepository {
	return &ActivityRepository{db: db, d: d}
}

var _ ActivityRepo = (*ActivityRepository)(nil)

const insertActivitySQL = `INSERT INTO activity_events (id, occurred_at, user_id, type, message, meta) VALUES (?, ?, ?, ?, ?, ?)`

// Append inserts a new event. If EventID or OccurredAt are empty, they're set.
func (r *ActivityRepository) Append(ctx context.Context, e models.ActivityEvent) error {
	if e.EventID == "" {
		e.EventID = uuid.NewString()
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now()
	}

	// marshal metadata if present
	var metaPtr *string
	if e.Metadata != nil {
		if b, err := json.Marshal(e.Metadata); err == nil {
			s := string(b)
			metaPtr = &s
		}
	}

	_, err := r.db.ExecContext(ctx, r.d.rebind(insertActivitySQL),
		e.EventID,
		r.d.timeArg(e.OccurredAt),
		e.UserID,
		strings.ToUpper(strings.TrimSpace(e.Type)),
		e.Description,
		metaPtr,
	)
	if err != nil {
		return fmt.Errorf("append %s event: %w", e.Type, err)
	}
	return nil
}

// List returns userID's events filtered by [from, to] (inclusive) and/or type, ordered ASC.
func (r *ActivityRepository) List(ctx context.Context, userID int, from, to time.Time, typ string) ([]models.ActivityEvent, error) {
	conds := []string{"user_id = ?"}
	args := []any{userID}

	if !from.IsZero() {
		conds = append(conds, "occurred_at >= ?")
		args = append(args, r.d.timeArg(from))
	}
	if !to.IsZero() {
		conds = append(conds, "occurred_at <= ?")
		args = append(args, r.d.timeArg(to))
	}
	if typ = strings.ToUpper(strings.TrimSpace(typ)); typ != "" {
		conds = append(conds, "type = ?")
		args = append(args, typ)
	}

	q := `SELECT id, occurred_at, user_id, type, message, meta FROM activity_events WHERE ` +
		strings.Join(conds, " AND ") + ` ORDER BY occurred_at ASC`

	rows, err := r.db.QueryContext(ctx, r.d.rebind(q), args...)
	if err != nil {
		return nil, fmt.Errorf("list activity for user %d: %w", userID, err)
	}
	defer rows.Close()

	out := make([]models.ActivityEvent, 0, 64)
	for rows.Next() {
		var ev models.ActivityEvent
		var metaStr sql.NullString
		if err := rows.Scan(&ev.EventID, &ev.OccurredAt, &ev.UserID, &ev.Type, &ev.Description, &metaStr); err != nil {
			return nil, fmt.Errorf("scan activity event: %w", err)
		}
		ev.OccurredAt = ev.OccurredAt.UTC()

		if metaStr.Valid && metaStr.String != "" {
			var v any
			if err := json.Unmarshal([]byte(metaStr.String), &v); err == nil {
				ev.Metadata = v
			} else {
				ev.Metadata = metaStr.String // keep raw if malformed
			}
		}
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list activity for user %d: %w", userID, err)
	}
	return out, nil
}
