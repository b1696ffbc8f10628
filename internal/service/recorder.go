package service

import (
	"context"
	"time"

	"task_manager/internal/logger"
	"task_manager/internal/models"
	"task_manager/internal/repository"
)

// recorder appends activity events on a best-effort basis: a failed append is
// logged and never fails the operation that produced it.
type recorder struct {
	repo repository.ActivityRepo
	log  *logger.Logger
	now  func() time.Time
}

func newRecorder(repo repository.ActivityRepo, log *logger.Logger) *recorder {
	return &recorder{repo: repo, log: logger.OrNop(log), now: time.Now}
}

func (r *recorder) record(ctx context.Context, userID int, typ, desc string, meta map[string]any) {
	if r == nil || r.repo == nil {
		return
	}
	ev := models.ActivityEvent{
		OccurredAt:  r.now().UTC(),
		UserID:      userID,
		Type:        typ,
		Description: desc,
	}
	if len(meta) > 0 {
		ev.Metadata = meta
	}
	// the request may already be finished; keep values but not cancellation
	if err := r.repo.Append(context.WithoutCancel(ctx), ev); err != nil {
		r.log.Warnw("activity_append_failed", "type", typ, "user_id", userID, "err", err)
	}
}
