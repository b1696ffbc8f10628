package service

import (
	"context"
	"strings"

	"task_manager/internal/models"
	"task_manager/internal/repository"
)

type ActivityService struct {
	repo repository.ActivityRepo
}

func NewActivityService(repo repository.ActivityRepo) *ActivityService {
	return &ActivityService{repo: repo}
}

// normalize converts both bounds to UTC (zero stays zero), canonicalizes the
// type and rejects an inverted range.
func (f LogFilter) normalize() (LogFilter, error) {
	if !f.From.IsZero() {
		f.From = f.From.UTC()
	}
	if !f.To.IsZero() {
		f.To = f.To.UTC()
	}
	f.Type = strings.ToUpper(strings.TrimSpace(f.Type))

	if !f.From.IsZero() && !f.To.IsZero() && f.From.After(f.To) {
		return LogFilter{}, ErrInvalidTimeRange
	}
	return f, nil
}

// ListActivity returns userID's own events only.
func (s *ActivityService) ListActivity(ctx context.Context, userID int, f LogFilter) ([]models.ActivityEvent, error) {
	f, err := f.normalize()
	if err != nil {
		return nil, err
	}
	return s.repo.List(ctx, userID, f.From, f.To, f.Type)
}
