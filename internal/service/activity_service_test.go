package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"task_manager/internal/models"
)

func TestLogFilter_Normalize(t *testing.T) {
	t.Parallel()

	plus3 := time.FixedZone("UTC+3", 3*3600)
	cases := []struct {
		name    string
		in      LogFilter
		want    LogFilter
		wantErr error
	}{
		{
			name: "empty filter stays empty",
		},
		{
			name: "bounds converted to UTC preserving the instant",
			in: LogFilter{
				From: time.Date(2025, time.August, 1, 12, 34, 56, 0, plus3),
				To:   time.Date(2025, time.August, 2, 3, 0, 0, 0, plus3),
			},
			want: LogFilter{
				From: time.Date(2025, time.August, 1, 9, 34, 56, 0, time.UTC),
				To:   time.Date(2025, time.August, 2, 0, 0, 0, 0, time.UTC),
			},
		},
		{
			name: "type trimmed and uppercased",
			in:   LogFilter{Type: "  task_created "},
			want: LogFilter{Type: models.EventTaskCreated},
		},
		{
			name: "equal bounds allowed",
			in: LogFilter{
				From: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
				To:   time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
			},
			want: LogFilter{
				From: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
				To:   time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
			},
		},
		{
			name: "inverted range",
			in: LogFilter{
				From: time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC),
				To:   time.Date(2025, 1, 1, 23, 0, 0, 0, time.UTC),
			},
			wantErr: ErrInvalidTimeRange,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := tc.in.normalize()
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected err %v, got %v", tc.wantErr, err)
			}
			if tc.wantErr != nil {
				return
			}
			if !got.From.Equal(tc.want.From) || !got.To.Equal(tc.want.To) || got.Type != tc.want.Type {
				t.Fatalf("normalize() = %+v, want %+v", got, tc.want)
			}
			if !got.From.IsZero() && got.From.Location() != time.UTC {
				t.Fatalf("from not in UTC: %v", got.From.Location())
			}
		})
	}
}

func TestActivityService_List_PassesCallerAndFilter(t *testing.T) {
	t.Parallel()

	frepo := &fakeActivity{events: []models.ActivityEvent{{EventID: "1", UserID: 42}}}
	svc := NewActivityService(frepo)

	from := time.Date(2025, time.October, 1, 10, 0, 0, 0, time.FixedZone("UTC+5", 5*3600))
	out, err := svc.ListActivity(context.Background(), 42, LogFilter{From: from, Type: "login"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 1 || out[0].EventID != "1" {
		t.Fatalf("unexpected events: %+v", out)
	}
	wantFrom := time.Date(2025, time.October, 1, 5, 0, 0, 0, time.UTC)
	if frepo.gotUserID != 42 || !frepo.gotFrom.Equal(wantFrom) || !frepo.gotTo.IsZero() || frepo.gotType != models.EventLogin {
		t.Fatalf("repo got user=%d from=%v to=%v type=%q", frepo.gotUserID, frepo.gotFrom, frepo.gotTo, frepo.gotType)
	}
}

func TestActivityService_List_InvalidRangeSkipsStore(t *testing.T) {
	t.Parallel()

	frepo := &fakeActivity{}
	_, err := NewActivityService(frepo).ListActivity(context.Background(), 1, LogFilter{
		From: time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	if !errors.Is(err, ErrInvalidTimeRange) {
		t.Fatalf("expected ErrInvalidTimeRange; got %v", err)
	}
	if frepo.calls != 0 {
		t.Fatalf("store must not be queried, calls=%d", frepo.calls)
	}
}

func TestActivityService_List_RepoErrorPropagation(t *testing.T) {
	t.Parallel()

	frepo := &fakeActivity{listErr: errors.New("db down")}
	if _, err := NewActivityService(frepo).ListActivity(context.Background(), 1, LogFilter{}); !errors.Is(err, frepo.listErr) {
		t.Fatalf("expected repo error to propagate; got %v", err)
	}
}
