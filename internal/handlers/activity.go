package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"task_manager/internal/models"
	"task_manager/internal/service"
)

const (
	layoutDateTime = "2006-01-02 15:04:05"
	layoutDate     = "2006-01-02"

	timeFormatsHint = "use RFC3339, 'YYYY-MM-DD HH:MM:SS' or YYYY-MM-DD"
)

var queryTimeLayouts = []string{time.RFC3339, layoutDateTime, layoutDate}

// ActivityResponse wraps a page of activity events.
type ActivityResponse struct {
	Count  int                    `json:"count"`
	Events []models.ActivityEvent `json:"events"`
}

// @Summary      List activity
// @Description  The caller's own events, filtered by date (RFC3339, 'YYYY-MM-DD HH:MM:SS', or 'YYYY-MM-DD'). If 'to' is date-only, it is treated as end-of-day inclusive.
// @Tags         activity
// @Produce      json
// @Param        from  query     string  false  "Start of range"  example(2025-08-01)
// @Param        to    query     string  false  "End of range. Date-only treated as end of day."  example(2025-08-31)
// @Param        type  query     string  false  "Event type"  Enums(REGISTER,LOGIN,TASK_CREATED,TASK_UPDATED,TASK_DELETED)
// @Success      200   {object}  ActivityResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /api/v1/activity [get]
// @Security     BearerAuth
func (h *Handler) getActivity(c *gin.Context) {
	filter, ok := activityFilter(c)
	if !ok {
		return
	}

	u := currentUser(c)
	events, err := h.services.ListActivity(c.Request.Context(), u.ID, filter)
	switch {
	case err == nil:
	case errors.Is(err, service.ErrInvalidTimeRange):
		c.JSON(http.StatusBadRequest, gin.H{"error": "'from' must be <= 'to'"})
		return
	default:
		h.logAndJSONError(c, http.StatusInternalServerError, "failed to load activity", "activity_list_failed", err,
			"user_id", u.ID, "from", filter.From, "to", filter.To, "type", filter.Type)
		return
	}

	if events == nil {
		events = []models.ActivityEvent{}
	}
	c.JSON(http.StatusOK, ActivityResponse{Count: len(events), Events: events})
}

// activityFilter reads from/to/type; writes 400 and returns false on a bad timestamp.
// A date-only 'to' covers that whole day.
func activityFilter(c *gin.Context) (service.LogFilter, bool) {
	f := service.LogFilter{Type: strings.ToUpper(strings.TrimSpace(c.Query("type")))}

	for _, bound := range []struct {
		name string
		dst  *time.Time
	}{{"from", &f.From}, {"to", &f.To}} {
		raw := c.Query(bound.name)
		if raw == "" {
			continue
		}
		t, err := parseQueryTime(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid '%s' time; %s", bound.name, timeFormatsHint)})
			return f, false
		}
		if bound.name == "to" && isDateOnly(raw) {
			t = t.Add(24*time.Hour - time.Nanosecond)
		}
		*bound.dst = t
	}
	return f, true
}

// isDateOnly reports whether s carries no time of day.
func isDateOnly(s string) bool {
	return !strings.ContainsAny(s, "T ")
}

// parseQueryTime accepts any of queryTimeLayouts and returns UTC.
func parseQueryTime(s string) (time.Time, error) {
	for _, layout := range queryTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid time %q: %s", s, timeFormatsHint)
}
