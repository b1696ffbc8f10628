package handlers

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"task_manager/internal/models"
)

// Stream timing and inbound message limits.
const (
	writeWait       = 10 * time.Second
	pongWait        = 60 * time.Second
	pingPeriod      = pongWait * 9 / 10
	maxInboundBytes = 4 << 10

	defaultInterval = time.Second
	maxInterval     = 10 * time.Second
)

// Envelope used for WebSocket messages.
type wsEnvelope struct {
	Type  string      `json:"type"`
	Data  interface{} `json:"data,omitempty"`
	Error string      `json:"error,omitempty"`
}

func (h *Handler) upgrader() *websocket.Upgrader {
	return &websocket.Upgrader{CheckOrigin: h.checkOrigin}
}

// checkOrigin admits non-browser clients (no Origin), same-host pages and the
// configured CORS origins.
func (h *Handler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || h.allowAnyOrigin() {
		return true
	}
	for _, o := range h.origins {
		if strings.EqualFold(o, origin) {
			return true
		}
	}
	u, err := url.Parse(origin)
	return err == nil && strings.EqualFold(u.Host, r.Host)
}

// @Summary      Task stream
// @Description  WebSocket that pushes {"type":"tasks","data":[...]} immediately and then every interval. Browsers may authenticate with ?access_token=.
// @Tags         tasks
// @Param        interval     query  string  false  "Push interval, e.g. 2s (max 10s)"
// @Param        interval_ms  query  int     false  "Push interval in milliseconds (max 10000)"
// @Param        status       query  string  false  "Filter by status"  Enums(todo,in_progress,done)
// @Success      101  {string}  string  "Switching Protocols"
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/ws/tasks [get]
// @Security     BearerAuth
func (h *Handler) wsTasks(c *gin.Context) {
	st := &taskStream{
		h:        h,
		ownerID:  currentUser(c).ID, // resolved once, at the upgrade
		status:   c.Query("status"),
		interval: h.parseInterval(c),
	}

	conn, err := h.upgrader().Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Errorw("ws_upgrade_failed", "user_id", st.ownerID, "err", err)
		return
	}
	defer func() { _ = conn.Close() }()
	st.conn = conn

	h.metrics.StreamOpened()
	defer h.metrics.StreamClosed()

	st.run(c.Request.Context())
}

// parseInterval reads ?interval=2s, then ?interval_ms=2000; out-of-range or
// unparsable values fall back to defaultInterval.
func (h *Handler) parseInterval(c *gin.Context) time.Duration {
	if d, err := time.ParseDuration(c.Query("interval")); err == nil && d > 0 && d <= maxInterval {
		return d
	}
	if ms, err := strconv.Atoi(c.Query("interval_ms")); err == nil && ms > 0 {
		if d := time.Duration(ms) * time.Millisecond; d <= maxInterval {
			return d
		}
	}
	return defaultInterval
}

// taskStream pushes one owner's task list over a WebSocket until the client
// goes away or a write fails.
type taskStream struct {
	h        *Handler
	conn     *websocket.Conn
	ownerID  int
	status   string
	interval time.Duration
}

func (s *taskStream) run(ctx context.Context) {
	s.conn.SetReadLimit(maxInboundBytes)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	closed := make(chan struct{})
	go s.drain(closed)

	push := time.NewTicker(s.interval)
	defer push.Stop()
	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	if err := s.push(ctx); err != nil {
		s.h.log.Infow("ws_write_failed_initial", "user_id", s.ownerID, "err", err)
		return
	}
	for {
		select {
		case <-closed:
			return
		case <-ctx.Done():
			return
		case <-ping.C:
			if err := s.write(func() error { return s.conn.WriteMessage(websocket.PingMessage, nil) }); err != nil {
				s.h.log.Infow("ws_ping_failed", "user_id", s.ownerID, "err", err)
				return
			}
		case <-push.C:
			if err := s.push(ctx); err != nil {
				s.h.log.Infow("ws_write_failed", "user_id", s.ownerID, "err", err)
				return
			}
		}
	}
}

// drain reads until the peer disconnects so control frames get processed.
func (s *taskStream) drain(closed chan<- struct{}) {
	defer close(closed)
	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			s.h.log.Debugw("ws_read_closed", "user_id", s.ownerID, "err", err)
			return
		}
	}
}

// push re-reads the owner's tasks and sends them. A failed read is reported
// to the client as an error frame and ends the stream.
func (s *taskStream) push(ctx context.Context) error {
	tasks, err := s.h.services.ListTasks(ctx, s.ownerID, s.status)
	if err != nil {
		s.h.log.Errorw("ws_list_tasks_failed", "user_id", s.ownerID, "err", err)
		_ = s.write(func() error { return s.conn.WriteJSON(wsEnvelope{Type: "error", Error: "failed to load tasks"}) })
		return err
	}
	if tasks == nil {
		tasks = []models.Task{}
	}
	return s.write(func() error { return s.conn.WriteJSON(wsEnvelope{Type: "tasks", Data: tasks}) })
}

func (s *taskStream) write(fn func() error) error {
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return fn()
}
