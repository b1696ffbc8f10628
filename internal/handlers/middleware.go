package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"task_manager/internal/auth"
	"task_manager/internal/metrics"
	"task_manager/internal/models"
)

const (
	currentUserKey = "currentUser"

	errNotAuthenticated = "not authenticated"
)

// unauthorized writes the single 401 shape used for every authentication failure.
func unauthorized(c *gin.Context, msg string) {
	c.Header("WWW-Authenticate", `Bearer`)
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msg})
}

// requestToken reads the bearer token. Browsers cannot set headers on a
// WebSocket handshake, so upgrades may pass it as ?access_token= instead.
func requestToken(c *gin.Context) string {
	if tok := auth.BearerToken(c.GetHeader("Authorization")); tok != "" {
		return tok
	}
	if websocket.IsWebSocketUpgrade(c.Request) {
		return c.Query("access_token")
	}
	return ""
}

// authMiddleware resolves the caller on every request; nothing is cached.
func (h *Handler) authMiddleware(c *gin.Context) {
	u, err := h.services.Authenticate(c.Request.Context(), requestToken(c))
	if err != nil {
		var ue *auth.UnauthorizedError
		if errors.As(err, &ue) {
			h.metrics.ObserveAuth("resolve", metrics.OutcomeRejected)
			h.log.Infow("auth_unauthorized", "reason", ue.Reason, "path", c.FullPath())
			unauthorized(c, errNotAuthenticated)
			return
		}
		h.metrics.ObserveAuth("resolve", metrics.OutcomeError)
		h.log.Errorw("auth_resolve_failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to authenticate"})
		return
	}

	// store in Gin context
	c.Set(currentUserKey, u)
	c.Next()
}

// currentUser returns the user stored by authMiddleware.
func currentUser(c *gin.Context) *models.User {
	v, ok := c.Get(currentUserKey)
	if !ok {
		return nil
	}
	u, _ := v.(*models.User)
	return u
}
