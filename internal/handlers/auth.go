package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"task_manager/internal/metrics"
	"task_manager/internal/service"
)

const (
	tokenTypeBearer = "bearer"

	errInvalidCredentials = "invalid credentials"
	errUserExists         = "username or email already registered"
)

// RegisterRequest is the registration payload.
type RegisterRequest struct {
	Username string `json:"username" binding:"required" example:"alice"`
	Email    string `json:"email" binding:"required,email" example:"a@x.com"`
	Password string `json:"password" binding:"required" example:"pw123"`
}

// LoginRequest is the login payload. Email is accepted and ignored.
type LoginRequest struct {
	Username string `json:"username" binding:"required" example:"alice"`
	Email    string `json:"email,omitempty"`
	Password string `json:"password" binding:"required" example:"pw123"`
}

// TokenResponse carries a freshly issued access token.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type" example:"bearer"`
}

// bindJSONOrBadRequest tries to bind the request body into dst and writes a 400 JSON on failure.
// Returns false if the request was already handled (aborted), true otherwise.
func (h *Handler) bindJSONOrBadRequest(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		h.log.Infow("bad_request_body", "path", c.FullPath(), "err", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return false
	}
	return true
}

// @Summary      Register
// @Description  Creates an active user and returns an access token.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        input  body      RegisterRequest  true  "New account"
// @Success      201    {object}  TokenResponse
// @Failure      400    {object}  map[string]string
// @Failure      500    {object}  map[string]string
// @Router       /auth/register [post]
func (h *Handler) register(c *gin.Context) {
	var input RegisterRequest
	if ok := h.bindJSONOrBadRequest(c, &input); !ok {
		return
	}

	token, err := h.services.Register(c.Request.Context(), service.RegisterInput{
		Username: input.Username,
		Email:    input.Email,
		Password: input.Password,
	})
	switch {
	case err == nil:
	case errors.Is(err, service.ErrUserExists):
		h.metrics.ObserveAuth("register", metrics.OutcomeRejected)
		h.log.Infow("auth_register_conflict", "username", input.Username)
		c.JSON(http.StatusBadRequest, gin.H{"error": errUserExists})
		return
	case errors.Is(err, service.ErrInvalidInput):
		h.metrics.ObserveAuth("register", metrics.OutcomeRejected)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	default:
		h.metrics.ObserveAuth("register", metrics.OutcomeError)
		h.logAndJSONError(c, http.StatusInternalServerError, "failed to register", "auth_register_failed", err, "username", input.Username)
		return
	}

	h.metrics.ObserveAuth("register", metrics.OutcomeSuccess)
	c.JSON(http.StatusCreated, TokenResponse{AccessToken: token, TokenType: tokenTypeBearer})
}

// @Summary      Login
// @Description  Exchanges username and password for an access token.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        input  body      LoginRequest  true  "Credentials"
// @Success      200    {object}  TokenResponse
// @Failure      400    {object}  map[string]string
// @Failure      401    {object}  map[string]string
// @Failure      500    {object}  map[string]string
// @Router       /auth/login [post]
func (h *Handler) login(c *gin.Context) {
	var input LoginRequest
	if ok := h.bindJSONOrBadRequest(c, &input); !ok {
		return
	}

	token, err := h.services.Login(c.Request.Context(), input.Username, input.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			h.metrics.ObserveAuth("login", metrics.OutcomeRejected)
			h.log.Infow("auth_login_failed", "username", input.Username)
			unauthorized(c, errInvalidCredentials)
			return
		}
		h.metrics.ObserveAuth("login", metrics.OutcomeError)
		h.logAndJSONError(c, http.StatusInternalServerError, "failed to log in", "auth_login_error", err, "username", input.Username)
		return
	}

	h.metrics.ObserveAuth("login", metrics.OutcomeSuccess)
	c.JSON(http.StatusOK, TokenResponse{AccessToken: token, TokenType: tokenTypeBearer})
}
