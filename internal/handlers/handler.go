package handlers

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "task_manager/docs"
	"task_manager/internal/logger"
	"task_manager/internal/metrics"
	"task_manager/internal/service"
)

// Handler wires HTTP layer to services and logging.
type Handler struct {
	services *service.Service
	log      *logger.Logger
	metrics  *metrics.Metrics

	metricsPath string
	origins     []string
}

// Option customizes a Handler.
type Option func(*Handler)

// WithMetrics records request metrics and serves them on path.
func WithMetrics(m *metrics.Metrics, path string) Option {
	return func(h *Handler) {
		h.metrics = m
		h.metricsPath = path
	}
}

// WithAllowedOrigins enables CORS for origins ("*" allows any) and lets
// WebSocket upgrades from those origins through.
func WithAllowedOrigins(origins []string) Option {
	return func(h *Handler) { h.origins = origins }
}

// NewHandler constructs a new HTTP handler with dependencies.
func NewHandler(services *service.Service, log *logger.Logger, opts ...Option) *Handler {
	h := &Handler{services: services, log: logger.OrNop(log)}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// InitRoutes builds and returns the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	if h.metrics != nil {
		router.Use(h.metrics.Middleware())
	}
	if mw := h.corsMiddleware(); mw != nil {
		router.Use(mw)
	}

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/health", h.health)
	if h.metrics != nil && h.metricsPath != "" {
		router.GET(h.metricsPath, gin.WrapH(h.metrics.Handler()))
	}

	h.registerAuthRoutes(router)
	h.registerAPIRoutes(router)

	return router
}

func (h *Handler) corsMiddleware() gin.HandlerFunc {
	if len(h.origins) == 0 {
		return nil
	}
	cfg := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:  []string{"Authorization", "Content-Type"},
		ExposeHeaders: []string{"WWW-Authenticate"},
		MaxAge:        12 * time.Hour,
	}
	if h.allowAnyOrigin() {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = h.origins
	}
	return cors.New(cfg)
}

func (h *Handler) allowAnyOrigin() bool {
	for _, o := range h.origins {
		if o == "*" {
			return true
		}
	}
	return false
}

func (h *Handler) registerAuthRoutes(r *gin.Engine) {
	auth := r.Group("/auth")
	{
		auth.POST("/register", h.register)
		auth.POST("/login", h.login)
	}
}

func (h *Handler) registerAPIRoutes(r *gin.Engine) {
	api := r.Group("/api/v1", h.authMiddleware)
	{
		api.GET("/me", h.me)
		h.registerTaskRoutes(api)
		api.GET("/activity", h.getActivity)
		api.GET("/ws/tasks", h.wsTasks)
	}
}

func (h *Handler) registerTaskRoutes(api *gin.RouterGroup) {
	tasks := api.Group("/tasks")
	{
		tasks.GET("", h.listTasks)
		tasks.POST("", h.createTask)
		tasks.GET("/:id", h.getTask)
		tasks.PUT("/:id", h.updateTask)
		tasks.DELETE("/:id", h.deleteTask)
	}
}

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Centralized error logging and response.
func (h *Handler) logAndJSONError(c *gin.Context, httpCode int, userMsg, logKey string, err error, kv ...interface{}) {
	if err != nil {
		fields := append([]interface{}{"err", err}, kv...)
		h.log.Errorw(logKey, fields...)
	}
	c.JSON(httpCode, gin.H{"error": userMsg})
}
