package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
)

type RouterConfig struct {
	Handler        *Handler
	Auth           AuthConfig
	AllowedOrigins []string
	ServiceName    string // span service name, tracing is off when empty
	Logger         *zap.Logger
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(RequestLogger(cfg.Logger))
	r.Use(CORS(cfg.AllowedOrigins, cfg.Auth.OwnerHeader))

	h := cfg.Handler

	// Health
	r.GET("/healthz", h.Health)

	api := r.Group("/api/v1")
	api.Use(RequireOwner(cfg.Auth))
	{
		// Cards
		api.GET("/cards", h.ListCards)
		api.GET("/cards/:id", h.GetCard)
		api.POST("/cards", h.CreateCards)
		api.POST("/cards/seed", h.SeedCards)
		api.POST("/cards/reset", h.ResetCards)
		api.DELETE("/cards", h.DeleteCards)

		// Reviews
		api.POST("/reviews", h.SubmitReview)
		api.POST("/reviews/batch", h.SubmitBatch)

		// Sessions
		api.POST("/sessions", h.CreateSession)
		api.GET("/sessions", h.ListSessions)
		api.GET("/sessions/:id", h.GetSession)
		api.PUT("/sessions/:id", h.CompleteSession)
		api.DELETE("/sessions/:id", h.DeleteSession)

		// Schedule
		api.GET("/schedule", h.Schedule)
	}

	return r
}
