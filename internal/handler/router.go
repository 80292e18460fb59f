package handler

import (
	"strings"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/chatcal-api/internal/middleware"
)

// RouterConfig controls which surfaces are mounted.
type RouterConfig struct {
	APIPrefix     string
	EnableDocs    bool
	EnableMetrics bool
	// Auth guards every API route. JWT, OptionalJWT or nil.
	Auth gin.HandlerFunc
	// Middlewares run globally ahead of routing, in order.
	Middlewares []gin.HandlerFunc
	Logger      *zap.Logger
}

// Handlers groups the HTTP handlers. A nil Events handler leaves /events unmounted.
type Handlers struct {
	Chat    *ChatHandler
	Store   *StoreHandler
	Events  *EventHandler
	Metrics *MetricsHandler
}

// NewRouter wires every route onto a new gin engine.
func NewRouter(cfg RouterConfig, h Handlers) *gin.Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(cfg.Middlewares...)
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", h.Metrics.Health)
	r.GET("/ready", h.Metrics.Ready)
	if cfg.EnableMetrics {
		r.GET("/metrics", h.Metrics.Prometheus)
	}
	if cfg.EnableDocs {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	prefix := "/" + strings.Trim(cfg.APIPrefix, "/")
	if prefix == "/" {
		prefix = ""
	}
	api := r.Group(prefix)
	if cfg.Auth != nil {
		api.Use(cfg.Auth)
	}

	api.GET("/stats", h.Metrics.Stats)

	api.POST("/chat", middleware.Audit(logger, "chat"), h.Chat.Chat)
	api.POST("/chat/apply", middleware.Audit(logger, "chat.apply"), h.Chat.Apply)

	st := api.Group("/store")
	st.GET("", h.Store.Snapshot)
	st.GET("/upcoming", h.Store.Upcoming)
	st.GET("/sync", h.Store.Sync)
	st.GET("/export", h.Store.Export)
	st.POST("/refresh", middleware.Audit(logger, "store.refresh"), h.Store.Refresh)
	st.POST("/clean", middleware.Audit(logger, "store.clean_all"), h.Store.CleanAll)
	st.POST("/events/:id/clean", middleware.Audit(logger, "store.clean"), h.Store.CleanEvent)

	if h.Events != nil {
		ev := api.Group("/events")
		ev.GET("", h.Events.List)
		ev.POST("", middleware.Audit(logger, "events.create"), h.Events.Create)
		ev.POST("/clean", middleware.Audit(logger, "events.clean_all"), h.Events.CleanAll)
		ev.GET("/:id", h.Events.Get)
		ev.DELETE("/:id", middleware.Audit(logger, "events.delete"), h.Events.Delete)
		ev.POST("/:id/reschedule", middleware.Audit(logger, "events.reschedule"), h.Events.Reschedule)
		ev.POST("/:id/clean", middleware.Audit(logger, "events.clean"), h.Events.Clean)
	}

	return r
}
