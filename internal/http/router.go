package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/yungbote/assets-backend/internal/observability"
	"github.com/yungbote/assets-backend/internal/platform/logger"

	httpH "github.com/yungbote/assets-backend/internal/http/handlers"
	httpMW "github.com/yungbote/assets-backend/internal/http/middleware"
)

type RouterConfig struct {
	Log *logger.Logger

	AssetHandler  *httpH.AssetHandler
	StatusHandler *httpH.StatusHandler
	HealthHandler *httpH.HealthHandler

	APIKeyMiddleware *httpMW.APIKeyMiddleware
	RateLimiter      httpMW.Limiter

	Metrics        *observability.Metrics
	ServeMetrics   bool
	TracingEnabled bool
	ServiceName    string
	CORSOrigins    []string

	// LocalUploadsDir, when set, is served read-only at /uploads.
	LocalUploadsDir string
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	log := cfg.Log
	if log == nil {
		log = logger.Nop()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.TracingEnabled {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.AttachRequestContext())
	r.Use(httpMW.RequestLogger(log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.CORSOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}
	if cfg.ServeMetrics && cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}
	if cfg.LocalUploadsDir != "" {
		r.Static("/uploads", cfg.LocalUploadsDir)
	}

	api := r.Group("/api")
	if cfg.RateLimiter != nil {
		api.Use(httpMW.RateLimit(log, cfg.RateLimiter, cfg.Metrics))
	}

	file := api.Group("/file")
	if cfg.StatusHandler != nil {
		file.GET("", cfg.StatusHandler.Status)
	}

	v1 := file.Group("/v1")
	{
		if cfg.APIKeyMiddleware != nil {
			v1.Use(cfg.APIKeyMiddleware.RequireAPIKey())
		}

		if h := cfg.AssetHandler; h != nil {
			v1.POST("/upload-file", h.Upload)
			v1.POST("/list-files", h.ListFiles)
			v1.GET("/list-files", h.ListFilesQuery)
			v1.POST("/find-file", h.FindFile)
			v1.GET("/files/:id", h.GetFile)
			v1.POST("/delete-file", h.DeleteFile)
			v1.DELETE("/files/:id", h.DeleteFileByPath)
			v1.POST("/entity-gallery", h.EntityGallery)
			v1.POST("/set-primary-image", h.SetPrimaryImage)
			v1.POST("/reorder-images", h.ReorderImages)
			v1.POST("/archive-file", h.ArchiveFile)
			v1.POST("/restore-file", h.RestoreFile)
		}
	}

	return r
}
