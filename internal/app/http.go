package app

import (
	"path/filepath"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/assets-backend/internal/data/db"
	"github.com/yungbote/assets-backend/internal/http"
	httpH "github.com/yungbote/assets-backend/internal/http/handlers"
	httpMW "github.com/yungbote/assets-backend/internal/http/middleware"
	"github.com/yungbote/assets-backend/internal/modules/assets/pathscheme"
	"github.com/yungbote/assets-backend/internal/observability"
	"github.com/yungbote/assets-backend/internal/platform/blobstore"
	"github.com/yungbote/assets-backend/internal/platform/logger"
)

type Middleware struct {
	APIKey      *httpMW.APIKeyMiddleware
	RateLimiter httpMW.Limiter
}

type Handlers struct {
	Health *httpH.HealthHandler
	Status *httpH.StatusHandler
	Asset  *httpH.AssetHandler
}

func wireHandlers(log *logger.Logger, cfg Config, services Services, dbService *db.Service) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health: httpH.NewHealthHandler(dbService),
		Status: httpH.NewStatusHandler(cfg.ServiceVersion),
		Asset: httpH.NewAssetHandlerWithDeps(httpH.AssetHandlerDeps{
			Log:            log,
			Assets:         services.Assets,
			MaxUploadBytes: cfg.MaxUploadBytes,
		}),
	}
}

func wireMiddleware(log *logger.Logger, cfg Config, clients Clients) Middleware {
	log.Info("Wiring middleware...")
	var limiter httpMW.Limiter
	if clients.Redis != nil {
		limiter = httpMW.NewRedisLimiter(clients.Redis, cfg.RateLimitMax, cfg.RateLimitWindow)
	} else {
		limiter = httpMW.NewMemoryLimiter(cfg.RateLimitMax, cfg.RateLimitWindow)
	}
	return Middleware{
		APIKey:      httpMW.NewAPIKeyMiddleware(log, cfg.APISecret),
		RateLimiter: limiter,
	}
}

func wireRouter(log *logger.Logger, cfg Config, handlers Handlers, middleware Middleware, metrics *observability.Metrics) *gin.Engine {
	uploadsDir := ""
	if mode, _ := blobstore.ParseMode(cfg.ObjectStorageMode); mode == blobstore.ModeLocal {
		uploadsDir = filepath.Join(cfg.StorageRoot, pathscheme.Root)
	}
	return http.NewRouter(http.RouterConfig{
		Log:              log,
		AssetHandler:     handlers.Asset,
		StatusHandler:    handlers.Status,
		HealthHandler:    handlers.Health,
		APIKeyMiddleware: middleware.APIKey,
		RateLimiter:      middleware.RateLimiter,
		Metrics:          metrics,
		ServeMetrics:     cfg.MetricsAddr == "",
		TracingEnabled:   cfg.OtelEnabled,
		ServiceName:      httpH.ServiceName,
		CORSOrigins:      cfg.CORSOrigins,
		LocalUploadsDir:  uploadsDir,
	})
}
