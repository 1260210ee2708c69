package app

import (
	"context"
	"fmt"
	"strings"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/assets-backend/internal/observability"
	"github.com/yungbote/assets-backend/internal/platform/blobstore"
	"github.com/yungbote/assets-backend/internal/platform/logger"
	"github.com/yungbote/assets-backend/internal/platform/redisx"
)

type Clients struct {
	Redis goredis.UniversalClient
	Blobs blobstore.Store
}

func wireClients(ctx context.Context, log *logger.Logger, cfg Config, metrics *observability.Metrics) (Clients, error) {
	log.Info("Wiring clients...")

	// Redis is optional; without it rate limiting stays in-process.
	var rdb goredis.UniversalClient
	if strings.TrimSpace(cfg.RedisAddr) != "" {
		c, err := redisx.New(ctx, log, redisx.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			return Clients{}, fmt.Errorf("init redis: %w", err)
		}
		rdb = c
	}

	blobs, err := resolveBlobStore(ctx, log, cfg, metrics)
	if err != nil {
		if rdb != nil {
			_ = rdb.Close()
		}
		return Clients{}, err
	}

	return Clients{Redis: rdb, Blobs: blobs}, nil
}

func (c *Clients) Close() {
	if c == nil {
		return
	}
	if c.Redis != nil {
		_ = c.Redis.Close()
	}
}
