package app

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/assets-backend/internal/data/aggregates"
	domainagg "github.com/yungbote/assets-backend/internal/domain/aggregates"
	"github.com/yungbote/assets-backend/internal/modules/assets"
	"github.com/yungbote/assets-backend/internal/modules/assets/derive"
	"github.com/yungbote/assets-backend/internal/observability"
	"github.com/yungbote/assets-backend/internal/platform/imaging"
	"github.com/yungbote/assets-backend/internal/platform/logger"
)

type Services struct {
	Gallery domainagg.AssetGalleryAggregate
	Assets  assets.Service
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, reposet Repos, clients Clients, metrics *observability.Metrics) (Services, error) {
	log.Info("Wiring services...")

	gallery := aggregates.NewAssetGalleryAggregate(aggregates.AssetGalleryAggregateDeps{
		Base: aggregates.BaseDeps{
			DB:    db,
			Log:   log,
			Hooks: aggregates.NewObservabilityHooks(metrics, log),
		},
		Assets:   reposet.Asset,
		Versions: reposet.AssetVersion,
		Tags:     reposet.AssetTag,
		Logs:     reposet.AssetLog,
	})

	assetsCfg := cfg.AssetsConfig()
	engine := derive.NewEngine(imaging.New(), assetsCfg.Derive, log, metrics)

	svc, err := assets.NewService(log, reposet.Asset, gallery, clients.Blobs, engine, metrics, assetsCfg)
	if err != nil {
		return Services{}, fmt.Errorf("init asset service: %w", err)
	}

	return Services{Gallery: gallery, Assets: svc}, nil
}
