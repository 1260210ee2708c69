// Package assets is the asset lifecycle orchestrator: upload with derived
// image versions, listing, the per-entity image gallery, curation and soft
// deletion.
package assets

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/assets-backend/internal/data/repos"
	domainagg "github.com/yungbote/assets-backend/internal/domain/aggregates"
	domain "github.com/yungbote/assets-backend/internal/domain/assets"
	"github.com/yungbote/assets-backend/internal/modules/assets/derive"
	"github.com/yungbote/assets-backend/internal/observability"
	"github.com/yungbote/assets-backend/internal/platform/blobstore"
	"github.com/yungbote/assets-backend/internal/platform/logger"
)

// Audit attributes a write to its caller.
type Audit = domainagg.Audit

type Service interface {
	Upload(ctx context.Context, in UploadInput) (AssetRecord, error)

	FindAll(ctx context.Context, q Query) (ListResult, error)
	FindOne(ctx context.Context, id uuid.UUID) (AssetRecord, error)
	GetEntityGallery(ctx context.Context, entityType domain.EntityType, entityID string) (Gallery, error)

	Delete(ctx context.Context, id uuid.UUID, audit Audit) (Outcome, error)
	Archive(ctx context.Context, id uuid.UUID, audit Audit) (AssetRecord, error)
	Restore(ctx context.Context, id uuid.UUID, audit Audit) (AssetRecord, error)

	SetPrimaryImage(ctx context.Context, in SetPrimaryInput) (Outcome, error)
	ReorderImages(ctx context.Context, in ReorderInput) (Outcome, error)

	ReapStuck(ctx context.Context, in ReapInput) (ReapResult, error)
}

type service struct {
	log     *logger.Logger
	assets  repos.AssetRepo
	gallery domainagg.AssetGalleryAggregate
	store   blobstore.Store
	engine  *derive.Engine
	metrics *observability.Metrics
	cfg     Config
	mapper  recordMapper
}

func NewService(
	baseLog *logger.Logger,
	assetRepo repos.AssetRepo,
	gallery domainagg.AssetGalleryAggregate,
	store blobstore.Store,
	engine *derive.Engine,
	metrics *observability.Metrics,
	cfg Config,
) (Service, error) {
	if baseLog == nil || assetRepo == nil || gallery == nil || store == nil || engine == nil {
		return nil, fmt.Errorf("asset service: missing dependency")
	}
	cfg = cfg.withDefaults()
	if cfg.PublicBaseURL == "" {
		return nil, fmt.Errorf("asset service: public base url is required")
	}
	serviceLog := baseLog.With("service", "AssetService")
	return &service{
		log:     serviceLog,
		assets:  assetRepo,
		gallery: gallery,
		store:   store,
		engine:  engine,
		metrics: metrics,
		cfg:     cfg,
		mapper:  recordMapper{baseURL: cfg.PublicBaseURL, log: serviceLog},
	}, nil
}

func (s *service) now() time.Time {
	return s.cfg.Clock().UTC()
}
