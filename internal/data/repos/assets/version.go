package assets

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/assets-backend/internal/domain"
	"github.com/yungbote/assets-backend/internal/platform/dbctx"
	"github.com/yungbote/assets-backend/internal/platform/logger"
)

// AssetVersionRepo has no update or delete: versions are written once.
type AssetVersionRepo interface {
	CreateBatch(dbc dbctx.Context, rows []*types.AssetVersion) ([]*types.AssetVersion, error)
	GetByAssetID(dbc dbctx.Context, assetID uuid.UUID) ([]*types.AssetVersion, error)
	GetByAssetIDs(dbc dbctx.Context, assetIDs []uuid.UUID) ([]*types.AssetVersion, error)
}

type assetVersionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAssetVersionRepo(db *gorm.DB, baseLog *logger.Logger) AssetVersionRepo {
	return &assetVersionRepo{db: db, log: baseLog.With("repo", "AssetVersionRepo")}
}

func (r *assetVersionRepo) CreateBatch(dbc dbctx.Context, rows []*types.AssetVersion) ([]*types.AssetVersion, error) {
	if len(rows) == 0 {
		return []*types.AssetVersion{}, nil
	}
	now := time.Now().UTC()
	for i, row := range rows {
		if row.ID == uuid.Nil {
			row.ID = uuid.New()
		}
		if row.CreatedAt.IsZero() {
			row.CreatedAt = now
		}
		row.Position = i
	}
	if err := dbc.DB(r.db).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *assetVersionRepo) GetByAssetID(dbc dbctx.Context, assetID uuid.UUID) ([]*types.AssetVersion, error) {
	if assetID == uuid.Nil {
		return []*types.AssetVersion{}, nil
	}
	return r.GetByAssetIDs(dbc, []uuid.UUID{assetID})
}

func (r *assetVersionRepo) GetByAssetIDs(dbc dbctx.Context, assetIDs []uuid.UUID) ([]*types.AssetVersion, error) {
	var out []*types.AssetVersion
	if len(assetIDs) == 0 {
		return out, nil
	}
	if err := dbc.DB(r.db).
		Where("asset_id IN ?", assetIDs).
		Order("asset_id ASC, position ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
