package assets

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/assets-backend/internal/domain"
	"github.com/yungbote/assets-backend/internal/platform/dbctx"
	"github.com/yungbote/assets-backend/internal/platform/logger"
)

type AssetTagRepo interface {
	Create(dbc dbctx.Context, assetID uuid.UUID, tag string) (*types.AssetTag, error)
	CreateBatch(dbc dbctx.Context, assetID uuid.UUID, tags []string) ([]*types.AssetTag, error)
	GetByAssetID(dbc dbctx.Context, assetID uuid.UUID) ([]*types.AssetTag, error)
}

type assetTagRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAssetTagRepo(db *gorm.DB, baseLog *logger.Logger) AssetTagRepo {
	return &assetTagRepo{db: db, log: baseLog.With("repo", "AssetTagRepo")}
}

// NormalizeTag trims and lowercases a tag.
func NormalizeTag(tag string) string {
	return strings.ToLower(strings.TrimSpace(tag))
}

func (r *assetTagRepo) Create(dbc dbctx.Context, assetID uuid.UUID, tag string) (*types.AssetTag, error) {
	rows, err := r.CreateBatch(dbc, assetID, []string{tag})
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return rows[0], nil
}

// CreateBatch stores tags as given after normalization; duplicates are kept
// and blank tags are dropped.
func (r *assetTagRepo) CreateBatch(dbc dbctx.Context, assetID uuid.UUID, tags []string) ([]*types.AssetTag, error) {
	rows := make([]*types.AssetTag, 0, len(tags))
	now := time.Now().UTC()
	for _, tag := range tags {
		norm := NormalizeTag(tag)
		if norm == "" {
			continue
		}
		rows = append(rows, &types.AssetTag{
			ID:        uuid.New(),
			AssetID:   assetID,
			Tag:       norm,
			CreatedAt: now,
		})
	}
	if len(rows) == 0 || assetID == uuid.Nil {
		return []*types.AssetTag{}, nil
	}
	if err := dbc.DB(r.db).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *assetTagRepo) GetByAssetID(dbc dbctx.Context, assetID uuid.UUID) ([]*types.AssetTag, error) {
	var out []*types.AssetTag
	if assetID == uuid.Nil {
		return out, nil
	}
	if err := dbc.DB(r.db).
		Where("asset_id = ?", assetID).
		Order("created_at ASC, tag ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
