package assets

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	types "github.com/yungbote/assets-backend/internal/domain"
	"github.com/yungbote/assets-backend/internal/platform/dbctx"
	"github.com/yungbote/assets-backend/internal/platform/logger"
)

// AssetLogRepo is append-only.
type AssetLogRepo interface {
	Append(dbc dbctx.Context, assetID uuid.UUID, op types.LogOperation, ip, userAgent string, meta types.LogMetadata) (*types.AssetLog, error)
	ListByAssetID(dbc dbctx.Context, assetID uuid.UUID) ([]*types.AssetLog, error)
}

type assetLogRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAssetLogRepo(db *gorm.DB, baseLog *logger.Logger) AssetLogRepo {
	return &assetLogRepo{db: db, log: baseLog.With("repo", "AssetLogRepo")}
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func (r *assetLogRepo) Append(dbc dbctx.Context, assetID uuid.UUID, op types.LogOperation, ip, userAgent string, meta types.LogMetadata) (*types.AssetLog, error) {
	row := &types.AssetLog{
		ID:        uuid.New(),
		AssetID:   assetID,
		Operation: op,
		IPAddress: optional(ip),
		UserAgent: optional(userAgent),
		Metadata:  datatypes.NewJSONType(meta),
		CreatedAt: time.Now().UTC(),
	}
	if err := dbc.DB(r.db).Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

func (r *assetLogRepo) ListByAssetID(dbc dbctx.Context, assetID uuid.UUID) ([]*types.AssetLog, error) {
	var out []*types.AssetLog
	if assetID == uuid.Nil {
		return out, nil
	}
	if err := dbc.DB(r.db).
		Where("asset_id = ?", assetID).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
