package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/assets-backend/internal/data/repos/assets"
	"github.com/yungbote/assets-backend/internal/platform/logger"
)

type AssetRepo = assets.AssetRepo
type AssetVersionRepo = assets.AssetVersionRepo
type AssetTagRepo = assets.AssetTagRepo
type AssetLogRepo = assets.AssetLogRepo

type AssetListFilter = assets.ListFilter

func NewAssetRepo(db *gorm.DB, baseLog *logger.Logger) AssetRepo {
	return assets.NewAssetRepo(db, baseLog)
}
func NewAssetVersionRepo(db *gorm.DB, baseLog *logger.Logger) AssetVersionRepo {
	return assets.NewAssetVersionRepo(db, baseLog)
}
func NewAssetTagRepo(db *gorm.DB, baseLog *logger.Logger) AssetTagRepo {
	return assets.NewAssetTagRepo(db, baseLog)
}
func NewAssetLogRepo(db *gorm.DB, baseLog *logger.Logger) AssetLogRepo {
	return assets.NewAssetLogRepo(db, baseLog)
}
