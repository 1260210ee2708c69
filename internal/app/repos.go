package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/assets-backend/internal/data/repos"
	"github.com/yungbote/assets-backend/internal/platform/logger"
)

type Repos struct {
	Asset        repos.AssetRepo
	AssetVersion repos.AssetVersionRepo
	AssetTag     repos.AssetTagRepo
	AssetLog     repos.AssetLogRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Asset:        repos.NewAssetRepo(db, log),
		AssetVersion: repos.NewAssetVersionRepo(db, log),
		AssetTag:     repos.NewAssetTagRepo(db, log),
		AssetLog:     repos.NewAssetLogRepo(db, log),
	}
}
