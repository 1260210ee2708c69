package db

import (
	"fmt"

	"gorm.io/gorm"

	types "github.com/yungbote/assets-backend/internal/domain"
)

// Both postgres and sqlite support partial indexes, so the store itself
// refuses a second active primary image for an entity.
const primaryImageIndex = `CREATE UNIQUE INDEX IF NOT EXISTS uq_asset_entity_primary
ON asset (entity_type, entity_id)
WHERE is_primary = true AND status = 'ACTIVE' AND file_type = 'IMAGE' AND deleted_at IS NULL`

func AutoMigrateAll(db *gorm.DB) error {
	if err := db.AutoMigrate(types.AllModels()...); err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}
	if err := db.Exec(primaryImageIndex).Error; err != nil {
		return fmt.Errorf("create primary image index: %w", err)
	}
	return nil
}

func (s *Service) AutoMigrateAll() error {
	s.log.Info("Running auto migrations")
	return AutoMigrateAll(s.db)
}
