package domain

import "github.com/yungbote/assets-backend/internal/domain/assets"

type Asset = assets.Asset
type AssetVersion = assets.AssetVersion
type AssetTag = assets.AssetTag
type AssetLog = assets.AssetLog
type AssetMetadata = assets.AssetMetadata
type LogMetadata = assets.LogMetadata
type EntityKey = assets.EntityKey

type EntityType = assets.EntityType
type FileType = assets.FileType
type AssetStatus = assets.AssetStatus
type VersionKind = assets.VersionKind
type LogOperation = assets.LogOperation

// AllModels lists every persisted model, in migration order.
func AllModels() []any {
	return []any{
		&assets.Asset{},
		&assets.AssetVersion{},
		&assets.AssetTag{},
		&assets.AssetLog{},
	}
}
