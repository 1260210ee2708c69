package assets

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// AssetMetadata is the caller-supplied descriptive data of an asset.
type AssetMetadata struct {
	Description string `json:"description,omitempty"`
	AltText     string `json:"altText,omitempty"`
}

type Asset struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`

	EntityType EntityType `gorm:"column:entity_type;not null;index:idx_asset_entity,priority:1" json:"entity_type"`
	EntityID   string     `gorm:"column:entity_id;not null;index:idx_asset_entity,priority:2" json:"entity_id"`
	FileType   FileType   `gorm:"column:file_type;not null;index:idx_asset_entity,priority:3" json:"file_type"`
	MimeType   string     `gorm:"column:mime_type;not null" json:"mime_type"`

	OriginalName  string `gorm:"column:original_name;not null" json:"original_name"`
	SanitizedName string `gorm:"column:sanitized_name;not null" json:"sanitized_name"`
	BasePath      string `gorm:"column:base_path;not null" json:"base_path"`
	FileSize      int64  `gorm:"column:file_size;not null" json:"file_size"`
	Checksum      string `gorm:"column:checksum" json:"checksum"`

	Status       AssetStatus `gorm:"column:status;not null;index" json:"status"`
	IsPrimary    bool        `gorm:"column:is_primary;not null;default:false" json:"is_primary"`
	DisplayOrder int         `gorm:"column:display_order;not null;default:0" json:"display_order"`

	Metadata datatypes.JSONType[AssetMetadata] `gorm:"column:metadata;type:jsonb" json:"metadata"`

	UploadedAt time.Time  `gorm:"column:uploaded_at;not null;index" json:"uploaded_at"`
	UpdatedAt  time.Time  `gorm:"column:updated_at;not null" json:"updated_at"`
	DeletedAt  *time.Time `gorm:"column:deleted_at;index" json:"deleted_at,omitempty"`

	Versions []AssetVersion `gorm:"foreignKey:AssetID;references:ID" json:"versions,omitempty"`
	Tags     []AssetTag     `gorm:"foreignKey:AssetID;references:ID" json:"tags,omitempty"`
}

func (Asset) TableName() string { return "asset" }

// EntityKey identifies the curation scope of an asset.
func (a *Asset) EntityKey() EntityKey {
	return EntityKey{Type: a.EntityType, ID: a.EntityID}
}

type AssetVersion struct {
	ID          uuid.UUID   `gorm:"type:uuid;primaryKey" json:"id"`
	AssetID     uuid.UUID   `gorm:"type:uuid;not null;index" json:"asset_id"`
	VersionType VersionKind `gorm:"column:version_type;not null" json:"version_type"`
	Position    int         `gorm:"column:position;not null;default:0" json:"position"`
	FileName    string      `gorm:"column:file_name;not null" json:"file_name"`
	FilePath    string      `gorm:"column:file_path;not null" json:"file_path"`
	FileSize    int64       `gorm:"column:file_size;not null" json:"file_size"`
	Width       *int        `gorm:"column:width" json:"width,omitempty"`
	Height      *int        `gorm:"column:height" json:"height,omitempty"`
	IsProcessed bool        `gorm:"column:is_processed;not null;default:true" json:"is_processed"`
	CreatedAt   time.Time   `gorm:"column:created_at;not null" json:"created_at"`
}

func (AssetVersion) TableName() string { return "asset_version" }

type AssetTag struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	AssetID   uuid.UUID `gorm:"type:uuid;not null;index" json:"asset_id"`
	Tag       string    `gorm:"column:tag;not null;index" json:"tag"`
	CreatedAt time.Time `gorm:"column:created_at;not null" json:"created_at"`
}

func (AssetTag) TableName() string { return "asset_tag" }

// LogMetadata is the closed set of facts an audit row may carry.
type LogMetadata struct {
	FileSize     int64       `json:"fileSize,omitempty"`
	MimeType     string      `json:"mimeType,omitempty"`
	Checksum     string      `json:"checksum,omitempty"`
	FromStatus   AssetStatus `json:"fromStatus,omitempty"`
	ToStatus     AssetStatus `json:"toStatus,omitempty"`
	DisplayOrder int         `json:"displayOrder,omitempty"`
	AssetIDs     []string    `json:"assetIds,omitempty"`
	EntityType   EntityType  `json:"entityType,omitempty"`
	EntityID     string      `json:"entityId,omitempty"`
	Reason       string      `json:"reason,omitempty"`
}

// AssetLog is append-only.
type AssetLog struct {
	ID        uuid.UUID                       `gorm:"type:uuid;primaryKey" json:"id"`
	AssetID   uuid.UUID                       `gorm:"type:uuid;not null;index" json:"asset_id"`
	Operation LogOperation                    `gorm:"column:operation;not null;index" json:"operation"`
	IPAddress *string                         `gorm:"column:ip_address" json:"ip_address,omitempty"`
	UserAgent *string                         `gorm:"column:user_agent" json:"user_agent,omitempty"`
	Metadata  datatypes.JSONType[LogMetadata] `gorm:"column:metadata;type:jsonb" json:"metadata"`
	CreatedAt time.Time                       `gorm:"column:created_at;not null;index" json:"created_at"`
}

func (AssetLog) TableName() string { return "asset_log" }

type EntityKey struct {
	Type EntityType
	ID   string
}

func (k EntityKey) String() string { return string(k.Type) + ":" + k.ID }
