package assets

import "strings"

// EntityType is the category of the business object an asset is attached to.
type EntityType string

const (
	EntityProduct  EntityType = "PRODUCT"
	EntityUser     EntityType = "USER"
	EntityCategory EntityType = "CATEGORY"
	EntityBrand    EntityType = "BRAND"
	EntityStore    EntityType = "STORE"
	EntityPost     EntityType = "POST"
)

var entityTypes = []EntityType{EntityProduct, EntityUser, EntityCategory, EntityBrand, EntityStore, EntityPost}

func EntityTypes() []EntityType {
	out := make([]EntityType, len(entityTypes))
	copy(out, entityTypes)
	return out
}

func ParseEntityType(s string) (EntityType, bool) {
	v := EntityType(strings.ToUpper(strings.TrimSpace(s)))
	for _, et := range entityTypes {
		if et == v {
			return v, true
		}
	}
	return "", false
}

type FileType string

const (
	FileImage       FileType = "IMAGE"
	FileDocument    FileType = "DOCUMENT"
	FileSpreadsheet FileType = "SPREADSHEET"
)

func ParseFileType(s string) (FileType, bool) {
	switch v := FileType(strings.ToUpper(strings.TrimSpace(s))); v {
	case FileImage, FileDocument, FileSpreadsheet:
		return v, true
	default:
		return "", false
	}
}

type AssetStatus string

const (
	StatusProcessing AssetStatus = "PROCESSING"
	StatusActive     AssetStatus = "ACTIVE"
	StatusArchived   AssetStatus = "ARCHIVED"
	StatusDeleted    AssetStatus = "DELETED"
)

func ParseStatus(s string) (AssetStatus, bool) {
	switch v := AssetStatus(strings.ToUpper(strings.TrimSpace(s))); v {
	case StatusProcessing, StatusActive, StatusArchived, StatusDeleted:
		return v, true
	default:
		return "", false
	}
}

var transitions = map[AssetStatus][]AssetStatus{
	StatusProcessing: {StatusActive, StatusDeleted},
	StatusActive:     {StatusArchived, StatusDeleted},
	StatusArchived:   {StatusActive, StatusDeleted},
	StatusDeleted:    {},
}

// CanTransition reports whether from -> to is a legal status move.
func CanTransition(from, to AssetStatus) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// SourcesFor lists every status that may move to `to`, in a stable order.
func SourcesFor(to AssetStatus) []AssetStatus {
	out := []AssetStatus{}
	for _, from := range []AssetStatus{StatusProcessing, StatusActive, StatusArchived, StatusDeleted} {
		if CanTransition(from, to) {
			out = append(out, from)
		}
	}
	return out
}

type VersionKind string

const (
	VersionOriginal  VersionKind = "original"
	VersionPreview   VersionKind = "preview"
	VersionMedium    VersionKind = "medium"
	VersionThumbnail VersionKind = "thumbnail"
)

type LogOperation string

const (
	OpUpload     LogOperation = "upload"
	OpDelete     LogOperation = "delete"
	OpArchive    LogOperation = "archive"
	OpRestore    LogOperation = "restore"
	OpSetPrimary LogOperation = "set_primary"
	OpReorder    LogOperation = "reorder_images"
	OpReap       LogOperation = "reap"
)
