package assets

import (
	"time"

	"github.com/google/uuid"

	domain "github.com/yungbote/assets-backend/internal/domain/assets"
	"github.com/yungbote/assets-backend/internal/modules/assets/pathscheme"
	"github.com/yungbote/assets-backend/internal/platform/logger"
)

type VersionRecord struct {
	VersionType domain.VersionKind `json:"versionType"`
	FileName    string             `json:"fileName"`
	URL         string             `json:"url"`
	FileSize    int64              `json:"fileSize"`
	Width       *int               `json:"width,omitempty"`
	Height      *int               `json:"height,omitempty"`
}

// AssetRecord is the response shape of a single asset.
type AssetRecord struct {
	ID           uuid.UUID          `json:"id"`
	EntityType   domain.EntityType  `json:"entityType"`
	EntityID     string             `json:"entityId"`
	OriginalName string             `json:"originalName"`
	FileType     domain.FileType    `json:"fileType"`
	MimeType     string             `json:"mimeType"`
	FileSize     int64              `json:"fileSize"`
	Checksum     string             `json:"checksum,omitempty"`
	Status       domain.AssetStatus `json:"status"`
	UploadedAt   time.Time          `json:"uploadedAt"`
	DeletedAt    *time.Time         `json:"deletedAt,omitempty"`
	Tags         []string           `json:"tags"`
	IsPrimary    bool               `json:"isPrimary"`
	DisplayOrder int                `json:"displayOrder"`
	Description  string             `json:"description,omitempty"`
	AltText      string             `json:"altText,omitempty"`
	Versions     []VersionRecord    `json:"versions"`
	URLs         map[string]string  `json:"urls"`
}

type GalleryImage struct {
	ID           uuid.UUID         `json:"id"`
	OriginalName string            `json:"originalName"`
	UploadedAt   time.Time         `json:"uploadedAt"`
	Tags         []string          `json:"tags"`
	IsPrimary    bool              `json:"isPrimary"`
	DisplayOrder int               `json:"displayOrder"`
	Description  string            `json:"description,omitempty"`
	AltText      string            `json:"altText,omitempty"`
	URLs         map[string]string `json:"urls"`
}

type Gallery struct {
	EntityType  domain.EntityType `json:"entityType"`
	EntityID    string            `json:"entityId"`
	TotalImages int64             `json:"totalImages"`
	Images      []GalleryImage    `json:"images"`
}

type ListResult struct {
	Data  []AssetRecord `json:"data"`
	Total int64         `json:"total"`
	Page  int           `json:"page"`
	Limit int           `json:"limit"`
}

type Outcome struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// recordMapper composes public URLs from each asset's persisted base path.
type recordMapper struct {
	baseURL string
	log     *logger.Logger
}

func (m recordMapper) urls(a *domain.Asset) ([]VersionRecord, map[string]string) {
	versions := make([]VersionRecord, 0, len(a.Versions))
	urls := map[string]string{}
	loc, err := pathscheme.Parse(a.BasePath)
	if err != nil {
		m.log.Warn("asset has an unparseable base path", "asset_id", a.ID, "base_path", a.BasePath, "error", err)
	}
	for _, v := range a.Versions {
		url := ""
		if err == nil {
			url = loc.PublicURL(m.baseURL, v.FileName)
		}
		versions = append(versions, VersionRecord{
			VersionType: v.VersionType,
			FileName:    v.FileName,
			URL:         url,
			FileSize:    v.FileSize,
			Width:       v.Width,
			Height:      v.Height,
		})
		urls[string(v.VersionType)] = url
	}
	return versions, urls
}

func tagsOf(a *domain.Asset) []string {
	out := make([]string, 0, len(a.Tags))
	for _, t := range a.Tags {
		out = append(out, t.Tag)
	}
	return out
}

func (m recordMapper) record(a *domain.Asset) AssetRecord {
	versions, urls := m.urls(a)
	meta := a.Metadata.Data()
	return AssetRecord{
		ID:           a.ID,
		EntityType:   a.EntityType,
		EntityID:     a.EntityID,
		OriginalName: a.OriginalName,
		FileType:     a.FileType,
		MimeType:     a.MimeType,
		FileSize:     a.FileSize,
		Checksum:     a.Checksum,
		Status:       a.Status,
		UploadedAt:   a.UploadedAt,
		DeletedAt:    a.DeletedAt,
		Tags:         tagsOf(a),
		IsPrimary:    a.IsPrimary,
		DisplayOrder: a.DisplayOrder,
		Description:  meta.Description,
		AltText:      meta.AltText,
		Versions:     versions,
		URLs:         urls,
	}
}

func (m recordMapper) galleryImage(a *domain.Asset) GalleryImage {
	_, urls := m.urls(a)
	meta := a.Metadata.Data()
	return GalleryImage{
		ID:           a.ID,
		OriginalName: a.OriginalName,
		UploadedAt:   a.UploadedAt,
		Tags:         tagsOf(a),
		IsPrimary:    a.IsPrimary,
		DisplayOrder: a.DisplayOrder,
		Description:  meta.Description,
		AltText:      meta.AltText,
		URLs:         urls,
	}
}
