package testutil

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/assets-backend/internal/domain"
	domain "github.com/yungbote/assets-backend/internal/domain/assets"
)

// NewEntity returns a product key no other test will share.
func NewEntity() types.EntityKey {
	return types.EntityKey{Type: domain.EntityProduct, ID: "p-" + uuid.NewString()}
}

type AssetOpt func(*types.Asset)

func WithStatus(s domain.AssetStatus) AssetOpt {
	return func(a *types.Asset) { a.Status = s }
}

func WithPrimary(order int) AssetOpt {
	return func(a *types.Asset) {
		a.IsPrimary = true
		a.DisplayOrder = order
	}
}

func WithOrder(order int) AssetOpt {
	return func(a *types.Asset) { a.DisplayOrder = order }
}

func WithFileType(ft domain.FileType, mime string) AssetOpt {
	return func(a *types.Asset) {
		a.FileType = ft
		a.MimeType = mime
	}
}

func WithUploadedAt(at time.Time) AssetOpt {
	return func(a *types.Asset) {
		a.UploadedAt = at.UTC()
		a.UpdatedAt = at.UTC()
	}
}

// SeedAsset inserts an ACTIVE image for key with an original version row.
func SeedAsset(tb testing.TB, ctx context.Context, tx *gorm.DB, key types.EntityKey, opts ...AssetOpt) *types.Asset {
	tb.Helper()
	now := time.Now().UTC()
	a := &types.Asset{
		ID:            uuid.New(),
		EntityType:    key.Type,
		EntityID:      key.ID,
		FileType:      domain.FileImage,
		MimeType:      "image/jpeg",
		OriginalName:  "photo.jpg",
		SanitizedName: "photo.jpg",
		FileSize:      1024,
		Status:        domain.StatusActive,
		UploadedAt:    now,
		UpdatedAt:     now,
	}
	for _, opt := range opts {
		opt(a)
	}
	a.BasePath = SeedBasePath(a.FileType, a.ID, a.UploadedAt)
	if err := tx.WithContext(ctx).Omit(clause.Associations).Create(a).Error; err != nil {
		tb.Fatalf("seed asset: %v", err)
	}
	v := &types.AssetVersion{
		ID:          uuid.New(),
		AssetID:     a.ID,
		VersionType: domain.VersionOriginal,
		FileName:    "photo-original.jpg",
		FilePath:    a.BasePath + "/photo-original.jpg",
		FileSize:    a.FileSize,
		IsProcessed: true,
		CreatedAt:   now,
	}
	if err := tx.WithContext(ctx).Create(v).Error; err != nil {
		tb.Fatalf("seed asset version: %v", err)
	}
	a.Versions = []types.AssetVersion{*v}
	return a
}

// SeedBasePath lays out upload/{type}s/{yyyy}/{mm}/{dd}/{id}.
func SeedBasePath(ft domain.FileType, id uuid.UUID, at time.Time) string {
	y, m, d := at.Date()
	return fmt.Sprintf("upload/%ss/%04d/%02d/%02d/%s", strings.ToLower(string(ft)), y, int(m), d, id)
}

func PtrInt(v int) *int { return &v }

func PtrBool(v bool) *bool { return &v }
