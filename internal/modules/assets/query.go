package assets

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/yungbote/assets-backend/internal/data/repos"
	domain "github.com/yungbote/assets-backend/internal/domain/assets"
	"github.com/yungbote/assets-backend/internal/observability"
	"github.com/yungbote/assets-backend/internal/platform/dbctx"
)

const (
	opFindAll = "assets.find_all"
	opFindOne = "assets.find_one"
	opGallery = "assets.gallery"
)

// Query filters FindAll. Zero values mean "no filter", except Status which
// defaults to ACTIVE, and Page/Limit which default to 1/20.
type Query struct {
	EntityType domain.EntityType
	EntityID   string
	FileType   domain.FileType
	Status     domain.AssetStatus
	Page       int
	Limit      int
}

func (q Query) normalize() (Query, error) {
	if q.EntityType != "" {
		et, ok := domain.ParseEntityType(string(q.EntityType))
		if !ok {
			return q, validationErr(opFindAll, "invalid entityType %q", q.EntityType)
		}
		q.EntityType = et
	}
	if q.FileType != "" {
		ft, ok := domain.ParseFileType(string(q.FileType))
		if !ok {
			return q, validationErr(opFindAll, "invalid fileType %q", q.FileType)
		}
		q.FileType = ft
	}
	if q.Status == "" {
		q.Status = domain.StatusActive
	} else {
		st, ok := domain.ParseStatus(string(q.Status))
		if !ok {
			return q, validationErr(opFindAll, "invalid status %q", q.Status)
		}
		q.Status = st
	}
	if q.Page < 0 || q.Limit < 0 {
		return q, validationErr(opFindAll, "page and limit must be >= 1")
	}
	if q.Page == 0 {
		q.Page = DefaultPage
	}
	if q.Limit == 0 {
		q.Limit = DefaultLimit
	}
	if q.Limit > MaxLimit {
		q.Limit = MaxLimit
	}
	q.EntityID = strings.TrimSpace(q.EntityID)
	return q, nil
}

func (s *service) FindAll(ctx context.Context, q Query) (res ListResult, err error) {
	ctx, span := observability.StartSpan(ctx, "assets.FindAll")
	defer func() { observability.EndSpan(span, err) }()

	q, err = q.normalize()
	if err != nil {
		return ListResult{}, err
	}
	filter := repos.AssetListFilter{
		EntityType: q.EntityType,
		EntityID:   q.EntityID,
		FileType:   q.FileType,
		Status:     q.Status,
	}

	var (
		rows  []*domain.Asset
		total int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		page := filter
		page.Offset = (q.Page - 1) * q.Limit
		page.Limit = q.Limit
		var err error
		rows, err = s.assets.FindMany(dbctx.Context{Ctx: gctx}, page)
		return err
	})
	g.Go(func() error {
		var err error
		total, err = s.assets.Count(dbctx.Context{Ctx: gctx}, filter)
		return err
	})
	if err := g.Wait(); err != nil {
		return ListResult{}, storageErr(opFindAll, err)
	}

	data := make([]AssetRecord, 0, len(rows))
	for _, a := range rows {
		data = append(data, s.mapper.record(a))
	}
	return ListResult{Data: data, Total: total, Page: q.Page, Limit: q.Limit}, nil
}

// FindOne does not filter by status: soft-deleted and archived assets are
// still returned by id.
func (s *service) FindOne(ctx context.Context, id uuid.UUID) (rec AssetRecord, err error) {
	ctx, span := observability.StartSpan(ctx, "assets.FindOne", attribute.String("asset_id", id.String()))
	defer func() { observability.EndSpan(span, err) }()

	if id == uuid.Nil {
		return AssetRecord{}, validationErr(opFindOne, "id is required")
	}
	a, err := s.assets.GetByID(dbctx.Context{Ctx: ctx}, id)
	if err != nil {
		return AssetRecord{}, storageErr(opFindOne, err)
	}
	if a == nil {
		return AssetRecord{}, notFoundErr(opFindOne, "Asset with ID %s not found", id)
	}
	return s.mapper.record(a), nil
}

func (s *service) GetEntityGallery(ctx context.Context, entityType domain.EntityType, entityID string) (out Gallery, err error) {
	ctx, span := observability.StartSpan(ctx, "assets.GetEntityGallery",
		attribute.String("entity_type", string(entityType)),
		attribute.String("entity_id", entityID),
	)
	defer func() { observability.EndSpan(span, err) }()

	key, err := entityKey(opGallery, entityType, entityID)
	if err != nil {
		return Gallery{}, err
	}

	var (
		rows  []*domain.Asset
		total int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		rows, err = s.assets.Gallery(dbctx.Context{Ctx: gctx}, key, GalleryLimit)
		return err
	})
	g.Go(func() error {
		var err error
		total, err = s.assets.CountActiveImages(dbctx.Context{Ctx: gctx}, key)
		return err
	})
	if err := g.Wait(); err != nil {
		return Gallery{}, storageErr(opGallery, err)
	}

	images := make([]GalleryImage, 0, len(rows))
	for _, a := range rows {
		images = append(images, s.mapper.galleryImage(a))
	}
	return Gallery{
		EntityType:  key.Type,
		EntityID:    key.ID,
		TotalImages: total,
		Images:      images,
	}, nil
}

func entityKey(op string, entityType domain.EntityType, entityID string) (domain.EntityKey, error) {
	et, ok := domain.ParseEntityType(string(entityType))
	if !ok {
		return domain.EntityKey{}, validationErr(op, "invalid entityType %q", entityType)
	}
	id := strings.TrimSpace(entityID)
	if id == "" {
		return domain.EntityKey{}, validationErr(op, "entityId is required")
	}
	return domain.EntityKey{Type: et, ID: id}, nil
}
