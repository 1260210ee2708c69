package assets

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/assets-backend/internal/domain"
	domain "github.com/yungbote/assets-backend/internal/domain/assets"
	"github.com/yungbote/assets-backend/internal/platform/dbctx"
	"github.com/yungbote/assets-backend/internal/platform/logger"
)

// ListFilter narrows FindMany/Count. Empty fields do not filter; Status is
// always applied by callers that want the ACTIVE default.
type ListFilter struct {
	EntityType domain.EntityType
	EntityID   string
	FileType   domain.FileType
	Status     domain.AssetStatus
	Offset     int
	Limit      int
}

type AssetRepo interface {
	Create(dbc dbctx.Context, row *types.Asset) error

	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Asset, error)
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Asset, error)
	LockByID(dbc dbctx.Context, id uuid.UUID) (*types.Asset, error)

	FindMany(dbc dbctx.Context, f ListFilter) ([]*types.Asset, error)
	Count(dbc dbctx.Context, f ListFilter) (int64, error)
	ListStuckProcessing(dbc dbctx.Context, olderThan time.Time, limit int) ([]*types.Asset, error)

	UpdateStatus(dbc dbctx.Context, id uuid.UUID, from []domain.AssetStatus, to domain.AssetStatus) (bool, error)
	SoftDelete(dbc dbctx.Context, id uuid.UUID, from []domain.AssetStatus, at time.Time) (bool, error)
	UpdateCuration(dbc dbctx.Context, id uuid.UUID, isPrimary *bool, displayOrder *int) error

	// Curation support, scoped to the entity's active, non-deleted images.
	CountActiveImages(dbc dbctx.Context, key types.EntityKey) (int64, error)
	NextDisplayOrder(dbc dbctx.Context, key types.EntityKey) (int, error)
	UnsetPrimary(dbc dbctx.Context, key types.EntityKey) (int64, error)
	GetPrimary(dbc dbctx.Context, key types.EntityKey) (*types.Asset, error)
	DisplayOrderTaken(dbc dbctx.Context, key types.EntityKey, order int, exclude uuid.UUID) (bool, error)
	ShiftDisplayOrders(dbc dbctx.Context, key types.EntityKey, from int, exclude uuid.UUID) (int64, error)
	CountImagesIn(dbc dbctx.Context, key types.EntityKey, ids []uuid.UUID) (int64, error)
	ListActiveImages(dbc dbctx.Context, key types.EntityKey) ([]*types.Asset, error)
	Gallery(dbc dbctx.Context, key types.EntityKey, limit int) ([]*types.Asset, error)
}

type assetRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAssetRepo(db *gorm.DB, baseLog *logger.Logger) AssetRepo {
	return &assetRepo{db: db, log: baseLog.With("repo", "AssetRepo")}
}

func withChildren(t *gorm.DB) *gorm.DB {
	return t.
		Preload("Versions", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Preload("Tags", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC, tag ASC") })
}

func activeImages(t *gorm.DB, key types.EntityKey) *gorm.DB {
	return t.Model(&types.Asset{}).
		Where("entity_type = ? AND entity_id = ?", key.Type, key.ID).
		Where("file_type = ? AND status = ? AND deleted_at IS NULL", domain.FileImage, domain.StatusActive)
}

func applyFilter(t *gorm.DB, f ListFilter) *gorm.DB {
	q := t.Model(&types.Asset{}).Where("deleted_at IS NULL")
	if f.EntityType != "" {
		q = q.Where("entity_type = ?", f.EntityType)
	}
	if f.EntityID != "" {
		q = q.Where("entity_id = ?", f.EntityID)
	}
	if f.FileType != "" {
		q = q.Where("file_type = ?", f.FileType)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	return q
}

func statusStrings(in []domain.AssetStatus) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		out = append(out, string(s))
	}
	return out
}

func (r *assetRepo) Create(dbc dbctx.Context, row *types.Asset) error {
	if row == nil {
		return nil
	}
	now := time.Now().UTC()
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	if row.UploadedAt.IsZero() {
		row.UploadedAt = now
	}
	if row.UpdatedAt.IsZero() {
		row.UpdatedAt = row.UploadedAt
	}
	return dbc.DB(r.db).Omit(clause.Associations).Create(row).Error
}

func (r *assetRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Asset, error) {
	var out []*types.Asset
	if len(ids) == 0 {
		return out, nil
	}
	if err := withChildren(dbc.DB(r.db)).Where("id IN ?", ids).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// GetByID ignores status and soft deletion.
func (r *assetRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Asset, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	rows, err := r.GetByIDs(dbc, []uuid.UUID{id})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *assetRepo) LockByID(dbc dbctx.Context, id uuid.UUID) (*types.Asset, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	t := dbc.DB(r.db)
	if t.Dialector.Name() == "postgres" {
		t = t.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var out []*types.Asset
	if err := t.Where("id = ?", id).Limit(1).Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

func (r *assetRepo) FindMany(dbc dbctx.Context, f ListFilter) ([]*types.Asset, error) {
	var out []*types.Asset
	q := withChildren(applyFilter(dbc.DB(r.db), f)).Order("uploaded_at DESC, id ASC")
	if f.Offset > 0 {
		q = q.Offset(f.Offset)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *assetRepo) Count(dbc dbctx.Context, f ListFilter) (int64, error) {
	var n int64
	if err := applyFilter(dbc.DB(r.db), f).Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

func (r *assetRepo) ListStuckProcessing(dbc dbctx.Context, olderThan time.Time, limit int) ([]*types.Asset, error) {
	var out []*types.Asset
	q := dbc.DB(r.db).
		Where("status = ? AND uploaded_at < ?", domain.StatusProcessing, olderThan.UTC()).
		Order("uploaded_at ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := withChildren(q).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateStatus is a compare-and-set: it only applies while the current status
// is one of from.
func (r *assetRepo) UpdateStatus(dbc dbctx.Context, id uuid.UUID, from []domain.AssetStatus, to domain.AssetStatus) (bool, error) {
	if id == uuid.Nil || len(from) == 0 {
		return false, nil
	}
	res := dbc.DB(r.db).Model(&types.Asset{}).
		Where("id = ? AND status IN ?", id, statusStrings(from)).
		Updates(map[string]interface{}{
			"status":     to,
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *assetRepo) SoftDelete(dbc dbctx.Context, id uuid.UUID, from []domain.AssetStatus, at time.Time) (bool, error) {
	if id == uuid.Nil || len(from) == 0 {
		return false, nil
	}
	at = at.UTC()
	res := dbc.DB(r.db).Model(&types.Asset{}).
		Where("id = ? AND status IN ?", id, statusStrings(from)).
		Updates(map[string]interface{}{
			"status":     domain.StatusDeleted,
			"deleted_at": at,
			"is_primary": false,
			"updated_at": at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *assetRepo) UpdateCuration(dbc dbctx.Context, id uuid.UUID, isPrimary *bool, displayOrder *int) error {
	if id == uuid.Nil || (isPrimary == nil && displayOrder == nil) {
		return nil
	}
	updates := map[string]interface{}{"updated_at": time.Now().UTC()}
	if isPrimary != nil {
		updates["is_primary"] = *isPrimary
	}
	if displayOrder != nil {
		updates["display_order"] = *displayOrder
	}
	return dbc.DB(r.db).Model(&types.Asset{}).Where("id = ?", id).Updates(updates).Error
}

func (r *assetRepo) CountActiveImages(dbc dbctx.Context, key types.EntityKey) (int64, error) {
	var n int64
	if err := activeImages(dbc.DB(r.db), key).Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

func (r *assetRepo) NextDisplayOrder(dbc dbctx.Context, key types.EntityKey) (int, error) {
	var max *int
	if err := activeImages(dbc.DB(r.db), key).Select("MAX(display_order)").Scan(&max).Error; err != nil {
		return 0, err
	}
	if max == nil || *max < 1 {
		return 1, nil
	}
	return *max + 1, nil
}

func (r *assetRepo) UnsetPrimary(dbc dbctx.Context, key types.EntityKey) (int64, error) {
	res := dbc.DB(r.db).Model(&types.Asset{}).
		Where("entity_type = ? AND entity_id = ? AND file_type = ? AND is_primary = ?", key.Type, key.ID, domain.FileImage, true).
		Updates(map[string]interface{}{
			"is_primary": false,
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *assetRepo) GetPrimary(dbc dbctx.Context, key types.EntityKey) (*types.Asset, error) {
	var out []*types.Asset
	if err := activeImages(dbc.DB(r.db), key).Where("is_primary = ?", true).Limit(1).Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

func (r *assetRepo) DisplayOrderTaken(dbc dbctx.Context, key types.EntityKey, order int, exclude uuid.UUID) (bool, error) {
	var n int64
	q := activeImages(dbc.DB(r.db), key).Where("display_order = ?", order)
	if exclude != uuid.Nil {
		q = q.Where("id <> ?", exclude)
	}
	if err := q.Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

// ShiftDisplayOrders moves every active image at or after `from` one slot down.
func (r *assetRepo) ShiftDisplayOrders(dbc dbctx.Context, key types.EntityKey, from int, exclude uuid.UUID) (int64, error) {
	q := activeImages(dbc.DB(r.db), key).Where("display_order >= ?", from)
	if exclude != uuid.Nil {
		q = q.Where("id <> ?", exclude)
	}
	res := q.Updates(map[string]interface{}{
		"display_order": gorm.Expr("display_order + ?", 1),
		"updated_at":    time.Now().UTC(),
	})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *assetRepo) CountImagesIn(dbc dbctx.Context, key types.EntityKey, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	var n int64
	if err := activeImages(dbc.DB(r.db), key).Where("id IN ?", ids).Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

func (r *assetRepo) ListActiveImages(dbc dbctx.Context, key types.EntityKey) ([]*types.Asset, error) {
	var out []*types.Asset
	if err := activeImages(dbc.DB(r.db), key).
		Order("display_order ASC, uploaded_at ASC, id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *assetRepo) Gallery(dbc dbctx.Context, key types.EntityKey, limit int) ([]*types.Asset, error) {
	var out []*types.Asset
	q := withChildren(activeImages(dbc.DB(r.db), key)).
		Order("is_primary DESC, display_order ASC, uploaded_at ASC, id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
