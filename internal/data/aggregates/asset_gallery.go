package aggregates

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/assets-backend/internal/data/repos"
	domainagg "github.com/yungbote/assets-backend/internal/domain/aggregates"
	domain "github.com/yungbote/assets-backend/internal/domain/assets"
	"github.com/yungbote/assets-backend/internal/platform/dbctx"
)

type AssetGalleryAggregateDeps struct {
	Base     BaseDeps
	Assets   repos.AssetRepo
	Versions repos.AssetVersionRepo
	Tags     repos.AssetTagRepo
	Logs     repos.AssetLogRepo
}

type assetGalleryAggregate struct {
	deps AssetGalleryAggregateDeps
}

var _ domainagg.AssetGalleryAggregate = (*assetGalleryAggregate)(nil)

func NewAssetGalleryAggregate(deps AssetGalleryAggregateDeps) domainagg.AssetGalleryAggregate {
	deps.Base = deps.Base.withDefaults()
	return &assetGalleryAggregate{deps: deps}
}

func (a *assetGalleryAggregate) Contract() domainagg.Contract {
	return domainagg.AssetGalleryAggregateContract
}

const (
	opCommitUpload = "assets.gallery.commit_upload"
	opSetPrimary   = "assets.gallery.set_primary"
	opReorder      = "assets.gallery.reorder"
	opTransition   = "assets.gallery.transition"
)

func (a *assetGalleryAggregate) ready(op string) error {
	if a == nil || a.deps.Assets == nil || a.deps.Versions == nil || a.deps.Tags == nil || a.deps.Logs == nil {
		return domainagg.NewError(domainagg.CodeInternal, op, "asset gallery aggregate is not fully wired", nil)
	}
	return nil
}

func validateKey(op string, key domain.EntityKey) error {
	if key.Type == "" || strings.TrimSpace(key.ID) == "" {
		return MapError(op, ValidationError("entity type and entity id are required"))
	}
	return nil
}

func (a *assetGalleryAggregate) CommitUpload(ctx context.Context, in domainagg.CommitUploadInput) (domainagg.CommitUploadResult, error) {
	out := domainagg.CommitUploadResult{}
	if err := a.ready(opCommitUpload); err != nil {
		return out, err
	}
	row := in.Asset
	if row == nil {
		return out, MapError(opCommitUpload, ValidationError("asset is required"))
	}
	if err := validateKey(opCommitUpload, row.EntityKey()); err != nil {
		return out, err
	}
	if len(in.Versions) == 0 {
		return out, MapError(opCommitUpload, ValidationError("at least one version is required"))
	}
	if in.DisplayOrder != nil && *in.DisplayOrder < 1 {
		return out, MapError(opCommitUpload, ValidationError("displayOrder must be >= 1"))
	}
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	key := row.EntityKey()

	err := executeEntityWrite(ctx, a.deps.Base, opCommitUpload, key, func(dbc dbctx.Context) error {
		row.Status = domain.StatusProcessing
		row.IsPrimary = false
		row.DisplayOrder = 0
		row.DeletedAt = nil
		if err := a.deps.Assets.Create(dbc, row); err != nil {
			return err
		}

		versions := make([]*domain.AssetVersion, 0, len(in.Versions))
		for i := range in.Versions {
			v := in.Versions[i]
			v.AssetID = row.ID
			versions = append(versions, &v)
		}
		if _, err := a.deps.Versions.CreateBatch(dbc, versions); err != nil {
			return err
		}
		if _, err := a.deps.Tags.CreateBatch(dbc, row.ID, in.Tags); err != nil {
			return err
		}

		if row.FileType == domain.FileImage {
			if err := a.placeNewImage(dbc, row, in.IsPrimary, in.DisplayOrder); err != nil {
				return err
			}
		}

		ok, err := a.deps.Assets.UpdateStatus(dbc, row.ID, []domain.AssetStatus{domain.StatusProcessing}, domain.StatusActive)
		if err != nil {
			return err
		}
		if err := RequireCASSuccess(ok, "asset left PROCESSING during upload"); err != nil {
			return err
		}

		meta := domain.LogMetadata{
			FileSize:     row.FileSize,
			MimeType:     row.MimeType,
			Checksum:     row.Checksum,
			ToStatus:     domain.StatusActive,
			DisplayOrder: row.DisplayOrder,
			EntityType:   row.EntityType,
			EntityID:     row.EntityID,
		}
		if _, err := a.deps.Logs.Append(dbc, row.ID, domain.OpUpload, in.Audit.IPAddress, in.Audit.UserAgent, meta); err != nil {
			return err
		}

		saved, err := a.deps.Assets.GetByID(dbc, row.ID)
		if err != nil {
			return err
		}
		if saved == nil {
			return InvariantError("uploaded asset vanished inside its own transaction")
		}
		out.Asset = saved
		return nil
	})
	if err != nil {
		return domainagg.CommitUploadResult{}, err
	}
	return out, nil
}

// placeNewImage resolves primary and display order for a not-yet-active image.
func (a *assetGalleryAggregate) placeNewImage(dbc dbctx.Context, row *domain.Asset, isPrimary *bool, displayOrder *int) error {
	key := row.EntityKey()

	primary := false
	if isPrimary != nil {
		primary = *isPrimary
	} else {
		n, err := a.deps.Assets.CountActiveImages(dbc, key)
		if err != nil {
			return err
		}
		primary = n == 0
	}

	order := 0
	if displayOrder != nil {
		order = *displayOrder
		if err := a.claimSlot(dbc, key, order, row.ID); err != nil {
			return err
		}
	} else {
		next, err := a.deps.Assets.NextDisplayOrder(dbc, key)
		if err != nil {
			return err
		}
		order = next
	}

	if primary {
		if _, err := a.deps.Assets.UnsetPrimary(dbc, key); err != nil {
			return err
		}
	}
	if err := a.deps.Assets.UpdateCuration(dbc, row.ID, &primary, &order); err != nil {
		return err
	}
	row.IsPrimary = primary
	row.DisplayOrder = order
	return nil
}

// claimSlot frees display order `order` for owner by shifting the occupant
// and everything after it down one slot.
func (a *assetGalleryAggregate) claimSlot(dbc dbctx.Context, key domain.EntityKey, order int, owner uuid.UUID) error {
	taken, err := a.deps.Assets.DisplayOrderTaken(dbc, key, order, owner)
	if err != nil {
		return err
	}
	if !taken {
		return nil
	}
	_, err = a.deps.Assets.ShiftDisplayOrders(dbc, key, order, owner)
	return err
}

func (a *assetGalleryAggregate) SetPrimary(ctx context.Context, in domainagg.SetPrimaryInput) (domainagg.SetPrimaryResult, error) {
	out := domainagg.SetPrimaryResult{}
	if err := a.ready(opSetPrimary); err != nil {
		return out, err
	}
	if err := validateKey(opSetPrimary, in.Entity); err != nil {
		return out, err
	}
	if in.AssetID == uuid.Nil {
		return out, MapError(opSetPrimary, ValidationError("asset id is required"))
	}
	order := 1
	if in.DisplayOrder != nil {
		if *in.DisplayOrder < 1 {
			return out, MapError(opSetPrimary, ValidationError("displayOrder must be >= 1"))
		}
		order = *in.DisplayOrder
	}

	err := executeEntityWrite(ctx, a.deps.Base, opSetPrimary, in.Entity, func(dbc dbctx.Context) error {
		target, err := a.deps.Assets.LockByID(dbc, in.AssetID)
		if err != nil {
			return err
		}
		if err := RequireCurable(target, in.Entity); err != nil {
			return err
		}

		prev, err := a.deps.Assets.GetPrimary(dbc, in.Entity)
		if err != nil {
			return err
		}
		if prev != nil && prev.ID != target.ID {
			id := prev.ID
			out.PreviousPrimary = &id
		}

		if err := a.claimSlot(dbc, in.Entity, order, target.ID); err != nil {
			return err
		}
		if _, err := a.deps.Assets.UnsetPrimary(dbc, in.Entity); err != nil {
			return err
		}
		primary := true
		if err := a.deps.Assets.UpdateCuration(dbc, target.ID, &primary, &order); err != nil {
			return err
		}

		meta := domain.LogMetadata{
			DisplayOrder: order,
			EntityType:   in.Entity.Type,
			EntityID:     in.Entity.ID,
		}
		if _, err := a.deps.Logs.Append(dbc, target.ID, domain.OpSetPrimary, in.Audit.IPAddress, in.Audit.UserAgent, meta); err != nil {
			return err
		}
		out.AssetID = target.ID
		out.DisplayOrder = order
		return nil
	})
	if err != nil {
		return domainagg.SetPrimaryResult{}, err
	}
	return out, nil
}

func (a *assetGalleryAggregate) Reorder(ctx context.Context, in domainagg.ReorderInput) (domainagg.ReorderResult, error) {
	out := domainagg.ReorderResult{}
	if err := a.ready(opReorder); err != nil {
		return out, err
	}
	if err := validateKey(opReorder, in.Entity); err != nil {
		return out, err
	}
	if len(in.AssetIDs) == 0 {
		return out, MapError(opReorder, ValidationError("assetIds must not be empty"))
	}

	unique := make([]uuid.UUID, 0, len(in.AssetIDs))
	seen := make(map[uuid.UUID]struct{}, len(in.AssetIDs))
	for _, id := range in.AssetIDs {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}

	err := executeEntityWrite(ctx, a.deps.Base, opReorder, in.Entity, func(dbc dbctx.Context) error {
		found, err := a.deps.Assets.CountImagesIn(dbc, in.Entity, unique)
		if err != nil {
			return err
		}
		if found != int64(len(in.AssetIDs)) {
			return ConflictError(fmt.Sprintf("some assets were not found or do not belong to this entity (%d of %d)", found, len(in.AssetIDs)))
		}

		current, err := a.deps.Assets.ListActiveImages(dbc, in.Entity)
		if err != nil {
			return err
		}

		orders := make(map[uuid.UUID]int, len(current))
		for i, id := range in.AssetIDs {
			orders[id] = i + 1
		}
		next := len(in.AssetIDs) + 1
		for _, row := range current {
			if _, listed := orders[row.ID]; listed {
				continue
			}
			orders[row.ID] = next
			next++
		}

		for _, row := range current {
			order := orders[row.ID]
			if row.DisplayOrder == order {
				continue
			}
			if err := a.deps.Assets.UpdateCuration(dbc, row.ID, nil, &order); err != nil {
				return err
			}
		}

		ids := make([]string, 0, len(in.AssetIDs))
		for _, id := range in.AssetIDs {
			ids = append(ids, id.String())
		}
		meta := domain.LogMetadata{
			AssetIDs:   ids,
			EntityType: in.Entity.Type,
			EntityID:   in.Entity.ID,
		}
		if _, err := a.deps.Logs.Append(dbc, in.AssetIDs[0], domain.OpReorder, in.Audit.IPAddress, in.Audit.UserAgent, meta); err != nil {
			return err
		}
		out.Orders = orders
		return nil
	})
	if err != nil {
		return domainagg.ReorderResult{}, err
	}
	return out, nil
}

func (a *assetGalleryAggregate) Transition(ctx context.Context, in domainagg.TransitionInput) (domainagg.TransitionResult, error) {
	out := domainagg.TransitionResult{}
	if err := a.ready(opTransition); err != nil {
		return out, err
	}
	if in.AssetID == uuid.Nil {
		return out, MapError(opTransition, ValidationError("asset id is required"))
	}
	if _, ok := domain.ParseStatus(string(in.To)); !ok {
		return out, MapError(opTransition, ValidationError(fmt.Sprintf("unknown status %q", in.To)))
	}

	// The entity of an asset never changes, so it is safe to read it before
	// taking the entity lock.
	owner, err := a.deps.Assets.GetByID(dbctx.Context{Ctx: ctx}, in.AssetID)
	if err != nil {
		return out, MapError(opTransition, err)
	}
	if owner == nil {
		return out, MapError(opTransition, NotFoundError("asset not found"))
	}

	op := in.Operation
	if op == "" {
		op = defaultOperation(in.To)
	}
	at := in.At.UTC()
	if in.At.IsZero() {
		at = time.Now().UTC()
	}

	err = executeEntityWrite(ctx, a.deps.Base, opTransition, owner.EntityKey(), func(dbc dbctx.Context) error {
		cur, err := a.deps.Assets.LockByID(dbc, in.AssetID)
		if err != nil {
			return err
		}
		if cur == nil {
			return NotFoundError("asset not found")
		}
		out.From = cur.Status

		if cur.Status == in.To {
			out.Asset = cur
			return nil
		}
		if len(in.From) > 0 && !statusIn(cur.Status, in.From) {
			return ConflictError(fmt.Sprintf("asset is %s, expected one of %v", cur.Status, in.From))
		}
		if err := RequireTransition(cur.Status, in.To); err != nil {
			return err
		}

		var ok bool
		switch in.To {
		case domain.StatusDeleted:
			ok, err = a.deps.Assets.SoftDelete(dbc, cur.ID, []domain.AssetStatus{cur.Status}, at)
		default:
			ok, err = a.deps.Assets.UpdateStatus(dbc, cur.ID, []domain.AssetStatus{cur.Status}, in.To)
		}
		if err != nil {
			return err
		}
		if err := RequireCASSuccess(ok, "asset status changed concurrently"); err != nil {
			return err
		}

		meta := domain.LogMetadata{
			FromStatus: cur.Status,
			ToStatus:   in.To,
			EntityType: cur.EntityType,
			EntityID:   cur.EntityID,
			Reason:     strings.TrimSpace(in.Reason),
		}
		if cur.FileType == domain.FileImage {
			if err := a.recurate(dbc, cur, in.To, &meta); err != nil {
				return err
			}
		}

		if _, err := a.deps.Logs.Append(dbc, cur.ID, op, in.Audit.IPAddress, in.Audit.UserAgent, meta); err != nil {
			return err
		}

		saved, err := a.deps.Assets.GetByID(dbc, cur.ID)
		if err != nil {
			return err
		}
		out.Asset = saved
		out.Changed = true
		return nil
	})
	if err != nil {
		return domainagg.TransitionResult{}, err
	}
	return out, nil
}

// recurate fixes curation fields of an image after its status moved: leaving
// ACTIVE drops primary, coming back appends to the end of the order.
func (a *assetGalleryAggregate) recurate(dbc dbctx.Context, cur *domain.Asset, to domain.AssetStatus, meta *domain.LogMetadata) error {
	notPrimary := false
	switch to {
	case domain.StatusArchived:
		return a.deps.Assets.UpdateCuration(dbc, cur.ID, &notPrimary, nil)
	case domain.StatusActive:
		key := cur.EntityKey()
		// the row is ACTIVE again already, so exclude it from the max.
		rows, err := a.deps.Assets.ListActiveImages(dbc, key)
		if err != nil {
			return err
		}
		order := 1
		for _, r := range rows {
			if r.ID != cur.ID && r.DisplayOrder >= order {
				order = r.DisplayOrder + 1
			}
		}
		meta.DisplayOrder = order
		return a.deps.Assets.UpdateCuration(dbc, cur.ID, &notPrimary, &order)
	}
	return nil
}

func defaultOperation(to domain.AssetStatus) domain.LogOperation {
	switch to {
	case domain.StatusArchived:
		return domain.OpArchive
	case domain.StatusActive:
		return domain.OpRestore
	default:
		return domain.OpDelete
	}
}

func statusIn(s domain.AssetStatus, set []domain.AssetStatus) bool {
	for _, v := range set {
		if v == s {
			return true
		}
	}
	return false
}
