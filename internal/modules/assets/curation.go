package assets

import (
	"context"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	domainagg "github.com/yungbote/assets-backend/internal/domain/aggregates"
	domain "github.com/yungbote/assets-backend/internal/domain/assets"
	"github.com/yungbote/assets-backend/internal/observability"
)

const (
	opDelete     = "assets.delete"
	opArchive    = "assets.archive"
	opRestore    = "assets.restore"
	opSetPrimary = "assets.set_primary"
	opReorder    = "assets.reorder"
)

type SetPrimaryInput struct {
	EntityType   domain.EntityType
	EntityID     string
	AssetID      uuid.UUID
	DisplayOrder *int
	Audit        Audit
}

type ReorderInput struct {
	EntityType domain.EntityType
	EntityID   string
	AssetIDs   []uuid.UUID
	Audit      Audit
}

// Delete soft-deletes an asset. Deleting an already deleted asset succeeds
// without touching it again.
func (s *service) Delete(ctx context.Context, id uuid.UUID, audit Audit) (out Outcome, err error) {
	ctx, span := observability.StartSpan(ctx, "assets.Delete", attribute.String("asset_id", id.String()))
	defer func() { observability.EndSpan(span, err) }()

	res, err := s.transition(ctx, opDelete, id, nil, domain.StatusDeleted, domain.OpDelete, audit)
	if err != nil {
		return Outcome{}, err
	}
	if res.Changed {
		s.log.Info("asset deleted", "asset_id", id, "from", res.From)
	}
	return Outcome{Success: true, Message: "Asset marked as deleted"}, nil
}

// Archive hides an ACTIVE asset from listings and clears its primary flag.
func (s *service) Archive(ctx context.Context, id uuid.UUID, audit Audit) (rec AssetRecord, err error) {
	ctx, span := observability.StartSpan(ctx, "assets.Archive", attribute.String("asset_id", id.String()))
	defer func() { observability.EndSpan(span, err) }()

	res, err := s.transition(ctx, opArchive, id, []domain.AssetStatus{domain.StatusActive}, domain.StatusArchived, domain.OpArchive, audit)
	if err != nil {
		return AssetRecord{}, err
	}
	return s.mapper.record(res.Asset), nil
}

// Restore brings an archived asset back to ACTIVE at the end of its entity's
// display order. It never becomes primary on its own.
func (s *service) Restore(ctx context.Context, id uuid.UUID, audit Audit) (rec AssetRecord, err error) {
	ctx, span := observability.StartSpan(ctx, "assets.Restore", attribute.String("asset_id", id.String()))
	defer func() { observability.EndSpan(span, err) }()

	res, err := s.transition(ctx, opRestore, id, []domain.AssetStatus{domain.StatusArchived}, domain.StatusActive, domain.OpRestore, audit)
	if err != nil {
		return AssetRecord{}, err
	}
	return s.mapper.record(res.Asset), nil
}

// transition moves one asset to status to. A non-empty from restricts the
// statuses it may leave; any other current status is a conflict.
func (s *service) transition(ctx context.Context, op string, id uuid.UUID, from []domain.AssetStatus, to domain.AssetStatus, logOp domain.LogOperation, audit Audit) (domainagg.TransitionResult, error) {
	if id == uuid.Nil {
		return domainagg.TransitionResult{}, validationErr(op, "id is required")
	}
	res, err := s.gallery.Transition(ctx, domainagg.TransitionInput{
		AssetID:   id,
		From:      from,
		To:        to,
		Operation: logOp,
		At:        s.now(),
		Audit:     audit,
	})
	if err != nil {
		if domainagg.IsCode(err, domainagg.CodeNotFound) {
			return domainagg.TransitionResult{}, newErr(KindNotFound, op, "Asset with ID "+id.String()+" not found", err)
		}
		return domainagg.TransitionResult{}, fromAggregate(op, err)
	}
	if res.Asset == nil {
		return domainagg.TransitionResult{}, newErr(KindIntegrityGap, op, "", errAssetVanished)
	}
	return res, nil
}

func (s *service) SetPrimaryImage(ctx context.Context, in SetPrimaryInput) (out Outcome, err error) {
	ctx, span := observability.StartSpan(ctx, "assets.SetPrimaryImage",
		attribute.String("entity_type", string(in.EntityType)),
		attribute.String("entity_id", in.EntityID),
		attribute.String("asset_id", in.AssetID.String()),
	)
	defer func() { observability.EndSpan(span, err) }()

	key, err := entityKey(opSetPrimary, in.EntityType, in.EntityID)
	if err != nil {
		return Outcome{}, err
	}
	if in.AssetID == uuid.Nil {
		return Outcome{}, validationErr(opSetPrimary, "assetId is required")
	}
	if in.DisplayOrder != nil && *in.DisplayOrder < 1 {
		return Outcome{}, validationErr(opSetPrimary, "displayOrder must be >= 1")
	}

	res, err := s.gallery.SetPrimary(ctx, domainagg.SetPrimaryInput{
		Entity:       key,
		AssetID:      in.AssetID,
		DisplayOrder: in.DisplayOrder,
		Audit:        in.Audit,
	})
	if err != nil {
		if domainagg.IsCode(err, domainagg.CodeNotFound) {
			return Outcome{}, newErr(KindNotFound, opSetPrimary, "Image not found or does not belong to this entity", err)
		}
		return Outcome{}, fromAggregate(opSetPrimary, err)
	}
	s.log.Info("primary image set", "entity", key.String(), "asset_id", res.AssetID, "previous_primary", res.PreviousPrimary, "display_order", res.DisplayOrder)
	return Outcome{Success: true, Message: "Primary image updated"}, nil
}

func (s *service) ReorderImages(ctx context.Context, in ReorderInput) (out Outcome, err error) {
	ctx, span := observability.StartSpan(ctx, "assets.ReorderImages",
		attribute.String("entity_type", string(in.EntityType)),
		attribute.String("entity_id", in.EntityID),
		attribute.Int("count", len(in.AssetIDs)),
	)
	defer func() { observability.EndSpan(span, err) }()

	key, err := entityKey(opReorder, in.EntityType, in.EntityID)
	if err != nil {
		return Outcome{}, err
	}
	if len(in.AssetIDs) == 0 {
		return Outcome{}, validationErr(opReorder, "assetIds must not be empty")
	}
	for _, id := range in.AssetIDs {
		if id == uuid.Nil {
			return Outcome{}, validationErr(opReorder, "assetIds must be valid ids")
		}
	}

	if _, err := s.gallery.Reorder(ctx, domainagg.ReorderInput{
		Entity:   key,
		AssetIDs: in.AssetIDs,
		Audit:    in.Audit,
	}); err != nil {
		if domainagg.IsCode(err, domainagg.CodeConflict) {
			return Outcome{}, newErr(KindConflict, opReorder, "Some assets were not found or do not belong to this entity", err)
		}
		return Outcome{}, fromAggregate(opReorder, err)
	}
	s.log.Info("images reordered", "entity", key.String(), "count", len(in.AssetIDs))
	return Outcome{Success: true, Message: "Images reordered"}, nil
}
