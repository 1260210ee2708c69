package aggregates

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/assets-backend/internal/domain/assets"
)

var AssetGalleryAggregateContract = Contract{
	Name:             "Assets.GalleryAggregate",
	WriteTxOwnership: WriteTxOwnedByAggregate,
	ReadPolicy:       ReadPolicyInvariantScoped,
	Notes:            "Owns per-entity primary/display-order consistency and asset status transitions, each write serialized per (entity type, entity id).",
}

// AssetGalleryAggregate owns the curation invariants of an entity's images:
// at most one active primary, unique display orders, and legal status moves.
//
// Write method failures should return *aggregates.Error with codes:
// CodeValidation, CodeNotFound, CodeConflict, CodeInvariantViolation, CodeRetryable, CodeInternal.
type AssetGalleryAggregate interface {
	Aggregate

	// CommitUpload inserts the asset with its versions, tags and upload log,
	// resolving curation fields and promoting it to ACTIVE, all in one transaction.
	CommitUpload(ctx context.Context, in CommitUploadInput) (CommitUploadResult, error)

	// SetPrimary makes one active image the entity's primary.
	SetPrimary(ctx context.Context, in SetPrimaryInput) (SetPrimaryResult, error)

	// Reorder assigns display orders 1..n to the listed images.
	Reorder(ctx context.Context, in ReorderInput) (ReorderResult, error)

	// Transition moves an asset between statuses per the transition table.
	Transition(ctx context.Context, in TransitionInput) (TransitionResult, error)
}

// Audit attributes a write to its caller.
type Audit struct {
	IPAddress string
	UserAgent string
}

type CommitUploadInput struct {
	// Asset carries identity, classification, naming and storage fields.
	// Status and curation fields are resolved by the aggregate.
	Asset    *assets.Asset
	Versions []assets.AssetVersion
	Tags     []string

	IsPrimary    *bool
	DisplayOrder *int

	Audit Audit
}

type CommitUploadResult struct {
	Asset *assets.Asset
}

type SetPrimaryInput struct {
	Entity       assets.EntityKey
	AssetID      uuid.UUID
	DisplayOrder *int
	Audit        Audit
}

type SetPrimaryResult struct {
	AssetID         uuid.UUID
	PreviousPrimary *uuid.UUID
	DisplayOrder    int
}

type ReorderInput struct {
	Entity   assets.EntityKey
	AssetIDs []uuid.UUID
	Audit    Audit
}

type ReorderResult struct {
	Orders map[uuid.UUID]int
}

type TransitionInput struct {
	AssetID uuid.UUID
	// From, when set, restricts the statuses the move may start from.
	From      []assets.AssetStatus
	To        assets.AssetStatus
	Operation assets.LogOperation
	Reason    string
	// At stamps deleted_at on a move to DELETED. Zero means now.
	At    time.Time
	Audit Audit
}

type TransitionResult struct {
	Asset   *assets.Asset
	From    assets.AssetStatus
	Changed bool
}
