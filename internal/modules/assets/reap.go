package assets

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	domainagg "github.com/yungbote/assets-backend/internal/domain/aggregates"
	domain "github.com/yungbote/assets-backend/internal/domain/assets"
	"github.com/yungbote/assets-backend/internal/observability"
	"github.com/yungbote/assets-backend/internal/platform/dbctx"
)

const opReap = "assets.reap"

// ReapInput selects uploads that never left PROCESSING.
type ReapInput struct {
	OlderThan  time.Duration
	Limit      int
	DryRun     bool
	PurgeFiles bool
	Reason     string
}

type ReapResult struct {
	Found   []uuid.UUID
	Reaped  int
	Purged  int
	Skipped int
	Failed  int
}

// ReapStuck moves assets stuck in PROCESSING to DELETED, optionally removing
// their stored files. Per-asset failures are counted and logged, not returned.
func (s *service) ReapStuck(ctx context.Context, in ReapInput) (out ReapResult, err error) {
	ctx, span := observability.StartSpan(ctx, "assets.ReapStuck",
		attribute.String("older_than", in.OlderThan.String()),
		attribute.Bool("dry_run", in.DryRun),
	)
	defer func() { observability.EndSpan(span, err) }()

	if in.OlderThan <= 0 {
		return ReapResult{}, validationErr(opReap, "older-than must be positive")
	}
	cutoff := s.now().Add(-in.OlderThan)
	rows, err := s.assets.ListStuckProcessing(dbctx.Context{Ctx: ctx}, cutoff, in.Limit)
	if err != nil {
		return ReapResult{}, storageErr(opReap, err)
	}

	reason := in.Reason
	if reason == "" {
		reason = "stuck in PROCESSING since before " + cutoff.Format(time.RFC3339)
	}
	out.Found = make([]uuid.UUID, 0, len(rows))
	for _, a := range rows {
		out.Found = append(out.Found, a.ID)
		log := s.log.With("asset_id", a.ID, "entity", a.EntityKey().String(), "uploaded_at", a.UploadedAt)
		if in.DryRun {
			log.Info("stuck asset (dry run)")
			continue
		}

		res, err := s.gallery.Transition(ctx, domainagg.TransitionInput{
			AssetID:   a.ID,
			From:      []domain.AssetStatus{domain.StatusProcessing},
			To:        domain.StatusDeleted,
			Operation: domain.OpReap,
			Reason:    reason,
			At:        s.now(),
		})
		if domainagg.IsCode(err, domainagg.CodeConflict) {
			// finished uploading since it was listed
			out.Skipped++
			continue
		}
		if err != nil {
			out.Failed++
			log.Warn("reap failed", "error", err)
			continue
		}
		if !res.Changed {
			out.Skipped++
			continue
		}
		out.Reaped++
		log.Info("stuck asset reaped")

		if in.PurgeFiles && a.BasePath != "" {
			if err := s.cleanup(ctx, a.BasePath, log); err == nil {
				out.Purged++
			}
		}
	}
	s.metrics.AddReaped(out.Reaped)
	return out, nil
}
