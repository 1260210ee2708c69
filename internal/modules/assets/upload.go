package assets

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/crypto/blake2b"
	"gorm.io/datatypes"

	domainagg "github.com/yungbote/assets-backend/internal/domain/aggregates"
	domain "github.com/yungbote/assets-backend/internal/domain/assets"
	"github.com/yungbote/assets-backend/internal/modules/assets/classify"
	"github.com/yungbote/assets-backend/internal/modules/assets/derive"
	"github.com/yungbote/assets-backend/internal/modules/assets/naming"
	"github.com/yungbote/assets-backend/internal/modules/assets/pathscheme"
	"github.com/yungbote/assets-backend/internal/observability"
	"github.com/yungbote/assets-backend/internal/platform/logger"
)

const (
	opUpload       = "assets.upload"
	cleanupTimeout = 30 * time.Second
)

type UploadInput struct {
	Data     []byte
	FileName string
	MimeType string

	EntityType domain.EntityType
	EntityID   string

	Tags        []string
	Description string
	AltText     string

	IsPrimary    *bool
	DisplayOrder *int

	Audit Audit
}

// staged is one file written to storage ahead of the commit.
type staged struct {
	version domain.AssetVersion
	data    []byte
}

func (s *service) Upload(ctx context.Context, in UploadInput) (rec AssetRecord, err error) {
	ctx, span := observability.StartSpan(ctx, "assets.Upload",
		attribute.String("entity_type", string(in.EntityType)),
		attribute.String("mime_type", in.MimeType),
		attribute.Int("size", len(in.Data)),
	)
	defer func() { observability.EndSpan(span, err) }()

	ft, err := s.validateUpload(&in)
	if err != nil {
		return AssetRecord{}, err
	}

	id := uuid.New()
	now := s.now()
	sanitized := naming.Sanitize(in.FileName)
	basePath := pathscheme.BuildBasePath(ft, id, now)
	sum := blake2b.Sum256(in.Data)
	log := s.log.With("asset_id", id, "entity", in.EntityType, "entity_id", in.EntityID)

	files, err := s.render(ctx, ft, in.Data, sanitized, basePath, now)
	if err != nil {
		return AssetRecord{}, err
	}
	if err := s.stage(ctx, files); err != nil {
		if cerr := s.cleanup(ctx, basePath, log); cerr != nil {
			return AssetRecord{}, newErr(KindIntegrityGap, opUpload, "", errors.Join(err, cerr))
		}
		return AssetRecord{}, storageErr(opUpload, err)
	}

	versions := make([]domain.AssetVersion, 0, len(files))
	for _, f := range files {
		versions = append(versions, f.version)
	}
	row := &domain.Asset{
		ID:            id,
		EntityType:    in.EntityType,
		EntityID:      in.EntityID,
		FileType:      ft,
		MimeType:      classify.Normalize(in.MimeType),
		OriginalName:  in.FileName,
		SanitizedName: sanitized,
		BasePath:      basePath,
		FileSize:      int64(len(in.Data)),
		Checksum:      hex.EncodeToString(sum[:]),
		Metadata: datatypes.NewJSONType(domain.AssetMetadata{
			Description: strings.TrimSpace(in.Description),
			AltText:     strings.TrimSpace(in.AltText),
		}),
		UploadedAt: now,
		UpdatedAt:  now,
	}

	res, err := s.gallery.CommitUpload(ctx, domainagg.CommitUploadInput{
		Asset:        row,
		Versions:     versions,
		Tags:         in.Tags,
		IsPrimary:    in.IsPrimary,
		DisplayOrder: in.DisplayOrder,
		Audit:        in.Audit,
	})
	if err != nil {
		log.Warn("upload commit failed, removing staged files", "error", err)
		if cerr := s.cleanup(ctx, basePath, log); cerr != nil {
			return AssetRecord{}, newErr(KindIntegrityGap, opUpload, "", errors.Join(err, cerr))
		}
		return AssetRecord{}, fromAggregate(opUpload, err)
	}

	log.Info("asset uploaded", "file_type", ft, "versions", len(versions), "is_primary", res.Asset.IsPrimary, "display_order", res.Asset.DisplayOrder)
	return s.mapper.record(res.Asset), nil
}

// validateUpload checks everything that can be rejected before any side
// effect and returns the file category.
func (s *service) validateUpload(in *UploadInput) (domain.FileType, error) {
	if len(in.Data) == 0 {
		return "", validationErr(opUpload, "No file uploaded")
	}
	et, ok := domain.ParseEntityType(string(in.EntityType))
	if !ok {
		return "", validationErr(opUpload, "invalid entityType %q", in.EntityType)
	}
	in.EntityType = et
	in.EntityID = strings.TrimSpace(in.EntityID)
	if in.EntityID == "" {
		return "", validationErr(opUpload, "entityId is required")
	}
	if in.DisplayOrder != nil && *in.DisplayOrder < 1 {
		return "", validationErr(opUpload, "displayOrder must be >= 1")
	}
	in.FileName = strings.TrimSpace(in.FileName)
	if in.FileName == "" {
		return "", validationErr(opUpload, "file name is required")
	}

	ft, ok := classify.Classify(in.MimeType)
	if !ok {
		return "", newErr(KindUnsupportedFileType, opUpload, fmt.Sprintf("File type %s is not allowed", in.MimeType), nil)
	}
	if !classify.IsAllowedExtension(ft, in.FileName) {
		_, ext := naming.Split(in.FileName)
		return "", newErr(KindUnsupportedFileType, opUpload,
			fmt.Sprintf("File extension %q is not allowed for %s files (allowed: %s)", ext, strings.ToLower(string(ft)), strings.Join(classify.AllowedExtensions(ft), ", ")), nil)
	}
	if limit := classify.SizeLimit(ft); int64(len(in.Data)) > limit {
		return "", validationErr(opUpload, "File too large: %d bytes exceeds the %d MiB limit for %s files", len(in.Data), limit/classify.MiB, strings.ToLower(string(ft)))
	}
	if s.cfg.VerifySignature && !classify.VerifySignature(in.Data, in.MimeType) {
		return "", newErr(KindUnsupportedFileType, opUpload, "File content does not match its declared type", nil)
	}
	return ft, nil
}

// render produces the files to store: every rendition of an image, or the
// untouched original of anything else.
func (s *service) render(ctx context.Context, ft domain.FileType, data []byte, sanitized, basePath string, now time.Time) ([]staged, error) {
	if ft != domain.FileImage {
		name := naming.VersionFileName(sanitized, domain.VersionOriginal, false)
		return []staged{{
			version: domain.AssetVersion{
				ID:          uuid.New(),
				VersionType: domain.VersionOriginal,
				FileName:    name,
				FilePath:    pathscheme.ObjectKey(basePath, name),
				FileSize:    int64(len(data)),
				IsProcessed: true,
				CreatedAt:   now,
			},
			data: data,
		}}, nil
	}

	renditions, err := s.engine.Derive(ctx, data, sanitized)
	if err != nil {
		if errors.Is(err, derive.ErrDecode) {
			return nil, newErr(KindStorage, opUpload, "image could not be decoded", err)
		}
		return nil, storageErr(opUpload, err)
	}
	out := make([]staged, 0, len(renditions))
	for i, r := range renditions {
		w, h := r.Width, r.Height
		out = append(out, staged{
			version: domain.AssetVersion{
				ID:          uuid.New(),
				VersionType: r.Kind,
				Position:    i,
				FileName:    r.FileName,
				FilePath:    pathscheme.ObjectKey(basePath, r.FileName),
				FileSize:    r.Size(),
				Width:       &w,
				Height:      &h,
				IsProcessed: true,
				CreatedAt:   now,
			},
			data: r.Data,
		})
	}
	return out, nil
}

func (s *service) stage(ctx context.Context, files []staged) error {
	for _, f := range files {
		if err := s.store.Put(ctx, f.version.FilePath, bytes.NewReader(f.data), int64(len(f.data)), ""); err != nil {
			return fmt.Errorf("stage %s: %w", f.version.FilePath, err)
		}
	}
	return nil
}

// cleanup removes everything staged under basePath. It never fails the
// caller's path on its own; the error is returned so the caller can report
// the orphaned files.
func (s *service) cleanup(ctx context.Context, basePath string, log *logger.Logger) error {
	// the request context may already be cancelled; cleanup must still run.
	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cleanupTimeout)
	defer cancel()
	if err := s.store.DeletePrefix(cctx, basePath); err != nil {
		log.Warn("staged file cleanup failed", "base_path", basePath, "error", err)
		return err
	}
	return nil
}
