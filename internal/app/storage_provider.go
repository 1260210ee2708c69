package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/yungbote/assets-backend/internal/observability"
	"github.com/yungbote/assets-backend/internal/platform/blobstore"
	"github.com/yungbote/assets-backend/internal/platform/gcp"
	"github.com/yungbote/assets-backend/internal/platform/logger"
	"github.com/yungbote/assets-backend/internal/platform/miniox"
	"github.com/yungbote/assets-backend/internal/platform/s3x"
)

var (
	newLocalStore = func(root string) (blobstore.Store, error) {
		s, err := blobstore.NewLocal(root)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
	newGCSStore = func(ctx context.Context, log *logger.Logger, cfg gcp.ObjectStorageConfig) (blobstore.Store, error) {
		s, err := gcp.NewBucketStore(ctx, log, cfg)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
	newMinIOStore = func(ctx context.Context, log *logger.Logger, cfg miniox.Config) (blobstore.Store, error) {
		s, err := miniox.New(ctx, log, cfg)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
	newS3Store = func(ctx context.Context, log *logger.Logger, cfg s3x.Config) (blobstore.Store, error) {
		s, err := s3x.New(ctx, log, cfg)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
)

type StorageProviderBootstrapErrorCode string

const (
	StorageProviderBootstrapErrorInvalidMode   StorageProviderBootstrapErrorCode = "invalid_mode"
	StorageProviderBootstrapErrorMissingConfig StorageProviderBootstrapErrorCode = "missing_config"
	StorageProviderBootstrapErrorInvalidConfig StorageProviderBootstrapErrorCode = "invalid_config"
	StorageProviderBootstrapErrorConnectFailed StorageProviderBootstrapErrorCode = "connect_failed"
)

type StorageProviderBootstrapError struct {
	Code  StorageProviderBootstrapErrorCode
	Mode  string
	Cause error
}

func (e *StorageProviderBootstrapError) Error() string {
	if e == nil {
		return "object storage bootstrap failed"
	}
	return fmt.Sprintf("object storage bootstrap failed (code=%s mode=%q): %v", e.Code, e.Mode, e.Cause)
}

func (e *StorageProviderBootstrapError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// resolveBlobStore picks the driver named by OBJECT_STORAGE_MODE. The
// returned store is instrumented when metrics are enabled.
func resolveBlobStore(ctx context.Context, log *logger.Logger, cfg Config, metrics *observability.Metrics) (blobstore.Store, error) {
	mode, ok := blobstore.ParseMode(cfg.ObjectStorageMode)
	if !ok {
		err := &StorageProviderBootstrapError{
			Code:  StorageProviderBootstrapErrorInvalidMode,
			Mode:  string(mode),
			Cause: fmt.Errorf("unsupported object storage mode %q", cfg.ObjectStorageMode),
		}
		log.Error("Object storage provider selection failed", "mode", mode, "error_code", err.Code, "error", err)
		return nil, err
	}

	log.Info("Selecting object storage provider", "mode", mode)

	store, err := openBlobStore(ctx, log, mode, cfg)
	if err != nil {
		classified := classifyStorageProviderBootstrapError(mode, err)
		log.Error(
			"Object storage provider bootstrap failed",
			"mode", mode,
			"error_code", storageProviderBootstrapErrorCode(classified),
			"error", classified,
		)
		return nil, classified
	}
	return blobstore.Instrument(store, metrics), nil
}

// errMissingConfig marks a provider whose required settings are blank.
var errMissingConfig = errors.New("missing object storage configuration")

func openBlobStore(ctx context.Context, log *logger.Logger, mode blobstore.Mode, cfg Config) (blobstore.Store, error) {
	switch mode {
	case blobstore.ModeLocal:
		return newLocalStore(filepath.Clean(cfg.StorageRoot))
	case blobstore.ModeGCS, blobstore.ModeGCSEmulator:
		return newGCSStore(ctx, log, gcp.ObjectStorageConfig{
			Mode:         gcp.ObjectStorageMode(mode),
			Bucket:       strings.TrimSpace(cfg.GCSBucket),
			EmulatorHost: strings.TrimSpace(cfg.StorageEmulatorHost),
			Credentials:  cfg.GCSCredentials,
		})
	case blobstore.ModeMinIO:
		mc := miniox.Config{
			Endpoint:  cfg.MinIOEndpoint,
			AccessKey: cfg.MinIOAccessKey,
			SecretKey: cfg.MinIOSecretKey,
			Bucket:    cfg.MinIOBucket,
			Region:    cfg.MinIORegion,
			UseSSL:    cfg.MinIOUseSSL,
		}
		if err := mc.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %v", errMissingConfig, err)
		}
		return newMinIOStore(ctx, log, mc)
	case blobstore.ModeS3:
		if strings.TrimSpace(cfg.S3Bucket) == "" {
			return nil, fmt.Errorf("%w: S3_BUCKET", errMissingConfig)
		}
		return newS3Store(ctx, log, s3x.Config{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
		})
	default:
		return nil, &gcp.ObjectStorageConfigError{Code: gcp.ObjectStorageConfigErrorInvalidMode, Mode: string(mode)}
	}
}

func classifyStorageProviderBootstrapError(mode blobstore.Mode, err error) error {
	code := StorageProviderBootstrapErrorConnectFailed

	var cfgErr *gcp.ObjectStorageConfigError
	switch {
	case errors.As(err, &cfgErr):
		switch cfgErr.Code {
		case gcp.ObjectStorageConfigErrorInvalidMode:
			code = StorageProviderBootstrapErrorInvalidMode
		case gcp.ObjectStorageConfigErrorMissingBucket, gcp.ObjectStorageConfigErrorMissingEmulatorHost:
			code = StorageProviderBootstrapErrorMissingConfig
		case gcp.ObjectStorageConfigErrorInvalidEmulatorHost:
			code = StorageProviderBootstrapErrorInvalidConfig
		}
	case errors.Is(err, errMissingConfig):
		code = StorageProviderBootstrapErrorMissingConfig
	}

	return &StorageProviderBootstrapError{
		Code:  code,
		Mode:  string(mode),
		Cause: err,
	}
}

func storageProviderBootstrapErrorCode(err error) StorageProviderBootstrapErrorCode {
	var bootstrapErr *StorageProviderBootstrapError
	if errors.As(err, &bootstrapErr) {
		if bootstrapErr.Code != "" {
			return bootstrapErr.Code
		}
	}
	return StorageProviderBootstrapErrorConnectFailed
}
