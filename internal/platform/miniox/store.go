// Package miniox is the MinIO (S3-compatible) blobstore driver.
package miniox

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/yungbote/assets-backend/internal/platform/blobstore"
	"github.com/yungbote/assets-backend/internal/platform/logger"
)

type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
}

func (c Config) Validate() error {
	var missing []string
	if strings.TrimSpace(c.Endpoint) == "" {
		missing = append(missing, "MINIO_ENDPOINT")
	}
	if strings.TrimSpace(c.AccessKey) == "" {
		missing = append(missing, "MINIO_ACCESS_KEY")
	}
	if strings.TrimSpace(c.SecretKey) == "" {
		missing = append(missing, "MINIO_SECRET_KEY")
	}
	if strings.TrimSpace(c.Bucket) == "" {
		missing = append(missing, "MINIO_BUCKET")
	}
	if len(missing) > 0 {
		return fmt.Errorf("minio config missing %s", strings.Join(missing, ", "))
	}
	return nil
}

type Store struct {
	log    *logger.Logger
	client *minio.Client
	bucket string
}

var _ blobstore.Store = (*Store)(nil)

// New connects and creates the bucket when it does not exist yet.
func New(ctx context.Context, log *logger.Logger, cfg Config) (*Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{Region: cfg.Region}); err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	storeLog := log.With("service", "MinioStore")
	storeLog.Info("Object storage initialized", "mode", blobstore.ModeMinIO, "endpoint", cfg.Endpoint, "bucket", cfg.Bucket, "created", !exists)
	return &Store{log: storeLog, client: client, bucket: cfg.Bucket}, nil
}

func (s *Store) Driver() string { return string(blobstore.ModeMinIO) }

func (s *Store) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	k, err := blobstore.CleanKey(key)
	if err != nil {
		return err
	}
	if contentType == "" {
		contentType = blobstore.ContentTypeForKey(k)
	}
	if size <= 0 {
		size = -1
	}
	ctx, cancel := blobstore.WithTimeout(ctx, 2*time.Minute)
	defer cancel()
	if _, err := s.client.PutObject(ctx, s.bucket, k, r, size, minio.PutObjectOptions{ContentType: contentType}); err != nil {
		return fmt.Errorf("minio put %s: %w", k, err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	k, err := blobstore.CleanKey(key)
	if err != nil {
		return nil, err
	}
	ctx2, cancel := blobstore.WithTimeout(ctx, 2*time.Minute)
	obj, err := s.client.GetObject(ctx2, s.bucket, k, minio.GetObjectOptions{})
	if err != nil {
		cancel()
		return nil, mapErr(k, err)
	}
	// GetObject is lazy; Stat surfaces a missing key before the first read.
	if _, err := obj.Stat(); err != nil {
		_ = obj.Close()
		cancel()
		return nil, mapErr(k, err)
	}
	return &blobstore.ReadCloserWithCancel{ReadCloser: obj, Cancel: cancel}, nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	k, err := blobstore.CleanKey(key)
	if err != nil {
		return err
	}
	ctx, cancel := blobstore.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := s.client.RemoveObject(ctx, s.bucket, k, minio.RemoveObjectOptions{}); err != nil {
		if errors.Is(mapErr(k, err), blobstore.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("minio delete %s: %w", k, err)
	}
	return nil
}

func (s *Store) DeletePrefix(ctx context.Context, prefix string) error {
	p, err := blobstore.CleanKey(prefix)
	if err != nil {
		return err
	}
	ctx, cancel := blobstore.WithTimeout(ctx, time.Minute)
	defer cancel()
	var errs []error
	for info := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Prefix: p + "/", Recursive: true}) {
		if info.Err != nil {
			errs = append(errs, info.Err)
			break
		}
		if err := s.client.RemoveObject(ctx, s.bucket, info.Key, minio.RemoveObjectOptions{}); err != nil {
			errs = append(errs, fmt.Errorf("minio delete %s: %w", info.Key, err))
		}
	}
	return errors.Join(errs...)
}

func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	k, err := blobstore.CleanKey(key)
	if err != nil {
		return false, err
	}
	ctx, cancel := blobstore.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	_, err = s.client.StatObject(ctx, s.bucket, k, minio.StatObjectOptions{})
	if err == nil {
		return true, nil
	}
	if errors.Is(mapErr(k, err), blobstore.ErrNotFound) {
		return false, nil
	}
	return false, fmt.Errorf("minio stat %s: %w", k, err)
}

func mapErr(key string, err error) error {
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NoSuchObject":
		return blobstore.ErrNotFound
	}
	return fmt.Errorf("minio %s: %w", key, err)
}
