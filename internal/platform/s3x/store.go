// Package s3x is the AWS S3 blobstore driver.
package s3x

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/yungbote/assets-backend/internal/platform/blobstore"
	"github.com/yungbote/assets-backend/internal/platform/logger"
)

type Config struct {
	Bucket string
	Region string
	// Endpoint targets an S3-compatible service; path-style addressing is
	// used when it is set.
	Endpoint  string
	AccessKey string
	SecretKey string
}

// API is the subset of the S3 client the store calls.
type API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	HeadObject(ctx context.Context, in *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

type Store struct {
	log    *logger.Logger
	api    API
	bucket string
}

var _ blobstore.Store = (*Store)(nil)

func New(ctx context.Context, log *logger.Logger, cfg Config) (*Store, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, fmt.Errorf("s3 config missing S3_BUCKET")
	}
	opts := []func(*config.LoadOptions) error{}
	if r := strings.TrimSpace(cfg.Region); r != "" {
		opts = append(opts, config.WithRegion(r))
	}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if ep := strings.TrimSpace(cfg.Endpoint); ep != "" {
			o.BaseEndpoint = aws.String(ep)
			o.UsePathStyle = true
		}
	})
	storeLog := log.With("service", "S3Store")
	storeLog.Info("Object storage initialized", "mode", blobstore.ModeS3, "bucket", cfg.Bucket, "region", cfg.Region, "endpoint", cfg.Endpoint)
	return NewWithAPI(storeLog, client, cfg.Bucket), nil
}

// NewWithAPI builds a store over an existing client.
func NewWithAPI(log *logger.Logger, api API, bucket string) *Store {
	return &Store{log: log, api: api, bucket: bucket}
}

func (s *Store) Driver() string { return string(blobstore.ModeS3) }

func (s *Store) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	k, err := blobstore.CleanKey(key)
	if err != nil {
		return err
	}
	if contentType == "" {
		contentType = blobstore.ContentTypeForKey(k)
	}
	in := &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(k),
		Body:        r,
		ContentType: aws.String(contentType),
	}
	if size > 0 {
		in.ContentLength = aws.Int64(size)
	}
	ctx, cancel := blobstore.WithTimeout(ctx, 2*time.Minute)
	defer cancel()
	if _, err := s.api.PutObject(ctx, in); err != nil {
		return fmt.Errorf("s3 put %s: %w", k, err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	k, err := blobstore.CleanKey(key)
	if err != nil {
		return nil, err
	}
	ctx2, cancel := blobstore.WithTimeout(ctx, 2*time.Minute)
	out, err := s.api.GetObject(ctx2, &s3.GetObjectInput{Bucket: aws.String(s.bucket), Key: aws.String(k)})
	if err != nil {
		cancel()
		if isNotFound(err) {
			return nil, blobstore.ErrNotFound
		}
		return nil, fmt.Errorf("s3 get %s: %w", k, err)
	}
	return &blobstore.ReadCloserWithCancel{ReadCloser: out.Body, Cancel: cancel}, nil
}

// Delete is idempotent; S3 itself does not report missing keys.
func (s *Store) Delete(ctx context.Context, key string) error {
	k, err := blobstore.CleanKey(key)
	if err != nil {
		return err
	}
	ctx, cancel := blobstore.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if _, err := s.api.DeleteObject(ctx, &s3.DeleteObjectInput{Bucket: aws.String(s.bucket), Key: aws.String(k)}); err != nil && !isNotFound(err) {
		return fmt.Errorf("s3 delete %s: %w", k, err)
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

	pager := s3.NewListObjectsV2Paginator(s.api, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(p + "/"),
	})
	var errs []error
	for pager.HasMorePages() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return fmt.Errorf("s3 list %s: %w", p, err)
		}
		for _, obj := range page.Contents {
			if err := s.Delete(ctx, aws.ToString(obj.Key)); err != nil {
				errs = append(errs, err)
			}
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
	_, err = s.api.HeadObject(ctx, &s3.HeadObjectInput{Bucket: aws.String(s.bucket), Key: aws.String(k)})
	if err == nil {
		return true, nil
	}
	if isNotFound(err) {
		return false, nil
	}
	return false, fmt.Errorf("s3 head %s: %w", k, err)
}

func isNotFound(err error) bool {
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var nf *types.NotFound
	if errors.As(err, &nf) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return true
		}
	}
	return false
}
