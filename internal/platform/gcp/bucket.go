package gcp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/yungbote/assets-backend/internal/platform/blobstore"
	"github.com/yungbote/assets-backend/internal/platform/logger"
)

// BucketStore keeps asset objects in one GCS bucket (or a fake-gcs emulator).
type BucketStore struct {
	log          *logger.Logger
	client       *storage.Client
	bucket       string
	mode         ObjectStorageMode
	emulatorHost string
	httpClient   *http.Client
}

var _ blobstore.Store = (*BucketStore)(nil)

func NewBucketStore(ctx context.Context, log *logger.Logger, cfg ObjectStorageConfig) (*BucketStore, error) {
	if err := ValidateObjectStorageConfig(cfg); err != nil {
		return nil, fmt.Errorf("validate gcs config: %w", err)
	}
	client, err := newStorageClientForMode(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	storeLog := log.With("service", "BucketStore")
	storeLog.Info("Object storage initialized",
		"mode", cfg.Mode,
		"bucket", cfg.Bucket,
		"emulator_host", cfg.EmulatorHost,
	)
	return &BucketStore{
		log:          storeLog,
		client:       client,
		bucket:       strings.TrimSpace(cfg.Bucket),
		mode:         cfg.Mode,
		emulatorHost: strings.TrimRight(strings.TrimSpace(cfg.EmulatorHost), "/"),
		httpClient:   &http.Client{Timeout: 2 * time.Minute},
	}, nil
}

func newStorageClientForMode(ctx context.Context, cfg ObjectStorageConfig) (*storage.Client, error) {
	switch cfg.Mode {
	case ObjectStorageModeGCS:
		opts := ClientOptions(cfg.Credentials)
		opts = append(opts, option.WithScopes(storage.ScopeReadWrite))
		return storage.NewClient(ctx, opts...)
	case ObjectStorageModeGCSEmulator:
		// The client library only honours the emulator through the environment.
		_ = os.Setenv("STORAGE_EMULATOR_HOST", strings.TrimRight(strings.TrimSpace(cfg.EmulatorHost), "/"))
		return storage.NewClient(ctx, option.WithoutAuthentication())
	default:
		return nil, &ObjectStorageConfigError{Code: ObjectStorageConfigErrorInvalidMode, Mode: string(cfg.Mode)}
	}
}

func (bs *BucketStore) Driver() string { return string(bs.mode) }

func (bs *BucketStore) Close() error {
	if bs == nil || bs.client == nil {
		return nil
	}
	return bs.client.Close()
}

func (bs *BucketStore) object(key string) (*storage.ObjectHandle, string, error) {
	k, err := blobstore.CleanKey(key)
	if err != nil {
		return nil, "", err
	}
	return bs.client.Bucket(bs.bucket).Object(k), k, nil
}

func (bs *BucketStore) Put(ctx context.Context, key string, r io.Reader, _ int64, contentType string) error {
	o, k, err := bs.object(key)
	if err != nil {
		return err
	}
	ctx, cancel := blobstore.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := o.NewWriter(ctx)
	if contentType == "" {
		contentType = blobstore.ContentTypeForKey(k)
	}
	w.ContentType = contentType
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return fmt.Errorf("failed to write data to GCS: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to close GCS writer: %w", err)
	}
	return nil
}

func (bs *BucketStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	o, k, err := bs.object(key)
	if err != nil {
		return nil, err
	}
	ctx2, cancel := blobstore.WithTimeout(ctx, 2*time.Minute)
	if bs.mode == ObjectStorageModeGCSEmulator && bs.emulatorHost != "" {
		req, err := http.NewRequestWithContext(ctx2, http.MethodGet, bs.emulatorObjectMediaURL(k), nil)
		if err != nil {
			cancel()
			return nil, fmt.Errorf("failed creating emulator download request: %w", err)
		}
		resp, err := bs.httpClient.Do(req)
		if err != nil {
			cancel()
			return nil, fmt.Errorf("failed emulator download request: %w", err)
		}
		if resp.StatusCode == http.StatusNotFound {
			_ = resp.Body.Close()
			cancel()
			return nil, blobstore.ErrNotFound
		}
		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
			_ = resp.Body.Close()
			cancel()
			return nil, fmt.Errorf("emulator download failed: status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(body)))
		}
		return &blobstore.ReadCloserWithCancel{ReadCloser: resp.Body, Cancel: cancel}, nil
	}

	rd, err := o.NewReader(ctx2)
	if errors.Is(err, storage.ErrObjectNotExist) {
		cancel()
		return nil, blobstore.ErrNotFound
	}
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to open GCS reader: %w", err)
	}
	return &blobstore.ReadCloserWithCancel{ReadCloser: rd, Cancel: cancel}, nil
}

func (bs *BucketStore) Delete(ctx context.Context, key string) error {
	o, k, err := bs.object(key)
	if err != nil {
		return err
	}
	ctx, cancel := blobstore.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := o.Delete(ctx); err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("failed to delete GCS object %q in bucket %q: %w", k, bs.bucket, err)
	}
	return nil
}

func (bs *BucketStore) ListKeys(ctx context.Context, prefix string) ([]string, error) {
	ctx, cancel := blobstore.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	it := bs.client.Bucket(bs.bucket).Objects(ctx, &storage.Query{Prefix: prefix})
	out := []string{}
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, err
		}
		out = append(out, attrs.Name)
	}
	return out, nil
}

func (bs *BucketStore) DeletePrefix(ctx context.Context, prefix string) error {
	p, err := blobstore.CleanKey(prefix)
	if err != nil {
		return err
	}
	keys, err := bs.ListKeys(ctx, p+"/")
	if err != nil {
		return err
	}
	var errs []error
	for _, k := range keys {
		if err := bs.Delete(ctx, k); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (bs *BucketStore) Exists(ctx context.Context, key string) (bool, error) {
	o, _, err := bs.object(key)
	if err != nil {
		return false, err
	}
	ctx, cancel := blobstore.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	_, err = o.Attrs(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to fetch GCS object attrs: %w", err)
	}
	return true, nil
}

func (bs *BucketStore) emulatorObjectMediaURL(key string) string {
	return fmt.Sprintf(
		"%s/storage/v1/b/%s/o/%s?alt=media",
		bs.emulatorHost,
		url.PathEscape(bs.bucket),
		url.PathEscape(key),
	)
}
