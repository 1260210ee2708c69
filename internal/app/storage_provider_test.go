package app

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/yungbote/assets-backend/internal/platform/blobstore"
	"github.com/yungbote/assets-backend/internal/platform/gcp"
	"github.com/yungbote/assets-backend/internal/platform/logger"
	"github.com/yungbote/assets-backend/internal/platform/miniox"
	"github.com/yungbote/assets-backend/internal/platform/s3x"
)

type stubStore struct{ driver string }

func (s *stubStore) Put(context.Context, string, io.Reader, int64, string) error { return nil }
func (s *stubStore) Get(context.Context, string) (io.ReadCloser, error)          { return nil, blobstore.ErrNotFound }
func (s *stubStore) Delete(context.Context, string) error                        { return nil }
func (s *stubStore) DeletePrefix(context.Context, string) error                  { return nil }
func (s *stubStore) Exists(context.Context, string) (bool, error)                { return false, nil }
func (s *stubStore) Driver() string                                              { return s.driver }

func TestClassifyStorageProviderBootstrapError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want StorageProviderBootstrapErrorCode
	}{
		{
			name: "invalid mode",
			err:  &gcp.ObjectStorageConfigError{Code: gcp.ObjectStorageConfigErrorInvalidMode, Mode: "bad-mode"},
			want: StorageProviderBootstrapErrorInvalidMode,
		},
		{
			name: "missing emulator host",
			err:  &gcp.ObjectStorageConfigError{Code: gcp.ObjectStorageConfigErrorMissingEmulatorHost},
			want: StorageProviderBootstrapErrorMissingConfig,
		},
		{
			name: "missing bucket",
			err:  &gcp.ObjectStorageConfigError{Code: gcp.ObjectStorageConfigErrorMissingBucket},
			want: StorageProviderBootstrapErrorMissingConfig,
		},
		{
			name: "invalid emulator host",
			err:  &gcp.ObjectStorageConfigError{Code: gcp.ObjectStorageConfigErrorInvalidEmulatorHost, EmulatorHost: "fake-gcs:4443"},
			want: StorageProviderBootstrapErrorInvalidConfig,
		},
		{
			name: "missing minio settings",
			err:  errors.Join(errMissingConfig, errors.New("MINIO_ENDPOINT")),
			want: StorageProviderBootstrapErrorMissingConfig,
		},
		{
			name: "connect failed",
			err:  errors.New("dial tcp: connection refused"),
			want: StorageProviderBootstrapErrorConnectFailed,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := classifyStorageProviderBootstrapError(blobstore.ModeGCS, tc.err)
			var got *StorageProviderBootstrapError
			if !errors.As(err, &got) {
				t.Fatalf("expected StorageProviderBootstrapError, got=%T", err)
			}
			if got.Code != tc.want {
				t.Fatalf("code: want=%q got=%q", tc.want, got.Code)
			}
			if !errors.Is(err, tc.err) {
				t.Fatalf("cause must stay reachable through Unwrap")
			}
		})
	}
}

func TestResolveBlobStoreInvalidMode(t *testing.T) {
	_, err := resolveBlobStore(context.Background(), logger.Nop(), Config{ObjectStorageMode: "ftp"}, nil)
	if got := storageProviderBootstrapErrorCode(err); got != StorageProviderBootstrapErrorInvalidMode {
		t.Fatalf("code: want=%q got=%q (err=%v)", StorageProviderBootstrapErrorInvalidMode, got, err)
	}
}

func TestResolveBlobStoreLocal(t *testing.T) {
	root := t.TempDir()
	store, err := resolveBlobStore(context.Background(), logger.Nop(), Config{ObjectStorageMode: "", StorageRoot: root}, nil)
	if err != nil {
		t.Fatalf("resolveBlobStore: %v", err)
	}
	if store.Driver() != string(blobstore.ModeLocal) {
		t.Fatalf("driver: want=%q got=%q", blobstore.ModeLocal, store.Driver())
	}
}

func TestResolveBlobStoreGCSEmulatorMode(t *testing.T) {
	orig := newGCSStore
	t.Cleanup(func() { newGCSStore = orig })

	var captured gcp.ObjectStorageConfig
	newGCSStore = func(_ context.Context, _ *logger.Logger, cfg gcp.ObjectStorageConfig) (blobstore.Store, error) {
		captured = cfg
		return &stubStore{driver: "gcs"}, nil
	}

	_, err := resolveBlobStore(context.Background(), logger.Nop(), Config{
		ObjectStorageMode:   "gcs_emulator",
		GCSBucket:           "assets",
		StorageEmulatorHost: "http://fake-gcs:4443",
	}, nil)
	if err != nil {
		t.Fatalf("resolveBlobStore: %v", err)
	}
	if captured.Mode != gcp.ObjectStorageModeGCSEmulator {
		t.Fatalf("mode: want=%q got=%q", gcp.ObjectStorageModeGCSEmulator, captured.Mode)
	}
	if captured.EmulatorHost != "http://fake-gcs:4443" || captured.Bucket != "assets" {
		t.Fatalf("config: got=%+v", captured)
	}
}

func TestResolveBlobStoreGCSMissingEmulatorHost(t *testing.T) {
	_, err := resolveBlobStore(context.Background(), logger.Nop(), Config{
		ObjectStorageMode: "gcs_emulator",
		GCSBucket:         "assets",
	}, nil)
	if got := storageProviderBootstrapErrorCode(err); got != StorageProviderBootstrapErrorMissingConfig {
		t.Fatalf("code: want=%q got=%q (err=%v)", StorageProviderBootstrapErrorMissingConfig, got, err)
	}
}

func TestResolveBlobStoreMinIO(t *testing.T) {
	orig := newMinIOStore
	t.Cleanup(func() { newMinIOStore = orig })

	called := false
	newMinIOStore = func(_ context.Context, _ *logger.Logger, cfg miniox.Config) (blobstore.Store, error) {
		called = true
		if cfg.Bucket != "assets" || !cfg.UseSSL {
			t.Fatalf("minio config: got=%+v", cfg)
		}
		return &stubStore{driver: "minio"}, nil
	}

	_, err := resolveBlobStore(context.Background(), logger.Nop(), Config{ObjectStorageMode: "minio"}, nil)
	if got := storageProviderBootstrapErrorCode(err); got != StorageProviderBootstrapErrorMissingConfig {
		t.Fatalf("code: want=%q got=%q", StorageProviderBootstrapErrorMissingConfig, got)
	}
	if called {
		t.Fatalf("driver must not be dialled with missing settings")
	}

	_, err = resolveBlobStore(context.Background(), logger.Nop(), Config{
		ObjectStorageMode: "minio",
		MinIOEndpoint:     "minio:9000",
		MinIOAccessKey:    "ak",
		MinIOSecretKey:    "sk",
		MinIOBucket:       "assets",
		MinIOUseSSL:       true,
	}, nil)
	if err != nil || !called {
		t.Fatalf("resolveBlobStore: err=%v called=%v", err, called)
	}
}

func TestResolveBlobStoreS3ConnectFailure(t *testing.T) {
	orig := newS3Store
	t.Cleanup(func() { newS3Store = orig })

	newS3Store = func(context.Context, *logger.Logger, s3x.Config) (blobstore.Store, error) {
		return nil, errors.New("no credentials")
	}
	_, err := resolveBlobStore(context.Background(), logger.Nop(), Config{ObjectStorageMode: "s3", S3Bucket: "assets"}, nil)
	if got := storageProviderBootstrapErrorCode(err); got != StorageProviderBootstrapErrorConnectFailed {
		t.Fatalf("code: want=%q got=%q", StorageProviderBootstrapErrorConnectFailed, got)
	}
}
