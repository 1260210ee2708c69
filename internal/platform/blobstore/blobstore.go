// Package blobstore is the file capability asset bytes are written through.
// Drivers: local filesystem (here), GCS, MinIO and S3 (sibling packages).
package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/yungbote/assets-backend/internal/observability"
)

var (
	ErrNotFound   = errors.New("blobstore: object not found")
	ErrInvalidKey = errors.New("blobstore: invalid key")
)

type Store interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	DeletePrefix(ctx context.Context, prefix string) error
	Exists(ctx context.Context, key string) (bool, error)
	Driver() string
}

type Mode string

const (
	ModeLocal       Mode = "local"
	ModeGCS         Mode = "gcs"
	ModeGCSEmulator Mode = "gcs_emulator"
	ModeMinIO       Mode = "minio"
	ModeS3          Mode = "s3"
)

func ParseMode(raw string) (Mode, bool) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(raw))); m {
	case "":
		return ModeLocal, true
	case ModeLocal, ModeGCS, ModeGCSEmulator, ModeMinIO, ModeS3:
		return m, true
	default:
		return m, false
	}
}

// CleanKey validates a relative, slash-separated object key.
func CleanKey(key string) (string, error) {
	k := strings.TrimSpace(key)
	if k == "" || strings.HasPrefix(k, "/") || strings.Contains(k, `\`) {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	for _, seg := range strings.Split(k, "/") {
		if seg == ".." {
			return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
		}
	}
	c := path.Clean(k)
	if c == "." {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return c, nil
}

// ContentTypeForKey guesses a content type from the key's extension.
func ContentTypeForKey(key string) string {
	s := strings.ToLower(strings.TrimSpace(key))
	if i := strings.Index(s, "?"); i >= 0 {
		s = s[:i]
	}
	switch path.Ext(s) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	case ".pdf":
		return "application/pdf"
	case ".doc":
		return "application/msword"
	case ".docx":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case ".txt":
		return "text/plain"
	case ".xls":
		return "application/vnd.ms-excel"
	case ".xlsx":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case ".csv":
		return "text/csv"
	default:
		return "application/octet-stream"
	}
}

// ReadCloserWithCancel ties a context's cancel to the reader's Close so a
// streaming read is not cut short by a deferred cancel.
type ReadCloserWithCancel struct {
	io.ReadCloser
	Cancel context.CancelFunc
}

func (r *ReadCloserWithCancel) Close() error {
	err := r.ReadCloser.Close()
	if r.Cancel != nil {
		r.Cancel()
	}
	return err
}

type instrumented struct {
	inner   Store
	metrics *observability.Metrics
}

// Instrument counts every operation of s by driver, op and outcome.
func Instrument(s Store, m *observability.Metrics) Store {
	if s == nil || m == nil {
		return s
	}
	return &instrumented{inner: s, metrics: m}
}

func (s *instrumented) observe(op string, err error) {
	status := "ok"
	switch {
	case errors.Is(err, ErrNotFound):
		status = "not_found"
	case err != nil:
		status = "error"
	}
	s.metrics.IncBlobOp(s.inner.Driver(), op, status)
}

func (s *instrumented) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	err := s.inner.Put(ctx, key, r, size, contentType)
	s.observe("put", err)
	return err
}

func (s *instrumented) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	rc, err := s.inner.Get(ctx, key)
	s.observe("get", err)
	return rc, err
}

func (s *instrumented) Delete(ctx context.Context, key string) error {
	err := s.inner.Delete(ctx, key)
	s.observe("delete", err)
	return err
}

func (s *instrumented) DeletePrefix(ctx context.Context, prefix string) error {
	err := s.inner.DeletePrefix(ctx, prefix)
	s.observe("delete_prefix", err)
	return err
}

func (s *instrumented) Exists(ctx context.Context, key string) (bool, error) {
	ok, err := s.inner.Exists(ctx, key)
	s.observe("exists", err)
	return ok, err
}

func (s *instrumented) Driver() string { return s.inner.Driver() }

// WithTimeout derives an operation context, defaulting a nil parent.
func WithTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, d)
}
