package blobstore

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/yungbote/assets-backend/internal/observability"
)

func TestLocalPutGetDelete(t *testing.T) {
	ctx := context.Background()
	store, err := NewLocal(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocal: %v", err)
	}

	key := "upload/images/2024/01/02/abc/beach-original.jpg"
	if err := store.Put(ctx, key, bytes.NewReader([]byte("jpeg-bytes")), 10, "image/jpeg"); err != nil {
		t.Fatalf("Put: %v", err)
	}
	ok, err := store.Exists(ctx, key)
	if err != nil || !ok {
		t.Fatalf("Exists: want=true got=%v err=%v", ok, err)
	}
	rc, err := store.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	body, _ := io.ReadAll(rc)
	_ = rc.Close()
	if string(body) != "jpeg-bytes" {
		t.Fatalf("Get body: got=%q", body)
	}

	entries, _ := os.ReadDir(filepath.Join(store.Root(), "upload/images/2024/01/02/abc"))
	if len(entries) != 1 {
		t.Fatalf("temp files left behind: %v", entries)
	}

	if err := store.Delete(ctx, key); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := store.Delete(ctx, key); err != nil {
		t.Fatalf("second Delete: want nil got=%v", err)
	}
	if _, err := store.Get(ctx, key); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get after delete: want ErrNotFound got=%v", err)
	}
}

func TestLocalDeletePrefix(t *testing.T) {
	ctx := context.Background()
	store, err := NewLocal(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocal: %v", err)
	}
	for _, k := range []string{"upload/docs/a/one.pdf", "upload/docs/a/two.pdf", "upload/docs/b/keep.pdf"} {
		if err := store.Put(ctx, k, bytes.NewReader([]byte(k)), -1, ""); err != nil {
			t.Fatalf("Put %s: %v", k, err)
		}
	}
	if err := store.DeletePrefix(ctx, "upload/docs/a"); err != nil {
		t.Fatalf("DeletePrefix: %v", err)
	}
	if ok, _ := store.Exists(ctx, "upload/docs/a/one.pdf"); ok {
		t.Fatalf("one.pdf should be gone")
	}
	if ok, _ := store.Exists(ctx, "upload/docs/b/keep.pdf"); !ok {
		t.Fatalf("keep.pdf should survive")
	}
}

func TestLocalRejectsTraversal(t *testing.T) {
	ctx := context.Background()
	store, err := NewLocal(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocal: %v", err)
	}
	for _, k := range []string{"../escape.txt", "/etc/passwd", "a/../../b", "", `a\b`} {
		if err := store.Put(ctx, k, bytes.NewReader(nil), 0, ""); !errors.Is(err, ErrInvalidKey) {
			t.Fatalf("Put(%q): want ErrInvalidKey got=%v", k, err)
		}
	}
	if err := store.DeletePrefix(ctx, "."); !errors.Is(err, ErrInvalidKey) {
		t.Fatalf("DeletePrefix(root): want ErrInvalidKey got=%v", err)
	}
}

func TestParseMode(t *testing.T) {
	if m, ok := ParseMode(""); !ok || m != ModeLocal {
		t.Fatalf("ParseMode empty: got=%q ok=%v", m, ok)
	}
	if m, ok := ParseMode(" MinIO "); !ok || m != ModeMinIO {
		t.Fatalf("ParseMode minio: got=%q ok=%v", m, ok)
	}
	if _, ok := ParseMode("ftp"); ok {
		t.Fatalf("ParseMode ftp: want unsupported")
	}
}

func TestContentTypeForKey(t *testing.T) {
	if got := ContentTypeForKey("a/b-thumbnail.JPG"); got != "image/jpeg" {
		t.Fatalf("jpg: got=%q", got)
	}
	if got := ContentTypeForKey("x.csv"); got != "text/csv" {
		t.Fatalf("csv: got=%q", got)
	}
	if got := ContentTypeForKey("x.bin"); got != "application/octet-stream" {
		t.Fatalf("fallback: got=%q", got)
	}
}

func TestInstrumentCountsOps(t *testing.T) {
	ctx := context.Background()
	local, err := NewLocal(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocal: %v", err)
	}
	m := observability.NewMetrics(prometheus.NewRegistry())
	store := Instrument(local, m)

	_ = store.Put(ctx, "k/one.txt", bytes.NewReader([]byte("1")), 1, "text/plain")
	_, _ = store.Get(ctx, "k/missing.txt")

	want := `
# HELP assets_blob_operations_total Blob store calls by driver/op/status.
# TYPE assets_blob_operations_total counter
assets_blob_operations_total{driver="local",op="get",status="not_found"} 1
assets_blob_operations_total{driver="local",op="put",status="ok"} 1
`
	if err := testutil.GatherAndCompare(m.Gatherer(), strings.NewReader(want), "assets_blob_operations_total"); err != nil {
		t.Fatalf("blob op metrics: %v", err)
	}
}
