package derive

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"

	domain "github.com/yungbote/assets-backend/internal/domain/assets"
	"github.com/yungbote/assets-backend/internal/platform/imaging"
	"github.com/yungbote/assets-backend/internal/platform/logger"
)

func samplePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y += 7 {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 30, B: 30, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode: %v", err)
	}
	return buf.Bytes()
}

func TestDeriveDefaultKinds(t *testing.T) {
	e := NewEngine(imaging.New(), DefaultConfig(), logger.Nop(), nil)
	out, err := e.Derive(context.Background(), samplePNG(t, 1200, 900), "beach.png")
	if err != nil {
		t.Fatalf("Derive: %v", err)
	}
	if len(out) != 1+len(DefaultConfig().Enabled()) {
		t.Fatalf("renditions: want=%d got=%d", 1+len(DefaultConfig().Enabled()), len(out))
	}

	want := []struct {
		kind domain.VersionKind
		name string
		w, h int
	}{
		{domain.VersionOriginal, "beach-original.jpg", 1200, 900},
		{domain.VersionPreview, "beach-preview.jpg", 800, 600},
		{domain.VersionThumbnail, "beach-thumbnail.jpg", 200, 200},
	}
	for i, w := range want {
		r := out[i]
		if r.Kind != w.kind || r.FileName != w.name {
			t.Fatalf("rendition %d: want=%s/%s got=%s/%s", i, w.kind, w.name, r.Kind, r.FileName)
		}
		if r.Width != w.w || r.Height != w.h {
			t.Fatalf("%s dims: want=%dx%d got=%dx%d", r.Kind, w.w, w.h, r.Width, r.Height)
		}
		if r.Size() <= 0 {
			t.Fatalf("%s: empty payload", r.Kind)
		}
	}
}

func TestDeriveMediumWhenEnabled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Medium.Enabled = true
	e := NewEngine(imaging.New(), cfg, logger.Nop(), nil)
	out, err := e.Derive(context.Background(), samplePNG(t, 300, 100), "wide.png")
	if err != nil {
		t.Fatalf("Derive: %v", err)
	}
	if len(out) != 4 {
		t.Fatalf("renditions: want=4 got=%d", len(out))
	}
	for _, r := range out {
		if r.Width <= 0 || r.Height <= 0 {
			t.Fatalf("%s: non-positive dims %dx%d", r.Kind, r.Width, r.Height)
		}
	}
	// Smaller than both inside boxes: no enlargement.
	if out[1].Width != 300 || out[2].Width != 300 {
		t.Fatalf("inside renditions should keep 300px width: preview=%d medium=%d", out[1].Width, out[2].Width)
	}
}

func TestDeriveDecodeFailure(t *testing.T) {
	e := NewEngine(imaging.New(), DefaultConfig(), logger.Nop(), nil)
	out, err := e.Derive(context.Background(), []byte("%PDF-1.4 not an image"), "fake.png")
	if !errors.Is(err, ErrDecode) {
		t.Fatalf("Derive: want ErrDecode got=%v", err)
	}
	if out != nil {
		t.Fatalf("Derive: want no renditions on failure")
	}
}

type failingCodec struct {
	*imaging.Codec
	failOn int
}

func (f *failingCodec) EncodeJPEG(img image.Image, q int) ([]byte, error) {
	if img.Bounds().Dx() == f.failOn {
		return nil, errors.New("disk full")
	}
	return f.Codec.EncodeJPEG(img, q)
}

func TestDeriveEncodeFailureFailsWholeSet(t *testing.T) {
	codec := &failingCodec{Codec: imaging.New(), failOn: 200}
	e := NewEngine(codec, DefaultConfig(), logger.Nop(), nil)
	out, err := e.Derive(context.Background(), samplePNG(t, 640, 480), "x.png")
	if err == nil || out != nil {
		t.Fatalf("Derive: want failure and no renditions, got err=%v n=%d", err, len(out))
	}
}
