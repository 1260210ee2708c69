package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"
)

func pngBytes(t *testing.T, w, h int, transparent bool) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			a := uint8(255)
			if transparent {
				a = 0
			}
			img.Set(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: 90, A: a})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode: %v", err)
	}
	return buf.Bytes()
}

func TestDecodeRejectsGarbage(t *testing.T) {
	if _, err := New().Decode([]byte("definitely not an image")); err == nil {
		t.Fatalf("Decode: want error")
	}
}

func TestFitInsideWithoutEnlargement(t *testing.T) {
	c := New()
	img, err := c.Decode(pngBytes(t, 1600, 900, false))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	w, h := Dimensions(c.Fit(img, 800, 600, false))
	if w != 800 || h != 450 {
		t.Fatalf("Fit: want=800x450 got=%dx%d", w, h)
	}

	small, _ := c.Decode(pngBytes(t, 120, 80, false))
	w, h = Dimensions(c.Fit(small, 800, 600, false))
	if w != 120 || h != 80 {
		t.Fatalf("Fit small: want=120x80 got=%dx%d", w, h)
	}
	w, h = Dimensions(c.Fit(small, 800, 600, true))
	if w != 800 || h != 533 {
		t.Fatalf("Fit enlarge: want=800x533 got=%dx%d", w, h)
	}
}

func TestCoverFillsBox(t *testing.T) {
	c := New()
	for _, sz := range [][2]int{{1000, 300}, {300, 1000}, {50, 40}} {
		img, err := c.Decode(pngBytes(t, sz[0], sz[1], false))
		if err != nil {
			t.Fatalf("Decode: %v", err)
		}
		w, h := Dimensions(c.Cover(img, 200, 200))
		if w != 200 || h != 200 {
			t.Fatalf("Cover(%v): want=200x200 got=%dx%d", sz, w, h)
		}
	}
}

func TestEncodeJPEGFlattensOntoWhite(t *testing.T) {
	c := New()
	img, err := c.Decode(pngBytes(t, 10, 10, true))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	raw, err := c.EncodeJPEG(img, 80)
	if err != nil {
		t.Fatalf("EncodeJPEG: %v", err)
	}
	out, err := jpeg.Decode(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("jpeg.Decode: %v", err)
	}
	r, g, b, _ := out.At(5, 5).RGBA()
	if r>>8 < 240 || g>>8 < 240 || b>>8 < 240 {
		t.Fatalf("transparent pixel should flatten to white, got r=%d g=%d b=%d", r>>8, g>>8, b>>8)
	}
}

func TestClampQuality(t *testing.T) {
	if clampQuality(0) != jpeg.DefaultQuality || clampQuality(500) != 100 || clampQuality(80) != 80 {
		t.Fatalf("clampQuality mismatch")
	}
}
