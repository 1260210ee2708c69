// Package imaging is the bitmap codec used by the derivation engine: decode,
// bounded resizing and JPEG encoding.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"math"

	_ "image/gif"
	_ "image/png"

	"github.com/fogleman/gg"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// MaxPixels bounds the decoded canvas so a tiny file cannot claim gigabytes.
const MaxPixels = 40_000_000

var ErrTooLarge = errors.New("imaging: image dimensions exceed limit")

// Codec satisfies the derivation engine's codec capability.
type Codec struct {
	Scaler draw.Scaler
}

func New() *Codec {
	return &Codec{Scaler: draw.CatmullRom}
}

func (c *Codec) scaler() draw.Scaler {
	if c == nil || c.Scaler == nil {
		return draw.CatmullRom
	}
	return c.Scaler
}

// Decode reads jpeg, png, gif or webp bytes.
func (c *Codec) Decode(raw []byte) (image.Image, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("decode config: empty image %dx%d", cfg.Width, cfg.Height)
	}
	if int64(cfg.Width)*int64(cfg.Height) > MaxPixels {
		return nil, ErrTooLarge
	}
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}

// Fit scales img to fit inside maxW x maxH keeping its aspect ratio. Smaller
// images are returned untouched unless enlarge is set.
func (c *Codec) Fit(img image.Image, maxW, maxH int, enlarge bool) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 || maxW <= 0 || maxH <= 0 {
		return img
	}
	scale := math.Min(float64(maxW)/float64(w), float64(maxH)/float64(h))
	if scale >= 1 && !enlarge {
		return img
	}
	nw := clampDim(int(math.Round(float64(w) * scale)))
	nh := clampDim(int(math.Round(float64(h) * scale)))
	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	c.scaler().Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

// Cover center-crops img to the w:h aspect ratio and scales it to exactly
// w x h.
func (c *Codec) Cover(img image.Image, w, h int) image.Image {
	b := img.Bounds()
	sw, sh := b.Dx(), b.Dy()
	if sw == 0 || sh == 0 || w <= 0 || h <= 0 {
		return img
	}
	target := float64(w) / float64(h)
	cw, ch := sw, sh
	if float64(sw)/float64(sh) > target {
		cw = clampDim(int(math.Round(float64(sh) * target)))
	} else {
		ch = clampDim(int(math.Round(float64(sw) / target)))
	}
	x0 := b.Min.X + (sw-cw)/2
	y0 := b.Min.Y + (sh-ch)/2
	crop := image.Rect(x0, y0, x0+cw, y0+ch)

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	c.scaler().Scale(dst, dst.Bounds(), img, crop, draw.Src, nil)
	return dst
}

// EncodeJPEG flattens transparency onto white and encodes at quality (1-100).
func (c *Codec) EncodeJPEG(img image.Image, quality int) ([]byte, error) {
	b := img.Bounds()
	dc := gg.NewContext(b.Dx(), b.Dy())
	dc.SetRGB(1, 1, 1)
	dc.Clear()
	dc.DrawImage(img, -b.Min.X, -b.Min.Y)

	var out bytes.Buffer
	if err := jpeg.Encode(&out, dc.Image(), &jpeg.Options{Quality: clampQuality(quality)}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return out.Bytes(), nil
}

// Dimensions returns the pixel size of img.
func Dimensions(img image.Image) (int, int) {
	b := img.Bounds()
	return b.Dx(), b.Dy()
}

func clampDim(n int) int {
	if n < 1 {
		return 1
	}
	return n
}

func clampQuality(q int) int {
	switch {
	case q <= 0:
		return jpeg.DefaultQuality
	case q > 100:
		return 100
	default:
		return q
	}
}
