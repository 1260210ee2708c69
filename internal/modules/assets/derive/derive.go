// Package derive renders the stored versions of an uploaded image.
package derive

import (
	"context"
	"errors"
	"fmt"
	"image"
	"time"

	"golang.org/x/sync/errgroup"

	domain "github.com/yungbote/assets-backend/internal/domain/assets"
	"github.com/yungbote/assets-backend/internal/modules/assets/naming"
	"github.com/yungbote/assets-backend/internal/observability"
	"github.com/yungbote/assets-backend/internal/platform/logger"
)

// ErrDecode marks a source that could not be read as an image. Nothing is
// rendered when it happens.
var ErrDecode = errors.New("derive: source is not a decodable image")

// Codec is the bitmap capability the engine depends on.
type Codec interface {
	Decode(raw []byte) (image.Image, error)
	Fit(img image.Image, maxW, maxH int, enlarge bool) image.Image
	Cover(img image.Image, w, h int) image.Image
	EncodeJPEG(img image.Image, quality int) ([]byte, error)
}

type Mode string

const (
	ModeInside Mode = "inside"
	ModeCover  Mode = "cover"
)

// Spec describes one derived rendition.
type Spec struct {
	Kind    domain.VersionKind
	Enabled bool
	Width   int
	Height  int
	Mode    Mode
	Enlarge bool
}

type Config struct {
	Quality   int
	Preview   Spec
	Medium    Spec
	Thumbnail Spec
}

func DefaultConfig() Config {
	return Config{
		Quality:   80,
		Preview:   Spec{Kind: domain.VersionPreview, Enabled: true, Width: 800, Height: 600, Mode: ModeInside},
		Medium:    Spec{Kind: domain.VersionMedium, Enabled: false, Width: 400, Height: 400, Mode: ModeInside},
		Thumbnail: Spec{Kind: domain.VersionThumbnail, Enabled: true, Width: 200, Height: 200, Mode: ModeCover},
	}
}

// Enabled returns the enabled derived specs in storage order.
func (c Config) Enabled() []Spec {
	out := make([]Spec, 0, 3)
	for _, s := range []Spec{c.Preview, c.Medium, c.Thumbnail} {
		if s.Enabled {
			out = append(out, s)
		}
	}
	return out
}

// Rendition is one encoded version ready to be stored.
type Rendition struct {
	Kind     domain.VersionKind
	FileName string
	Data     []byte
	Width    int
	Height   int
}

func (r Rendition) Size() int64 { return int64(len(r.Data)) }

type Engine struct {
	codec   Codec
	cfg     Config
	log     *logger.Logger
	metrics *observability.Metrics
}

func NewEngine(codec Codec, cfg Config, log *logger.Logger, metrics *observability.Metrics) *Engine {
	return &Engine{
		codec:   codec,
		cfg:     cfg,
		log:     log.With("component", "DeriveEngine"),
		metrics: metrics,
	}
}

func (e *Engine) Config() Config { return e.cfg }

// Derive returns the original rendition followed by every enabled derived
// rendition. Any failure fails the whole set.
func (e *Engine) Derive(ctx context.Context, raw []byte, sanitizedName string) ([]Rendition, error) {
	img, err := e.codec.Decode(raw)
	if err != nil {
		e.metrics.ObserveDerivation(string(domain.VersionOriginal), "decode_error", 0)
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	specs := e.cfg.Enabled()
	out := make([]Rendition, 1+len(specs))

	orig, err := e.render(img, Spec{Kind: domain.VersionOriginal}, sanitizedName)
	if err != nil {
		return nil, err
	}
	out[0] = orig

	g, gctx := errgroup.WithContext(ctx)
	for i, spec := range specs {
		i, spec := i, spec
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			r, err := e.render(img, spec, sanitizedName)
			if err != nil {
				return err
			}
			out[i+1] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (e *Engine) render(img image.Image, spec Spec, sanitizedName string) (Rendition, error) {
	start := time.Now()
	var dst image.Image
	switch spec.Mode {
	case ModeCover:
		dst = e.codec.Cover(img, spec.Width, spec.Height)
	case ModeInside:
		dst = e.codec.Fit(img, spec.Width, spec.Height, spec.Enlarge)
	default:
		dst = img
	}
	data, err := e.codec.EncodeJPEG(dst, e.cfg.Quality)
	if err != nil {
		e.metrics.ObserveDerivation(string(spec.Kind), "error", time.Since(start))
		return Rendition{}, fmt.Errorf("render %s: %w", spec.Kind, err)
	}
	b := dst.Bounds()
	e.metrics.ObserveDerivation(string(spec.Kind), "ok", time.Since(start))
	e.log.Debug("rendition encoded", "kind", spec.Kind, "width", b.Dx(), "height", b.Dy(), "bytes", len(data))
	return Rendition{
		Kind:     spec.Kind,
		FileName: naming.VersionFileName(sanitizedName, spec.Kind, true),
		Data:     data,
		Width:    b.Dx(),
		Height:   b.Dy(),
	}, nil
}
