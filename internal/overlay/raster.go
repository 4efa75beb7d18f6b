package overlay

import (
	"errors"
	"fmt"
	"image"
	"sync"

	"github.com/fogleman/gg"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// GGRasterizer draws graphics with fogleman/gg using the Go fonts.
// It is safe for concurrent use: every call builds its own context and faces.
type GGRasterizer struct {
	once    sync.Once
	regular *opentype.Font
	bold    *opentype.Font
	err     error
}

// NewGGRasterizer returns the default raster backend.
func NewGGRasterizer() *GGRasterizer {
	return &GGRasterizer{}
}

func (r *GGRasterizer) fonts() error {
	r.once.Do(func() {
		r.regular, r.err = opentype.Parse(goregular.TTF)
		if r.err != nil {
			r.err = fmt.Errorf("parse regular font: %w", r.err)
			return
		}
		r.bold, r.err = opentype.Parse(gobold.TTF)
		if r.err != nil {
			r.err = fmt.Errorf("parse bold font: %w", r.err)
		}
	})
	return r.err
}

// Rasterize implements Rasterizer.
func (r *GGRasterizer) Rasterize(g *Graphic) (image.Image, error) {
	if g == nil {
		return nil, errors.New("overlay: nil graphic")
	}
	if g.Width <= 0 || g.Height <= 0 {
		return nil, fmt.Errorf("overlay: invalid size %dx%d", g.Width, g.Height)
	}

	dc := gg.NewContext(g.Width, g.Height)
	faces := map[faceKey]font.Face{}
	defer func() {
		for _, f := range faces {
			_ = f.Close()
		}
	}()

	for _, o := range g.Ops {
		switch v := o.(type) {
		case Circle:
			dc.DrawCircle(v.CX, v.CY, v.R)
			paint(dc, v.Paint)
		case Line:
			dc.SetLineCapRound()
			dc.DrawLine(v.X1, v.Y1, v.X2, v.Y2)
			paint(dc, Paint{Stroke: v.Stroke, LineWidth: v.LineWidth})
		case Rect:
			if v.Radius > 0 {
				dc.DrawRoundedRectangle(v.X, v.Y, v.W, v.H, v.Radius)
			} else {
				dc.DrawRectangle(v.X, v.Y, v.W, v.H)
			}
			paint(dc, v.Paint)
		case Text:
			if v.Value == "" || v.Color == nil {
				continue
			}
			face, err := r.face(faces, v.Size, v.Bold)
			if err != nil {
				return nil, err
			}
			dc.SetFontFace(face)
			dc.SetColor(v.Color)
			dc.DrawStringAnchored(v.Value, v.X, v.Y, v.AnchorX, v.AnchorY)
		default:
			return nil, fmt.Errorf("overlay: unsupported op %T", o)
		}
	}
	return dc.Image(), nil
}

type faceKey struct {
	size float64
	bold bool
}

func (r *GGRasterizer) face(cache map[faceKey]font.Face, size float64, bold bool) (font.Face, error) {
	k := faceKey{size, bold}
	if f, ok := cache[k]; ok {
		return f, nil
	}
	if err := r.fonts(); err != nil {
		return nil, err
	}
	src := r.regular
	if bold {
		src = r.bold
	}
	if size <= 0 {
		size = 12
	}
	f, err := opentype.NewFace(src, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("new face %.1fpt: %w", size, err)
	}
	cache[k] = f
	return f, nil
}

// paint fills then strokes the current path. gg clears the path after the
// final Fill or Stroke, so the preserve variants are used when both apply.
func paint(dc *gg.Context, p Paint) {
	switch {
	case p.Fill != nil && p.Stroke != nil:
		dc.SetColor(p.Fill)
		dc.FillPreserve()
		dc.SetColor(p.Stroke)
		dc.SetLineWidth(lineWidth(p))
		dc.Stroke()
	case p.Fill != nil:
		dc.SetColor(p.Fill)
		dc.Fill()
	case p.Stroke != nil:
		dc.SetColor(p.Stroke)
		dc.SetLineWidth(lineWidth(p))
		dc.Stroke()
	default:
		dc.ClearPath()
	}
}

func lineWidth(p Paint) float64 {
	if p.LineWidth <= 0 {
		return 1
	}
	return p.LineWidth
}
