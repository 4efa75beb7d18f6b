// Package badge builds the overlay graphics that annotate card tiles:
// restriction badges on deck images, category borders and "new" markers on
// banlist images, and section titles.
package badge

import (
	"image/color"
	"math"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/youruser/cardgrid/internal/config"
	"github.com/youruser/cardgrid/internal/deck"
	"github.com/youruser/cardgrid/internal/overlay"
)

// Renderer is configured once per compositor.
type Renderer struct {
	grid   config.Grid
	colors config.Colors
}

func New(cfg *config.Config) *Renderer {
	return &Renderer{grid: cfg.Grid, colors: cfg.Colors}
}

// Inset is the badge offset from the tile's top-left corner.
func (r *Renderer) Inset() int {
	return r.grid.BadgeInset
}

// For returns the badge of a restriction level, or nil when the card carries none.
// The graphic is square with side grid.BadgeSize().
func (r *Renderer) For(level deck.Restriction) *overlay.Graphic {
	switch level {
	case deck.Banned:
		return r.forbidden()
	case deck.Limited:
		return r.numbered("1", config.RGBA(r.colors.Limited))
	case deck.SemiLimited:
		return r.numbered("2", config.RGBA(r.colors.SemiLimited))
	}
	return nil
}

func (r *Renderer) forbidden() *overlay.Graphic {
	size := r.grid.BadgeSize()
	s := float64(size)
	c := s / 2
	lw := math.Max(2, s/9)
	radius := c - lw/2
	crimson := config.RGBA(r.colors.Banned)

	// slash runs from the ring's upper-left to lower-right at 45 degrees
	d := radius * math.Sqrt2 / 2
	return overlay.New(size, size).Add(
		overlay.Circle{CX: c, CY: c, R: radius, Paint: overlay.Paint{
			Fill:      color.NRGBA{A: 0x80},
			Stroke:    crimson,
			LineWidth: lw,
		}},
		overlay.Line{X1: c - d, Y1: c - d, X2: c + d, Y2: c + d, Paint: overlay.Paint{
			Stroke:    crimson,
			LineWidth: lw,
		}},
	)
}

func (r *Renderer) numbered(glyph string, fill color.NRGBA) *overlay.Graphic {
	size := r.grid.BadgeSize()
	s := float64(size)
	c := s / 2
	lw := math.Max(1.5, s/20)
	return overlay.New(size, size).Add(
		overlay.Circle{CX: c, CY: c, R: c - lw/2, Paint: overlay.Paint{
			Fill:      fill,
			Stroke:    darken(fill, 0.35),
			LineWidth: lw,
		}},
		overlay.Text{
			Value:   glyph,
			X:       c,
			Y:       c,
			AnchorX: 0.5,
			AnchorY: 0.5,
			Size:    s * 0.62,
			Bold:    true,
			Color:   color.NRGBA{A: 0xff},
		},
	)
}

// Border is a tile-sized frame in the category color, drawn inside the tile bounds.
func (r *Renderer) Border(level deck.Restriction, w, h int) *overlay.Graphic {
	c, ok := r.categoryColor(level)
	if !ok {
		return nil
	}
	bw := float64(r.grid.BorderWidth)
	if bw <= 0 {
		return nil
	}
	return overlay.New(w, h).Add(overlay.Rect{
		X:     bw / 2,
		Y:     bw / 2,
		W:     float64(w) - bw,
		H:     float64(h) - bw,
		Paint: overlay.Paint{Stroke: c, LineWidth: bw},
	})
}

// NewMarker is a "NEW" pill placed at a tile's top-right corner.
func (r *Renderer) NewMarker() *overlay.Graphic {
	w := r.grid.BadgeSize() * 3 / 2
	h := r.grid.BadgeSize() * 2 / 3
	if w <= 0 || h <= 0 {
		return nil
	}
	fw, fh := float64(w), float64(h)
	return overlay.New(w, h).Add(
		overlay.Rect{X: 0, Y: 0, W: fw, H: fh, Radius: fh / 2, Paint: overlay.Paint{
			Fill: config.RGBA(r.colors.NewMarker),
		}},
		overlay.Text{
			Value:   "NEW",
			X:       fw / 2,
			Y:       fh / 2,
			AnchorX: 0.5,
			AnchorY: 0.5,
			Size:    fh * 0.6,
			Bold:    true,
			Color:   color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff},
		},
	)
}

// Title renders section header text, left aligned and vertically centered in the band.
func (r *Renderer) Title(text string, w, h int) *overlay.Graphic {
	if w <= 0 || h <= 0 {
		return nil
	}
	return overlay.New(w, h).Add(overlay.Text{
		Value:   text,
		X:       float64(r.grid.PaddingX),
		Y:       float64(h) / 2,
		AnchorY: 0.5,
		Size:    math.Max(10, float64(h)*0.55),
		Bold:    true,
		Color:   config.RGBA(r.colors.Title),
	})
}

func (r *Renderer) categoryColor(level deck.Restriction) (color.NRGBA, bool) {
	switch level {
	case deck.Banned:
		return config.RGBA(r.colors.Banned), true
	case deck.Limited:
		return config.RGBA(r.colors.Limited), true
	case deck.SemiLimited:
		return config.RGBA(r.colors.SemiLimited), true
	case deck.Unlimited:
		return config.RGBA(r.colors.Unlimited), true
	}
	return color.NRGBA{}, false
}

func darken(c color.NRGBA, amount float64) color.NRGBA {
	cf, _ := colorful.MakeColor(c)
	h, s, l := cf.Hsl()
	out := colorful.Hsl(h, s, math.Max(0, l-amount)).Clamped()
	r, g, b := out.RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: c.A}
}
