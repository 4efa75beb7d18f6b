// Package overlay describes small vector graphics (badges, borders, titles)
// as a list of shape and text primitives, independent of how they are
// rasterized. A Rasterizer turns a Graphic into a bitmap of exactly
// Width x Height pixels with a transparent background.
package overlay

import (
	"image"
	"image/color"
)

// Paint is how a shape is filled and/or stroked. A nil color skips that step.
type Paint struct {
	Fill      color.Color
	Stroke    color.Color
	LineWidth float64
}

// Op is one drawing primitive.
type Op interface {
	op()
}

type Circle struct {
	CX, CY, R float64
	Paint
}

type Line struct {
	X1, Y1, X2, Y2 float64
	Paint
}

// Rect is axis aligned; Radius > 0 rounds the corners.
type Rect struct {
	X, Y, W, H float64
	Radius     float64
	Paint
}

// Text is anchored at (X, Y): AnchorX/AnchorY of 0.5 centers the string on the point.
type Text struct {
	Value            string
	X, Y             float64
	AnchorX, AnchorY float64
	Size             float64
	Bold             bool
	Color            color.Color
}

func (Circle) op() {}
func (Line) op()   {}
func (Rect) op()   {}
func (Text) op()   {}

// Graphic is an ordered list of primitives on a Width x Height surface.
type Graphic struct {
	Width, Height int
	Ops           []Op
}

// New returns an empty graphic of the given size.
func New(w, h int) *Graphic {
	return &Graphic{Width: w, Height: h}
}

// Add appends primitives and returns g for chaining.
func (g *Graphic) Add(ops ...Op) *Graphic {
	g.Ops = append(g.Ops, ops...)
	return g
}

// Texts returns the string values of every Text primitive, in order.
func (g *Graphic) Texts() []string {
	var out []string
	for _, o := range g.Ops {
		if t, ok := o.(Text); ok {
			out = append(out, t.Value)
		}
	}
	return out
}

// Rasterizer renders graphics to bitmaps.
type Rasterizer interface {
	Rasterize(g *Graphic) (image.Image, error)
}
