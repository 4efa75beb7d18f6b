// Package layout computes tile placements and canvas size for card grids.
//
// Every section of every image uses the same rule: items fill a grid of
// fixed column count left-to-right, top-to-bottom, with uniform spacing
// between columns and rows. Empty sections take no space and get no header.
package layout

import "github.com/youruser/cardgrid/internal/config"

// Placement is the target rectangle of one tile on the canvas.
type Placement struct {
	X, Y          int
	Width, Height int
}

// Section is the laid-out form of one non-empty section.
type Section struct {
	// Index into the counts passed to Sections.
	Index int
	// HeaderY is the top edge of the section header band.
	HeaderY int
	Tiles   []Placement
	Rows    int
	// Bottom is the y coordinate just past the section's last row.
	Bottom int
}

// Engine is pure arithmetic over a grid configuration.
type Engine struct {
	grid config.Grid
}

func New(grid config.Grid) Engine {
	return Engine{grid: grid}
}

// Width of every canvas built from this grid.
func (e Engine) Width() int {
	return e.grid.CanvasWidth()
}

// Rows returns the number of grid rows needed for count items.
func (e Engine) Rows(count int) int {
	if count <= 0 {
		return 0
	}
	return (count + e.grid.Columns - 1) / e.grid.Columns
}

// RowHeight is the vertical pitch of one grid row.
func (e Engine) RowHeight() int {
	return e.grid.TileHeight + e.grid.Spacing
}

// PlaceGrid places count tiles starting at (startX, startY).
func (e Engine) PlaceGrid(count, startX, startY int) ([]Placement, int) {
	if count <= 0 {
		return nil, 0
	}
	g := e.grid
	out := make([]Placement, count)
	for i := 0; i < count; i++ {
		row := i / g.Columns
		col := i % g.Columns
		out[i] = Placement{
			X:      startX + col*(g.TileWidth+g.Spacing),
			Y:      startY + row*(g.TileHeight+g.Spacing),
			Width:  g.TileWidth,
			Height: g.TileHeight,
		}
	}
	return out, e.Rows(count)
}

// SectionHeight is the height a section of count items occupies, header included.
func (e Engine) SectionHeight(count int) int {
	if count <= 0 {
		return 0
	}
	return e.Rows(count)*e.RowHeight() + e.grid.HeaderHeight
}

// TotalHeight sums the non-empty sections plus top and bottom padding.
func (e Engine) TotalHeight(counts ...int) int {
	h := e.grid.PaddingTop + e.grid.PaddingBottom
	for _, c := range counts {
		h += e.SectionHeight(c)
	}
	return h
}

// Sections lays out each non-empty section in order, the first header at
// startY. Images start at the top padding.
func (e Engine) Sections(startY int, counts ...int) []Section {
	var out []Section
	y := startY
	for i, c := range counts {
		if c <= 0 {
			continue
		}
		tiles, rows := e.PlaceGrid(c, e.grid.PaddingX, y+e.grid.HeaderHeight)
		s := Section{
			Index:   i,
			HeaderY: y,
			Tiles:   tiles,
			Rows:    rows,
			Bottom:  y + e.SectionHeight(c),
		}
		out = append(out, s)
		y = s.Bottom
	}
	return out
}
