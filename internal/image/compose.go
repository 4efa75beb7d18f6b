package imagepkg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"strconv"

	"github.com/disintegration/imaging"
	"golang.org/x/sync/errgroup"

	"github.com/youruser/cardgrid/internal/badge"
	"github.com/youruser/cardgrid/internal/config"
	"github.com/youruser/cardgrid/internal/deck"
	"github.com/youruser/cardgrid/internal/layout"
	"github.com/youruser/cardgrid/internal/logging"
	"github.com/youruser/cardgrid/internal/overlay"
)

// TileSource supplies card tiles of an exact size. *Resolver is the
// production implementation.
type TileSource interface {
	Resolve(ctx context.Context, cardID, width, height int) image.Image
}

var deckSectionNames = []string{"Main Deck", "Extra Deck", "Side Deck"}

var categoryTitles = map[deck.Restriction]string{
	deck.Banned:      "Forbidden",
	deck.Limited:     "Limited",
	deck.SemiLimited: "Semi-Limited",
	deck.Unlimited:   "Unlimited",
}

// minQRSize is the smallest top padding band that gets a QR code.
const minQRSize = 48

// Compositor renders deck and banlist images.
type Compositor struct {
	cfg     *config.Config
	layout  layout.Engine
	tiles   TileSource
	badges  *badge.Renderer
	raster  overlay.Rasterizer
	workers int
}

type CompositorOption func(*Compositor)

// WithRasterizer swaps the overlay backend.
func WithRasterizer(r overlay.Rasterizer) CompositorOption {
	return func(c *Compositor) { c.raster = r }
}

// WithWorkers bounds concurrent tile resolution.
func WithWorkers(n int) CompositorOption {
	return func(c *Compositor) {
		if n > 0 {
			c.workers = n
		}
	}
}

func NewCompositor(cfg *config.Config, tiles TileSource, opts ...CompositorOption) *Compositor {
	c := &Compositor{
		cfg:     cfg,
		layout:  layout.New(cfg.Grid),
		tiles:   tiles,
		badges:  badge.New(cfg),
		raster:  overlay.NewGGRasterizer(),
		workers: cfg.Workers,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.workers <= 0 {
		c.workers = 1
	}
	return c
}

// Layout exposes the layout engine the compositor sizes canvases with.
func (c *Compositor) Layout() layout.Engine {
	return c.layout
}

// placed is a bitmap positioned on the canvas.
type placed struct {
	img image.Image
	at  image.Point
}

// tileJob is one tile slot: which card goes where, and what is drawn over it.
type tileJob struct {
	cardID int
	at     layout.Placement
	marks  []placed
}

// RenderDeck renders a deck to PNG bytes. banlist may be nil.
func (c *Compositor) RenderDeck(ctx context.Context, d deck.Deck, banlist *deck.Banlist) ([]byte, error) {
	img, err := c.DeckImage(ctx, d, banlist)
	if err != nil {
		return nil, err
	}
	return encodePNG(img)
}

// DeckImage renders the main, extra and side sections of d, badging every
// card that banlist restricts.
func (c *Compositor) DeckImage(ctx context.Context, d deck.Deck, banlist *deck.Banlist) (*image.NRGBA, error) {
	sections := [][]int{d.Main, d.Extra, d.Side}
	counts := []int{len(d.Main), len(d.Extra), len(d.Side)}

	width := c.layout.Width()
	height := c.layout.TotalHeight(counts...)
	canvas := imaging.New(width, height, config.RGBA(c.cfg.Colors.Background))

	badges := c.restrictionBadges()
	index := banlist.Index()
	inset := c.badges.Inset()

	var titles []placed
	var jobs []tileJob
	for _, s := range c.layout.Sections(c.cfg.Grid.PaddingTop, counts...) {
		ids := sections[s.Index]
		title := fmt.Sprintf("%s (%d)", deckSectionNames[s.Index], len(ids))
		if t, ok := c.titleAt(title, s.HeaderY); ok {
			titles = append(titles, t)
		}
		for i, id := range ids {
			job := tileJob{cardID: id, at: s.Tiles[i]}
			if b, ok := badges[index[id]]; ok {
				job.marks = append(job.marks, placed{img: b, at: image.Pt(job.at.X+inset, job.at.Y+inset)})
			}
			jobs = append(jobs, job)
		}
	}

	if qr, ok := c.deckQR(d.ID, width); ok {
		titles = append(titles, qr)
	}

	tiles := c.resolveAll(ctx, jobs)
	composite(canvas, titles, jobs, tiles)
	return canvas, nil
}

// RenderBanlist renders a banlist snapshot to PNG bytes. previous is the
// preceding snapshot; cards not in the same category there are marked new.
func (c *Compositor) RenderBanlist(ctx context.Context, sessionNumber int, current deck.Banlist, previous *deck.Banlist) ([]byte, error) {
	img, err := c.BanlistImage(ctx, sessionNumber, current, previous)
	if err != nil {
		return nil, err
	}
	return encodePNG(img)
}

// BanlistImage lays out the four categories in ascending card id order, framing
// each tile in its category color.
func (c *Compositor) BanlistImage(ctx context.Context, sessionNumber int, current deck.Banlist, previous *deck.Banlist) (*image.NRGBA, error) {
	lists := categoryLists(&current)
	counts := make([]int, len(lists))
	for i, ids := range lists {
		counts[i] = len(ids)
	}

	width := c.layout.Width()
	height := c.layout.TotalHeight(counts...)
	canvas := imaging.New(width, height, config.RGBA(c.cfg.Colors.Background))

	g := c.cfg.Grid
	inset := c.badges.Inset()
	marker := c.rasterize(c.badges.NewMarker())

	var titles []placed
	if g.PaddingTop >= 16 {
		if t := c.rasterize(c.badges.Title("Banlist - Session "+strconv.Itoa(sessionNumber), width, g.PaddingTop)); t != nil {
			titles = append(titles, placed{img: t, at: image.Pt(0, 0)})
		}
	}

	var prevLists [][]int
	if previous != nil {
		prevLists = categoryLists(previous)
	}

	var jobs []tileJob
	for _, s := range c.layout.Sections(c.cfg.Grid.PaddingTop, counts...) {
		cat := deck.Categories[s.Index]
		ids := lists[s.Index]
		if t, ok := c.titleAt(fmt.Sprintf("%s (%d)", categoryTitles[cat], len(ids)), s.HeaderY); ok {
			titles = append(titles, t)
		}
		border := c.rasterize(c.badges.Border(cat, g.TileWidth, g.TileHeight))
		// membership as shown in the previous image
		before := map[int]struct{}{}
		if prevLists != nil {
			for _, id := range prevLists[s.Index] {
				before[id] = struct{}{}
			}
		}
		for i, id := range ids {
			job := tileJob{cardID: id, at: s.Tiles[i]}
			if border != nil {
				job.marks = append(job.marks, placed{img: border, at: image.Pt(job.at.X, job.at.Y)})
			}
			if _, was := before[id]; previous != nil && !was && marker != nil {
				mx := job.at.X + job.at.Width - marker.Bounds().Dx() - inset
				job.marks = append(job.marks, placed{img: marker, at: image.Pt(mx, job.at.Y+inset)})
			}
			jobs = append(jobs, job)
		}
	}

	tiles := c.resolveAll(ctx, jobs)
	composite(canvas, titles, jobs, tiles)
	return canvas, nil
}

// categoryLists returns the ids per category in deck.Categories order. A card
// listed under several categories is kept only under its strictest one.
func categoryLists(b *deck.Banlist) [][]int {
	effective := b.Index()
	out := make([][]int, len(deck.Categories))
	for i, cat := range deck.Categories {
		for _, id := range b.Sorted(cat) {
			r, restricted := effective[id]
			if cat == deck.Unlimited && restricted {
				continue
			}
			if cat != deck.Unlimited && r != cat {
				continue
			}
			out[i] = append(out[i], id)
		}
	}
	return out
}

// restrictionBadges rasterizes each badge once per render.
func (c *Compositor) restrictionBadges() map[deck.Restriction]image.Image {
	out := map[deck.Restriction]image.Image{}
	for _, level := range []deck.Restriction{deck.Banned, deck.Limited, deck.SemiLimited} {
		if img := c.rasterize(c.badges.For(level)); img != nil {
			out[level] = img
		}
	}
	return out
}

func (c *Compositor) titleAt(text string, y int) (placed, bool) {
	img := c.rasterize(c.badges.Title(text, c.layout.Width(), c.cfg.Grid.HeaderHeight))
	if img == nil {
		return placed{}, false
	}
	return placed{img: img, at: image.Pt(0, y)}, true
}

// deckQR links the image to its decklist when a QR base url is configured
// and the top padding band is tall enough to hold a readable code.
func (c *Compositor) deckQR(deckID, width int) (placed, bool) {
	g := c.cfg.Grid
	size := g.PaddingTop - 4
	if c.cfg.QRBaseURL == "" || deckID == 0 || size < minQRSize {
		return placed{}, false
	}
	img, err := GenerateQRImage(c.cfg.QRBaseURL+"/"+strconv.Itoa(deckID), size)
	if err != nil {
		logging.L().Warn("qr code skipped", "deck", deckID, "err", err)
		return placed{}, false
	}
	// go-qrcode returns a larger image when size cannot hold every module
	if b := img.Bounds(); b.Dx() != size || b.Dy() != size {
		img = imaging.Resize(img, size, size, imaging.NearestNeighbor)
	}
	return placed{img: img, at: image.Pt(width-g.PaddingX-size, 2)}, true
}

// rasterize returns nil for a nil graphic or a backend failure; overlays
// are decoration and never fail a render.
func (c *Compositor) rasterize(g *overlay.Graphic) image.Image {
	if g == nil {
		return nil
	}
	img, err := c.raster.Rasterize(g)
	if err != nil {
		logging.L().Warn("overlay skipped", "err", err)
		return nil
	}
	return img
}

// resolveAll fetches one tile per distinct card with at most c.workers in
// flight. Cards whose tile could not be built are absent from the result.
func (c *Compositor) resolveAll(ctx context.Context, jobs []tileJob) map[int]image.Image {
	var ids []int
	seen := map[int]struct{}{}
	for _, j := range jobs {
		if _, ok := seen[j.cardID]; ok {
			continue
		}
		seen[j.cardID] = struct{}{}
		ids = append(ids, j.cardID)
	}

	results := make([]image.Image, len(ids))
	w, h := c.cfg.Grid.TileWidth, c.cfg.Grid.TileHeight

	var g errgroup.Group
	g.SetLimit(c.workers)
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			img, err := c.buildTile(ctx, id, w, h)
			if err != nil {
				logging.L().Warn("tile omitted", "card", id, "err", err)
				return nil
			}
			results[i] = img
			return nil
		})
	}
	_ = g.Wait()

	out := make(map[int]image.Image, len(ids))
	for i, id := range ids {
		if results[i] != nil {
			out[id] = results[i]
		}
	}
	return out
}

func (c *Compositor) buildTile(ctx context.Context, cardID, w, h int) (img image.Image, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			img, err = nil, fmt.Errorf("building tile: %v", rec)
		}
	}()
	img = c.tiles.Resolve(ctx, cardID, w, h)
	if img == nil {
		return nil, errors.New("no tile returned")
	}
	return img, nil
}

// composite draws titles, then every tile followed by its marks, in one pass.
func composite(canvas draw.Image, titles []placed, jobs []tileJob, tiles map[int]image.Image) {
	for _, t := range titles {
		drawAt(canvas, t.img, t.at)
	}
	for _, j := range jobs {
		tile, ok := tiles[j.cardID]
		if !ok {
			continue
		}
		r := image.Rect(j.at.X, j.at.Y, j.at.X+j.at.Width, j.at.Y+j.at.Height)
		draw.Draw(canvas, r, tile, tile.Bounds().Min, draw.Over)
		for _, m := range j.marks {
			drawAt(canvas, m.img, m.at)
		}
	}
}

func drawAt(dst draw.Image, src image.Image, at image.Point) {
	b := src.Bounds()
	draw.Draw(dst, image.Rectangle{Min: at, Max: at.Add(b.Size())}, src, b.Min, draw.Over)
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}
