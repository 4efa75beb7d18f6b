package imagepkg

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/disintegration/imaging"

	"github.com/youruser/cardgrid/internal/config"
	"github.com/youruser/cardgrid/internal/deck"
	"github.com/youruser/cardgrid/internal/overlay"
)

// Marker colors written by markRaster so tests can tell overlays apart.
var (
	titleMark   = color.NRGBA{R: 1, G: 1, B: 1, A: 255}
	bannedMark  = color.NRGBA{R: 2, G: 2, B: 2, A: 255}
	limitedMark = color.NRGBA{R: 3, G: 3, B: 3, A: 255}
	semiMark    = color.NRGBA{R: 4, G: 4, B: 4, A: 255}
	newMark     = color.NRGBA{R: 5, G: 5, B: 5, A: 255}
)

// markRaster paints a 2x2 block in a color identifying the graphic at its
// top-left corner and leaves the rest transparent.
type markRaster struct{}

func (markRaster) Rasterize(g *overlay.Graphic) (image.Image, error) {
	img := image.NewNRGBA(image.Rect(0, 0, g.Width, g.Height))
	c := classify(g)
	for y := 0; y < 2; y++ {
		for x := 0; x < 2; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img, nil
}

func classify(g *overlay.Graphic) color.NRGBA {
	for _, o := range g.Ops {
		switch v := o.(type) {
		case overlay.Line:
			return bannedMark
		case overlay.Rect:
			if v.Radius == 0 {
				return v.Stroke.(color.NRGBA)
			}
		}
	}
	texts := g.Texts()
	if len(texts) == 1 {
		switch texts[0] {
		case "1":
			return limitedMark
		case "2":
			return semiMark
		case "NEW":
			return newMark
		}
	}
	return titleMark
}

func tileColor(id int) color.NRGBA {
	return color.NRGBA{R: uint8(40 + id*10), G: 200, B: 100, A: 255}
}

// fakeTiles returns a solid tile per card, panicking for the ids in boom.
type fakeTiles struct {
	boom     map[int]bool
	delay    time.Duration
	mu       sync.Mutex
	calls    map[int]int
	inFlight atomic.Int32
	maxSeen  atomic.Int32
}

func (f *fakeTiles) Resolve(_ context.Context, cardID, w, h int) image.Image {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		m := f.maxSeen.Load()
		if n <= m || f.maxSeen.CompareAndSwap(m, n) {
			break
		}
	}
	f.mu.Lock()
	if f.calls == nil {
		f.calls = map[int]int{}
	}
	f.calls[cardID]++
	f.mu.Unlock()

	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.boom[cardID] {
		panic("corrupt bitmap")
	}
	return imaging.New(w, h, tileColor(cardID))
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Workers = 2
	cfg.Grid = config.Grid{
		TileWidth:     20,
		TileHeight:    30,
		Spacing:       2,
		Columns:       3,
		PaddingX:      4,
		PaddingTop:    4,
		PaddingBottom: 4,
		HeaderHeight:  10,
		BadgeRatio:    0.5,
		BadgeInset:    1,
		BorderWidth:   2,
	}
	return cfg
}

// tileOrigin is where tile i of a section starting at headerY lands.
func tileOrigin(cfg *config.Config, headerY, i int) image.Point {
	g := cfg.Grid
	return image.Pt(
		g.PaddingX+(i%g.Columns)*(g.TileWidth+g.Spacing),
		headerY+g.HeaderHeight+(i/g.Columns)*(g.TileHeight+g.Spacing),
	)
}

func center(cfg *config.Config, p image.Point) (int, int) {
	return p.X + cfg.Grid.TileWidth/2, p.Y + cfg.Grid.TileHeight/2
}

func TestDeckImageSize(t *testing.T) {
	cfg := testConfig()
	c := NewCompositor(cfg, &fakeTiles{}, WithRasterizer(markRaster{}))

	tests := []deck.Deck{
		{Main: []int{1, 2, 3, 4}},
		{Main: []int{1}, Extra: []int{2, 3}, Side: []int{4, 5, 6, 7}},
		{},
	}
	for _, d := range tests {
		img, err := c.DeckImage(context.Background(), d, nil)
		if err != nil {
			t.Fatal(err)
		}
		wantH := c.Layout().TotalHeight(len(d.Main), len(d.Extra), len(d.Side))
		if b := img.Bounds(); b.Dx() != c.Layout().Width() || b.Dy() != wantH {
			t.Errorf("deck %+v: canvas %v, want %dx%d", d, b, c.Layout().Width(), wantH)
		}
	}
}

func TestDeckScenarioOneRowBannedCard(t *testing.T) {
	cfg := testConfig()
	tiles := &fakeTiles{}
	c := NewCompositor(cfg, tiles, WithRasterizer(markRaster{}))

	d := deck.Deck{Main: []int{1, 1, 2}}
	img, err := c.DeckImage(context.Background(), d, &deck.Banlist{Banned: []int{2}})
	if err != nil {
		t.Fatal(err)
	}

	g := cfg.Grid
	wantH := 1*(g.TileHeight+g.Spacing) + g.HeaderHeight + g.PaddingTop + g.PaddingBottom
	if img.Bounds().Dy() != wantH {
		t.Fatalf("height = %d, want %d", img.Bounds().Dy(), wantH)
	}

	headerY := g.PaddingTop
	if got := img.NRGBAAt(0, headerY); got != titleMark {
		t.Errorf("main deck title missing: %v", got)
	}

	for i, id := range d.Main {
		p := tileOrigin(cfg, headerY, i)
		if p.Y != headerY+g.HeaderHeight {
			t.Errorf("tile %d not on the first row", i)
		}
		if got := img.NRGBAAt(center(cfg, p)); got != tileColor(id) {
			t.Errorf("tile %d center = %v, want %v", i, got, tileColor(id))
		}
		badge := img.NRGBAAt(p.X+g.BadgeInset, p.Y+g.BadgeInset)
		if id == 2 && badge != bannedMark {
			t.Errorf("card 2 not annotated as banned: %v", badge)
		}
		if id != 2 && badge != tileColor(id) {
			t.Errorf("card %d unexpectedly annotated: %v", id, badge)
		}
	}

	// card 1 appears twice but is resolved once
	if tiles.calls[1] != 1 {
		t.Errorf("card 1 resolved %d times, want 1", tiles.calls[1])
	}
}

func TestDeckAnnotationsPerCategory(t *testing.T) {
	cfg := testConfig()
	c := NewCompositor(cfg, &fakeTiles{}, WithRasterizer(markRaster{}))

	d := deck.Deck{Main: []int{1, 2, 3, 4}}
	b := &deck.Banlist{Banned: []int{1}, Limited: []int{2}, SemiLimited: []int{3}, Unlimited: []int{4}}
	img, err := c.DeckImage(context.Background(), d, b)
	if err != nil {
		t.Fatal(err)
	}
	want := map[int]color.NRGBA{1: bannedMark, 2: limitedMark, 3: semiMark, 4: tileColor(4)}
	for i, id := range d.Main {
		p := tileOrigin(cfg, cfg.Grid.PaddingTop, i)
		if got := img.NRGBAAt(p.X+1, p.Y+1); got != want[id] {
			t.Errorf("card %d badge pixel = %v, want %v", id, got, want[id])
		}
	}
}

func TestDeckSectionsSkipEmpty(t *testing.T) {
	cfg := testConfig()
	c := NewCompositor(cfg, &fakeTiles{}, WithRasterizer(markRaster{}))
	g := cfg.Grid

	d := deck.Deck{Main: []int{1}, Side: []int{9}}
	img, err := c.DeckImage(context.Background(), d, nil)
	if err != nil {
		t.Fatal(err)
	}
	sideHeader := g.PaddingTop + g.HeaderHeight + g.TileHeight + g.Spacing
	if got := img.NRGBAAt(0, sideHeader); got != titleMark {
		t.Errorf("side header not directly after main section: %v", got)
	}
	p := tileOrigin(cfg, sideHeader, 0)
	if got := img.NRGBAAt(center(cfg, p)); got != tileColor(9) {
		t.Errorf("side tile = %v", got)
	}
}

func TestDeckTileFailureOmitsOnlyThatTile(t *testing.T) {
	cfg := testConfig()
	c := NewCompositor(cfg, &fakeTiles{boom: map[int]bool{99: true}}, WithRasterizer(markRaster{}))

	d := deck.Deck{Main: []int{1, 99, 2}}
	img, err := c.DeckImage(context.Background(), d, nil)
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	bg := config.RGBA(cfg.Colors.Background)
	for i, id := range d.Main {
		got := img.NRGBAAt(center(cfg, tileOrigin(cfg, cfg.Grid.PaddingTop, i)))
		want := tileColor(id)
		if id == 99 {
			want = bg
		}
		if got != want {
			t.Errorf("tile %d (card %d) = %v, want %v", i, id, got, want)
		}
	}
}

func TestDeckUnresolvableCardGetsPlaceholder(t *testing.T) {
	cfg := testConfig()
	fill := color.NRGBA{R: 9, G: 8, B: 7, A: 255}
	r := NewResolver(WithLocal(&countingSource{}), WithPlaceholderColor(fill))
	c := NewCompositor(cfg, r, WithRasterizer(markRaster{}))

	img, err := c.DeckImage(context.Background(), deck.Deck{Main: []int{1, 2}}, nil)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 2; i++ {
		if got := img.NRGBAAt(center(cfg, tileOrigin(cfg, cfg.Grid.PaddingTop, i))); got != fill {
			t.Errorf("tile %d = %v, want placeholder %v", i, got, fill)
		}
	}
}

func TestResolveAllBoundsConcurrency(t *testing.T) {
	cfg := testConfig()
	tiles := &fakeTiles{delay: 10 * time.Millisecond}
	c := NewCompositor(cfg, tiles, WithRasterizer(markRaster{}), WithWorkers(2))

	var ids []int
	for i := 1; i <= 12; i++ {
		ids = append(ids, i)
	}
	if _, err := c.DeckImage(context.Background(), deck.Deck{Main: ids}, nil); err != nil {
		t.Fatal(err)
	}
	if m := tiles.maxSeen.Load(); m > 2 {
		t.Errorf("max concurrent resolves = %d, want <= 2", m)
	}
	if len(tiles.calls) != 12 {
		t.Errorf("resolved %d cards, want 12", len(tiles.calls))
	}
}

func TestBanlistImage(t *testing.T) {
	cfg := testConfig()
	c := NewCompositor(cfg, &fakeTiles{}, WithRasterizer(markRaster{}))
	g := cfg.Grid

	current := deck.Banlist{
		Banned:    []int{5},
		Limited:   []int{7, 6},
		Unlimited: []int{8, 5},
	}
	previous := &deck.Banlist{Banned: []int{5}, SemiLimited: []int{6}}

	img, err := c.BanlistImage(context.Background(), 12, current, previous)
	if err != nil {
		t.Fatal(err)
	}
	// banned [5], limited [6 7], semi [], unlimited [8]; 5 is dropped from unlimited
	wantH := c.Layout().TotalHeight(1, 2, 0, 1)
	if img.Bounds().Dy() != wantH {
		t.Fatalf("height = %d, want %d", img.Bounds().Dy(), wantH)
	}

	rowPitch := g.TileHeight + g.Spacing
	bannedY := g.PaddingTop
	limitedY := bannedY + g.HeaderHeight + rowPitch
	unlimitedY := limitedY + g.HeaderHeight + rowPitch

	type slot struct {
		headerY, index, card int
		border             string
		isNew              bool
	}
	slots := []slot{
		{bannedY, 0, 5, cfg.Colors.Banned, false},
		{limitedY, 0, 6, cfg.Colors.Limited, true},
		{limitedY, 1, 7, cfg.Colors.Limited, true},
		{unlimitedY, 0, 8, cfg.Colors.Unlimited, true},
	}
	for _, s := range slots {
		p := tileOrigin(cfg, s.headerY, s.index)
		if got := img.NRGBAAt(center(cfg, p)); got != tileColor(s.card) {
			t.Errorf("card %d tile = %v, want %v", s.card, got, tileColor(s.card))
		}
		if got := img.NRGBAAt(p.X, p.Y); got != config.RGBA(s.border) {
			t.Errorf("card %d border = %v, want %s", s.card, got, s.border)
		}
		markerW := g.BadgeSize() * 3 / 2
		mx := p.X + g.TileWidth - markerW - g.BadgeInset
		gotNew := img.NRGBAAt(mx, p.Y+g.BadgeInset) == newMark
		if gotNew != s.isNew {
			t.Errorf("card %d new marker = %v, want %v", s.card, gotNew, s.isNew)
		}
	}
}

func TestBanlistWithoutPreviousHasNoNewMarkers(t *testing.T) {
	cfg := testConfig()
	c := NewCompositor(cfg, &fakeTiles{}, WithRasterizer(markRaster{}))
	g := cfg.Grid

	img, err := c.BanlistImage(context.Background(), 1, deck.Banlist{Limited: []int{3}}, nil)
	if err != nil {
		t.Fatal(err)
	}
	p := tileOrigin(cfg, g.PaddingTop, 0)
	mx := p.X + g.TileWidth - g.BadgeSize()*3/2 - g.BadgeInset
	if img.NRGBAAt(mx, p.Y+g.BadgeInset) == newMark {
		t.Error("new marker drawn without a previous banlist")
	}
}

func TestRenderDeckEndToEnd(t *testing.T) {
	cfg := testConfig()
	c := NewCompositor(cfg, NewResolver())

	out, err := c.RenderDeck(context.Background(), deck.Deck{Main: []int{1, 2}, Extra: []int{3}}, &deck.Banlist{Limited: []int{3}})
	if err != nil {
		t.Fatal(err)
	}
	img, err := png.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("output is not a png: %v", err)
	}
	if b := img.Bounds(); b.Dx() != c.Layout().Width() || b.Dy() != c.Layout().TotalHeight(2, 1, 0) {
		t.Errorf("png bounds %v", b)
	}

	again, err := c.RenderDeck(context.Background(), deck.Deck{Main: []int{1, 2}, Extra: []int{3}}, &deck.Banlist{Limited: []int{3}})
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(out, again) {
		t.Error("identical inputs produced different bytes")
	}
}

func TestRenderBanlistEndToEnd(t *testing.T) {
	cfg := testConfig()
	cfg.Grid.PaddingTop = 20
	c := NewCompositor(cfg, NewResolver())

	out, err := c.RenderBanlist(context.Background(), 4, deck.Banlist{Banned: []int{1}, SemiLimited: []int{2}}, &deck.Banlist{})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := png.Decode(bytes.NewReader(out)); err != nil {
		t.Fatalf("output is not a png: %v", err)
	}
}

func TestDeckQRCode(t *testing.T) {
	cfg := testConfig()
	cfg.Grid.PaddingTop = 60
	cfg.QRBaseURL = "https://example.com/decks"
	c := NewCompositor(cfg, &fakeTiles{}, WithRasterizer(markRaster{}))

	img, err := c.DeckImage(context.Background(), deck.Deck{ID: 42, Main: []int{1}}, nil)
	if err != nil {
		t.Fatal(err)
	}
	size := cfg.Grid.PaddingTop - 4
	x0 := c.Layout().Width() - cfg.Grid.PaddingX - size
	bg := config.RGBA(cfg.Colors.Background)
	painted := false
	for y := 2; y < 2+size && !painted; y++ {
		for x := x0; x < x0+size; x++ {
			if img.NRGBAAt(x, y) != bg {
				painted = true
				break
			}
		}
	}
	if !painted {
		t.Error("no QR code drawn in the top padding band")
	}
	if img.Bounds().Dy() != c.Layout().TotalHeight(1, 0, 0) {
		t.Error("QR code changed the canvas height")
	}
}

func TestDeckQRCodeSkippedInNarrowBand(t *testing.T) {
	cfg := testConfig()
	cfg.Grid.PaddingTop = minQRSize + 3
	cfg.QRBaseURL = "https://example.com/decks"
	c := NewCompositor(cfg, &fakeTiles{}, WithRasterizer(markRaster{}))

	img, err := c.DeckImage(context.Background(), deck.Deck{ID: 42, Main: []int{1}}, nil)
	if err != nil {
		t.Fatal(err)
	}
	bg := config.RGBA(cfg.Colors.Background)
	for y := 0; y < cfg.Grid.PaddingTop; y++ {
		for x := 0; x < c.Layout().Width(); x++ {
			if img.NRGBAAt(x, y) != bg {
				t.Fatalf("pixel (%d,%d) painted in a band too small for a QR code", x, y)
			}
		}
	}
}

func TestBanlistNewMarkerFollowsPreviousImage(t *testing.T) {
	cfg := testConfig()
	c := NewCompositor(cfg, &fakeTiles{}, WithRasterizer(markRaster{}))
	g := cfg.Grid

	// 9 was listed twice before but only shown as forbidden
	previous := &deck.Banlist{Banned: []int{9}, Limited: []int{4, 9}}
	current := deck.Banlist{Limited: []int{4, 9}}

	img, err := c.BanlistImage(context.Background(), 2, current, previous)
	if err != nil {
		t.Fatal(err)
	}
	markerW := g.BadgeSize() * 3 / 2
	for i, want := range []struct {
		card  int
		isNew bool
	}{{4, false}, {9, true}} {
		p := tileOrigin(cfg, g.PaddingTop, i)
		mx := p.X + g.TileWidth - markerW - g.BadgeInset
		if got := img.NRGBAAt(mx, p.Y+g.BadgeInset) == newMark; got != want.isNew {
			t.Errorf("card %d new marker = %v, want %v", want.card, got, want.isNew)
		}
	}
}
