package imagepkg

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"net/http"
	"sync"

	"github.com/disintegration/imaging"

	"github.com/youruser/cardgrid/internal/config"
	"github.com/youruser/cardgrid/internal/logging"
)

// midGray replaces any tile whose resize failed.
var midGray = color.NRGBA{R: 128, G: 128, B: 128, A: 255}

// Resolver turns a card id into a tile of an exact size, trying memory,
// the local art store, the remote art server and finally a placeholder.
// Resolve never fails.
type Resolver struct {
	cache       *MemoryCache
	local       Source
	remote      Source
	placeholder Source
	fillColor   color.NRGBA

	phMu  sync.Mutex
	phImg image.Image
}

type ResolverOption func(*Resolver)

// WithCache shares an existing memory tier.
func WithCache(c *MemoryCache) ResolverOption {
	return func(r *Resolver) { r.cache = c }
}

func WithLocal(s Source) ResolverOption {
	return func(r *Resolver) { r.local = s }
}

func WithRemote(s Source) ResolverOption {
	return func(r *Resolver) { r.remote = s }
}

// WithPlaceholder sets where placeholder art is fetched from.
func WithPlaceholder(s Source) ResolverOption {
	return func(r *Resolver) { r.placeholder = s }
}

// WithPlaceholderColor sets the color of synthesized placeholders.
func WithPlaceholderColor(c color.NRGBA) ResolverOption {
	return func(r *Resolver) { r.fillColor = c }
}

func NewResolver(opts ...ResolverOption) *Resolver {
	r := &Resolver{
		fillColor: color.NRGBA{R: 0x3a, G: 0x3a, B: 0x44, A: 0xff},
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.cache == nil {
		r.cache = NewMemoryCache()
	}
	return r
}

// NewResolverFromConfig wires the local, remote and placeholder tiers from cfg.
func NewResolverFromConfig(cfg *config.Config, opts ...ResolverOption) *Resolver {
	client := &http.Client{Timeout: cfg.HTTPTimeout.Duration}
	base := []ResolverOption{
		WithPlaceholderColor(config.RGBA(cfg.Colors.Placeholder)),
	}
	if cfg.CardArtDir != "" {
		base = append(base, WithLocal(LocalStore{Dir: cfg.CardArtDir}))
	}
	if cfg.RemoteBaseURL != "" {
		base = append(base, WithRemote(RemoteSource{BaseURL: cfg.RemoteBaseURL, Client: client}))
	}
	if cfg.PlaceholderURL != "" {
		base = append(base, WithPlaceholder(URLSource{URL: cfg.PlaceholderURL, Client: client}))
	}
	return NewResolver(append(base, opts...)...)
}

// Cache exposes the memory tier.
func (r *Resolver) Cache() *MemoryCache {
	return r.cache
}

// Clear empties the memory tier and forgets the placeholder art.
func (r *Resolver) Clear() {
	r.cache.Clear()
	r.phMu.Lock()
	r.phImg = nil
	r.phMu.Unlock()
}

// Resolve returns a width x height tile for cardID.
func (r *Resolver) Resolve(ctx context.Context, cardID, width, height int) image.Image {
	log := logging.L()

	if src, ok := r.cache.Get(cardID); ok {
		log.Debug("card art from memory", "card", cardID)
		return fit(src, width, height)
	}

	tiers := []struct {
		name string
		src  Source
	}{
		{"local", r.local},
		{"remote", r.remote},
	}
	for _, t := range tiers {
		if t.src == nil {
			continue
		}
		src, err := load(ctx, t.src, cardID)
		if err != nil {
			log.Debug("card art miss", "tier", t.name, "card", cardID, "err", err)
			continue
		}
		log.Debug("card art hit", "tier", t.name, "card", cardID)
		r.cache.Set(cardID, src)
		return fit(src, width, height)
	}

	log.Warn("card art unavailable, using placeholder", "card", cardID)
	return r.placeholderTile(ctx, width, height)
}

func (r *Resolver) placeholderTile(ctx context.Context, width, height int) image.Image {
	// Only a successful fetch is kept; failures are retried on the next miss.
	r.phMu.Lock()
	if r.phImg == nil && r.placeholder != nil {
		src, err := load(ctx, r.placeholder, 0)
		if err != nil {
			logging.L().Warn("placeholder art unavailable, synthesizing", "err", err)
		} else {
			r.phImg = src
		}
	}
	src := r.phImg
	r.phMu.Unlock()

	if src != nil {
		return fit(src, width, height)
	}
	return imaging.New(width, height, r.fillColor)
}

func load(ctx context.Context, s Source, cardID int) (image.Image, error) {
	b, err := s.Fetch(ctx, cardID)
	if err != nil {
		return nil, err
	}
	img, err := imaging.Decode(bytes.NewReader(b), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode card %d: %w", cardID, err)
	}
	return img, nil
}

// fit scales and center-crops src to exactly fill width x height. Sources
// that cannot be resized yield a mid-gray tile instead.
func fit(src image.Image, width, height int) (out image.Image) {
	defer func() {
		if rec := recover(); rec != nil {
			logging.L().Warn("resize failed, using gray tile", "panic", rec)
			out = imaging.New(width, height, midGray)
		}
	}()
	if src == nil || src.Bounds().Empty() {
		return imaging.New(width, height, midGray)
	}
	dst := imaging.Fill(src, width, height, imaging.Center, imaging.Lanczos)
	if b := dst.Bounds(); b.Dx() != width || b.Dy() != height {
		return imaging.New(width, height, midGray)
	}
	return dst
}
