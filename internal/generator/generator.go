// Package generator renders deck and banlist images and stores them under
// the public root in one call. It is the entry point request handlers use.
package generator

import (
	"context"
	"fmt"

	"github.com/youruser/cardgrid/internal/config"
	"github.com/youruser/cardgrid/internal/deck"
	imagepkg "github.com/youruser/cardgrid/internal/image"
	"github.com/youruser/cardgrid/internal/logging"
	"github.com/youruser/cardgrid/internal/storage"
)

// Renderer is satisfied by *imagepkg.Compositor.
type Renderer interface {
	RenderDeck(ctx context.Context, d deck.Deck, banlist *deck.Banlist) ([]byte, error)
	RenderBanlist(ctx context.Context, sessionNumber int, current deck.Banlist, previous *deck.Banlist) ([]byte, error)
}

// Service pairs a renderer with a store.
type Service struct {
	renderer Renderer
	store    *storage.Store
	resolver *imagepkg.Resolver
}

func New(renderer Renderer, store *storage.Store) *Service {
	return &Service{renderer: renderer, store: store}
}

// NewFromConfig wires the production resolver, compositor and store.
func NewFromConfig(cfg *config.Config) *Service {
	resolver := imagepkg.NewResolverFromConfig(cfg)
	s := New(imagepkg.NewCompositor(cfg, resolver), storage.New(cfg.PublicRoot))
	s.resolver = resolver
	return s
}

// Store returns the underlying image store.
func (s *Service) Store() *storage.Store {
	return s.store
}

// ClearCache empties the card art memory tier, if this service owns one.
func (s *Service) ClearCache() int {
	if s.resolver == nil {
		return 0
	}
	n := s.resolver.Cache().Len()
	s.resolver.Clear()
	return n
}

// DeckImage renders d and writes it to the deck image path for decklistID.
func (s *Service) DeckImage(ctx context.Context, decklistID int, d deck.Deck, banlist *deck.Banlist) (string, error) {
	if d.ID == 0 {
		d.ID = decklistID
	}
	data, err := s.renderer.RenderDeck(ctx, d, banlist)
	if err != nil {
		return "", fmt.Errorf("render deck %d: %w", decklistID, err)
	}
	return s.save(storage.KindDeck, decklistID, data)
}

// BanlistImage renders the banlist of a session and writes it.
func (s *Service) BanlistImage(ctx context.Context, sessionNumber int, current deck.Banlist, previous *deck.Banlist) (string, error) {
	data, err := s.renderer.RenderBanlist(ctx, sessionNumber, current, previous)
	if err != nil {
		return "", fmt.Errorf("render banlist %d: %w", sessionNumber, err)
	}
	return s.save(storage.KindBanlist, sessionNumber, data)
}

func (s *Service) save(kind storage.Kind, key int, data []byte) (string, error) {
	path, err := s.store.Save(kind, key, data)
	if err != nil {
		logging.L().Error("image not saved", "kind", kind, "key", key, "err", err)
		return "", err
	}
	logging.L().Info("image saved", "kind", kind, "key", key, "path", path, "bytes", len(data))
	return path, nil
}

func (s *Service) Exists(kind storage.Kind, key int) (bool, error) {
	return s.store.Exists(kind, key)
}

func (s *Service) Delete(kind storage.Kind, key int) error {
	return s.store.Delete(kind, key)
}
