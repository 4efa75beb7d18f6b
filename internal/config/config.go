package config

import (
	"errors"
	"fmt"
	"image/color"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/lucasb-eyer/go-colorful"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid config")

// EnvConfigPath names the environment variable binaries read the config path from.
const EnvConfigPath = "CARDGRID_CONFIG"

// Config represents the image pipeline configuration
type Config struct {
	PublicRoot     string   `toml:"public_root"`
	CardArtDir     string   `toml:"card_art_dir"`
	RemoteBaseURL  string   `toml:"remote_base_url"`
	PlaceholderURL string   `toml:"placeholder_url"`
	HTTPTimeout    Duration `toml:"http_timeout"`
	Workers        int      `toml:"workers"`
	QRBaseURL      string   `toml:"qr_base_url"`

	Grid   Grid   `toml:"grid"`
	Colors Colors `toml:"colors"`
}

// Grid holds the geometry shared by every section of every image.
type Grid struct {
	TileWidth     int     `toml:"tile_width"`
	TileHeight    int     `toml:"tile_height"`
	Spacing       int     `toml:"spacing"`
	Columns       int     `toml:"columns"`
	PaddingX      int     `toml:"padding_x"`
	PaddingTop    int     `toml:"padding_top"`
	PaddingBottom int     `toml:"padding_bottom"`
	HeaderHeight  int     `toml:"header_height"`
	BadgeRatio    float64 `toml:"badge_ratio"`
	BadgeInset    int     `toml:"badge_inset"`
	BorderWidth   int     `toml:"border_width"`
}

// Colors are hex strings ("#rrggbb").
type Colors struct {
	Background  string `toml:"background"`
	Title       string `toml:"title"`
	Placeholder string `toml:"placeholder"`
	Banned      string `toml:"banned"`
	Limited     string `toml:"limited"`
	SemiLimited string `toml:"semilimited"`
	Unlimited   string `toml:"unlimited"`
	NewMarker   string `toml:"new_marker"`
}

// Duration lets TOML carry durations as strings like "10s".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		PublicRoot:    "public",
		CardArtDir:    "cards",
		RemoteBaseURL: "https://images.ygoprodeck.com/images/cards_small",
		HTTPTimeout:   Duration{10 * time.Second},
		Workers:       8,
		Grid: Grid{
			TileWidth:     168,
			TileHeight:    246,
			Spacing:       8,
			Columns:       10,
			PaddingX:      20,
			PaddingTop:    20,
			PaddingBottom: 20,
			HeaderHeight:  48,
			BadgeRatio:    0.30,
			BadgeInset:    6,
			BorderWidth:   6,
		},
		Colors: Colors{
			Background:  "#1e1f26",
			Title:       "#f2f2f2",
			Placeholder: "#3a3a44",
			Banned:      "#dc143c",
			Limited:     "#ffd700",
			SemiLimited: "#ff8c00",
			Unlimited:   "#2e8b57",
			NewMarker:   "#00bfff",
		},
	}
}

// Load reads a TOML config file on top of the defaults. An empty path
// returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("error decoding config file %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromEnv loads the file named by CARDGRID_CONFIG, falling back to
// defaults when the variable is unset.
func LoadFromEnv() (*Config, error) {
	return Load(os.Getenv(EnvConfigPath))
}

// Validate checks geometry and colors.
func (c *Config) Validate() error {
	g := c.Grid
	switch {
	case g.TileWidth <= 0 || g.TileHeight <= 0:
		return fmt.Errorf("%w: tile size must be positive, got %dx%d", ErrInvalid, g.TileWidth, g.TileHeight)
	case g.Columns <= 0:
		return fmt.Errorf("%w: columns must be positive, got %d", ErrInvalid, g.Columns)
	case g.Spacing < 0 || g.PaddingX < 0 || g.PaddingTop < 0 || g.PaddingBottom < 0 || g.HeaderHeight < 0:
		return fmt.Errorf("%w: spacing, padding and header height must not be negative", ErrInvalid)
	case g.BadgeInset < 0 || g.BorderWidth < 0:
		return fmt.Errorf("%w: badge_inset and border_width must not be negative, got %d and %d", ErrInvalid, g.BadgeInset, g.BorderWidth)
	case g.BadgeRatio <= 0 || g.BadgeRatio > 1:
		return fmt.Errorf("%w: badge_ratio must be in (0, 1], got %v", ErrInvalid, g.BadgeRatio)
	case c.Workers <= 0:
		return fmt.Errorf("%w: workers must be positive, got %d", ErrInvalid, c.Workers)
	}
	for name, hex := range c.Colors.all() {
		if _, err := colorful.Hex(hex); err != nil {
			return fmt.Errorf("%w: color %s: %q is not a hex color", ErrInvalid, name, hex)
		}
	}
	return nil
}

func (c Colors) all() map[string]string {
	return map[string]string{
		"background":  c.Background,
		"title":       c.Title,
		"placeholder": c.Placeholder,
		"banned":      c.Banned,
		"limited":     c.Limited,
		"semilimited": c.SemiLimited,
		"unlimited":   c.Unlimited,
		"new_marker":  c.NewMarker,
	}
}

// CanvasWidth is constant for a given grid, regardless of how many tiles are drawn.
func (g Grid) CanvasWidth() int {
	return g.Columns*g.TileWidth + (g.Columns-1)*g.Spacing + 2*g.PaddingX
}

// BadgeSize is the badge diameter in pixels.
func (g Grid) BadgeSize() int {
	return int(g.BadgeRatio*float64(g.TileWidth) + 0.5)
}

// RGBA parses a hex color. Invalid input yields opaque magenta so that a
// bad value is visible rather than fatal; Validate reports it earlier.
func RGBA(hex string) color.NRGBA {
	c, err := colorful.Hex(hex)
	if err != nil {
		return color.NRGBA{R: 0xff, B: 0xff, A: 0xff}
	}
	r, g, b := c.RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: 0xff}
}
