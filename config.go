package marginalia

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the file form of EngineOptions.
type Config struct {
	Anchor     AnchorConfig     `json:"anchor" yaml:"anchor"`
	Resolver   ResolverConfig   `json:"resolver" yaml:"resolver"`
	Navigation NavigationConfig `json:"navigation" yaml:"navigation"`
	Layout     LayoutConfig     `json:"layout" yaml:"layout"`
	Palette    Palette          `json:"palette" yaml:"palette"`
	LogLevel   string           `json:"log_level" yaml:"log_level"`
}

// AnchorConfig contains extraction settings.
type AnchorConfig struct {
	ContextLength int `json:"context_length" yaml:"context_length"`
}

// ResolverConfig contains relocation settings.
type ResolverConfig struct {
	TolerancePercent int `json:"tolerance_percent" yaml:"tolerance_percent"`
	MaxFuzzyRunes    int `json:"max_fuzzy_runes" yaml:"max_fuzzy_runes"`
}

// NavigationConfig contains scroll and highlight settings.
type NavigationConfig struct {
	ScrollOffset      float64       `json:"scroll_offset" yaml:"scroll_offset"`
	HighlightDuration time.Duration `json:"highlight_duration" yaml:"highlight_duration"`
	FadeOut           time.Duration `json:"fade_out" yaml:"fade_out"`
	FrameInterval     time.Duration `json:"frame_interval" yaml:"frame_interval"`
}

// LayoutConfig contains TextLayout settings.
type LayoutConfig struct {
	Columns    int     `json:"columns" yaml:"columns"`
	LineHeight float64 `json:"line_height" yaml:"line_height"`
	CellWidth  float64 `json:"cell_width" yaml:"cell_width"`
	Top        float64 `json:"top" yaml:"top"`
	BlockGap   float64 `json:"block_gap" yaml:"block_gap"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Anchor: AnchorConfig{
			ContextLength: DefaultContextLength,
		},
		Resolver: ResolverConfig{
			TolerancePercent: DefaultTolerancePercent,
			MaxFuzzyRunes:    DefaultMaxFuzzyRunes,
		},
		Navigation: NavigationConfig{
			ScrollOffset:      DefaultScrollOffset,
			HighlightDuration: DefaultHighlightDuration,
			FadeOut:           DefaultFadeOut,
			FrameInterval:     DefaultFrameInterval,
		},
		Layout: LayoutConfig{
			Columns:    80,
			LineHeight: 20,
			CellWidth:  8,
		},
		Palette:  append(Palette(nil), DefaultPalette...),
		LogLevel: "info",
	}
}

// LoadConfig reads a YAML file over DefaultConfig. Unknown keys are rejected.
// An empty path returns the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig decodes YAML over DefaultConfig and validates the result.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if len(bytes.TrimSpace(data)) == 0 {
		return cfg, nil
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks value ranges. Fields whose zero value would silently fall back to
// a built-in default must be positive; tolerance_percent is the one switch, where 0
// disables fuzzy matching.
func (c Config) Validate() error {
	if c.Anchor.ContextLength <= 0 {
		return fmt.Errorf("anchor.context_length must be > 0: %w", ErrInvalidConfig)
	}
	if c.Resolver.TolerancePercent < 0 || c.Resolver.TolerancePercent > 100 {
		return fmt.Errorf("resolver.tolerance_percent must be within 0-100: %w", ErrInvalidConfig)
	}
	if c.Resolver.MaxFuzzyRunes <= 0 {
		return fmt.Errorf("resolver.max_fuzzy_runes must be > 0 (set tolerance_percent to 0 to disable fuzzy matching): %w", ErrInvalidConfig)
	}
	if c.Navigation.ScrollOffset <= 0 {
		return fmt.Errorf("navigation.scroll_offset must be > 0: %w", ErrInvalidConfig)
	}
	if c.Navigation.HighlightDuration <= 0 || c.Navigation.FadeOut <= 0 || c.Navigation.FrameInterval <= 0 {
		return fmt.Errorf("navigation durations must be > 0: %w", ErrInvalidConfig)
	}
	if c.Layout.Columns < 0 {
		return fmt.Errorf("layout.columns must be >= 0: %w", ErrInvalidConfig)
	}
	if c.Layout.LineHeight <= 0 || c.Layout.CellWidth <= 0 {
		return fmt.Errorf("layout.line_height and layout.cell_width must be > 0: %w", ErrInvalidConfig)
	}
	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		return err
	}
	return c.Palette.Validate()
}

// EngineOptions converts the configuration into engine options.
// A tolerance_percent of 0 disables fuzzy matching.
// Logger, Metrics and Scheduler are left for the caller.
func (c Config) EngineOptions() EngineOptions {
	tolerance := c.Resolver.TolerancePercent
	if tolerance == 0 {
		tolerance = -1
	}
	return EngineOptions{
		Extract: ExtractOptions{ContextLength: c.Anchor.ContextLength},
		Resolver: ResolverOptions{
			TolerancePercent: tolerance,
			MaxFuzzyRunes:    c.Resolver.MaxFuzzyRunes,
		},
		Layout: TextLayoutOptions{
			Columns:    c.Layout.Columns,
			LineHeight: c.Layout.LineHeight,
			CellWidth:  c.Layout.CellWidth,
			Top:        c.Layout.Top,
			BlockGap:   c.Layout.BlockGap,
		},
		Navigation: NavigateOptions{
			ScrollOffset: c.Navigation.ScrollOffset,
			Duration:     c.Navigation.HighlightDuration,
			FadeOut:      c.Navigation.FadeOut,
		},
		Palette:       c.Palette,
		FrameInterval: c.Navigation.FrameInterval,
	}
}

// ParseLogLevel maps debug, info, warn or error to a slog level.
func ParseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("log_level %q: %w", s, ErrInvalidConfig)
	}
}
