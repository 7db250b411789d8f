package marginalia

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	opts := cfg.EngineOptions()
	assert.Equal(t, DefaultContextLength, opts.Extract.ContextLength)
	assert.Equal(t, DefaultTolerancePercent, opts.Resolver.TolerancePercent)
	assert.Equal(t, DefaultHighlightDuration, opts.Navigation.Duration)
	assert.Equal(t, DefaultFrameInterval, opts.FrameInterval)
	assert.Equal(t, DefaultPalette, opts.Palette)
}

func TestParseConfigOverrides(t *testing.T) {
	cfg, err := ParseConfig([]byte(`
anchor:
  context_length: 32
resolver:
  tolerance_percent: 30
navigation:
  highlight_duration: 1500ms
  fade_out: 1s
layout:
  columns: 72
palette: ["#000000", "#ffffff"]
log_level: debug
`))
	require.NoError(t, err)

	assert.Equal(t, 32, cfg.Anchor.ContextLength)
	assert.Equal(t, 30, cfg.Resolver.TolerancePercent)
	assert.Equal(t, DefaultMaxFuzzyRunes, cfg.Resolver.MaxFuzzyRunes, "unset keys keep defaults")
	assert.Equal(t, 1500*time.Millisecond, cfg.Navigation.HighlightDuration)
	assert.Equal(t, time.Second, cfg.Navigation.FadeOut)
	assert.Equal(t, 72, cfg.Layout.Columns)
	assert.Equal(t, Palette{"#000000", "#ffffff"}, cfg.Palette)

	level, err := ParseLogLevel(cfg.LogLevel)
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)
}

func TestParseConfigEmpty(t *testing.T) {
	cfg, err := ParseConfig(nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestParseConfigRejects(t *testing.T) {
	cases := map[string]string{
		"unknown key":       "resolver:\n  tolerance: 10\n",
		"tolerance too big": "resolver:\n  tolerance_percent: 150\n",
		"negative context":  "anchor:\n  context_length: -1\n",
		"bad color":         "palette: [\"red\"]\n",
		"bad log level":     "log_level: loud\n",
		"bad duration":      "navigation:\n  fade_out: soon\n",
	}

	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseConfig([]byte(data))
			assert.Error(t, err)
		})
	}

	_, err := ParseConfig([]byte("resolver:\n  tolerance_percent: 150\n"))
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestParseConfigRejectsZeroThatWouldMeanDefault(t *testing.T) {
	cases := map[string]string{
		"context length":     "anchor:\n  context_length: 0\n",
		"max fuzzy runes":    "resolver:\n  max_fuzzy_runes: 0\n",
		"scroll offset":      "navigation:\n  scroll_offset: 0\n",
		"highlight duration": "navigation:\n  highlight_duration: 0s\n",
		"fade out":           "navigation:\n  fade_out: 0s\n",
		"frame interval":     "navigation:\n  frame_interval: 0s\n",
		"line height":        "layout:\n  line_height: 0\n",
		"cell width":         "layout:\n  cell_width: 0\n",
	}

	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseConfig([]byte(data))
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}

	cfg, err := ParseConfig([]byte("layout:\n  columns: 0\n"))
	require.NoError(t, err, "columns 0 disables wrapping rather than picking a default")
	assert.Equal(t, 0, cfg.EngineOptions().Layout.Columns)
}

func TestZeroToleranceDisablesFuzzy(t *testing.T) {
	cfg, err := ParseConfig([]byte("resolver:\n  tolerance_percent: 0\n"))
	require.NoError(t, err)

	opts := cfg.EngineOptions()
	assert.Negative(t, opts.Resolver.TolerancePercent)

	r := NewResolver(opts.Resolver)
	_, ok := r.Resolve(AnchorRecord{Start: 20, End: 30, Text: "jumps over"},
		NewDocument("The quick brown fox jumps-over the lazy dog."))
	assert.False(t, ok)
}

func TestLoadConfig(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)

	path := filepath.Join(t.TempDir(), "marginalia.yaml")
	require.NoError(t, os.WriteFile(path, []byte("layout:\n  line_height: 24\n"), 0o644))

	cfg, err = LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 24.0, cfg.Layout.LineHeight)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
