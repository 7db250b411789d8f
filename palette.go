package marginalia

import (
	"fmt"
	"regexp"

	"github.com/cespare/xxhash/v2"
)

// Color is a CSS-style hex color such as "#3b82f6".
type Color string

// ColorFunc maps an author ID to a display color.
type ColorFunc func(authorID string) Color

// Palette is a fixed list of colors authors are hashed onto.
type Palette []Color

// DefaultPalette is used when no palette is configured.
var DefaultPalette = Palette{
	"#3b82f6", // blue
	"#ef4444", // red
	"#10b981", // green
	"#f59e0b", // amber
	"#8b5cf6", // violet
	"#ec4899", // pink
	"#14b8a6", // teal
	"#f97316", // orange
}

var hexColor = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// Validate checks that every entry is a hex color.
func (p Palette) Validate() error {
	for i, c := range p {
		if !hexColor.MatchString(string(c)) {
			return fmt.Errorf("palette[%d] %q: %w", i, c, ErrInvalidConfig)
		}
	}
	return nil
}

// ColorFor returns the palette entry for an author.
// The choice depends only on the author ID and the palette, so it is stable across
// calls and processes. An empty palette uses DefaultPalette.
func (p Palette) ColorFor(authorID string) Color {
	if len(p) == 0 {
		p = DefaultPalette
	}
	return p[xxhash.Sum64String(authorID)%uint64(len(p))]
}

// ColorFunc returns ColorFor as a ColorFunc.
func (p Palette) ColorFunc() ColorFunc {
	return p.ColorFor
}
