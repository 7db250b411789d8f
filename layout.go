package marginalia

import (
	"github.com/mattn/go-runewidth"
)

// Layout measures rendered positions of a document.
type Layout interface {
	// CaretRect returns the bounding box of a zero-width position.
	CaretRect(pos Position) (Rect, bool)

	// Bounds returns the bounding box of the whole container.
	Bounds() Rect
}

// TextLayoutOptions configures a TextLayout.
type TextLayoutOptions struct {
	Columns    int     // wrap width in terminal cells; 0 disables soft wrapping
	LineHeight float64 // pixels per line; 0 means 20
	CellWidth  float64 // pixels per cell; 0 means 8
	Top        float64 // container top edge in the page
	Left       float64 // container left edge in the page
	BlockGap   float64 // extra pixels between block elements
}

// TextLayout lays a Document out as monospace lines: block elements start a new line,
// '\n' breaks a line, and text soft-wraps at Columns cells. Wide runes take two cells.
// It measures the document as it is at call time and keeps nothing between calls.
type TextLayout struct {
	doc  *Document
	opts TextLayoutOptions
}

// NewTextLayout creates a layout over doc.
func NewTextLayout(doc *Document, opts TextLayoutOptions) *TextLayout {
	if opts.LineHeight <= 0 {
		opts.LineHeight = 20
	}
	if opts.CellWidth <= 0 {
		opts.CellWidth = 8
	}
	return &TextLayout{doc: doc, opts: opts}
}

// Bounds returns the container box; its height covers every laid-out line.
func (l *TextLayout) Bounds() Rect {
	lines, gaps := l.measure(Position{}, false)
	return Rect{
		Left:   l.opts.Left,
		Top:    l.opts.Top,
		Width:  float64(l.opts.Columns) * l.opts.CellWidth,
		Height: float64(lines.line+1)*l.opts.LineHeight + float64(gaps)*l.opts.BlockGap,
	}
}

// CaretRect returns a zero-width box at pos. It is false when pos is not in the document.
func (l *TextLayout) CaretRect(pos Position) (Rect, bool) {
	at, gaps := l.measure(pos, true)
	if !at.found {
		return Rect{}, false
	}
	return Rect{
		Left:   l.opts.Left + float64(at.col)*l.opts.CellWidth,
		Top:    l.opts.Top + float64(at.line)*l.opts.LineHeight + float64(gaps)*l.opts.BlockGap,
		Width:  0,
		Height: l.opts.LineHeight,
	}, true
}

type caret struct {
	line  int
	col   int
	found bool
}

// measure walks the tree accumulating lines and columns. With stopAt it returns as soon
// as the target position is reached; otherwise it returns the final caret.
func (l *TextLayout) measure(target Position, stopAt bool) (caret, int) {
	l.doc.mu.RLock()
	defer l.doc.mu.RUnlock()

	var c caret
	gaps := 0
	started := false
	var lastBlock *Node

	for _, leaf := range l.doc.leafNodes() {
		block := l.doc.blockOf(leaf)
		if started && block != lastBlock {
			c.line++
			c.col = 0
			gaps++
		}
		lastBlock = block
		started = true

		offset := 0
		for _, r := range leaf.text {
			w := 0
			if r != '\n' {
				w = runewidth.RuneWidth(r)
				// wrap before the target check so a caret reports the rune's own line
				if l.opts.Columns > 0 && c.col > 0 && c.col+w > l.opts.Columns {
					c.line++
					c.col = 0
				}
			}
			if stopAt && leaf.id == target.Leaf && offset == target.Offset {
				c.found = true
				return c, gaps
			}
			offset++

			if r == '\n' {
				c.line++
				c.col = 0
				continue
			}
			c.col += w
		}
		if stopAt && leaf.id == target.Leaf && offset == target.Offset {
			c.found = true
			return c, gaps
		}
	}
	return c, gaps
}
