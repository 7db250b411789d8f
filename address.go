package marginalia

import "iter"

// NodeID uniquely identifies a node within a Document.
type NodeID uint64

// Position addresses a point inside a text leaf.
// Offset is a rune offset from the start of the leaf (0-indexed).
// A Position with Offset equal to the leaf's rune length sits at the leaf's end.
type Position struct {
	Leaf   NodeID
	Offset int
}

// Leaf is one text-bearing leaf as yielded by an ordered traversal.
type Leaf struct {
	ID   NodeID
	Text string
}

// ContentProvider exposes document text for anchoring.
// Leaves must yield text leaves depth-first in document order, and Text must equal
// the concatenation of every yielded leaf.
type ContentProvider interface {
	Leaves() iter.Seq[Leaf]
	Text() string
}

// Selection is a user selection given as two leaf positions.
// Start may come after End; Extract normalizes the direction.
type Selection struct {
	Start Position
	End   Position
}

// Rect is a rendered bounding box in layout pixels.
type Rect struct {
	Left   float64
	Top    float64
	Width  float64
	Height float64
}

// Bottom returns the bottom edge of the rectangle.
func (r Rect) Bottom() float64 {
	return r.Top + r.Height
}

// globalOffset converts a leaf position into an absolute rune offset by walking the
// leaves in order with a running counter.
func globalOffset(doc ContentProvider, pos Position) (int, bool) {
	counter := 0
	for leaf := range doc.Leaves() {
		n := runeLen(leaf.Text)
		if leaf.ID == pos.Leaf {
			if pos.Offset < 0 || pos.Offset > n {
				return 0, false
			}
			return counter + pos.Offset, true
		}
		counter += n
	}
	return 0, false
}

// locateOffset finds the leaf position for an absolute rune offset.
// When the offset falls on a boundary between two leaves, preferEnd selects the
// end of the earlier leaf instead of the start of the later one. An offset equal to
// the total length resolves to the end of the last leaf.
func locateOffset(doc ContentProvider, offset int, preferEnd bool) (Position, bool) {
	if offset < 0 {
		return Position{}, false
	}

	counter := 0
	seen := false
	var lastID NodeID
	var lastLen int
	var fallback *Position

	for leaf := range doc.Leaves() {
		n := runeLen(leaf.Text)
		if preferEnd && offset > counter && offset <= counter+n {
			return Position{Leaf: leaf.ID, Offset: offset - counter}, true
		}
		// Use < so that an offset on a boundary lands at the start of the next leaf
		if offset >= counter && offset < counter+n {
			pos := Position{Leaf: leaf.ID, Offset: offset - counter}
			if !preferEnd {
				return pos, true
			}
			if fallback == nil {
				fallback = &pos
			}
		}
		seen = true
		lastID, lastLen = leaf.ID, n
		counter += n
	}

	if fallback != nil {
		return *fallback, true
	}
	if seen && offset == counter {
		return Position{Leaf: lastID, Offset: lastLen}, true
	}
	return Position{}, false
}
