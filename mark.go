package marginalia

// leafSplit records a text leaf that was replaced by pieces while highlighted.
type leafSplit struct {
	original *Node
	pieces   []*Node
}

// highlightMark is the set of structural changes made to show one highlight.
type highlightMark struct {
	wrappers []*Node
	splits   []leafSplit
}

// wrapRange wraps the runes [start, end) in highlight nodes.
// Each overlapped leaf is split into before/inside/after pieces and the inside piece
// is wrapped individually, so a range spanning several blocks never moves text
// between parents.
func (d *Document) wrapRange(start, end int) (*highlightMark, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil, ErrDocumentClosed
	}
	if start < 0 || end <= start {
		return nil, ErrInvalidPosition
	}

	mark := &highlightMark{}
	counter := 0
	for _, leaf := range d.leafNodes() {
		n := runeLen(leaf.text)
		leafStart, leafEnd := counter, counter+n
		counter = leafEnd

		if leafEnd <= start || leafStart >= end || n == 0 {
			continue
		}

		a := max(start, leafStart) - leafStart
		b := min(end, leafEnd) - leafStart

		var pieces []*Node
		if a > 0 {
			pieces = append(pieces, d.newText(runeSlice(leaf.text, 0, a)))
		}
		wrapper := &Node{id: d.nextNodeID, kind: HighlightNode, tag: "mark", state: HighlightActive}
		d.nextNodeID++
		d.nodeRegistry[wrapper.id] = wrapper
		d.appendChild(wrapper, d.newText(runeSlice(leaf.text, a, b)))
		pieces = append(pieces, wrapper)
		if b < n {
			pieces = append(pieces, d.newText(runeSlice(leaf.text, b, n)))
		}

		d.replaceChild(leaf, pieces)
		delete(d.nodeRegistry, leaf.id)

		mark.wrappers = append(mark.wrappers, wrapper)
		mark.splits = append(mark.splits, leafSplit{original: leaf, pieces: pieces})
	}

	if end > counter || len(mark.splits) == 0 {
		d.unwrapLocked(mark)
		return nil, ErrInvalidPosition
	}
	return mark, nil
}

// setMarkState changes the visual phase of every wrapper in the mark.
func (d *Document) setMarkState(mark *highlightMark, state HighlightState) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return
	}
	for _, w := range mark.wrappers {
		w.state = state
	}
}

// unwrap removes a highlight and restores the original leaves, IDs included.
// Text edited while the highlight was showing is kept.
func (d *Document) unwrap(mark *highlightMark) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return
	}
	d.unwrapLocked(mark)
}

func (d *Document) unwrapLocked(mark *highlightMark) {
	for i := len(mark.splits) - 1; i >= 0; i-- {
		split := mark.splits[i]

		var text []byte
		var parent *Node
		at := -1
		for _, piece := range split.pieces {
			text = append(text, subtreeText(piece)...)
			if idx := indexInParent(piece); idx >= 0 && (at < 0 || idx < at) {
				parent, at = piece.parent, idx
			}
			d.unregister(piece)
		}
		if parent == nil {
			continue
		}

		kept := parent.children[:0:0]
		for _, c := range parent.children {
			if !containsNode(split.pieces, c) {
				kept = append(kept, c)
			}
		}
		orig := split.original
		orig.text = string(text)
		orig.parent = parent
		at = min(at, len(kept))
		kept = append(kept[:at], append([]*Node{orig}, kept[at:]...)...)
		parent.children = kept
		d.nodeRegistry[orig.id] = orig
	}
	mark.splits = nil
	mark.wrappers = nil
}

// replaceChild puts pieces where old was in its parent's children.
func (d *Document) replaceChild(old *Node, pieces []*Node) {
	parent := old.parent
	idx := indexInParent(old)
	children := make([]*Node, 0, len(parent.children)+len(pieces)-1)
	children = append(children, parent.children[:idx]...)
	for _, p := range pieces {
		p.parent = parent
		children = append(children, p)
	}
	children = append(children, parent.children[idx+1:]...)
	parent.children = children
	old.parent = nil
}

// unregister removes n and its descendants from the registry and detaches it.
func (d *Document) unregister(n *Node) {
	delete(d.nodeRegistry, n.id)
	for _, c := range n.children {
		d.unregister(c)
	}
}

func subtreeText(n *Node) string {
	if n.kind == TextNode {
		return n.text
	}
	var out string
	for _, c := range n.children {
		out += subtreeText(c)
	}
	return out
}

func containsNode(nodes []*Node, n *Node) bool {
	for _, x := range nodes {
		if x == n {
			return true
		}
	}
	return false
}
