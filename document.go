package marginalia

import (
	"fmt"
	"io"
	"iter"
	"strings"
	"sync"
	"unicode/utf8"
)

// NodeKind distinguishes element nodes from text leaves.
type NodeKind int

const (
	// ElementNode is a container with children and no text of its own.
	ElementNode NodeKind = iota

	// TextNode is an addressable text leaf.
	TextNode

	// HighlightNode is a temporary element wrapping highlighted text.
	// It only exists while a navigation highlight is showing.
	HighlightNode
)

func (k NodeKind) String() string {
	switch k {
	case ElementNode:
		return "element"
	case TextNode:
		return "text"
	case HighlightNode:
		return "highlight"
	default:
		return "unknown"
	}
}

// HighlightState is the visual phase of a highlight node.
type HighlightState int

const (
	// HighlightActive is the fully visible phase.
	HighlightActive HighlightState = iota

	// HighlightFading is the phase between the highlight duration and removal.
	HighlightFading
)

func (s HighlightState) String() string {
	if s == HighlightFading {
		return "fading"
	}
	return "active"
}

// Node is a single node in the document tree.
type Node struct {
	id     NodeID
	kind   NodeKind
	tag    string
	block  bool
	text   string // TextNode only
	state  HighlightState
	parent *Node

	children []*Node
}

// ID returns the node's unique identifier.
func (n *Node) ID() NodeID {
	return n.id
}

// Kind returns whether this is an element, text leaf, or highlight.
func (n *Node) Kind() NodeKind {
	return n.kind
}

// Document is an ordered tree of element nodes and text leaves.
// The concatenated text of all leaves in depth-first order is the document content
// that anchors address.
type Document struct {
	root         *Node
	nodeRegistry map[NodeID]*Node
	nextNodeID   NodeID
	closed       bool
	mu           sync.RWMutex
}

// NewDocument creates a document with one paragraph block per string.
func NewDocument(blocks ...string) *Document {
	d := newEmptyDocument()
	for _, text := range blocks {
		p := d.newElement("p", true)
		d.appendChild(d.root, p)
		d.appendChild(p, d.newText(text))
	}
	return d
}

// newEmptyDocument creates a document with only a root element.
func newEmptyDocument() *Document {
	d := &Document{
		nodeRegistry: make(map[NodeID]*Node),
		nextNodeID:   1,
	}
	d.root = d.newElement("body", true)
	return d
}

// Root returns the ID of the root element.
func (d *Document) Root() NodeID {
	return d.root.id
}

// Close releases the tree. Pending highlight removals become no-ops.
func (d *Document) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.closed = true
	d.nodeRegistry = make(map[NodeID]*Node)
	d.root = &Node{kind: ElementNode, tag: "body", block: true}
	return nil
}

// Closed reports whether Close has been called.
func (d *Document) Closed() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.closed
}

// Leaves yields every text leaf depth-first in document order.
// The leaves are captured when iteration starts, so callers may use the document
// from inside the loop.
func (d *Document) Leaves() iter.Seq[Leaf] {
	return func(yield func(Leaf) bool) {
		d.mu.RLock()
		nodes := d.leafNodes()
		leaves := make([]Leaf, len(nodes))
		for i, n := range nodes {
			leaves[i] = Leaf{ID: n.id, Text: n.text}
		}
		d.mu.RUnlock()

		for _, leaf := range leaves {
			if !yield(leaf) {
				return
			}
		}
	}
}

// Text returns the concatenated text of all leaves.
func (d *Document) Text() string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var sb strings.Builder
	for _, n := range d.leafNodes() {
		sb.WriteString(n.text)
	}
	return sb.String()
}

// RuneCount returns the total number of runes in the document.
func (d *Document) RuneCount() int {
	d.mu.RLock()
	defer d.mu.RUnlock()

	total := 0
	for _, n := range d.leafNodes() {
		total += runeLen(n.text)
	}
	return total
}

// LeafText returns the text of a single leaf.
func (d *Document) LeafText(id NodeID) (string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	n, ok := d.nodeRegistry[id]
	if !ok {
		return "", ErrNodeNotFound
	}
	if n.kind != TextNode {
		return "", ErrNotALeaf
	}
	return n.text, nil
}

// AppendElement adds an element as the last child of parent and returns its ID.
func (d *Document) AppendElement(parent NodeID, tag string, block bool) (NodeID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	p, err := d.containerLocked(parent)
	if err != nil {
		return 0, err
	}
	n := d.newElement(tag, block)
	d.appendChild(p, n)
	return n.id, nil
}

// AppendText adds a text leaf as the last child of parent and returns its ID.
func (d *Document) AppendText(parent NodeID, text string) (NodeID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	p, err := d.containerLocked(parent)
	if err != nil {
		return 0, err
	}
	n := d.newText(text)
	d.appendChild(p, n)
	return n.id, nil
}

// InsertText inserts s at an absolute rune offset.
// An offset on a leaf boundary extends the earlier leaf.
func (d *Document) InsertText(offset int, s string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return ErrDocumentClosed
	}

	leaves := d.leafNodes()
	if len(leaves) == 0 {
		if offset != 0 {
			return ErrInvalidPosition
		}
		p := d.newElement("p", true)
		d.appendChild(d.root, p)
		d.appendChild(p, d.newText(s))
		return nil
	}

	counter := 0
	for _, n := range leaves {
		length := runeLen(n.text)
		if offset >= counter && offset <= counter+length {
			local := offset - counter
			n.text = runeSlice(n.text, 0, local) + s + runeSlice(n.text, local, length)
			return nil
		}
		counter += length
	}
	return ErrInvalidPosition
}

// DeleteText removes length runes starting at an absolute rune offset.
// The deletion may span several leaves; emptied leaves stay in the tree.
func (d *Document) DeleteText(offset, length int) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return ErrDocumentClosed
	}
	if offset < 0 || length < 0 {
		return ErrInvalidPosition
	}

	end := offset + length
	counter := 0
	for _, n := range d.leafNodes() {
		counter += runeLen(n.text)
	}
	if end > counter {
		return ErrInvalidPosition
	}

	counter = 0
	for _, n := range d.leafNodes() {
		n0 := runeLen(n.text)
		leafStart, leafEnd := counter, counter+n0
		counter = leafEnd

		if leafEnd <= offset || leafStart >= end {
			continue
		}
		a := max(offset, leafStart) - leafStart
		b := min(end, leafEnd) - leafStart
		n.text = runeSlice(n.text, 0, a) + runeSlice(n.text, b, n0)
	}
	return nil
}

// ReplaceText replaces length runes at offset with s.
func (d *Document) ReplaceText(offset, length int, s string) error {
	if err := d.DeleteText(offset, length); err != nil {
		return err
	}
	return d.InsertText(offset, s)
}

// Outline writes an indented description of the tree, one node per line.
func (d *Document) Outline(w io.Writer) error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return d.outlineNode(w, d.root, 0)
}

// OutlineString returns the Outline as a string.
func (d *Document) OutlineString() string {
	var sb strings.Builder
	_ = d.Outline(&sb)
	return sb.String()
}

func (d *Document) outlineNode(w io.Writer, n *Node, depth int) error {
	indent := strings.Repeat("  ", depth)
	var err error
	switch n.kind {
	case TextNode:
		_, err = fmt.Fprintf(w, "%s#%d %q\n", indent, n.id, n.text)
	case HighlightNode:
		_, err = fmt.Fprintf(w, "%s#%d <mark %s>\n", indent, n.id, n.state)
	default:
		_, err = fmt.Fprintf(w, "%s#%d <%s>\n", indent, n.id, n.tag)
	}
	if err != nil {
		return err
	}
	for _, child := range n.children {
		if err := d.outlineNode(w, child, depth+1); err != nil {
			return err
		}
	}
	return nil
}

// Internal tree helpers. Callers must hold d.mu.

func (d *Document) newElement(tag string, block bool) *Node {
	n := &Node{id: d.nextNodeID, kind: ElementNode, tag: tag, block: block}
	d.nextNodeID++
	d.nodeRegistry[n.id] = n
	return n
}

func (d *Document) newText(text string) *Node {
	n := &Node{id: d.nextNodeID, kind: TextNode, text: text}
	d.nextNodeID++
	d.nodeRegistry[n.id] = n
	return n
}

func (d *Document) appendChild(parent, child *Node) {
	child.parent = parent
	parent.children = append(parent.children, child)
}

func (d *Document) containerLocked(id NodeID) (*Node, error) {
	if d.closed {
		return nil, ErrDocumentClosed
	}
	n, ok := d.nodeRegistry[id]
	if !ok {
		return nil, ErrNodeNotFound
	}
	if n.kind == TextNode {
		return nil, fmt.Errorf("node %d: %w", id, ErrNotALeaf)
	}
	return n, nil
}

// leafNodes returns all text leaves depth-first in document order.
func (d *Document) leafNodes() []*Node {
	var out []*Node
	var walk func(n *Node)
	walk = func(n *Node) {
		if n.kind == TextNode {
			out = append(out, n)
			return
		}
		for _, child := range n.children {
			walk(child)
		}
	}
	walk(d.root)
	return out
}

// blockOf returns the nearest block-level ancestor of n, or the root.
func (d *Document) blockOf(n *Node) *Node {
	for p := n.parent; p != nil; p = p.parent {
		if p.block {
			return p
		}
	}
	return d.root
}

// indexInParent returns the position of n among its parent's children, or -1.
func indexInParent(n *Node) int {
	if n.parent == nil {
		return -1
	}
	for i, c := range n.parent.children {
		if c == n {
			return i
		}
	}
	return -1
}

// runeLen returns the number of runes in s.
func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}

// runeSlice returns the runes [from, to) of s.
func runeSlice(s string, from, to int) string {
	if from >= to {
		return ""
	}
	start, end := -1, len(s)
	i := 0
	for byteIdx := range s {
		if i == from {
			start = byteIdx
		}
		if i == to {
			end = byteIdx
			break
		}
		i++
	}
	if start < 0 {
		return ""
	}
	return s[start:end]
}
