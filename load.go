package marginalia

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// blockTags are elements that start a new line in a TextLayout.
var blockTags = map[atom.Atom]bool{
	atom.Address: true, atom.Article: true, atom.Aside: true, atom.Blockquote: true,
	atom.Body: true, atom.Dd: true, atom.Div: true, atom.Dl: true, atom.Dt: true,
	atom.Figcaption: true, atom.Figure: true, atom.Footer: true, atom.H1: true,
	atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
	atom.Header: true, atom.Hr: true, atom.Li: true, atom.Main: true, atom.Nav: true,
	atom.Ol: true, atom.P: true, atom.Pre: true, atom.Section: true, atom.Table: true,
	atom.Tr: true, atom.Td: true, atom.Th: true, atom.Ul: true,
}

// skippedTags never contribute text.
var skippedTags = map[atom.Atom]bool{
	atom.Head: true, atom.Script: true, atom.Style: true, atom.Template: true,
	atom.Noscript: true,
}

// LoadHTML builds a Document from HTML. Only the body's content is kept; text inside
// script, style and similar elements is dropped. Whitespace collapses the way a
// browser renders it: runs become one space, spaces at block edges and around <br>
// disappear, and <br> is the only source of '\n' outside <pre>.
func LoadHTML(r io.Reader) (*Document, error) {
	top, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	body := findBody(top)
	if body == nil {
		body = top
	}

	imp := &htmlImporter{d: newEmptyDocument(), lineStart: true}
	for c := body.FirstChild; c != nil; c = c.NextSibling {
		imp.importNode(imp.d.root, c, false)
	}
	imp.breakLine()
	return imp.d, nil
}

func findBody(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == atom.Body {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if b := findBody(c); b != nil {
			return b
		}
	}
	return nil
}

// htmlImporter tracks the last collapsible leaf so a trailing space can be
// trimmed once the line it ends turns out to end at a block edge.
type htmlImporter struct {
	d         *Document
	last      *Node
	lineStart bool
}

func (imp *htmlImporter) importNode(parent *Node, n *html.Node, pre bool) {
	switch n.Type {
	case html.TextNode:
		imp.text(parent, n.Data, pre)

	case html.ElementNode:
		if skippedTags[n.DataAtom] {
			return
		}
		block := blockTags[n.DataAtom]
		if block {
			imp.breakLine()
		}
		el := imp.d.newElement(n.Data, block)
		imp.d.appendChild(parent, el)
		if n.DataAtom == atom.Br {
			imp.breakLine()
			imp.d.appendChild(el, imp.d.newText("\n"))
			return
		}
		pre = pre || n.DataAtom == atom.Pre
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			imp.importNode(el, c, pre)
		}
		if block {
			imp.breakLine()
		}
	}
}

func (imp *htmlImporter) text(parent *Node, data string, pre bool) {
	if pre {
		if data != "" {
			imp.d.appendChild(parent, imp.d.newText(data))
		}
		imp.last = nil
		imp.lineStart = false
		return
	}

	s := collapseSpace(data)
	if strings.HasPrefix(s, " ") && (imp.lineStart || (imp.last != nil && strings.HasSuffix(imp.last.text, " "))) {
		s = s[1:]
	}
	if s == "" {
		return
	}
	leaf := imp.d.newText(s)
	imp.d.appendChild(parent, leaf)
	imp.last = leaf
	imp.lineStart = false
}

// breakLine ends the current line: a trailing space on the last leaf is dropped,
// along with the leaf itself if nothing else is left in it.
func (imp *htmlImporter) breakLine() {
	if leaf := imp.last; leaf != nil {
		leaf.text = strings.TrimSuffix(leaf.text, " ")
		if leaf.text == "" {
			imp.d.removeLeaf(leaf)
		}
	}
	imp.last = nil
	imp.lineStart = true
}

func (d *Document) removeLeaf(n *Node) {
	if p := n.parent; p != nil {
		for i, c := range p.children {
			if c == n {
				p.children = append(p.children[:i], p.children[i+1:]...)
				break
			}
		}
	}
	n.parent = nil
	delete(d.nodeRegistry, n.id)
}

// collapseSpace replaces every run of HTML whitespace with a single space.
func collapseSpace(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	space := false
	for _, r := range s {
		switch r {
		case ' ', '\t', '\n', '\r', '\f':
			space = true
			continue
		}
		if space {
			sb.WriteByte(' ')
			space = false
		}
		sb.WriteRune(r)
	}
	if space {
		sb.WriteByte(' ')
	}
	return sb.String()
}

// LoadText builds a Document from plain text, one paragraph per blank-line
// separated block. Single newlines stay inside their paragraph.
func LoadText(r io.Reader) (*Document, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)

	var blocks []string
	var current []string
	flush := func() {
		if len(current) > 0 {
			blocks = append(blocks, strings.Join(current, "\n"))
			current = nil
		}
	}

	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		current = append(current, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read text: %w", err)
	}
	flush()

	return NewDocument(blocks...), nil
}
