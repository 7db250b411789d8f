package marginalia

// DefaultContextLength is the number of runes captured on each side of an anchor.
const DefaultContextLength = 50

// AnchorRecord is the stored form of an anchor: where the selection was, what it said,
// and the text immediately around it. It is created once and never modified.
type AnchorRecord struct {
	Start         int    `json:"start" yaml:"start"`
	End           int    `json:"end" yaml:"end"`
	Text          string `json:"text" yaml:"text"`
	PrefixContext string `json:"prefix_context" yaml:"prefix"`
	SuffixContext string `json:"suffix_context" yaml:"suffix"`
}

// Valid reports whether the record has a usable shape.
func (a AnchorRecord) Valid() bool {
	return a.Start >= 0 && a.End > a.Start && a.Text != ""
}

// Len returns the length of the anchored span in runes.
func (a AnchorRecord) Len() int {
	return a.End - a.Start
}

// ExtractOptions configures anchor extraction.
type ExtractOptions struct {
	// ContextLength is the width of the prefix and suffix windows in runes.
	// Zero means DefaultContextLength.
	ContextLength int
}

func (o ExtractOptions) contextLength() int {
	if o.ContextLength <= 0 {
		return DefaultContextLength
	}
	return o.ContextLength
}

// Extract converts a selection into an AnchorRecord.
// The returned error is an *InvalidSelectionError when the selection is empty or a
// boundary cannot be located in the document.
func Extract(doc ContentProvider, sel Selection, opts ExtractOptions) (AnchorRecord, error) {
	start, ok := globalOffset(doc, sel.Start)
	if !ok {
		return AnchorRecord{}, invalidSelection("start boundary %d:%d not found", sel.Start.Leaf, sel.Start.Offset)
	}
	end, ok := globalOffset(doc, sel.End)
	if !ok {
		return AnchorRecord{}, invalidSelection("end boundary %d:%d not found", sel.End.Leaf, sel.End.Offset)
	}
	if end < start {
		start, end = end, start
	}
	return ExtractRange(doc, start, end, opts)
}

// ExtractRange builds an AnchorRecord from absolute rune offsets [start, end).
func ExtractRange(doc ContentProvider, start, end int, opts ExtractOptions) (AnchorRecord, error) {
	if end <= start {
		return AnchorRecord{}, invalidSelection("empty selection at %d", start)
	}

	full := []rune(doc.Text())
	if start < 0 || end > len(full) {
		return AnchorRecord{}, invalidSelection("range %d-%d outside document of length %d", start, end, len(full))
	}

	text := full[start:end]
	ctx := opts.contextLength()
	prefixStart := max(0, start-ctx)
	suffixEnd := min(len(full), end+ctx)

	return AnchorRecord{
		Start:         start,
		End:           start + len(text),
		Text:          string(text),
		PrefixContext: string(full[prefixStart:start]),
		SuffixContext: string(full[end:suffixEnd]),
	}, nil
}
