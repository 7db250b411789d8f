package marginalia

import (
	"log/slog"
	"strings"
	"unicode/utf8"
)

// Strategy identifies which relocation step produced a ResolvedRange.
type Strategy int

const (
	// StrategyNone means the anchor could not be resolved (orphaned).
	StrategyNone Strategy = iota

	// StrategyExactOffset means the stored offsets still span the stored text.
	StrategyExactOffset

	// StrategyQuotedContext means prefix+text+suffix was found verbatim.
	StrategyQuotedContext

	// StrategyQuotedText means only the text was found verbatim (first occurrence).
	StrategyQuotedText

	// StrategyFuzzy means a window within the edit-distance tolerance was found.
	StrategyFuzzy
)

func (s Strategy) String() string {
	switch s {
	case StrategyExactOffset:
		return "exact_offset"
	case StrategyQuotedContext:
		return "quoted_context"
	case StrategyQuotedText:
		return "quoted_text"
	case StrategyFuzzy:
		return "fuzzy"
	default:
		return "orphaned"
	}
}

// Exact reports whether the strategy guarantees the resolved text equals the anchor text.
func (s Strategy) Exact() bool {
	return s == StrategyExactOffset || s == StrategyQuotedContext || s == StrategyQuotedText
}

// ResolvedRange is a live span in the current content. It is never persisted.
type ResolvedRange struct {
	Start    int // absolute rune offset, inclusive
	End      int // absolute rune offset, exclusive
	StartPos Position
	EndPos   Position
	Text     string // current text of the span
	Strategy Strategy
	Distance int // edit distance to the anchor text; 0 unless Strategy is StrategyFuzzy
}

// Len returns the length of the span in runes.
func (r ResolvedRange) Len() int {
	return r.End - r.Start
}

const (
	// DefaultTolerancePercent is the fuzzy edit-distance budget as a percentage of
	// the anchor length, rounded down.
	DefaultTolerancePercent = 20

	// DefaultMaxFuzzyRunes bounds the document length for which fuzzy matching runs.
	DefaultMaxFuzzyRunes = 100_000
)

// ResolverOptions configures a Resolver.
type ResolverOptions struct {
	// TolerancePercent is the maximum edit distance as a percentage of the anchor
	// length. The budget is floor(TolerancePercent * len / 100).
	// Zero means DefaultTolerancePercent; negative disables fuzzy matching.
	TolerancePercent int

	// MaxFuzzyRunes skips fuzzy matching on documents longer than this.
	// Zero means DefaultMaxFuzzyRunes.
	MaxFuzzyRunes int

	Logger  *slog.Logger
	Metrics *Metrics
}

// Resolver relocates anchors in current content. It holds no state between calls.
type Resolver struct {
	tolerancePercent int
	maxFuzzyRunes    int
	logger           *slog.Logger
	metrics          *Metrics
}

// NewResolver creates a Resolver with the given options.
func NewResolver(opts ResolverOptions) *Resolver {
	r := &Resolver{
		tolerancePercent: opts.TolerancePercent,
		maxFuzzyRunes:    opts.MaxFuzzyRunes,
		logger:           opts.Logger,
		metrics:          opts.Metrics,
	}
	if r.tolerancePercent == 0 {
		r.tolerancePercent = DefaultTolerancePercent
	}
	if r.maxFuzzyRunes <= 0 {
		r.maxFuzzyRunes = DefaultMaxFuzzyRunes
	}
	if r.logger == nil {
		r.logger = slog.New(slog.DiscardHandler)
	}
	return r
}

// Tolerance returns the maximum accepted edit distance for an anchor of length n.
func (r *Resolver) Tolerance(n int) int {
	if r.tolerancePercent < 0 {
		return -1
	}
	return n * r.tolerancePercent / 100
}

// Resolve relocates rec in doc. Strategies run in order and the first success wins:
// exact offsets, quoted context (falling back to the first verbatim occurrence of the
// text), then fuzzy matching. The second result is false when the anchor is orphaned.
func (r *Resolver) Resolve(rec AnchorRecord, doc ContentProvider) (ResolvedRange, bool) {
	if !rec.Valid() {
		r.logger.Debug("anchor has invalid shape", "start", rec.Start, "end", rec.End)
		r.metrics.observeResolution(StrategyNone, 0)
		return ResolvedRange{}, false
	}

	content := doc.Text()

	rng, ok := r.resolveExact(rec, doc, content)
	if !ok {
		rng, ok = r.resolveQuoted(rec, doc, content)
	}
	if !ok {
		rng, ok = r.resolveFuzzy(rec, doc, content)
	}

	if !ok {
		r.logger.Debug("anchor orphaned", "start", rec.Start, "end", rec.End, "text", rec.Text)
		r.metrics.observeResolution(StrategyNone, 0)
		return ResolvedRange{}, false
	}

	r.logger.Debug("anchor resolved",
		"strategy", rng.Strategy.String(),
		"start", rng.Start,
		"end", rng.End,
		"shift", rng.Start-rec.Start,
		"distance", rng.Distance)
	r.metrics.observeResolution(rng.Strategy, rng.Distance)
	return rng, true
}

// Resolution is the outcome of resolving one comment's anchor.
type Resolution struct {
	CommentID string
	Range     ResolvedRange
	OK        bool
}

// ResolveAll resolves every comment in input order. Comments without an anchor are
// reported as not OK.
func (r *Resolver) ResolveAll(comments []Comment, doc ContentProvider) []Resolution {
	out := make([]Resolution, len(comments))
	for i, c := range comments {
		out[i].CommentID = c.ID
		if c.Anchor == nil {
			continue
		}
		out[i].Range, out[i].OK = r.Resolve(*c.Anchor, doc)
	}
	return out
}

// resolveExact accepts the stored offsets only if they still span the stored text.
func (r *Resolver) resolveExact(rec AnchorRecord, doc ContentProvider, content string) (ResolvedRange, bool) {
	startByte, ok := runeToByte(content, rec.Start)
	if !ok {
		return ResolvedRange{}, false
	}
	endByte, ok := runeToByte(content, rec.End)
	if !ok {
		return ResolvedRange{}, false
	}
	if content[startByte:endByte] != rec.Text {
		return ResolvedRange{}, false
	}
	return buildRange(doc, rec.Start, rec.End, rec.Text, StrategyExactOffset, 0)
}

// resolveQuoted searches for the text with its context, then for the text alone.
func (r *Resolver) resolveQuoted(rec AnchorRecord, doc ContentProvider, content string) (ResolvedRange, bool) {
	quote := rec.PrefixContext + rec.Text + rec.SuffixContext
	if idx := strings.Index(content, quote); idx >= 0 {
		start := utf8.RuneCountInString(content[:idx]) + runeLen(rec.PrefixContext)
		return buildRange(doc, start, start+runeLen(rec.Text), rec.Text, StrategyQuotedContext, 0)
	}

	if idx := strings.Index(content, rec.Text); idx >= 0 {
		start := utf8.RuneCountInString(content[:idx])
		return buildRange(doc, start, start+runeLen(rec.Text), rec.Text, StrategyQuotedText, 0)
	}
	return ResolvedRange{}, false
}

// resolveFuzzy slides a window of the anchor's length across the content and accepts
// the first window within the tolerance.
func (r *Resolver) resolveFuzzy(rec AnchorRecord, doc ContentProvider, content string) (ResolvedRange, bool) {
	needle := []rune(rec.Text)
	bound := r.Tolerance(len(needle))
	if bound < 0 {
		return ResolvedRange{}, false
	}

	hay := []rune(content)
	if len(hay) > r.maxFuzzyRunes {
		r.logger.Debug("document too long for fuzzy matching", "runes", len(hay), "limit", r.maxFuzzyRunes)
		return ResolvedRange{}, false
	}

	w := len(needle)
	for start := 0; start+w <= len(hay); start++ {
		dist := boundedLevenshtein(hay[start:start+w], needle, bound)
		if dist <= bound {
			return buildRange(doc, start, start+w, string(hay[start:start+w]), StrategyFuzzy, dist)
		}
	}
	return ResolvedRange{}, false
}

// buildRange attaches leaf positions to an absolute span.
func buildRange(doc ContentProvider, start, end int, text string, strategy Strategy, distance int) (ResolvedRange, bool) {
	startPos, ok := locateOffset(doc, start, false)
	if !ok {
		return ResolvedRange{}, false
	}
	endPos, ok := locateOffset(doc, end, true)
	if !ok {
		return ResolvedRange{}, false
	}
	return ResolvedRange{
		Start:    start,
		End:      end,
		StartPos: startPos,
		EndPos:   endPos,
		Text:     text,
		Strategy: strategy,
		Distance: distance,
	}, true
}

// runeToByte converts a rune offset into a byte offset within s.
// An offset equal to the rune count maps to len(s).
func runeToByte(s string, runeOffset int) (int, bool) {
	if runeOffset < 0 {
		return 0, false
	}
	i := 0
	for byteIdx := range s {
		if i == runeOffset {
			return byteIdx, true
		}
		i++
	}
	if i == runeOffset {
		return len(s), true
	}
	return 0, false
}
