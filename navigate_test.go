package marginalia

import (
	"fmt"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type navFixture struct {
	doc    *Document
	sched  *ManualScheduler
	scroll *ScrollState
	nav    *Navigator
}

func newNavFixture(t *testing.T, opts NavigatorOptions, blocks ...string) *navFixture {
	t.Helper()
	doc := NewDocument(blocks...)
	sched := NewManualScheduler()
	scroll := &ScrollState{}
	projector := NewProjector(doc, NewTextLayout(doc, TextLayoutOptions{}), opts.Metrics)
	return &navFixture{
		doc:    doc,
		sched:  sched,
		scroll: scroll,
		nav:    NewNavigator(doc, projector, scroll, sched, opts),
	}
}

// resolveText resolves the first occurrence of text in the fixture's document.
func (f *navFixture) resolveText(t *testing.T, text string) ResolvedRange {
	t.Helper()
	content := f.doc.Text()
	idx := strings.Index(content, text)
	require.GreaterOrEqual(t, idx, 0, "text %q not in document", text)
	start := utf8.RuneCountInString(content[:idx])

	rec, err := ExtractRange(f.doc, start, start+utf8.RuneCountInString(text), ExtractOptions{})
	require.NoError(t, err)
	rng, ok := NewResolver(ResolverOptions{}).Resolve(rec, f.doc)
	require.True(t, ok)
	return rng
}

func TestNavigateHighlightLifecycle(t *testing.T) {
	f := newNavFixture(t, NavigatorOptions{}, foxText, "Second paragraph.")
	before := f.doc.OutlineString()
	text := f.doc.Text()

	rng := f.resolveText(t, "brown fox")
	require.True(t, f.nav.NavigateTo(rng, NavigateOptions{}))

	assert.True(t, f.nav.Highlighted())
	assert.Equal(t, text, f.doc.Text(), "highlighting must not change the text")
	assert.Contains(t, f.doc.OutlineString(), "<mark active>")

	f.sched.Advance(DefaultHighlightDuration - time.Millisecond)
	assert.Contains(t, f.doc.OutlineString(), "<mark active>")

	f.sched.Advance(time.Millisecond)
	assert.Contains(t, f.doc.OutlineString(), "<mark fading>")
	assert.True(t, f.nav.Highlighted())

	f.sched.Advance(DefaultFadeOut)
	assert.False(t, f.nav.Highlighted())
	assert.Equal(t, before, f.doc.OutlineString())
	assert.Zero(t, f.sched.Pending())
}

func TestNavigateCustomTiming(t *testing.T) {
	f := newNavFixture(t, NavigatorOptions{}, foxText)
	before := f.doc.OutlineString()

	require.True(t, f.nav.NavigateTo(f.resolveText(t, "lazy"), NavigateOptions{
		Duration: 100 * time.Millisecond,
		FadeOut:  50 * time.Millisecond,
	}))

	f.sched.Advance(149 * time.Millisecond)
	assert.True(t, f.nav.Highlighted())
	f.sched.Advance(time.Millisecond)
	assert.False(t, f.nav.Highlighted())
	assert.Equal(t, before, f.doc.OutlineString())
}

func TestNavigateScrollsAboveTarget(t *testing.T) {
	var blocks []string
	for i := range 10 {
		blocks = append(blocks, fmt.Sprintf("paragraph %d", i))
	}
	f := newNavFixture(t, NavigatorOptions{}, blocks...)

	require.True(t, f.nav.NavigateTo(f.resolveText(t, "paragraph 9"), NavigateOptions{}))
	assert.Equal(t, 80.0, f.scroll.Y())

	require.True(t, f.nav.NavigateTo(f.resolveText(t, "paragraph 2"), NavigateOptions{ScrollOffset: 10}))
	assert.Equal(t, 30.0, f.scroll.Y())

	require.True(t, f.nav.NavigateTo(f.resolveText(t, "paragraph 1"), NavigateOptions{}))
	assert.Equal(t, 0.0, f.scroll.Y(), "scroll position is clamped at zero")
}

func TestNavigateReplacesPreviousHighlight(t *testing.T) {
	m, err := NewMetrics(nil)
	require.NoError(t, err)

	f := newNavFixture(t, NavigatorOptions{Metrics: m}, foxText, "Second paragraph.")
	before := f.doc.OutlineString()

	require.True(t, f.nav.NavigateTo(f.resolveText(t, "brown fox"), NavigateOptions{}))
	f.sched.Advance(time.Second)
	require.True(t, f.nav.NavigateTo(f.resolveText(t, "Second"), NavigateOptions{}))

	outline := f.doc.OutlineString()
	assert.Equal(t, 1, strings.Count(outline, "<mark"))
	assert.NotContains(t, outline, "\"brown fox\"")

	f.sched.Advance(DefaultHighlightDuration + DefaultFadeOut)
	assert.False(t, f.nav.Highlighted())
	assert.Equal(t, before, f.doc.OutlineString())

	assert.Equal(t, 2.0, testutil.ToFloat64(m.highlights.WithLabelValues("shown")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.highlights.WithLabelValues("canceled")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.highlights.WithLabelValues("expired")))
}

func TestNavigateAcrossBlocksRestoresStructure(t *testing.T) {
	f := newNavFixture(t, NavigatorOptions{}, foxText, "Second paragraph.")
	before := f.doc.OutlineString()

	rng := f.resolveText(t, "dog.Second")
	require.True(t, f.nav.NavigateTo(rng, NavigateOptions{}))
	assert.Equal(t, 2, strings.Count(f.doc.OutlineString(), "<mark"))

	f.nav.Clear()
	assert.False(t, f.nav.Highlighted())
	assert.Equal(t, before, f.doc.OutlineString())
}

func TestNavigateKeepsEditsMadeWhileHighlighted(t *testing.T) {
	f := newNavFixture(t, NavigatorOptions{}, foxText)
	before := f.doc.OutlineString()

	require.True(t, f.nav.NavigateTo(f.resolveText(t, "brown fox"), NavigateOptions{}))
	require.NoError(t, f.doc.InsertText(12, "X"))

	f.sched.Advance(DefaultHighlightDuration + DefaultFadeOut)
	assert.Equal(t, strings.Replace(before, "brown fox", "brXown fox", 1), f.doc.OutlineString())
}

func TestNavigateStaleRange(t *testing.T) {
	f := newNavFixture(t, NavigatorOptions{}, foxText)
	rng := f.resolveText(t, "brown fox")

	require.NoError(t, f.doc.InsertText(0, "Well, "))
	assert.False(t, f.nav.NavigateTo(rng, NavigateOptions{}))
	assert.False(t, f.nav.Highlighted())
	assert.NotContains(t, f.doc.OutlineString(), "<mark")
}

func TestNavigateInvalidRange(t *testing.T) {
	f := newNavFixture(t, NavigatorOptions{}, foxText)
	assert.False(t, f.nav.NavigateTo(ResolvedRange{Start: 5, End: 5}, NavigateOptions{}))
	assert.False(t, f.nav.NavigateTo(ResolvedRange{Start: -2, End: 3, Text: "abc"}, NavigateOptions{}))
}

func TestNavigateClosedDocument(t *testing.T) {
	f := newNavFixture(t, NavigatorOptions{}, foxText)
	rng := f.resolveText(t, "brown fox")

	require.True(t, f.nav.NavigateTo(rng, NavigateOptions{}))
	require.NoError(t, f.doc.Close())

	assert.NotPanics(t, func() {
		f.sched.Advance(DefaultHighlightDuration + DefaultFadeOut)
	})
	assert.False(t, f.nav.Highlighted())

	assert.False(t, f.nav.NavigateTo(rng, NavigateOptions{}))
}

func TestNavigateWithoutViewport(t *testing.T) {
	doc := NewDocument(foxText)
	sched := NewManualScheduler()
	nav := NewNavigator(doc, NewProjector(doc, NewTextLayout(doc, TextLayoutOptions{}), nil), nil, sched, NavigatorOptions{})

	rng, ok := NewResolver(ResolverOptions{}).Resolve(AnchorRecord{Start: 4, End: 9, Text: "quick"}, doc)
	require.True(t, ok)
	assert.True(t, nav.NavigateTo(rng, NavigateOptions{}))
}
