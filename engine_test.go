package marginalia

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T, sched Scheduler) *Engine {
	t.Helper()
	return NewEngine(EngineOptions{Scheduler: sched})
}

func TestEngineRender(t *testing.T) {
	original := NewDocument(foxText, "Second paragraph.")
	e := newTestEngine(t, NewManualScheduler())

	fox, err := e.Extract(original, Selection{
		Start: Position{Leaf: 3, Offset: 10},
		End:   Position{Leaf: 3, Offset: 19},
	})
	require.NoError(t, err)
	second, err := e.Extract(original, Selection{
		Start: Position{Leaf: 5, Offset: 0},
		End:   Position{Leaf: 5, Offset: 6},
	})
	require.NoError(t, err)

	comments := []Comment{
		{ID: "c1", AuthorID: "alice", Anchor: &fox, Status: StatusApproved},
		{ID: "c2", AuthorID: "bob", Anchor: &second},
		{ID: "c3", AuthorID: "carol", Anchor: &AnchorRecord{Start: 70, End: 76, Text: "zebras"}},
		{ID: "c4", AuthorID: "dave"},
	}

	frame := e.Render(original, comments)

	require.Len(t, frame.Resolutions, 4)
	assert.True(t, frame.Resolutions[0].OK)
	assert.True(t, frame.Resolutions[1].OK)
	assert.False(t, frame.Resolutions[2].OK)
	assert.False(t, frame.Resolutions[3].OK)
	assert.Equal(t, []string{"c3"}, frame.Orphaned)

	// c3's original offset is past the end of the document, so only two indicators fit.
	require.Len(t, frame.Placements, 2)
	assert.Equal(t, 10, frame.Placements[0].Indicator.Position)
	assert.Equal(t, 0.0, frame.Placements[0].Y)
	assert.Equal(t, DefaultPalette.ColorFor("alice"), frame.Placements[0].Indicator.PrimaryColor())
	assert.Equal(t, 44, frame.Placements[1].Indicator.Position)
	assert.Equal(t, 20.0, frame.Placements[1].Y)
}

func TestEngineRenderAfterEdit(t *testing.T) {
	doc := NewDocument(foxText)
	e := newTestEngine(t, NewManualScheduler())

	rec, err := ExtractRange(doc, 10, 19, ExtractOptions{})
	require.NoError(t, err)
	comments := []Comment{{ID: "c1", AuthorID: "alice", Anchor: &rec}}

	require.NoError(t, doc.InsertText(4, "very "))
	frame := e.Render(doc, comments)

	require.Len(t, frame.Resolutions, 1)
	res := frame.Resolutions[0]
	require.True(t, res.OK)
	assert.Equal(t, 15, res.Range.Start)
	assert.Equal(t, "brown fox", res.Range.Text)
	assert.Empty(t, frame.Orphaned)

	// Indicators stay at the original offset.
	require.Len(t, frame.Placements, 1)
	assert.Equal(t, 10, frame.Placements[0].Indicator.Position)
}

func TestEngineRequestRenderIsDebounced(t *testing.T) {
	sched := NewManualScheduler()
	e := newTestEngine(t, sched)
	doc := NewDocument(foxText)

	var frames []Frame
	var stale int
	e.RequestRender(doc, nil, func(Frame) { stale++ })
	e.RequestRender(doc, []Comment{{ID: "c1", Anchor: &AnchorRecord{Start: 4, End: 9, Text: "quick"}}}, func(f Frame) {
		frames = append(frames, f)
	})

	sched.Advance(DefaultFrameInterval)
	assert.Zero(t, stale)
	require.Len(t, frames, 1)
	assert.Len(t, frames[0].Placements, 1)
}

func TestEngineRequestRenderSkipsClosedDocument(t *testing.T) {
	sched := NewManualScheduler()
	e := newTestEngine(t, sched)
	doc := NewDocument(foxText)

	delivered := false
	e.RequestRender(doc, nil, func(Frame) { delivered = true })
	require.NoError(t, doc.Close())

	sched.Advance(DefaultFrameInterval)
	assert.False(t, delivered)
}

func TestEngineStop(t *testing.T) {
	sched := NewManualScheduler()
	e := newTestEngine(t, sched)

	delivered := false
	e.RequestRender(NewDocument("x"), nil, func(Frame) { delivered = true })
	e.Stop()

	sched.Advance(DefaultFrameInterval)
	assert.False(t, delivered)
}

func TestEngineNavigator(t *testing.T) {
	sched := NewManualScheduler()
	e := NewEngine(EngineOptions{
		Scheduler:  sched,
		Navigation: NavigateOptions{ScrollOffset: 5},
	})
	doc := NewDocument("one", "two", "three")
	scroll := &ScrollState{}

	rng, ok := e.Resolver().Resolve(AnchorRecord{Start: 6, End: 11, Text: "three"}, doc)
	require.True(t, ok)

	nav := e.Navigator(doc, scroll)
	require.True(t, nav.NavigateTo(rng, NavigateOptions{}))
	assert.Equal(t, 35.0, scroll.Y())
}

func TestEngineLogsOrphans(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	e := NewEngine(EngineOptions{Scheduler: NewManualScheduler(), Logger: logger})
	e.Render(NewDocument("abc"), []Comment{{ID: "c1", Anchor: &AnchorRecord{Start: 0, End: 3, Text: "xyz"}}})

	assert.Contains(t, buf.String(), "anchor orphaned")
}
