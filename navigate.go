package marginalia

import (
	"log/slog"
	"sync"
	"time"
)

const (
	// DefaultScrollOffset is how far above the viewport top a target is placed.
	DefaultScrollOffset = 100.0

	// DefaultHighlightDuration is how long a highlight stays fully visible.
	DefaultHighlightDuration = 2000 * time.Millisecond

	// DefaultFadeOut is how long a highlight fades before it is removed.
	DefaultFadeOut = 300 * time.Millisecond
)

// Viewport is the scrollable area the document is shown in.
type Viewport interface {
	ScrollTo(y float64)
}

// ScrollState is a Viewport that remembers the last scroll position.
type ScrollState struct {
	mu sync.Mutex
	y  float64
}

// ScrollTo implements Viewport.
func (s *ScrollState) ScrollTo(y float64) {
	s.mu.Lock()
	s.y = y
	s.mu.Unlock()
}

// Y returns the current scroll position.
func (s *ScrollState) Y() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.y
}

// NavigateOptions configures one navigation.
type NavigateOptions struct {
	ScrollOffset float64       // zero means DefaultScrollOffset
	Duration     time.Duration // zero means DefaultHighlightDuration
	FadeOut      time.Duration // zero means DefaultFadeOut
}

func (o NavigateOptions) withDefaults(base NavigateOptions) NavigateOptions {
	if o.ScrollOffset == 0 {
		o.ScrollOffset = base.ScrollOffset
	}
	if o.Duration == 0 {
		o.Duration = base.Duration
	}
	if o.FadeOut == 0 {
		o.FadeOut = base.FadeOut
	}
	if o.ScrollOffset == 0 {
		o.ScrollOffset = DefaultScrollOffset
	}
	if o.Duration == 0 {
		o.Duration = DefaultHighlightDuration
	}
	if o.FadeOut == 0 {
		o.FadeOut = DefaultFadeOut
	}
	return o
}

// NavigatorOptions configures a Navigator.
type NavigatorOptions struct {
	Defaults NavigateOptions
	Logger   *slog.Logger
	Metrics  *Metrics
}

// Navigator scrolls to resolved ranges and highlights them for a while.
// Only one highlight exists at a time; starting a new one removes the previous one.
type Navigator struct {
	doc       *Document
	projector *Projector
	viewport  Viewport
	sched     Scheduler
	defaults  NavigateOptions
	logger    *slog.Logger
	metrics   *Metrics

	mu      sync.Mutex
	current *activeHighlight
}

type activeHighlight struct {
	mark    *highlightMark
	pending Handle
}

// NewNavigator creates a Navigator. A nil scheduler uses TimerScheduler.
func NewNavigator(doc *Document, projector *Projector, viewport Viewport, sched Scheduler, opts NavigatorOptions) *Navigator {
	if sched == nil {
		sched = TimerScheduler{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	return &Navigator{
		doc:       doc,
		projector: projector,
		viewport:  viewport,
		sched:     sched,
		defaults:  opts.Defaults,
		logger:    opts.Logger,
		metrics:   opts.Metrics,
	}
}

// NavigateTo scrolls rng into view and highlights it. It returns false when the range
// no longer spans its text in the current content.
func (n *Navigator) NavigateTo(rng ResolvedRange, opts NavigateOptions) bool {
	opts = opts.withDefaults(n.defaults)

	if rng.Start < 0 || rng.End <= rng.Start || n.doc.Closed() {
		n.metrics.observeHighlight("skipped")
		return false
	}

	n.clear()

	if current := []rune(n.doc.Text()); rng.End > len(current) || string(current[rng.Start:rng.End]) != rng.Text {
		n.logger.Debug("navigation target is stale", "start", rng.Start, "end", rng.End)
		n.metrics.observeHighlight("skipped")
		return false
	}

	y, ok := n.projector.Project(rng.Start)
	if !ok {
		n.logger.Debug("navigation target not projectable", "start", rng.Start)
		n.metrics.observeHighlight("skipped")
		return false
	}

	mark, err := n.doc.wrapRange(rng.Start, rng.End)
	if err != nil {
		n.logger.Debug("navigation target not highlightable", "start", rng.Start, "end", rng.End, "error", err)
		n.metrics.observeHighlight("skipped")
		return false
	}

	if n.viewport != nil {
		n.viewport.ScrollTo(max(0, y-opts.ScrollOffset))
	}

	h := &activeHighlight{mark: mark}
	n.mu.Lock()
	n.current = h
	h.pending = n.sched.Schedule(opts.Duration, func() {
		n.doc.setMarkState(mark, HighlightFading)

		n.mu.Lock()
		defer n.mu.Unlock()
		if n.current != h {
			return
		}
		h.pending = n.sched.Schedule(opts.FadeOut, func() {
			n.mu.Lock()
			defer n.mu.Unlock()
			if n.current != h {
				return
			}
			n.current = nil
			n.doc.unwrap(mark)
			n.metrics.observeHighlight("expired")
		})
	})
	n.mu.Unlock()

	n.metrics.observeHighlight("shown")
	return true
}

// Clear removes the current highlight immediately.
func (n *Navigator) Clear() {
	n.clear()
}

// Highlighted reports whether a highlight is currently showing.
func (n *Navigator) Highlighted() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.current != nil
}

func (n *Navigator) clear() {
	n.mu.Lock()
	h := n.current
	n.current = nil
	var pending Handle
	if h != nil {
		pending = h.pending
	}
	n.mu.Unlock()

	if h == nil {
		return
	}
	if pending != nil {
		pending.Cancel()
	}
	n.doc.unwrap(h.mark)
	n.logger.Debug("highlight replaced")
	n.metrics.observeHighlight("canceled")
}
