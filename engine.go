package marginalia

import (
	"log/slog"
	"time"
)

// EngineOptions configures an Engine.
type EngineOptions struct {
	Extract    ExtractOptions
	Resolver   ResolverOptions
	Layout     TextLayoutOptions
	Navigation NavigateOptions
	Palette    Palette

	// Scheduler drives debounced renders and highlight timers.
	// Nil means TimerScheduler.
	Scheduler Scheduler

	// FrameInterval is the debounce window for RequestRender.
	// Zero means DefaultFrameInterval.
	FrameInterval time.Duration

	Logger  *slog.Logger
	Metrics *Metrics
}

// Placement is an indicator positioned in the margin.
type Placement struct {
	Indicator Indicator
	Y         float64
}

// Frame is the result of one render pass.
type Frame struct {
	// Placements holds the indicators that could be projected, sorted by position.
	Placements []Placement

	// Resolutions holds one entry per comment, in input order.
	Resolutions []Resolution

	// Orphaned lists the IDs of comments whose anchors could not be resolved.
	Orphaned []string
}

// Engine ties extraction, resolution, aggregation and projection together.
// It keeps no state about documents or comments: every Render starts from scratch.
type Engine struct {
	opts     EngineOptions
	resolver *Resolver
	color    ColorFunc
	sched    Scheduler
	debounce *Debouncer
	logger   *slog.Logger
}

// NewEngine creates an Engine.
func NewEngine(opts EngineOptions) *Engine {
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	if opts.Scheduler == nil {
		opts.Scheduler = TimerScheduler{}
	}
	if opts.Resolver.Logger == nil {
		opts.Resolver.Logger = opts.Logger
	}
	if opts.Resolver.Metrics == nil {
		opts.Resolver.Metrics = opts.Metrics
	}

	return &Engine{
		opts:     opts,
		resolver: NewResolver(opts.Resolver),
		color:    opts.Palette.ColorFunc(),
		sched:    opts.Scheduler,
		debounce: NewDebouncer(opts.Scheduler, opts.FrameInterval),
		logger:   opts.Logger,
	}
}

// Resolver returns the engine's resolver.
func (e *Engine) Resolver() *Resolver {
	return e.resolver
}

// Color returns the engine's author color function.
func (e *Engine) Color() ColorFunc {
	return e.color
}

// Extract creates an anchor from a selection in doc.
func (e *Engine) Extract(doc ContentProvider, sel Selection) (AnchorRecord, error) {
	return Extract(doc, sel, e.opts.Extract)
}

// Layout creates a TextLayout over doc with the engine's layout options.
func (e *Engine) Layout(doc *Document) *TextLayout {
	return NewTextLayout(doc, e.opts.Layout)
}

// Projector creates a Projector over doc.
func (e *Engine) Projector(doc *Document) *Projector {
	return NewProjector(doc, e.Layout(doc), e.opts.Metrics)
}

// Navigator creates a Navigator over doc scrolling viewport.
func (e *Engine) Navigator(doc *Document, viewport Viewport) *Navigator {
	return NewNavigator(doc, e.Projector(doc), viewport, e.sched, NavigatorOptions{
		Defaults: e.opts.Navigation,
		Logger:   e.logger,
		Metrics:  e.opts.Metrics,
	})
}

// Render recomputes indicators, resolutions and placements for doc.
// Indicators whose position cannot be projected are left out of Placements.
func (e *Engine) Render(doc *Document, comments []Comment) Frame {
	var frame Frame

	frame.Resolutions = e.resolver.ResolveAll(comments, doc)
	for i, res := range frame.Resolutions {
		if !res.OK && comments[i].Anchor != nil {
			frame.Orphaned = append(frame.Orphaned, res.CommentID)
		}
	}

	indicators := BuildIndicators(comments, e.color)
	offsets := make([]int, len(indicators))
	for i, ind := range indicators {
		offsets[i] = ind.Position
	}

	for i, p := range e.Projector(doc).ProjectAll(offsets) {
		if !p.OK {
			e.logger.Debug("indicator omitted", "position", p.Offset, "comments", len(indicators[i].CommentIDs))
			continue
		}
		frame.Placements = append(frame.Placements, Placement{Indicator: indicators[i], Y: p.Y})
	}
	return frame
}

// RequestRender schedules a Render for the next frame. Requests arriving before the
// frame fires replace the pending one, so only the latest comments and callback are used.
func (e *Engine) RequestRender(doc *Document, comments []Comment, deliver func(Frame)) {
	e.debounce.Request(func() {
		if doc.Closed() {
			return
		}
		deliver(e.Render(doc, comments))
	})
}

// Stop cancels any pending render request.
func (e *Engine) Stop() {
	e.debounce.Stop()
}
