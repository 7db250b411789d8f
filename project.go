package marginalia

// Projection is the outcome of projecting one offset.
type Projection struct {
	Offset int
	Y      float64
	OK     bool
}

// Projector maps character offsets to vertical pixel positions relative to the top
// of the container, for placing margin indicators.
type Projector struct {
	doc     ContentProvider
	layout  Layout
	metrics *Metrics
}

// NewProjector creates a Projector over doc measured by layout.
func NewProjector(doc ContentProvider, layout Layout, metrics *Metrics) *Projector {
	return &Projector{doc: doc, layout: layout, metrics: metrics}
}

// Project returns the y offset of the rune at offset, relative to the container top.
// It is false when the offset is past the current content or cannot be measured.
func (p *Projector) Project(offset int) (float64, bool) {
	pos, ok := locateOffset(p.doc, offset, false)
	if !ok {
		p.metrics.observeProjection(false)
		return 0, false
	}

	rect, ok := p.layout.CaretRect(pos)
	if !ok {
		p.metrics.observeProjection(false)
		return 0, false
	}

	p.metrics.observeProjection(true)
	return rect.Top - p.layout.Bounds().Top, true
}

// ProjectAll projects each offset independently; the result order matches the input.
func (p *Projector) ProjectAll(offsets []int) []Projection {
	out := make([]Projection, len(offsets))
	for i, off := range offsets {
		y, ok := p.Project(off)
		out[i] = Projection{Offset: off, Y: y, OK: ok}
	}
	return out
}
