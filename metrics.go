package marginalia

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts anchoring outcomes. A nil *Metrics records nothing.
type Metrics struct {
	resolutions   *prometheus.CounterVec
	fuzzyDistance prometheus.Histogram
	projections   *prometheus.CounterVec
	highlights    *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
// A nil reg leaves them unregistered, which is convenient in tests.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		resolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "marginalia",
			Name:      "resolutions_total",
			Help:      "Anchor resolutions by winning strategy (orphaned when none matched).",
		}, []string{"strategy"}),
		fuzzyDistance: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "marginalia",
			Name:      "fuzzy_distance",
			Help:      "Edit distance of anchors resolved by fuzzy matching.",
			Buckets:   []float64{0, 1, 2, 4, 8, 16, 32},
		}),
		projections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "marginalia",
			Name:      "projections_total",
			Help:      "Offset projections by result.",
		}, []string{"result"}),
		highlights: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "marginalia",
			Name:      "highlights_total",
			Help:      "Navigation highlights by result.",
		}, []string{"result"}),
	}

	if reg != nil {
		for _, c := range []prometheus.Collector{m.resolutions, m.fuzzyDistance, m.projections, m.highlights} {
			if err := reg.Register(c); err != nil {
				return nil, err
			}
		}
	}
	return m, nil
}

func (m *Metrics) observeResolution(strategy Strategy, distance int) {
	if m == nil {
		return
	}
	m.resolutions.WithLabelValues(strategy.String()).Inc()
	if strategy == StrategyFuzzy {
		m.fuzzyDistance.Observe(float64(distance))
	}
}

func (m *Metrics) observeProjection(ok bool) {
	if m == nil {
		return
	}
	if ok {
		m.projections.WithLabelValues("ok").Inc()
	} else {
		m.projections.WithLabelValues("unavailable").Inc()
	}
}

func (m *Metrics) observeHighlight(result string) {
	if m == nil {
		return
	}
	m.highlights.WithLabelValues(result).Inc()
}
