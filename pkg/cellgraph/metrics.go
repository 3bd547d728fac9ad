package cellgraph

import "github.com/prometheus/client_golang/prometheus"

// Metrics collects prometheus counters and gauges for a Runtime's activity:
// recomputations, verifications, durability-shortcut hits, cycles detected,
// and the current revision. A Runtime with a nil Metrics field (the
// default) does no metrics work at all.
//
// Metrics implements prometheus.Collector so the host application registers
// it into its own prometheus.Registry, the same way any instrumented
// library exposes metrics — cellgraph never starts an HTTP server or owns a
// registry itself.
type Metrics struct {
	recomputes        prometheus.Counter
	verifications     prometheus.Counter
	verificationsSkip prometheus.Counter
	cycles            prometheus.Counter
	commits           prometheus.Counter
	currentRevision   prometheus.Gauge
	rt                *Runtime
}

// NewMetrics creates a Metrics collector labeled with name (used as a
// constant "runtime" label so multiple Runtimes can share one registry).
// Attach it to a Runtime by assigning rt.Metrics = m, then register m with
// a prometheus.Registerer.
func NewMetrics(rt *Runtime, name string) *Metrics {
	labels := prometheus.Labels{"runtime": name}
	return &Metrics{
		rt: rt,
		recomputes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "cellgraph",
			Name:        "recomputations_total",
			Help:        "Number of times a Memo's compute function ran.",
			ConstLabels: labels,
		}),
		verifications: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "cellgraph",
			Name:        "verifications_total",
			Help:        "Number of Memo freshness checks that required recomputation.",
			ConstLabels: labels,
		}),
		verificationsSkip: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "cellgraph",
			Name:        "verifications_skipped_total",
			Help:        "Number of Memo freshness checks satisfied without recomputation.",
			ConstLabels: labels,
		}),
		cycles: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "cellgraph",
			Name:        "cycles_detected_total",
			Help:        "Number of dependency cycles detected during recomputation.",
			ConstLabels: labels,
		}),
		commits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "cellgraph",
			Name:        "batch_commits_total",
			Help:        "Number of batches committed with at least one genuine change.",
			ConstLabels: labels,
		}),
		currentRevision: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   "cellgraph",
			Name:        "current_revision",
			Help:        "The runtime's current logical revision.",
			ConstLabels: labels,
		}),
	}
}

// Describe implements prometheus.Collector.
func (m *Metrics) Describe(ch chan<- *prometheus.Desc) {
	m.recomputes.Describe(ch)
	m.verifications.Describe(ch)
	m.verificationsSkip.Describe(ch)
	m.cycles.Describe(ch)
	m.commits.Describe(ch)
	m.currentRevision.Describe(ch)
}

// Collect implements prometheus.Collector.
func (m *Metrics) Collect(ch chan<- prometheus.Metric) {
	if m.rt != nil {
		m.currentRevision.Set(float64(m.rt.CurrentRevision()))
	}
	m.recomputes.Collect(ch)
	m.verifications.Collect(ch)
	m.verificationsSkip.Collect(ch)
	m.cycles.Collect(ch)
	m.commits.Collect(ch)
	m.currentRevision.Collect(ch)
}

func (m *Metrics) observeRecompute() {
	m.recomputes.Inc()
}

func (m *Metrics) observeVerify(recomputed bool) {
	if recomputed {
		m.verifications.Inc()
	} else {
		m.verificationsSkip.Inc()
	}
}

func (m *Metrics) observeCycle() {
	m.cycles.Inc()
}

func (m *Metrics) observeCommit(changedCells int) {
	if changedCells > 0 {
		m.commits.Inc()
	}
}

var _ prometheus.Collector = (*Metrics)(nil)
