// Package metrics exposes Prometheus collectors for the proxy.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "relay"

// Forward outcomes.
const (
	OutcomeForwarded = "forwarded"
	OutcomeBadID     = "bad_id"
	OutcomeUpstream  = "upstream_error"
)

// Registration results.
const (
	ResultCreated  = "created"
	ResultRejected = "rejected"
	ResultFailed   = "failed"
)

// Metrics groups every collector the service reports. All methods are safe
// on a nil receiver so components can run without metrics in tests.
type Metrics struct {
	registry *prometheus.Registry

	registrations    *prometheus.CounterVec
	forwards         *prometheus.CounterVec
	upstreamDuration prometheus.Histogram
	redirects        prometheus.Histogram
	sweeps           prometheus.Counter
	sweepFailures    prometheus.Counter
	pruned           prometheus.Counter
}

// New creates a fresh registry with Go/process collectors and the relay
// collectors registered on it.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		registrations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "registration",
			Name:      "requests_total",
			Help:      "Registration attempts by result.",
		}, []string{"result"}),
		forwards: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "forward",
			Name:      "requests_total",
			Help:      "Forwarding attempts by outcome.",
		}, []string{"outcome"}),
		upstreamDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "forward",
			Name:      "upstream_duration_seconds",
			Help:      "Time until upstream response headers, redirects included.",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		}),
		redirects: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "forward",
			Name:      "redirect_hops",
			Help:      "Redirect hops followed per forwarded request.",
			Buckets:   prometheus.LinearBuckets(0, 1, 11),
		}),
		sweeps: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sweeper",
			Name:      "runs_total",
			Help:      "Expiry sweeps executed.",
		}),
		sweepFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sweeper",
			Name:      "failures_total",
			Help:      "Expiry sweeps that failed.",
		}),
		pruned: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sweeper",
			Name:      "pruned_entries_total",
			Help:      "Expired entries removed by sweeps.",
		}),
	}
}

// ObserveStore exposes the store size as a gauge read at scrape time.
func (m *Metrics) ObserveStore(count func() int) {
	if m == nil {
		return
	}
	m.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "store",
		Name:      "entries",
		Help:      "Entries held by the store, including expired ones awaiting a sweep.",
	}, func() float64 { return float64(count()) }))
}

func (m *Metrics) Registration(result string) {
	if m == nil {
		return
	}
	m.registrations.WithLabelValues(result).Inc()
}

func (m *Metrics) Forward(outcome string) {
	if m == nil {
		return
	}
	m.forwards.WithLabelValues(outcome).Inc()
}

func (m *Metrics) Upstream(d time.Duration, hops int) {
	if m == nil {
		return
	}
	m.upstreamDuration.Observe(d.Seconds())
	m.redirects.Observe(float64(hops))
}

func (m *Metrics) Sweep(pruned int, err error) {
	if m == nil {
		return
	}
	m.sweeps.Inc()
	if err != nil {
		m.sweepFailures.Inc()
		return
	}
	m.pruned.Add(float64(pruned))
}

// Registry returns the underlying registry, mostly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
