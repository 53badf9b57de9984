// Package metrics exposes Prometheus counters for crawl sessions.
//
// A Recorder is created against an injected registry so that tests and
// concurrent batch runs never share process-wide collectors. All methods are
// safe on a nil *Recorder, which lets components record unconditionally.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "menuscan"

// Recorder holds the crawl collectors.
type Recorder struct {
	fetches        *prometheus.CounterVec
	retries        prometheus.Counter
	extractions    *prometheus.CounterVec
	admitted       prometheus.Counter
	sessions       *prometheus.CounterVec
	sessionSeconds prometheus.Histogram
}

// NewRecorder registers the crawl collectors with reg.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetches_total",
			Help:      "HTTP fetches by outcome (ok, failed).",
		}, []string{"outcome"}),
		retries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_retries_total",
			Help:      "Fetch attempts beyond the first.",
		}),
		extractions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "extractions_total",
			Help:      "Extractions by content kind and outcome.",
		}, []string{"kind", "outcome"}),
		admitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "links_admitted_total",
			Help:      "Links admitted into a frontier.",
		}),
		sessions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_total",
			Help:      "Crawl sessions by final state.",
		}, []string{"state"}),
		sessionSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "session_duration_seconds",
			Help:      "Wall-clock duration of crawl sessions.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
		}),
	}

	reg.MustRegister(r.fetches, r.retries, r.extractions, r.admitted, r.sessions, r.sessionSeconds)
	return r
}

// Fetch records the outcome of a fetch.
func (r *Recorder) Fetch(ok bool) {
	if r == nil {
		return
	}
	outcome := "ok"
	if !ok {
		outcome = "failed"
	}
	r.fetches.WithLabelValues(outcome).Inc()
}

// Retry records a retried attempt.
func (r *Recorder) Retry() {
	if r == nil {
		return
	}
	r.retries.Inc()
}

// Extraction records an extractor run for kind.
func (r *Recorder) Extraction(kind string, ok bool) {
	if r == nil {
		return
	}
	outcome := "ok"
	if !ok {
		outcome = "failed"
	}
	r.extractions.WithLabelValues(kind, outcome).Inc()
}

// Admitted records a link pushed into a frontier.
func (r *Recorder) Admitted() {
	if r == nil {
		return
	}
	r.admitted.Inc()
}

// Session records a finished session.
func (r *Recorder) Session(state string, d time.Duration) {
	if r == nil {
		return
	}
	r.sessions.WithLabelValues(state).Inc()
	r.sessionSeconds.Observe(d.Seconds())
}

// Handler serves the collectors registered in g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
