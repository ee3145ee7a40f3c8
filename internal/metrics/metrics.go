package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "lexrag"

// Stage names used with ObserveStage.
const (
	StageClarify  = "clarify"
	StageVector   = "vector_search"
	StageExternal = "external_search"
	StagePack     = "pack"
	StageGenerate = "generate"
	StageRebuild  = "rebuild"
)

// Metrics holds the application's prometheus collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	Questions        prometheus.Counter
	StageDuration    *prometheus.HistogramVec
	ExternalFailures prometheus.Counter
	IndexedDocuments *prometheus.GaugeVec
	RetrievedResults *prometheus.HistogramVec
}

// New creates and registers all collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		Questions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "questions_total",
			Help:      "Number of questions answered.",
		}),
		StageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of pipeline stages.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"stage"}),
		ExternalFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "external_failures_total",
			Help:      "Failed external precedent searches degraded to empty results.",
		}),
		IndexedDocuments: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "indexed_documents",
			Help:      "Documents added by the last rebuild, per law type.",
		}, []string{"law_type"}),
		RetrievedResults: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "retrieved_results",
			Help:      "Number of results returned per source.",
			Buckets:   prometheus.LinearBuckets(0, 5, 10),
		}, []string{"source"}),
	}
	reg.MustRegister(
		m.Questions,
		m.StageDuration,
		m.ExternalFailures,
		m.IndexedDocuments,
		m.RetrievedResults,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveStage records the time elapsed since start for a stage.
// A nil receiver is a no-op so components can run without metrics.
func (m *Metrics) ObserveStage(stage string, start time.Time) {
	if m == nil {
		return
	}
	m.StageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}

// ObserveResults records a result count for a retrieval source.
func (m *Metrics) ObserveResults(source string, n int) {
	if m == nil {
		return
	}
	m.RetrievedResults.WithLabelValues(source).Observe(float64(n))
}

// IncQuestions counts an answered question.
func (m *Metrics) IncQuestions() {
	if m == nil {
		return
	}
	m.Questions.Inc()
}

// IncExternalFailures counts a degraded external search.
func (m *Metrics) IncExternalFailures() {
	if m == nil {
		return
	}
	m.ExternalFailures.Inc()
}

// SetIndexed records the number of documents indexed for a law type.
func (m *Metrics) SetIndexed(lawType string, n int) {
	if m == nil {
		return
	}
	m.IndexedDocuments.WithLabelValues(lawType).Set(float64(n))
}

// Handler exposes the registry in the prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
