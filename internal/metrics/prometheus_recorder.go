package metrics

import (
	"strconv"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "docpublisher"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	registry       *prom.Registry
	runDuration    *prom.HistogramVec
	runOutcomes    *prom.CounterVec
	levelDuration  *prom.HistogramVec
	pageOperations *prom.CounterVec
	publishedPages prom.Gauge
}

// NewPrometheusRecorder constructs the metrics and registers them on reg,
// or on a fresh registry when reg is nil.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		registry: reg,
		runDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of publish and cleanup runs",
			Buckets:   prom.DefBuckets,
		}, []string{"command"}),
		runOutcomes: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "run_outcomes_total",
			Help:      "Runs by command and final status",
		}, []string{"command", "outcome"}),
		levelDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "level_duration_seconds",
			Help:      "Duration of one reconciliation level by tree depth",
			Buckets:   prom.DefBuckets,
		}, []string{"depth"}),
		pageOperations: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "page_operations_total",
			Help:      "Page operations by kind (create, update, keep, delete)",
		}, []string{"operation"}),
		publishedPages: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "published_pages",
			Help:      "Pages present in the remote tree after the last publish",
		}),
	}
	reg.MustRegister(pr.runDuration, pr.runOutcomes, pr.levelDuration, pr.pageOperations, pr.publishedPages)
	return pr
}

// Registry returns the registry the metrics are registered on.
func (p *PrometheusRecorder) Registry() *prom.Registry { return p.registry }

func (p *PrometheusRecorder) ObserveRunDuration(command string, d time.Duration) {
	if p == nil {
		return
	}
	p.runDuration.WithLabelValues(command).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncRunOutcome(command string, outcome OutcomeLabel) {
	if p == nil {
		return
	}
	p.runOutcomes.WithLabelValues(command, string(outcome)).Inc()
}

func (p *PrometheusRecorder) ObserveLevelDuration(depth int, d time.Duration) {
	if p == nil {
		return
	}
	p.levelDuration.WithLabelValues(strconv.Itoa(depth)).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncPageOperation(op string) {
	if p == nil {
		return
	}
	p.pageOperations.WithLabelValues(op).Inc()
}

func (p *PrometheusRecorder) SetPublishedPages(n int) {
	if p == nil {
		return
	}
	p.publishedPages.Set(float64(n))
}
