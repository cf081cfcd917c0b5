package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "sentiment"

// Error kinds recorded by the fetch error counter
const (
	KindConfig = "config"
	KindFetch  = "fetch"
	KindParse  = "parse"
	KindScore  = "score"
	KindStore  = "store"
	KindOther  = "other"
)

// Collector holds the pipeline and HTTP collectors on a private registry.
// A nil *Collector is valid and records nothing.
type Collector struct {
	registry *prometheus.Registry

	fetchDuration   prometheus.Histogram
	runErrors       *prometheus.CounterVec
	articlesScored  prometheus.Counter
	lastMean        prometheus.Gauge
	lastRun         prometheus.Gauge
	classCount      *prometheus.GaugeVec
	cacheLookups    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// New creates collector with process and Go runtime metrics registered
func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		fetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      "Duration of top stories fetches.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		runErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "run_errors_total",
			Help:      "Failed pipeline runs by error kind.",
		}, []string{"kind"}),
		articlesScored: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "articles_scored_total",
			Help:      "Articles scored across all runs.",
		}),
		lastMean: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_mean_sentiment",
			Help:      "Mean compound sentiment of the latest snapshot.",
		}),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the latest successful run.",
		}),
		classCount: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "articles",
			Help:      "Articles in the latest snapshot by polarity.",
		}, []string{"label"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Record cache lookups by result.",
		}, []string{"result"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "API request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method", "status"}),
	}

	c.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		c.fetchDuration,
		c.runErrors,
		c.articlesScored,
		c.lastMean,
		c.lastRun,
		c.classCount,
		c.cacheLookups,
		c.requestDuration,
	)

	return c
}

// Handler exposes the registry in the Prometheus text format
func (c *Collector) Handler() http.Handler {
	if c == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry
func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

func (c *Collector) ObserveFetch(d time.Duration) {
	if c == nil {
		return
	}
	c.fetchDuration.Observe(d.Seconds())
}

func (c *Collector) RunFailed(kind string) {
	if c == nil {
		return
	}
	c.runErrors.WithLabelValues(kind).Inc()
}

// RunSucceeded records the outcome of a successful run. mean is nil for an
// empty snapshot, in which case the mean gauge keeps its previous value.
func (c *Collector) RunSucceeded(at time.Time, scored int, mean *float64, positive, neutral, negative int) {
	if c == nil {
		return
	}
	c.articlesScored.Add(float64(scored))
	c.lastRun.Set(float64(at.Unix()))
	if mean != nil {
		c.lastMean.Set(*mean)
	}
	c.classCount.WithLabelValues("positive").Set(float64(positive))
	c.classCount.WithLabelValues("neutral").Set(float64(neutral))
	c.classCount.WithLabelValues("negative").Set(float64(negative))
}

func (c *Collector) CacheLookup(hit bool) {
	if c == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	c.cacheLookups.WithLabelValues(result).Inc()
}

func (c *Collector) ObserveRequest(route, method, status string, d time.Duration) {
	if c == nil {
		return
	}
	c.requestDuration.WithLabelValues(route, method, status).Observe(d.Seconds())
}
