// Package prommetrics exports streaming manager metrics to Prometheus.
//
//	reg := prometheus.NewRegistry()
//	mc := prommetrics.New(reg)
//	mgr, _ := assetstream.New(cfg, exec, assetstream.WithMetricsCollector(mc))
//	http.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
package prommetrics

import (
	"time"

	"github.com/hupe1980/assetstream"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "assetstream"

// Collector implements assetstream.MetricsCollector with Prometheus metrics.
type Collector struct {
	requests     *prometheus.CounterVec
	latency      *prometheus.HistogramVec
	loadedBytes  *prometheus.CounterVec
	evictions    *prometheus.CounterVec
	evictedBytes prometheus.Counter
	memoryUsed   prometheus.Gauge
	memoryBudget prometheus.Gauge
}

// New creates a Collector and registers its metrics with reg.
// A nil reg uses prometheus.DefaultRegisterer.
func New(reg prometheus.Registerer) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	c := &Collector{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Stream requests by resource type and outcome",
		}, []string{"type", "result"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_latency_seconds",
			Help:      "Latency of requests and executor loads",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op", "status"}),
		loadedBytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "loaded_bytes_total",
			Help:      "Bytes produced by successful loads",
		}, []string{"type"}),
		evictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "evictions_total",
			Help:      "Resources reclaimed by budget enforcement",
		}, []string{"type"}),
		evictedBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "evicted_bytes_total",
			Help:      "Bytes reclaimed by budget enforcement",
		}),
		memoryUsed: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "memory_used_bytes",
			Help:      "Bytes currently held by the cache",
		}),
		memoryBudget: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "memory_budget_bytes",
			Help:      "Enforced cache byte budget",
		}),
	}

	reg.MustRegister(
		c.requests,
		c.latency,
		c.loadedBytes,
		c.evictions,
		c.evictedBytes,
		c.memoryUsed,
		c.memoryBudget,
	)
	return c
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// RecordRequest implements assetstream.MetricsCollector.
func (c *Collector) RecordRequest(t assetstream.ResourceType, hit bool, d time.Duration, err error) {
	result := "miss"
	switch {
	case err != nil:
		result = "error"
	case hit:
		result = "hit"
	}
	c.requests.WithLabelValues(t.String(), result).Inc()
	c.latency.WithLabelValues("request", status(err)).Observe(d.Seconds())
}

// RecordLoad implements assetstream.MetricsCollector.
func (c *Collector) RecordLoad(t assetstream.ResourceType, size int, d time.Duration, err error) {
	c.latency.WithLabelValues("load", status(err)).Observe(d.Seconds())
	if err == nil {
		c.loadedBytes.WithLabelValues(t.String()).Add(float64(size))
	}
}

// RecordEviction implements assetstream.MetricsCollector.
func (c *Collector) RecordEviction(t assetstream.ResourceType, size int64) {
	c.evictions.WithLabelValues(t.String()).Inc()
	c.evictedBytes.Add(float64(size))
}

// RecordMemory implements assetstream.MetricsCollector.
func (c *Collector) RecordMemory(used, budget int64) {
	c.memoryUsed.Set(float64(used))
	c.memoryBudget.Set(float64(budget))
}

var _ assetstream.MetricsCollector = (*Collector)(nil)
