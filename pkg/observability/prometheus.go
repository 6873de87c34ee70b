package observability

import (
	"sort"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Namespace prefixes every exported Prometheus series.
const Namespace = "bear_review"

// PrometheusMetrics implements Metrics on a Prometheus registry. Collectors
// are created on first use with label names taken from the tag keys, so a
// metric name must always be recorded with the same set of tag keys.
type PrometheusMetrics struct {
	registry *prometheus.Registry

	mu       sync.Mutex
	counters map[string]*prometheus.CounterVec
	gauges   map[string]*prometheus.GaugeVec
	timings  map[string]*prometheus.HistogramVec
}

// NewPrometheusMetrics creates a collector set bound to registry. A nil
// registry gets a fresh one.
func NewPrometheusMetrics(registry *prometheus.Registry) *PrometheusMetrics {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	return &PrometheusMetrics{
		registry: registry,
		counters: make(map[string]*prometheus.CounterVec),
		gauges:   make(map[string]*prometheus.GaugeVec),
		timings:  make(map[string]*prometheus.HistogramVec),
	}
}

// Registry exposes the underlying registry for the /metrics handler.
func (p *PrometheusMetrics) Registry() *prometheus.Registry {
	return p.registry
}

func (p *PrometheusMetrics) Counter(name string, value int64, tags ...Tag) {
	if value < 0 {
		return
	}
	keys, labels := splitTags(tags)

	p.mu.Lock()
	vec, ok := p.counters[name]
	if !ok {
		vec = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      name,
			Help:      "Bear Review counter " + name,
		}, keys)
		if err := p.registry.Register(vec); err != nil {
			p.mu.Unlock()
			return
		}
		p.counters[name] = vec
	}
	p.mu.Unlock()

	if c, err := vec.GetMetricWith(labels); err == nil {
		c.Add(float64(value))
	}
}

func (p *PrometheusMetrics) Gauge(name string, value float64, tags ...Tag) {
	keys, labels := splitTags(tags)

	p.mu.Lock()
	vec, ok := p.gauges[name]
	if !ok {
		vec = prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      name,
			Help:      "Bear Review gauge " + name,
		}, keys)
		if err := p.registry.Register(vec); err != nil {
			p.mu.Unlock()
			return
		}
		p.gauges[name] = vec
	}
	p.mu.Unlock()

	if g, err := vec.GetMetricWith(labels); err == nil {
		g.Set(value)
	}
}

func (p *PrometheusMetrics) Timing(name string, duration time.Duration, tags ...Tag) {
	keys, labels := splitTags(tags)

	p.mu.Lock()
	vec, ok := p.timings[name]
	if !ok {
		vec = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      name,
			Help:      "Bear Review duration " + name,
			Buckets:   prometheus.DefBuckets,
		}, keys)
		if err := p.registry.Register(vec); err != nil {
			p.mu.Unlock()
			return
		}
		p.timings[name] = vec
	}
	p.mu.Unlock()

	if h, err := vec.GetMetricWith(labels); err == nil {
		h.Observe(duration.Seconds())
	}
}

func splitTags(tags []Tag) ([]string, prometheus.Labels) {
	keys := make([]string, 0, len(tags))
	labels := make(prometheus.Labels, len(tags))
	for _, t := range tags {
		if _, dup := labels[t.Key]; !dup {
			keys = append(keys, t.Key)
		}
		labels[t.Key] = t.Value
	}
	sort.Strings(keys)
	return keys, labels
}
