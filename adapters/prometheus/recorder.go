// Package prometheus exposes core.MetricsRecorder on a prometheus registry.
package prometheus

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"strings"
	"sync"

	"github.com/goliatone/go-webhook-dispatch/core"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DefaultDurationBuckets covers millisecond histograms from a fast GET to a
// request that hits the 30s transport timeout.
var DefaultDurationBuckets = []float64{5, 25, 100, 250, 500, 1000, 2500, 5000, 10000, 30000}

type Option func(*Recorder)

// WithNamespace prefixes every metric name.
func WithNamespace(namespace string) Option {
	return func(r *Recorder) {
		r.namespace = sanitizeName(namespace)
	}
}

func WithBuckets(buckets []float64) Option {
	return func(r *Recorder) {
		if len(buckets) > 0 {
			r.buckets = append([]float64(nil), buckets...)
		}
	}
}

// Recorder creates one vector per metric name on first use. The label set is
// fixed by that first observation: later tags outside it are dropped and
// missing ones are recorded as "".
type Recorder struct {
	registry   *prometheus.Registry
	namespace  string
	buckets    []float64
	mu         sync.Mutex
	counters   map[string]*counterEntry
	histograms map[string]*histogramEntry
}

type counterEntry struct {
	vec    *prometheus.CounterVec
	labels []string
}

type histogramEntry struct {
	vec    *prometheus.HistogramVec
	labels []string
}

func NewRecorder(registry *prometheus.Registry, opts ...Option) *Recorder {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	r := &Recorder{
		registry:   registry,
		buckets:    DefaultDurationBuckets,
		counters:   map[string]*counterEntry{},
		histograms: map[string]*histogramEntry{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// Handler serves the recorder's registry in the prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

func (r *Recorder) IncCounter(_ context.Context, name string, value int64, tags map[string]string) {
	if r == nil || value < 0 {
		return
	}
	entry := r.counter(name, tags)
	if entry == nil {
		return
	}
	entry.vec.WithLabelValues(labelValues(entry.labels, tags)...).Add(float64(value))
}

func (r *Recorder) ObserveHistogram(_ context.Context, name string, value float64, tags map[string]string) {
	if r == nil {
		return
	}
	entry := r.histogram(name, tags)
	if entry == nil {
		return
	}
	entry.vec.WithLabelValues(labelValues(entry.labels, tags)...).Observe(value)
}

func (r *Recorder) counter(name string, tags map[string]string) *counterEntry {
	metricName := r.metricName(name)
	if metricName == "" {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if entry, ok := r.counters[metricName]; ok {
		return entry
	}
	labels := labelNames(tags)
	vec := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: metricName,
		Help: "webhook counter " + strings.TrimSpace(name),
	}, labels)
	if err := r.registry.Register(vec); err != nil {
		var already prometheus.AlreadyRegisteredError
		if !errors.As(err, &already) {
			return nil
		}
		existing, ok := already.ExistingCollector.(*prometheus.CounterVec)
		if !ok {
			return nil
		}
		vec = existing
	}
	entry := &counterEntry{vec: vec, labels: labels}
	r.counters[metricName] = entry
	return entry
}

func (r *Recorder) histogram(name string, tags map[string]string) *histogramEntry {
	metricName := r.metricName(name)
	if metricName == "" {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if entry, ok := r.histograms[metricName]; ok {
		return entry
	}
	labels := labelNames(tags)
	vec := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    metricName,
		Help:    "webhook histogram " + strings.TrimSpace(name),
		Buckets: r.buckets,
	}, labels)
	if err := r.registry.Register(vec); err != nil {
		var already prometheus.AlreadyRegisteredError
		if !errors.As(err, &already) {
			return nil
		}
		existing, ok := already.ExistingCollector.(*prometheus.HistogramVec)
		if !ok {
			return nil
		}
		vec = existing
	}
	entry := &histogramEntry{vec: vec, labels: labels}
	r.histograms[metricName] = entry
	return entry
}

// metricName maps "webhooks.delivery.total" to "webhooks_delivery_total".
func (r *Recorder) metricName(name string) string {
	sanitized := sanitizeName(name)
	if sanitized == "" {
		return ""
	}
	if r.namespace != "" {
		return r.namespace + "_" + sanitized
	}
	return sanitized
}

func labelNames(tags map[string]string) []string {
	names := make([]string, 0, len(tags))
	seen := map[string]struct{}{}
	for key := range tags {
		label := sanitizeName(key)
		if label == "" || strings.HasPrefix(label, "__") {
			continue
		}
		if _, dup := seen[label]; dup {
			continue
		}
		seen[label] = struct{}{}
		names = append(names, label)
	}
	sort.Strings(names)
	return names
}

func labelValues(labels []string, tags map[string]string) []string {
	byLabel := make(map[string]string, len(tags))
	for key, value := range tags {
		byLabel[sanitizeName(key)] = value
	}
	values := make([]string, len(labels))
	for i, label := range labels {
		values[i] = byLabel[label]
	}
	return values
}

func sanitizeName(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	var b strings.Builder
	for i, ch := range value {
		switch {
		case ch >= 'a' && ch <= 'z', ch >= 'A' && ch <= 'Z', ch == '_':
			b.WriteRune(ch)
		case ch >= '0' && ch <= '9':
			if i == 0 {
				b.WriteRune('_')
			}
			b.WriteRune(ch)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}

var _ core.MetricsRecorder = (*Recorder)(nil)
