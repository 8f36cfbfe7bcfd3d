package context

import (
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/flanksource/commons/logger"
	"github.com/flanksource/commons/text"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/samber/lo"
)

var MetricsLogLevel = 5

var LatencyBuckets = []float64{
	float64(time.Millisecond),
	float64(10 * time.Millisecond),
	float64(100 * time.Millisecond),
	float64(500 * time.Millisecond),
	float64(1 * time.Second),
}

var collectors sync.Map

// stringSliceToMap pairs up alternating label names and values.
func stringSliceToMap(labels []string) map[string]string {
	out := make(map[string]string, len(labels)/2)
	for i := 0; i+1 < len(labels); i += 2 {
		out[labels[i]] = labels[i+1]
	}
	return out
}

func mapToSlice(c map[string]string) []any {
	args := []any{}
	for k, v := range c {
		if !lo.IsEmpty(v) {
			args = append(args, k, v)
		}
	}
	return args
}

// register returns the collector registered under name and label keys,
// creating it on first use.
func register[T prometheus.Collector](k Context, kind, name string, labelKeys []string, create func() T) T {
	key := strings.Join(append([]string{kind, name}, labelKeys...), ".")
	if c, ok := collectors.Load(key); ok {
		return c.(T)
	}

	c := create()
	if err := prometheus.Register(c); err != nil {
		if existing, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if typed, ok := existing.ExistingCollector.(T); ok {
				c = typed
			}
		} else {
			k.Errorf("error registering %s[%s/%v]: %v", kind, name, labelKeys, err)
		}
	}
	actual, _ := collectors.LoadOrStore(key, c)
	return actual.(T)
}

func labelKeys(labels map[string]string) []string {
	keys := lo.Keys(labels)
	slices.Sort(keys)
	return keys
}

func logMetric(name string, labels map[string]string, format string, args ...any) {
	if log := logger.GetLogger("metrics." + name); log.IsLevelEnabled(4) {
		log.WithValues(mapToSlice(labels)...).V(MetricsLogLevel).Infof(format, args...)
	}
}

type Histogram struct {
	Context   Context
	Name      string
	Histogram *prometheus.HistogramVec
	Labels    map[string]string
}

func (k Context) Histogram(name string, buckets []float64, labels ...string) Histogram {
	labelMap := stringSliceToMap(labels)
	keys := labelKeys(labelMap)
	histo := register(k, "histogram", name, keys, func() *prometheus.HistogramVec {
		return prometheus.NewHistogramVec(prometheus.HistogramOpts{Name: name, Buckets: buckets}, keys)
	})
	return Histogram{Context: k, Name: name, Histogram: histo, Labels: labelMap}
}

// Label returns a copy of the histogram with the label value set.
func (h Histogram) Label(k, v string) Histogram {
	h.Labels = maps.Clone(h.Labels)
	h.Labels[k] = v
	return h
}

func (h Histogram) Record(duration time.Duration) {
	defer func() {
		if r := recover(); r != nil {
			h.Context.Errorf("error observe to histogram[%s/%v]: %v", h.Name, h.Labels, r)
		}
	}()

	if duration > time.Millisecond*5 {
		logMetric(h.Name, h.Labels, "%s", text.HumanizeDuration(duration))
	}
	h.Histogram.With(prometheus.Labels(h.Labels)).Observe(float64(duration))
}

func (h Histogram) Since(s time.Time) {
	h.Record(time.Since(s))
}

type Counter struct {
	Context Context
	Name    string
	Labels  map[string]string
	Counter *prometheus.CounterVec
}

func (k Context) Counter(name string, labels ...string) Counter {
	labelMap := stringSliceToMap(labels)
	keys := labelKeys(labelMap)
	counter := register(k, "counter", name, keys, func() *prometheus.CounterVec {
		return prometheus.NewCounterVec(prometheus.CounterOpts{Name: name}, keys)
	})
	return Counter{Context: k, Name: name, Counter: counter, Labels: labelMap}
}

func (c Counter) Add(count int) {
	defer func() {
		if r := recover(); r != nil {
			c.Context.Errorf("error adding to counter[%s/%v]: %v", c.Name, c.Labels, r)
		}
	}()

	logMetric(c.Name, c.Labels, "%d", count)
	c.Counter.With(prometheus.Labels(c.Labels)).Add(float64(count))
}

func (c Counter) Label(k, v string) Counter {
	c.Labels = maps.Clone(c.Labels)
	c.Labels[k] = v
	return c
}

type Gauge struct {
	Context Context
	Name    string
	Labels  map[string]string
	Gauge   *prometheus.GaugeVec
}

func (k Context) Gauge(name string, labels ...string) Gauge {
	labelMap := stringSliceToMap(labels)
	keys := labelKeys(labelMap)
	gauge := register(k, "gauge", name, keys, func() *prometheus.GaugeVec {
		return prometheus.NewGaugeVec(prometheus.GaugeOpts{Name: name}, keys)
	})
	return Gauge{Context: k, Name: name, Gauge: gauge, Labels: labelMap}
}

func (g Gauge) Set(count float64) {
	logMetric(g.Name, g.Labels, "%0.2f", count)
	g.Gauge.With(prometheus.Labels(g.Labels)).Set(count)
}

func (g Gauge) Add(count float64) {
	logMetric(g.Name, g.Labels, "+%0.2f", count)
	g.Gauge.With(prometheus.Labels(g.Labels)).Add(count)
}

func (g Gauge) Sub(count float64) {
	logMetric(g.Name, g.Labels, "-%0.2f", count)
	g.Gauge.With(prometheus.Labels(g.Labels)).Sub(count)
}
