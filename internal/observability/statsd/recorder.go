package statsd

import (
	"sync"
	"time"
)

// Metric is one call recorded by Recorder.
type Metric struct {
	Kind  string // "count", "gauge" or "timing"
	Name  string
	Value float64
	Tags  map[string]string
}

// Recorder is an in-memory Sink for tests and the admin CLI dry runs.
type Recorder struct {
	mu      sync.Mutex
	metrics []Metric
}

var _ Sink = (*Recorder)(nil)

// Count implements Sink.
func (r *Recorder) Count(name string, value int64, tags map[string]string) {
	r.add(Metric{Kind: "count", Name: name, Value: float64(value), Tags: cloneTags(tags)})
}

// Gauge implements Sink.
func (r *Recorder) Gauge(name string, value float64, tags map[string]string) {
	r.add(Metric{Kind: "gauge", Name: name, Value: value, Tags: cloneTags(tags)})
}

// Timing implements Sink.
func (r *Recorder) Timing(name string, value time.Duration, tags map[string]string) {
	r.add(Metric{Kind: "timing", Name: name, Value: float64(value) / float64(time.Millisecond), Tags: cloneTags(tags)})
}

func (r *Recorder) add(m Metric) {
	r.mu.Lock()
	r.metrics = append(r.metrics, m)
	r.mu.Unlock()
}

// Named returns every recorded metric with name, in emission order.
func (r *Recorder) Named(name string) []Metric {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Metric
	for _, m := range r.metrics {
		if m.Name == name {
			out = append(out, m)
		}
	}
	return out
}

// Last returns the most recent metric with name.
func (r *Recorder) Last(name string) (Metric, bool) {
	all := r.Named(name)
	if len(all) == 0 {
		return Metric{}, false
	}
	return all[len(all)-1], true
}
