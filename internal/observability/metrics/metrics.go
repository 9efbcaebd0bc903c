// Package metrics defines the metric names and tag conventions emitted by the
// session and catalog services.
package metrics

import (
	"time"

	obserrors "github.com/target/prestataires-ui/internal/observability/errors"
	"github.com/target/prestataires-ui/internal/observability/statsd"
)

// Result constants for metric tagging.
const (
	ResultSuccess = "success"
	ResultError   = "error"
	ResultNoop    = "noop"
)

// Auth actions.
const (
	ActionRegister = "register"
	ActionLogin    = "login"
	ActionLogout   = "logout"
	ActionGuest    = "guest"
	ActionFetch    = "initial_fetch"
	ActionRefresh  = "refresh"
)

// AuthMetric captures one session mirror action.
type AuthMetric struct {
	Action   string
	Result   string
	Duration time.Duration
	Err      error
}

// EmitAuthAction emits auth.action and, when timed, auth.action_duration.
func EmitAuthAction(sink statsd.Sink, in AuthMetric) {
	if sink == nil {
		return
	}
	tags := map[string]string{
		"action": in.Action,
		"result": in.Result,
	}
	if in.Err != nil && in.Result == ResultError {
		if class := obserrors.Classify(in.Err); class != "" {
			tags["error_class"] = class
		}
	}
	sink.Count("auth.action", 1, tags)
	if in.Duration > 0 {
		sink.Timing("auth.action_duration", in.Duration, CloneTags(tags))
	}
}

// ResultFor maps an error to ResultSuccess or ResultError.
func ResultFor(err error) string {
	if err != nil {
		return ResultError
	}
	return ResultSuccess
}

// EmitCacheLookup counts catalog cache hits and misses.
func EmitCacheLookup(sink statsd.Sink, cache string, hit bool) {
	if sink == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	sink.Count("catalog.cache_lookup", 1, map[string]string{"cache": cache, "result": result})
}

// EmitSweep reports a registry sweep: how many mirrors were evicted and how many remain.
func EmitSweep(sink statsd.Sink, evicted, remaining int, elapsed time.Duration) {
	if sink == nil {
		return
	}
	result := ResultSuccess
	if evicted == 0 {
		result = ResultNoop
	}
	tags := map[string]string{"result": result}
	sink.Count("mirror.sweep", 1, tags)
	if evicted > 0 {
		sink.Count("mirror.evicted", int64(evicted), nil)
	}
	sink.Gauge("mirror.active", float64(remaining), nil)
	if elapsed > 0 {
		sink.Timing("mirror.sweep_duration", elapsed, CloneTags(tags))
	}
}

// CloneTags creates a shallow copy of a tag map.
func CloneTags(src map[string]string) map[string]string {
	if len(src) == 0 {
		return nil
	}
	out := make(map[string]string, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}
