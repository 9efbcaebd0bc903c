package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/target/prestataires-ui/internal/observability/statsd"
)

func TestEmitAuthAction(t *testing.T) {
	rec := &statsd.Recorder{}
	EmitAuthAction(rec, AuthMetric{Action: ActionLogin, Result: ResultError, Duration: time.Millisecond, Err: errors.New("x")})

	m, ok := rec.Last("auth.action")
	require.True(t, ok)
	assert.Equal(t, "login", m.Tags["action"])
	assert.Equal(t, "error", m.Tags["result"])
	assert.Equal(t, "errors_errorstring", m.Tags["error_class"])

	_, ok = rec.Last("auth.action_duration")
	assert.True(t, ok)

	EmitAuthAction(nil, AuthMetric{Action: ActionLogin})
}

func TestEmitSweep(t *testing.T) {
	rec := &statsd.Recorder{}
	EmitSweep(rec, 0, 3, 0)
	EmitSweep(rec, 2, 1, time.Millisecond)

	sweeps := rec.Named("mirror.sweep")
	require.Len(t, sweeps, 2)
	assert.Equal(t, ResultNoop, sweeps[0].Tags["result"])
	assert.Equal(t, ResultSuccess, sweeps[1].Tags["result"])

	evicted, ok := rec.Last("mirror.evicted")
	require.True(t, ok)
	assert.InDelta(t, 2, evicted.Value, 0)

	active, _ := rec.Last("mirror.active")
	assert.InDelta(t, 1, active.Value, 0)
}

func TestEmitCacheLookup(t *testing.T) {
	rec := &statsd.Recorder{}
	EmitCacheLookup(rec, "catalog", true)
	EmitCacheLookup(rec, "catalog", false)
	got := rec.Named("catalog.cache_lookup")
	require.Len(t, got, 2)
	assert.Equal(t, "hit", got[0].Tags["result"])
	assert.Equal(t, "miss", got[1].Tags["result"])
}

func TestResultFor(t *testing.T) {
	assert.Equal(t, ResultSuccess, ResultFor(nil))
	assert.Equal(t, ResultError, ResultFor(errors.New("x")))
}
