package bootstrap

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/target/prestataires-ui/config"
)

func blockingUnit(name string, stopped chan<- string) serviceUnit {
	return serviceUnit{
		mode: config.ServiceModeReaper,
		name: name,
		run: func(ctx context.Context) error {
			<-ctx.Done()
			stopped <- name
			return nil
		},
	}
}

func TestRunUnits_FailureStopsSiblings(t *testing.T) {
	boom := errors.New("listen: address in use")
	stopped := make(chan string, 1)
	units := []serviceUnit{
		blockingUnit("reaper", stopped),
		{mode: config.ServiceModeHTTP, name: "http", run: func(context.Context) error { return boom }},
	}

	err := runUnits(context.Background(), units, discardLogger(), time.Second)
	require.ErrorIs(t, err, boom)
	assert.ErrorContains(t, err, "http")
	assert.Equal(t, "reaper", <-stopped)
}

func TestRunUnits_CancelIsCleanStop(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan string, 2)
	units := []serviceUnit{blockingUnit("a", stopped), blockingUnit("b", stopped)}

	time.AfterFunc(20*time.Millisecond, cancel)
	require.NoError(t, runUnits(ctx, units, discardLogger(), time.Second))
	assert.Len(t, stopped, 2)
}

func TestRunUnits_StuckUnitTimesOut(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	release := make(chan struct{})
	t.Cleanup(func() { close(release) })
	units := []serviceUnit{{
		mode: config.ServiceModeReaper,
		name: "stuck",
		run: func(context.Context) error {
			<-release
			return nil
		},
	}}

	err := runUnits(ctx, units, discardLogger(), 20*time.Millisecond)
	require.ErrorIs(t, err, errShutdownTimeout)
}

func TestEnabledUnits(t *testing.T) {
	all := []serviceUnit{
		{mode: config.ServiceModeHTTP, name: "http"},
		{mode: config.ServiceModeReaper, name: "reaper"},
	}

	got, err := enabledUnits(all, map[config.ServiceMode]bool{config.ServiceModeReaper: true})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "reaper", got[0].name)

	_, err = enabledUnits(all, map[config.ServiceMode]bool{})
	require.Error(t, err)
}

func TestServeHTTP_DrainsOnCancel(t *testing.T) {
	server := newServer(http.NotFoundHandler(), config.HTTPConfig{Addr: "127.0.0.1:0"})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- serveHTTP(ctx, server, time.Second, discardLogger()) }()

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("serveHTTP did not return after cancel")
	}
}

func TestServeHTTP_ListenFailure(t *testing.T) {
	taken := httptest.NewServer(http.NotFoundHandler())
	t.Cleanup(taken.Close)

	server := newServer(http.NotFoundHandler(), config.HTTPConfig{Addr: taken.Listener.Addr().String()})
	err := serveHTTP(context.Background(), server, time.Second, discardLogger())
	require.ErrorContains(t, err, "listen")
}

func TestRunServicesWithShutdown_RequiresConfig(t *testing.T) {
	require.Error(t, RunServicesWithShutdown(nil))
	require.Error(t, RunServicesWithShutdown(&ServiceOrchestrationConfig{}))
}

func TestRunReaper_RequiresRegistry(t *testing.T) {
	err := RunReaper(context.Background(), ReaperConfig{Config: config.MirrorConfig{SweepInterval: time.Second}})
	require.Error(t, err)
}
