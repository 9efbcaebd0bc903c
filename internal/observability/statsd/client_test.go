package statsd

import (
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func listenUDP(t *testing.T) net.PacketConn {
	t.Helper()
	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = pc.Close() })
	return pc
}

func readPacket(t *testing.T, pc net.PacketConn) string {
	t.Helper()
	require.NoError(t, pc.SetReadDeadline(time.Now().Add(2*time.Second)))
	buf := make([]byte, 65535)
	n, _, err := pc.ReadFrom(buf)
	require.NoError(t, err)
	return string(buf[:n])
}

func newTestClient(t *testing.T, pc net.PacketConn, cfg Config) *Client {
	t.Helper()
	cfg.Enabled = true
	cfg.Address = pc.LocalAddr().String()
	if cfg.FlushInterval == 0 {
		cfg.FlushInterval = time.Hour
	}
	c, err := NewClient(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestClient_BatchesLinesUntilFlush(t *testing.T) {
	pc := listenUDP(t)
	c := newTestClient(t, pc, Config{Prefix: ".prestataires.", GlobalTags: map[string]string{"env": "test"}})

	c.Count("auth.login", 1, map[string]string{"result": "ok"})
	c.Gauge("mirror.active", 3, nil)
	c.Timing("catalog.list", 1500*time.Microsecond, map[string]string{"env": "override"})
	c.Flush()

	lines := strings.Split(readPacket(t, pc), "\n")
	assert.Equal(t, []string{
		"prestataires.auth.login:1|c|#env:test,result:ok",
		"prestataires.mirror.active:3|g|#env:test",
		"prestataires.catalog.list:1.5|ms|#env:override",
	}, lines)
}

func TestClient_SplitsAtPacketSize(t *testing.T) {
	pc := listenUDP(t)
	c := newTestClient(t, pc, Config{MaxPacketSize: 24})

	c.Count("first.metric", 1, nil)  // 16 bytes
	c.Count("second.metric", 2, nil) // would overflow, flushes the first
	c.Flush()

	assert.Equal(t, "first.metric:1|c", readPacket(t, pc))
	assert.Equal(t, "second.metric:2|c", readPacket(t, pc))
}

func TestClient_FlushLoopSendsOnInterval(t *testing.T) {
	pc := listenUDP(t)
	c := newTestClient(t, pc, Config{FlushInterval: 10 * time.Millisecond})

	c.Count("tick", 1, nil)
	assert.Equal(t, "tick:1|c", readPacket(t, pc))
}

func TestClient_CloseFlushesAndIsIdempotent(t *testing.T) {
	pc := listenUDP(t)
	c := newTestClient(t, pc, Config{})
	require.True(t, c.Enabled())

	c.Count("bye", 1, nil)
	require.NoError(t, c.Close())
	assert.Equal(t, "bye:1|c", readPacket(t, pc))

	assert.False(t, c.Enabled())
	require.NoError(t, c.Close())
	c.Count("after.close", 1, nil) // dropped without panic
}

func TestClient_DisabledAndNil(t *testing.T) {
	c, err := NewClient(Config{Enabled: true, Address: "   "})
	require.NoError(t, err)
	assert.False(t, c.Enabled())
	c.Count("noop", 1, nil)
	c.Flush()
	require.NoError(t, c.Close())

	var nilClient *Client
	assert.False(t, nilClient.Enabled())
	nilClient.Gauge("noop", 1, nil)
	nilClient.Flush()
	require.NoError(t, nilClient.Close())
}

func TestNewClient_DialError(t *testing.T) {
	_, err := NewClient(Config{Enabled: true, Address: "bad address"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "statsd dial")
}

func TestQualify(t *testing.T) {
	c := &Client{prefix: "app"}
	tests := map[string]string{
		" mirror/evicted ": "app.mirror_evicted",
		"foo..bar":         "app.foo.bar",
		"a:b|c":            "app.a_b_c",
		"...":              "app",
		"":                 "",
	}
	for in, want := range tests {
		assert.Equal(t, want, c.qualify(in), in)
	}
	assert.Equal(t, "x.y", (&Client{}).qualify("x.y"))
}

func TestAppendTags(t *testing.T) {
	var b strings.Builder
	appendTags(&b, map[string]string{" service ": " web ", "env": "prod"}, map[string]string{"env": "stage", "": "x"})
	assert.Equal(t, "|#env:stage,service:web", b.String())

	b.Reset()
	appendTags(&b, nil, map[string]string{"": "only-empty"})
	assert.Empty(t, b.String())
}
