// Package statsd emits counters, gauges and timings in the DogStatsD line
// format. Lines are batched into datagrams and flushed on an interval.
// A nil *Client is a valid no-op sink.
package statsd

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"net"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	defaultFlushInterval = time.Second
	// Fits one Ethernet MTU after IP and UDP headers.
	defaultMaxPacketSize = 1432
)

// Sink describes the minimal interface required to emit StatsD-style metrics.
type Sink interface {
	Count(name string, value int64, tags map[string]string)
	Gauge(name string, value float64, tags map[string]string)
	Timing(name string, value time.Duration, tags map[string]string)
}

// Config describes how to connect to a StatsD-compatible agent.
type Config struct {
	Enabled    bool
	Address    string
	Prefix     string
	Logger     *slog.Logger
	GlobalTags map[string]string

	FlushInterval time.Duration // Optional: defaults to 1s
	MaxPacketSize int           // Optional: defaults to 1432 bytes
}

// Client buffers metric lines and sends them over UDP. It is safe for concurrent use.
type Client struct {
	prefix     string
	globalTags map[string]string
	maxPacket  int
	logger     *slog.Logger

	mu   sync.Mutex
	conn net.Conn
	buf  []byte

	stop chan struct{}
	done chan struct{}
}

var _ Sink = (*Client)(nil)

// NewClient dials the agent and starts the flush loop. With metrics disabled
// or no address it returns an inert client.
func NewClient(cfg Config) (*Client, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	maxPacket := cfg.MaxPacketSize
	if maxPacket <= 0 {
		maxPacket = defaultMaxPacketSize
	}
	interval := cfg.FlushInterval
	if interval <= 0 {
		interval = defaultFlushInterval
	}

	c := &Client{
		prefix:     strings.Trim(strings.TrimSpace(cfg.Prefix), "."),
		globalTags: cloneTags(cfg.GlobalTags),
		maxPacket:  maxPacket,
		logger:     logger,
	}

	address := strings.TrimSpace(cfg.Address)
	if !cfg.Enabled || address == "" {
		return c, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn, err := (&net.Dialer{}).DialContext(ctx, "udp", address)
	if err != nil {
		return nil, fmt.Errorf("statsd dial %s: %w", address, err)
	}

	c.conn = conn
	c.buf = make([]byte, 0, maxPacket)
	c.stop = make(chan struct{})
	c.done = make(chan struct{})
	go c.flushLoop(interval)

	return c, nil
}

// Enabled reports whether the client is connected.
func (c *Client) Enabled() bool {
	if c == nil {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil
}

// Count adds value to a counter.
func (c *Client) Count(name string, value int64, tags map[string]string) {
	c.emit(name, strconv.FormatInt(value, 10), "c", tags)
}

// Gauge sets a gauge.
func (c *Client) Gauge(name string, value float64, tags map[string]string) {
	c.emit(name, strconv.FormatFloat(value, 'f', -1, 64), "g", tags)
}

// Timing records a duration in milliseconds.
func (c *Client) Timing(name string, value time.Duration, tags map[string]string) {
	ms := float64(value) / float64(time.Millisecond)
	c.emit(name, strconv.FormatFloat(ms, 'f', -1, 64), "ms", tags)
}

// Flush sends whatever is buffered.
func (c *Client) Flush() {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.flushLocked()
}

// Close flushes, stops the flush loop and releases the connection. Safe to call twice.
func (c *Client) Close() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	if c.conn == nil {
		c.mu.Unlock()
		return nil
	}
	c.flushLocked()
	err := c.conn.Close()
	c.conn = nil
	close(c.stop)
	c.mu.Unlock()

	<-c.done
	return err
}

func (c *Client) flushLoop(interval time.Duration) {
	defer close(c.done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.Flush()
		}
	}
}

func (c *Client) emit(name, value, kind string, tags map[string]string) {
	if c == nil {
		return
	}
	metric := c.qualify(name)
	if metric == "" {
		return
	}

	var b strings.Builder
	b.WriteString(metric)
	b.WriteByte(':')
	b.WriteString(value)
	b.WriteByte('|')
	b.WriteString(kind)
	appendTags(&b, c.globalTags, tags)
	line := b.String()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return
	}
	if len(c.buf) > 0 && len(c.buf)+1+len(line) > c.maxPacket {
		c.flushLocked()
	}
	if len(line) >= c.maxPacket {
		c.send([]byte(line))
		return
	}
	if len(c.buf) > 0 {
		c.buf = append(c.buf, '\n')
	}
	c.buf = append(c.buf, line...)
}

func (c *Client) flushLocked() {
	if c.conn == nil || len(c.buf) == 0 {
		return
	}
	c.send(c.buf)
	c.buf = c.buf[:0]
}

func (c *Client) send(packet []byte) {
	if _, err := c.conn.Write(packet); err != nil {
		c.logger.Debug("statsd write failed", "error", err, "bytes", len(packet))
	}
}

// qualify applies the prefix and replaces characters the line format reserves.
func (c *Client) qualify(name string) string {
	n := strings.TrimSpace(name)
	if n == "" {
		return ""
	}
	n = strings.NewReplacer(" ", "_", "/", "_", ":", "_", "|", "_").Replace(n)
	for strings.Contains(n, "..") {
		n = strings.ReplaceAll(n, "..", ".")
	}
	n = strings.Trim(n, ".")
	switch {
	case c.prefix == "":
		return n
	case n == "":
		return c.prefix
	default:
		return c.prefix + "." + n
	}
}

// appendTags writes "|#k:v,..." with local tags overriding global ones, keys sorted.
func appendTags(b *strings.Builder, global, local map[string]string) {
	if len(global)+len(local) == 0 {
		return
	}
	merged := cloneTags(global)
	maps.Copy(merged, cloneTags(local))
	if len(merged) == 0 {
		return
	}
	b.WriteString("|#")
	for i, k := range slices.Sorted(maps.Keys(merged)) {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(k)
		b.WriteByte(':')
		b.WriteString(merged[k])
	}
}

func cloneTags(tags map[string]string) map[string]string {
	out := make(map[string]string, len(tags))
	for k, v := range tags {
		if key := strings.TrimSpace(k); key != "" {
			out[key] = strings.TrimSpace(v)
		}
	}
	return out
}
