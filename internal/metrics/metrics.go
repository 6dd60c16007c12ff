// Package metrics counts line traffic for the --stats report.
//
// All methods are safe for concurrent use.  A nil *Collector is a
// valid no-op receiver, so callers never need to nil-check.
package metrics

import (
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"
)

// flow counts lines moving in one direction.  Bytes include the "\n"
// terminator, so they match what crossed the wire.
type flow struct {
	lines atomic.Int64
	bytes atomic.Int64
}

func (f *flow) add(n int) {
	f.lines.Add(1)
	f.bytes.Add(int64(n))
}

func (f *flow) stats() FlowStats {
	return FlowStats{Lines: f.lines.Load(), Bytes: f.bytes.Load()}
}

// Collector accumulates counters for one linewire process.
type Collector struct {
	active  atomic.Int64
	total   atomic.Int64
	retries atomic.Int64
	errors  atomic.Int64

	in, out flow

	started time.Time

	mu      sync.Mutex
	lastErr string
	lastAt  time.Time
}

// New returns a collector whose uptime starts now.
func New() *Collector {
	return &Collector{started: time.Now()}
}

// ConnectionOpened counts a connection that reached the connected state.
func (c *Collector) ConnectionOpened() {
	if c == nil {
		return
	}
	c.active.Add(1)
	c.total.Add(1)
}

// ConnectionClosed counts a disconnect of an opened connection.
func (c *Collector) ConnectionClosed() {
	if c == nil {
		return
	}
	c.active.Add(-1)
}

// ConnectRetried counts a failed connect attempt that will be retried.
func (c *Collector) ConnectRetried() {
	if c == nil {
		return
	}
	c.retries.Add(1)
}

// LineReceived records one inbound line of n wire bytes.
func (c *Collector) LineReceived(n int) {
	if c == nil {
		return
	}
	c.in.add(n)
}

// LineSent records one outbound line of n wire bytes.
func (c *Collector) LineSent(n int) {
	if c == nil {
		return
	}
	c.out.add(n)
}

// RecordError counts an I/O failure and remembers it as the latest.
func (c *Collector) RecordError(msg string) {
	if c == nil {
		return
	}
	c.errors.Add(1)
	c.mu.Lock()
	c.lastErr, c.lastAt = msg, time.Now()
	c.mu.Unlock()
}

func (c *Collector) ActiveConnections() int64 { return c.Snapshot().Connections.Active }
func (c *Collector) TotalConnections() int64  { return c.Snapshot().Connections.Total }
func (c *Collector) ConnectRetries() int64    { return c.Snapshot().Connections.Retries }
func (c *Collector) LinesIn() int64           { return c.Snapshot().Received.Lines }
func (c *Collector) LinesOut() int64          { return c.Snapshot().Sent.Lines }
func (c *Collector) TotalBytesIn() int64      { return c.Snapshot().Received.Bytes }
func (c *Collector) TotalBytesOut() int64     { return c.Snapshot().Sent.Bytes }
func (c *Collector) ErrorCount() int64        { return c.Snapshot().Errors.Total }

// ── Snapshot ─────────────────────────────────────────────────────────

// Snapshot is a point-in-time copy of every counter.
type Snapshot struct {
	Uptime      string     `json:"uptime"`
	Connections ConnStats  `json:"connections"`
	Received    FlowStats  `json:"received"`
	Sent        FlowStats  `json:"sent"`
	Errors      ErrorStats `json:"errors"`
}

// ConnStats describes connection churn.
type ConnStats struct {
	Active  int64 `json:"active"`
	Total   int64 `json:"total"`
	Retries int64 `json:"retries"`
}

// FlowStats describes traffic in one direction.
type FlowStats struct {
	Lines int64 `json:"lines"`
	Bytes int64 `json:"bytes"`
}

// ErrorStats describes I/O failures.
type ErrorStats struct {
	Total  int64  `json:"total"`
	Last   string `json:"last,omitempty"`
	LastAt string `json:"last_at,omitempty"`
}

// Snapshot returns the current counters.  A nil collector yields zeros.
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}

	s := Snapshot{
		Uptime: time.Since(c.started).Truncate(time.Millisecond).String(),
		Connections: ConnStats{
			Active:  c.active.Load(),
			Total:   c.total.Load(),
			Retries: c.retries.Load(),
		},
		Received: c.in.stats(),
		Sent:     c.out.stats(),
		Errors:   ErrorStats{Total: c.errors.Load()},
	}

	c.mu.Lock()
	if !c.lastAt.IsZero() {
		s.Errors.Last = c.lastErr
		s.Errors.LastAt = c.lastAt.Format(time.RFC3339)
	}
	c.mu.Unlock()
	return s
}

// JSON renders the snapshot as indented JSON.
func (c *Collector) JSON() string {
	data, _ := json.MarshalIndent(c.Snapshot(), "", "  ")
	return string(data)
}
