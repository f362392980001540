package session

import (
	"sync"
	"time"

	"photorig/proto"
)

// Health tracks device liveness from the status stream. Any unsolicited
// record counts as a sign of life; firmware variants that push periodic
// heartbeats additionally report an uptime figure in data. Staleness is
// judged against the local monotonic clock, never the device-reported
// timestamp.
type Health struct {
	stale time.Duration
	now   func() time.Time

	mu       sync.Mutex
	lastSeen time.Time
	count    uint64
	uptimeMS float64
}

// HealthSnapshot is a point-in-time copy safe to hand to callers.
type HealthSnapshot struct {
	Alive        bool    `json:"alive"`
	RecordCount  uint64  `json:"record_count"`
	SinceLastSec float64 `json:"since_last_record_s"`
	UptimeMS     float64 `json:"device_uptime_ms"`
}

// NewHealth creates a monitor that declares the device stale after the
// given silence window.
func NewHealth(stale time.Duration) *Health {
	return &Health{stale: stale, now: time.Now}
}

// Observe records one unsolicited status record.
func (h *Health) Observe(resp proto.Response) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.lastSeen = h.now()
	h.count++
	if uptime, ok := resp.Data["uptime"].(float64); ok {
		h.uptimeMS = uptime
	}
}

// Snapshot reports the current liveness.
func (h *Health) Snapshot() HealthSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.count == 0 {
		return HealthSnapshot{}
	}
	since := h.now().Sub(h.lastSeen)
	return HealthSnapshot{
		Alive:        since <= h.stale,
		RecordCount:  h.count,
		SinceLastSec: since.Seconds(),
		UptimeMS:     h.uptimeMS,
	}
}

// Reset clears the history, used on disconnect.
func (h *Health) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.lastSeen = time.Time{}
	h.count = 0
	h.uptimeMS = 0
}
