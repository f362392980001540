// Package discovery finds candidate rig controllers: it enumerates the
// visible serial ports and can probe one with a lightweight ping to
// confirm a compatible device answers before a session commits to it.
package discovery

import (
	"log/slog"
	"sort"
	"strings"
	"time"

	"photorig/channel"
	"photorig/proto"
	"photorig/transport"
)

// DefaultProbeTimeout bounds one probe round trip.
const DefaultProbeTimeout = 2 * time.Second

// probeConnectWait keeps throwaway probe channels snappy.
const probeConnectWait = 150 * time.Millisecond

type Discovery struct {
	tr transport.Transport
}

func New(tr transport.Transport) *Discovery {
	return &Discovery{tr: tr}
}

// ListCandidates returns the visible port identifiers sorted for a
// deterministic display order.
func (d *Discovery) ListCandidates() ([]string, error) {
	ids, err := d.tr.Enumerate()
	if err != nil {
		return nil, err
	}
	sort.Strings(ids)
	return ids, nil
}

// Probe opens a throwaway channel on the identified port and pings it.
// It reports true only when a successful Pong-class acknowledgment
// arrives within the timeout. The port is always released on return.
func (d *Discovery) Probe(identifier string, timeout time.Duration) bool {
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}

	ch := channel.New(d.tr, channel.Options{ConnectWait: probeConnectWait})
	if err := ch.Connect(identifier); err != nil {
		slog.Debug("Probe connect failed", "port", identifier, "error", err)
		return false
	}
	defer ch.Disconnect()

	resp, err := ch.Send(proto.NewCommand(proto.KindPing, nil), timeout)
	if err != nil {
		slog.Debug("Probe ping failed", "port", identifier, "error", err)
		return false
	}
	return resp.Success && isPong(resp.Message)
}

// isPong matches the acknowledgment text across firmware dialects
// ("Pong", "pong!", "PONG ok").
func isPong(message string) bool {
	return strings.Contains(strings.ToLower(message), "pong")
}
