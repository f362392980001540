// Package metrics exposes Prometheus collectors for the serial session.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const metricPrefix = "photorig_"

var (
	// CommandsTotal counts command round trips by kind and outcome
	// (ok, error, timeout, busy).
	CommandsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: metricPrefix + "commands_total",
			Help: "Commands sent to the rig controller",
		},
		[]string{"kind", "outcome"},
	)

	// UnsolicitedTotal counts device-initiated status records.
	UnsolicitedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: metricPrefix + "unsolicited_records_total",
			Help: "Unsolicited status records received from the device",
		},
	)

	// ConnectionState reports the channel state as a numeric gauge
	// (0 disconnected, 1 connecting, 2 connected, 3 faulted).
	ConnectionState = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: metricPrefix + "connection_state",
			Help: "Channel connection state (0=disconnected 1=connecting 2=connected 3=faulted)",
		},
	)
)

// Register installs the collectors on the given registry, or the
// default one when nil.
func Register(reg prometheus.Registerer) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(CommandsTotal, UnsolicitedTotal, ConnectionState)
}
