// Copyright 2026 The Capisuite Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package metrics exposes a small set of Prometheus gauges/counters for
// the connection engine: how many calls are live, how full send windows
// are running, and how often the reader task hits a protocol error.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// ActiveConnections is the number of Connections whose PLCI state has
	// not yet reached "terminal".
	ActiveConnections = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "capisuite",
		Name:      "active_connections",
		Help:      "Number of ISDN connections currently tracked by the controller.",
	})

	// SendWindowUsed is a histogram of the send-window occupancy (0-7).
	// MustRegister registers it, but nothing in this module calls Observe
	// on it, so it stays empty.
	SendWindowUsed = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "capisuite",
		Name:      "send_window_used",
		Help:      "Occupancy of the per-connection send window at DATA_B3_REQ time.",
		Buckets:   prometheus.LinearBuckets(0, 1, 8),
	})

	// ProtocolErrors counts messages received in a state with no defined
	// transition (spec §7's "Protocol error" kind).
	ProtocolErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "capisuite",
		Name:      "protocol_errors_total",
		Help:      "Messages received by the reader task in a state with no valid transition.",
	})

	// DriverErrors is a counter for non-zero CAPI info codes. MustRegister
	// registers it, but nothing in this module increments it.
	DriverErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "capisuite",
		Name:      "driver_errors_total",
		Help:      "Non-zero CAPI info codes returned by the driver.",
	})
)

// MustRegister registers every metric above against reg. Call once during
// startup; a nil reg registers against the default Prometheus registry.
func MustRegister(reg prometheus.Registerer) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(ActiveConnections, SendWindowUsed, ProtocolErrors, DriverErrors)
}
