// Package metrics defines the coordinator's prometheus instrumentation:
// connected peer count, live session count, and pending query count
// (SPEC_FULL.md §2.5). Modeled directly on the teacher's
// pkg/metadata/lock.Metrics — a struct of prometheus collectors built in
// NewMetrics and registered with an injected prometheus.Registerer, nil
// meaning "construct but don't register" for tests.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the coordinator's prometheus collectors.
type Metrics struct {
	ConnectedPeers prometheus.Gauge
	LiveSessions   prometheus.Gauge
	PendingQueries prometheus.Gauge

	FramesSent     *prometheus.CounterVec
	FramesReceived *prometheus.CounterVec
	FacadeCommands *prometheus.CounterVec

	registered bool
}

// New creates and, if registry is non-nil, registers the coordinator's
// metrics.
func New(registry prometheus.Registerer) *Metrics {
	m := &Metrics{
		ConnectedPeers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "swarmnode",
			Subsystem: "swarm",
			Name:      "connected_peers",
			Help:      "Number of currently connected peers.",
		}),
		LiveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "swarmnode",
			Subsystem: "session",
			Name:      "live",
			Help:      "Number of currently tracked block-fetch sessions.",
		}),
		PendingQueries: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "swarmnode",
			Subsystem: "query",
			Name:      "pending",
			Help:      "Number of DHT queries with an unresolved responder.",
		}),
		FramesSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "swarmnode",
			Subsystem: "wire",
			Name:      "frames_sent_total",
			Help:      "Total exchange message frames written, by protocol version.",
		}, []string{"version"}),
		FramesReceived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "swarmnode",
			Subsystem: "wire",
			Name:      "frames_received_total",
			Help:      "Total exchange message frames read, by protocol version.",
		}, []string{"version"}),
		FacadeCommands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "swarmnode",
			Subsystem: "facade",
			Name:      "commands_total",
			Help:      "Total facade commands dispatched, by command name.",
		}, []string{"command"}),
	}

	if registry != nil {
		registry.MustRegister(
			m.ConnectedPeers,
			m.LiveSessions,
			m.PendingQueries,
			m.FramesSent,
			m.FramesReceived,
			m.FacadeCommands,
		)
		m.registered = true
	}
	return m
}

// Registered reports whether the metrics were registered with a registry.
func (m *Metrics) Registered() bool { return m.registered }
