package api

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics with bounded cardinality (no per-player or per-particle
// labels, so the series count never scales with match size).
var (
	tickDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "tick_duration_seconds",
		Help:    "Time spent in one solver tick",
		Buckets: []float64{0.0005, 0.001, 0.0023, 0.005, 0.01, 0.025},
	})

	activePlayers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "active_players",
		Help: "Players currently in the match",
	})

	solverParticles = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "solver_particles",
		Help: "Current particle count in the solver",
	})

	solverConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "solver_connections",
		Help: "Current connection count in the solver",
	})

	packetsBroadcastTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "packets_broadcast_total",
		Help: "Total IndexedPackets included in server broadcast batches",
	})

	connectionRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "connection_rejected_total",
		Help: "Connections rejected by rate limiter or origin check",
	}, []string{"reason"}) // bounded: "rate_limit", "origin", "ws_limit"

	wsConnectionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "spectate_connections_active",
		Help: "Currently active /spectate WebSocket connections",
	})
)

func metricsHandler() http.Handler {
	return promhttp.Handler()
}

// RecordTick records one solver tick's duration.
func RecordTick(d time.Duration) { tickDuration.Observe(d.Seconds()) }

// UpdateGameGauges refreshes the player/particle/connection gauges from
// a snapshot. Nothing in this module calls it, RecordTick or
// RecordPacketsBroadcast, so those series stay at their zero values.
func UpdateGameGauges(players, particles, connections int) {
	activePlayers.Set(float64(players))
	solverParticles.Set(float64(particles))
	solverConnections.Set(float64(connections))
}

// RecordPacketsBroadcast increments the broadcast packet counter by n.
func RecordPacketsBroadcast(n int) { packetsBroadcastTotal.Add(float64(n)) }

// RecordConnectionRejected increments the rejection counter. reason must
// be one of "rate_limit", "origin", "ws_limit".
func RecordConnectionRejected(reason string) { connectionRejected.WithLabelValues(reason).Inc() }

// UpdateWSConnections updates the active spectate connection gauge.
func UpdateWSConnections(count int) { wsConnectionsActive.Set(float64(count)) }
