// Package metrics provides Prometheus metrics instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// GatewayCalls tracks inference gateway calls by kind and outcome.
	GatewayCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_calls_total",
			Help: "Inference gateway calls by kind and outcome",
		},
		[]string{"kind", "outcome"},
	)

	// VoiceSessionsActive tracks currently open voice sessions.
	VoiceSessionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "voice_sessions_active",
			Help: "Number of currently open voice sessions",
		},
	)

	// WSMessages tracks WebSocket frames by direction.
	WSMessages = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ws_messages_total",
			Help: "WebSocket frames by direction",
		},
		[]string{"direction"},
	)

	// DialogueExtractions tracks slot-extraction calls by outcome.
	DialogueExtractions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dialogue_extractions_total",
			Help: "Slot-extraction calls by outcome",
		},
		[]string{"outcome"},
	)
)
