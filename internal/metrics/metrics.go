package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ActiveConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "huddle_active_connections",
			Help: "Currently registered websocket connections",
		},
	)

	EventsReceived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "huddle_events_received_total",
			Help: "Inbound events by event name",
		},
		[]string{"event"},
	)

	RateLimitVerdicts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "huddle_rate_limit_verdicts_total",
			Help: "Rate limiter decisions on chat messages",
		},
		[]string{"verdict"},
	)

	SignalsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "huddle_signals_dropped_total",
			Help: "Signaling payloads addressed to a connection that is not live",
		},
	)

	StoredMessages = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "huddle_stored_messages",
			Help: "Messages currently held in history",
		},
	)

	VoiceParticipants = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "huddle_voice_participants",
			Help: "Connections in the voice roster",
		},
	)

	SlowConsumersEvicted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "huddle_slow_consumers_evicted_total",
			Help: "Connections dropped because their send buffer was full",
		},
	)

	PersistWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "huddle_persist_writes_total",
			Help: "History snapshot writes by result",
		},
		[]string{"result"},
	)

	MirrorPublishes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "huddle_mirror_publishes_total",
			Help: "Events mirrored to the message broker by result",
		},
		[]string{"result"},
	)
)
