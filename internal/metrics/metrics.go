package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Engine metrics
	EventsHandled = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "livechat_events_handled_total",
			Help: "Events applied by the conversation engine",
		},
		[]string{"event"},
	)

	EventsDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "livechat_events_dropped_total",
			Help: "Inbound events dropped before reaching the engine",
		},
		[]string{"reason"},
	)

	EffectFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "livechat_effect_failures_total",
			Help: "Side effects (emits, flag writes) that returned an error",
		},
		[]string{"effect"},
	)

	MessagesPruned = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "livechat_messages_pruned_total",
			Help: "Messages discarded by the history pruner",
		},
	)

	// State gauges
	StoredMessages = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "livechat_stored_messages",
			Help: "Messages currently held in the conversation",
		},
	)

	UnreadMessages = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "livechat_unread_messages",
			Help: "Current unread message count",
		},
	)

	// Transport metrics
	TransportFrames = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "livechat_transport_frames_total",
			Help: "Websocket frames by direction",
		},
		[]string{"direction"}, // "in" or "out"
	)
)
