package metrics

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// OnlineConnections live websocket connections in the presence registry
	OnlineConnections = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "chat_online_connections",
		Help: "Number of identities with a live connection.",
	})

	// MessagesSent persisted messages by kind
	MessagesSent = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "chat_messages_sent_total",
		Help: "Messages persisted by the send path.",
	}, []string{"kind"})

	// MessagesRead messages transitioned to read
	MessagesRead = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "chat_messages_read_total",
		Help: "Messages transitioned to read.",
	})

	// PushFailures realtime pushes that could not be written
	PushFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "chat_push_failures_total",
		Help: "Realtime pushes that failed to write.",
	}, []string{"event"})

	// PartialPersistence send path writes where exactly one store write failed
	PartialPersistence = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "chat_partial_persistence_total",
		Help: "Sends where the message and conversation writes diverged.",
	})

	// AssistantReplies assistant replies by result (ok, fallback, timeout)
	AssistantReplies = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "chat_assistant_replies_total",
		Help: "Assistant replies by result.",
	}, []string{"result"})
)

func init() {
	prometheus.MustRegister(OnlineConnections)
	prometheus.MustRegister(MessagesSent)
	prometheus.MustRegister(MessagesRead)
	prometheus.MustRegister(PushFailures)
	prometheus.MustRegister(PartialPersistence)
	prometheus.MustRegister(AssistantReplies)
}

// Handler /metrics for fiber
func Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
