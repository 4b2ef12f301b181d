package messaging

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	messagesReceived = promauto.NewCounter(prometheus.CounterOpts{
		Name: "relay_push_messages_received_total",
		Help: "Total number of push messages received from the transport.",
	})

	messagesProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_push_messages_processed_total",
			Help: "Total number of processed push messages, partitioned by outcome.",
		},
		[]string{"outcome"},
	)

	tokenDeletionsPublished = promauto.NewCounter(prometheus.CounterOpts{
		Name: "relay_token_deletions_published_total",
		Help: "Total number of invalid device tokens published for deletion.",
	})
)
