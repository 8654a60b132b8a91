package application

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	createdTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_created_total",
			Help: "Notifications persisted, by type.",
		},
		[]string{"type"},
	)

	pushFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "notification_push_dispatch_failures_total",
			Help: "Push jobs that could not be handed to the queue.",
		},
	)
)
