package application

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	unreadGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "inbox_unread_notifications",
		Help: "Current value of the unread counter.",
	})

	eventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inbox_events_total",
		Help: "Change feed events delivered, by kind.",
	}, []string{"kind"})

	suppressedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inbox_suppressed_total",
		Help: "Message notifications dropped because their room is open, by call site.",
	}, []string{"site"})

	reconnectAttemptsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "inbox_reconnect_attempts_total",
		Help: "Change feed reconnect attempts.",
	})

	subscriptionFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "inbox_subscription_failures_total",
		Help: "Times the retry budget was exhausted.",
	})

	bannersShownTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "inbox_banners_shown_total",
		Help: "Banners presented.",
	})

	bannersDismissedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inbox_banners_dismissed_total",
		Help: "Banners removed, by reason.",
	}, []string{"reason"})

	bannerDuplicatesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "inbox_banner_duplicates_total",
		Help: "Notifications discarded because they were the last one shown.",
	})

	rollbacksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inbox_mutation_rollbacks_total",
		Help: "Optimistic read mutations rolled back, by operation.",
	}, []string{"op"})

	enrichFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "inbox_enrich_failures_total",
		Help: "Profile lookups that failed during enrichment.",
	})
)
