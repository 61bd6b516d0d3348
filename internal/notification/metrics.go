package notification

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	publishAttempts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "notification_publish_attempts_total",
		Help: "Total number of notification publish attempts.",
	})

	publishSuccesses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "notification_publish_successes_total",
		Help: "Total number of notification publishes confirmed or sent.",
	})

	publishTimeouts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "notification_publish_timeouts_total",
		Help: "Total number of publishes that missed the broker acknowledgment window.",
	})

	publishErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "notification_publish_errors_total",
		Help: "Total number of publishes that failed with a connect or publish error.",
	})
)
