package sudoapi

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	notificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "almoner_notifications_total",
		Help: "Notification dispatch attempts by channel and outcome",
	}, []string{"channel", "outcome"})

	prunedTokensTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "almoner_pruned_device_tokens_total",
		Help: "Device tokens removed after the push backend reported them permanently invalid",
	})
)
