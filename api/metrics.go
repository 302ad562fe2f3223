package api

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var webhookEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "almoner_webhook_events_total",
	Help: "Webhook deliveries by provider and outcome",
}, []string{"provider", "outcome"})
