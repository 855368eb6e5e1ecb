// Package metrics holds the Prometheus collectors exported on /metrics
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	Predictions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "diapredict",
		Name:      "predictions_total",
		Help:      "Predictions made, by outcome.",
	}, []string{"outcome"})

	Registrations = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "diapredict",
		Name:      "registrations_total",
		Help:      "Accounts registered.",
	})

	Logins = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "diapredict",
		Name:      "logins_total",
		Help:      "Login attempts, by result.",
	}, []string{"result"})

	EmailsSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "diapredict",
		Name:      "emails_sent_total",
		Help:      "Mails handed to the mail transport, by kind.",
	}, []string{"kind"})

	EmailsFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "diapredict",
		Name:      "emails_failed_total",
		Help:      "Mails that couldn't be delivered, by kind.",
	}, []string{"kind"})
)

// Login results
const (
	LoginOK         = "ok"
	LoginUnverified = "unverified"
	LoginInvalid    = "invalid"
)

func Handler() http.Handler {
	return promhttp.Handler()
}
