// Package metrics registers the daemon's Prometheus collectors and serves
// them over HTTP when a listen address is configured.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	PlayersOnline = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "relayd",
		Name:      "players_online",
		Help:      "Number of players currently online.",
	})

	LinesFramed = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "relayd",
		Name:      "lines_framed_total",
		Help:      "Complete lines framed from server output.",
	})

	ParseErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "relayd",
		Name:      "parse_errors_total",
		Help:      "Server output lines that did not match the log grammar.",
	})

	Events = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "relayd",
		Name:      "events_total",
		Help:      "Events processed by the orchestrator loop.",
	}, []string{"type"})

	ChatSendFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "relayd",
		Name:      "chat_send_failures_total",
		Help:      "Failed attempts to send text to the chat channel.",
	})

	CaptureBusy = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "relayd",
		Name:      "capture_busy_total",
		Help:      "Operator commands rejected because a capture window was active.",
	})
)

func init() {
	prometheus.MustRegister(
		PlayersOnline,
		LinesFramed,
		ParseErrors,
		Events,
		ChatSendFailures,
		CaptureBusy,
	)
}

// Serve blocks serving the /metrics endpoint on listen.
func Serve(listen string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return http.ListenAndServe(listen, mux)
}
