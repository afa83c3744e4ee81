// Package metrics holds the prometheus collectors for the game server.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	SessionsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "firstframe_sessions_created_total",
		Help: "Game sessions created.",
	})

	RowsParsed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "firstframe_rows_parsed_total",
		Help: "Data rows seen by the round file parser, by outcome.",
	}, []string{"outcome"})

	UploadsRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "firstframe_uploads_rejected_total",
		Help: "Round file uploads that did not start a game, by reason.",
	}, []string{"reason"})

	Transitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "firstframe_transitions_total",
		Help: "Moderator operations applied to sessions.",
	}, []string{"op"})
)

// ObserveParse records how many rows were accepted and skipped.
func ObserveParse(accepted, skipped int) {
	RowsParsed.WithLabelValues("accepted").Add(float64(accepted))
	RowsParsed.WithLabelValues("skipped").Add(float64(skipped))
}

func Handler() http.Handler {
	return promhttp.Handler()
}
