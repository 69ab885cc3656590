package api

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	renderDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "birbfetch_render_duration_seconds",
		Help:    "Duration of server render plus hydration passes",
		Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
	}, []string{"outcome"})

	renderStates = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "birbfetch_render_states_total",
		Help: "Total number of hydrated hook states by result",
	}, []string{"result"})
)

func recordRender(outcome string, d time.Duration) {
	renderDuration.WithLabelValues(outcome).Observe(d.Seconds())
}

func recordRenderState(result string) {
	renderStates.WithLabelValues(result).Inc()
}
