// Package metrics holds the Prometheus collectors for the trim workflow.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Result label values.
const (
	ResultSuccess  = "success"
	ResultFailed   = "failed"
	ResultNotFound = "not_found"
	ResultInvalid  = "invalid"
	ResultRejected = "rejected"
)

var (
	trimsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hourtrim_trims_total",
		Help: "Trim requests by result",
	}, []string{"result"})

	trimDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "hourtrim_trim_duration_seconds",
		Help:    "Wall time of trim requests, including the transcoder run",
		Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300, 600},
	})

	loginsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hourtrim_logins_total",
		Help: "Login attempts by result",
	}, []string{"result"})

	signupsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hourtrim_signups_total",
		Help: "Signup attempts by result",
	}, []string{"result"})

	gateRejections = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hourtrim_session_rejections_total",
		Help: "Requests turned away by the session gate",
	})
)

func ObserveTrim(result string, elapsed time.Duration) {
	trimsTotal.WithLabelValues(result).Inc()
	trimDuration.Observe(elapsed.Seconds())
}

func ObserveLogin(result string) {
	loginsTotal.WithLabelValues(result).Inc()
}

func ObserveSignup(result string) {
	signupsTotal.WithLabelValues(result).Inc()
}

func ObserveGateRejection() {
	gateRejections.Inc()
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
