package metrics

import (
	"net/http"
	"time"

	"collegetour/internal/domain"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	reservationOps = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "collegetour_reservation_operations_total",
			Help: "Reservation transitions by operation and outcome",
		},
		[]string{"operation", "outcome"},
	)

	reservationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "collegetour_reservation_duration_seconds",
			Help:    "Duration of reservation transactions",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	busCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "collegetour_bus_cache_lookups_total",
			Help: "Bus list cache lookups by result",
		},
		[]string{"result"},
	)

	seatsReleased = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "collegetour_seats_released_total",
			Help: "Seats given back by cause",
		},
		[]string{"cause"},
	)
)

// Outcome labels an error: "ok", the domain reason code, or "error".
func Outcome(err error) string {
	if err == nil {
		return "ok"
	}
	if r := domain.Reason(err); r != "" {
		return r
	}
	if domain.IsNotFound(err) {
		return "not_found"
	}
	if domain.IsValidation(err) {
		return "validation"
	}
	return "error"
}

// ObserveReservation records one transition that started at start.
func ObserveReservation(operation string, start time.Time, err error) {
	reservationOps.WithLabelValues(operation, Outcome(err)).Inc()
	reservationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

func CacheHit()  { busCacheLookups.WithLabelValues("hit").Inc() }
func CacheMiss() { busCacheLookups.WithLabelValues("miss").Inc() }

func SeatsReleased(cause string, n int) {
	if n > 0 {
		seatsReleased.WithLabelValues(cause).Add(float64(n))
	}
}

func Handler() http.Handler {
	return promhttp.Handler()
}
