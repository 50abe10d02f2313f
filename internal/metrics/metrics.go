package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "slotbook"

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code.",
		},
		[]string{"route", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"route"},
	)

	bookingsCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bookings_created_total",
			Help:      "Bookings created by source (staff, customer, recurring).",
		},
		[]string{"source"},
	)

	bookingConflicts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "booking_conflicts_total",
			Help:      "Booking attempts rejected because the staff slot was taken.",
		},
	)

	slotsComputed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "slots_computed_total",
			Help:      "Candidate slots computed by availability.",
		},
		[]string{"available"},
	)

	notifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Notification task outcomes.",
		},
		[]string{"outcome"},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, httpDuration, bookingsCreated, bookingConflicts, slotsComputed, notifications)
	})
}

// ObserveHTTP records one served request.
func ObserveHTTP(route string, status int, elapsed time.Duration) {
	httpRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()
	httpDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}

func IncBookingsCreated(source string, n int) {
	bookingsCreated.WithLabelValues(source).Add(float64(n))
}

func IncBookingConflict() {
	bookingConflicts.Inc()
}

// AddSlots counts computed slots split by availability.
func AddSlots(available, taken int) {
	slotsComputed.WithLabelValues("true").Add(float64(available))
	slotsComputed.WithLabelValues("false").Add(float64(taken))
}

// IncNotification counts worker outcomes: sent, retried, dead.
func IncNotification(outcome string) {
	notifications.WithLabelValues(outcome).Inc()
}
