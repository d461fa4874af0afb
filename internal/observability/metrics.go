package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RequestsCreated    = promauto.NewCounter(prometheus.CounterOpts{Namespace: "carpool", Name: "booking_requests_created_total", Help: "Booking requests created"})
	BookingsAccepted   = promauto.NewCounter(prometheus.CounterOpts{Namespace: "carpool", Name: "bookings_accepted_total", Help: "Booking requests accepted"})
	CapacityRejections = promauto.NewCounter(prometheus.CounterOpts{Namespace: "carpool", Name: "capacity_rejections_total", Help: "Accepts rejected because the trip was out of seats"})
	ConflictRetries    = promauto.NewCounter(prometheus.CounterOpts{Namespace: "carpool", Name: "capacity_conflict_retries_total", Help: "Seat-inventory compare-and-swap conflicts retried"})
	BookingsCancelled  = promauto.NewCounter(prometheus.CounterOpts{Namespace: "carpool", Name: "bookings_cancelled_total", Help: "Accepted bookings cancelled by drivers"})

	SuggestionsServed = promauto.NewCounter(prometheus.CounterOpts{Namespace: "carpool", Name: "suggestions_served_total", Help: "Suggestion lists generated"})
	SuggestionLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "carpool",
		Name:      "suggestion_latency_seconds",
		Help:      "Suggestion generation latency distribution",
		Buckets:   prometheus.DefBuckets,
	})
)
