package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	BookingsStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "eventsure_bookings_started_total",
		Help: "Number of bookings that successfully held seats.",
	})

	BookingsConfirmed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "eventsure_bookings_confirmed_total",
		Help: "Number of bookings confirmed after payment verification.",
	})

	BookingsCancelled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "eventsure_bookings_cancelled_total",
		Help: "Number of bookings cancelled by the purchaser.",
	})

	CapacityRejections = promauto.NewCounter(prometheus.CounterOpts{
		Name: "eventsure_capacity_rejections_total",
		Help: "Number of booking attempts rejected for insufficient seats.",
	})

	VerificationFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "eventsure_payment_verification_failures_total",
		Help: "Number of payment assertions that failed signature verification.",
	})

	HoldsExpired = promauto.NewCounter(prometheus.CounterOpts{
		Name: "eventsure_holds_expired_total",
		Help: "Number of pending holds released by the reaper.",
	})
)
