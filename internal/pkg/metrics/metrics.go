// internal/pkg/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// 预订生命周期各阶段的计数器。label 区分触发方（sms/admin、timer/sweep 等）。
var (
	BookingsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "banya_bookings_created_total",
		Help: "Number of bookings successfully created.",
	})

	BookingsConfirmed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "banya_bookings_confirmed_total",
		Help: "Number of bookings confirmed, by method.",
	}, []string{"method"})

	BookingsExpired = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "banya_bookings_expired_total",
		Help: "Number of unconfirmed bookings deleted, by trigger.",
	}, []string{"trigger"})

	BookingsCancelled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "banya_bookings_cancelled_total",
		Help: "Number of confirmed bookings cancelled by the customer.",
	})

	BookingsPaid = promauto.NewCounter(prometheus.CounterOpts{
		Name: "banya_bookings_paid_total",
		Help: "Number of bookings marked as paid.",
	})

	BonusAccrued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "banya_bonus_accruals_total",
		Help: "Number of bonus accrual transactions written.",
	})

	BonusRedeemed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "banya_bonus_redemptions_total",
		Help: "Number of bonus redemption transactions written.",
	})
)
