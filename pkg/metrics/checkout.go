package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Checkout outcomes used as the "outcome" label.
const (
	OutcomeCreated           = "created"
	OutcomeInsufficientStock = "insufficient_stock"
	OutcomeError             = "error"
)

// CheckoutMetrics records order placement results.
type CheckoutMetrics struct {
	orders     *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	rejections prometheus.Counter
}

// NewCheckoutMetrics registers the checkout collectors on reg. A nil registerer yields a no-op recorder.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	orders := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "shopeasy",
		Subsystem: "checkout",
		Name:      "orders_total",
		Help:      "Checkout attempts partitioned by outcome.",
	}, []string{"outcome"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "shopeasy",
		Subsystem: "checkout",
		Name:      "duration_seconds",
		Help:      "Checkout latency in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"outcome"})
	rejections := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "shopeasy",
		Subsystem: "checkout",
		Name:      "stock_rejections_total",
		Help:      "Checkouts rejected because a product ran out of stock.",
	})
	reg.MustRegister(orders, duration, rejections)
	return &CheckoutMetrics{
		orders:     orders,
		duration:   duration,
		rejections: rejections,
	}
}

// Observe records one checkout attempt.
func (c *CheckoutMetrics) Observe(outcome string, elapsed time.Duration) {
	if c == nil || c.orders == nil {
		return
	}
	label := normalizeLabel(outcome)
	c.orders.WithLabelValues(label).Inc()
	c.duration.WithLabelValues(label).Observe(elapsed.Seconds())
	if label == OutcomeInsufficientStock {
		c.rejections.Inc()
	}
}

func normalizeLabel(outcome string) string {
	if outcome == "" {
		return "unknown"
	}
	return outcome
}
