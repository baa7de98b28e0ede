package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// OrderMetrics records order lifecycle outcomes.
type OrderMetrics struct {
	created    *prometheus.CounterVec
	canceled   prometheus.Counter
	duration   prometheus.Histogram
	stockFails prometheus.Counter
}

// NewOrderMetrics registers the order metrics on the provided registerer.
func NewOrderMetrics(reg prometheus.Registerer) *OrderMetrics {
	if reg == nil {
		return &OrderMetrics{}
	}
	created := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_created_total",
		Help: "Orders created, labelled by shipping method.",
	}, []string{"shipping_method"})
	canceled := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "orders_canceled_total",
		Help: "Orders canceled.",
	})
	duration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "order_create_duration_seconds",
		Help:    "Duration of the order creation transaction in seconds.",
		Buckets: prometheus.DefBuckets,
	})
	stockFails := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "order_insufficient_stock_total",
		Help: "Order attempts rejected for insufficient stock.",
	})
	reg.MustRegister(created, canceled, duration, stockFails)
	return &OrderMetrics{
		created:    created,
		canceled:   canceled,
		duration:   duration,
		stockFails: stockFails,
	}
}

// IncCreated increments the created counter for the shipping method.
func (o *OrderMetrics) IncCreated(shippingMethod string) {
	if o == nil || o.created == nil {
		return
	}
	if shippingMethod == "" {
		shippingMethod = "unknown"
	}
	o.created.WithLabelValues(shippingMethod).Inc()
}

// IncCanceled increments the canceled counter.
func (o *OrderMetrics) IncCanceled() {
	if o == nil || o.canceled == nil {
		return
	}
	o.canceled.Inc()
}

// ObserveCreateDuration records how long the creation transaction took.
func (o *OrderMetrics) ObserveCreateDuration(d time.Duration) {
	if o == nil || o.duration == nil {
		return
	}
	o.duration.Observe(d.Seconds())
}

// IncInsufficientStock increments the insufficient stock counter.
func (o *OrderMetrics) IncInsufficientStock() {
	if o == nil || o.stockFails == nil {
		return
	}
	o.stockFails.Inc()
}
