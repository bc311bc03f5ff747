package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// MovementMetrics records submission outcomes and stock levels.
type MovementMetrics struct {
	submissions *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	stockLevel  *prometheus.GaugeVec
	lowStock    *prometheus.GaugeVec
}

// NewMovementMetrics registers the movement metrics on the provided registerer.
func NewMovementMetrics(reg prometheus.Registerer) *MovementMetrics {
	if reg == nil {
		return &MovementMetrics{}
	}
	submissions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "movement_submissions_total",
		Help: "Movement submissions by type and outcome.",
	}, []string{"type", "outcome"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "movement_submit_duration_seconds",
		Help:    "Duration of movement submissions in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"type"})
	stockLevel := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "inventory_stock_level",
		Help: "Current stored quantity per product.",
	}, []string{"product"})
	lowStock := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "inventory_low_stock",
		Help: "1 when the product is at or below its minimum, 0 otherwise.",
	}, []string{"product"})
	reg.MustRegister(submissions, duration, stockLevel, lowStock)
	return &MovementMetrics{
		submissions: submissions,
		duration:    duration,
		stockLevel:  stockLevel,
		lowStock:    lowStock,
	}
}

// IncSubmission increments the submission counter for the movement type
// and outcome.
func (m *MovementMetrics) IncSubmission(movementType, outcome string) {
	if m == nil || m.submissions == nil {
		return
	}
	m.submissions.WithLabelValues(normalizeLabel(movementType), normalizeLabel(outcome)).Inc()
}

// ObserveSubmitDuration records how long a submission took.
func (m *MovementMetrics) ObserveSubmitDuration(movementType string, duration time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.WithLabelValues(normalizeLabel(movementType)).Observe(duration.Seconds())
}

// SetStockLevel publishes the stored quantity for a product.
func (m *MovementMetrics) SetStockLevel(product string, quantity int) {
	if m == nil || m.stockLevel == nil {
		return
	}
	m.stockLevel.WithLabelValues(normalizeLabel(product)).Set(float64(quantity))
}

// SetLowStock flags whether a product sits at or below its minimum.
func (m *MovementMetrics) SetLowStock(product string, low bool) {
	if m == nil || m.lowStock == nil {
		return
	}
	val := 0.0
	if low {
		val = 1.0
	}
	m.lowStock.WithLabelValues(normalizeLabel(product)).Set(val)
}

func normalizeLabel(label string) string {
	if label == "" {
		return "unknown"
	}
	return label
}
