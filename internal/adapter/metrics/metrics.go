package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// FlowMetrics holds all Prometheus metrics for the pricing webhook service.
type FlowMetrics struct {
	ChecksTotal      *prometheus.CounterVec
	RepricingRuns    prometheus.Counter
	VariantWrites    *prometheus.CounterVec
	UpstreamDuration *prometheus.HistogramVec
}

// NewFlowMetrics initializes and registers the Prometheus metrics.
func NewFlowMetrics() *FlowMetrics {
	return &FlowMetrics{
		ChecksTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "flow_pricer",
			Subsystem: "webhook",
			Name:      "checks_total",
			Help:      "Total number of inventory check requests by outcome.",
		}, []string{"outcome"}), // outcome: ok, shop_not_found, upstream_error, bad_request, internal_error
		RepricingRuns: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "flow_pricer",
			Subsystem: "webhook",
			Name:      "repricing_runs_total",
			Help:      "Total number of low-stock repricing fan-outs triggered.",
		}),
		VariantWrites: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "flow_pricer",
			Subsystem: "shopify",
			Name:      "variant_writes_total",
			Help:      "Total number of variant price writes by status.",
		}, []string{"status"}), // status: success, error
		UpstreamDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "flow_pricer",
			Subsystem: "shopify",
			Name:      "request_duration_seconds",
			Help:      "Duration of Admin API calls by operation.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}), // operation: fetch_product, update_variant, exchange_token
	}
}
