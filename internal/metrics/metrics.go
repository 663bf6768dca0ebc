package metrics

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"freight-quote-service/internal/carriers"
	"freight-quote-service/internal/models"
)

const namespace = "freight_quote"

// Metrics holds the prometheus collectors for quoting
type Metrics struct {
	registry        *prometheus.Registry
	gatewayDuration *prometheus.HistogramVec
	gatewayCalls    *prometheus.CounterVec
	shipments       *prometheus.CounterVec
	quotesReturned  prometheus.Histogram
	priceOverrides  prometheus.Counter
}

// New creates the collectors on a dedicated registry
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		gatewayDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "gateway_request_duration_seconds",
			Help:      "Latency of rating gateway calls.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"gateway", "mode"}),
		gatewayCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gateway_requests_total",
			Help:      "Rating gateway calls by outcome.",
		}, []string{"gateway", "mode", "outcome"}),
		shipments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "shipments_total",
			Help:      "Shipments quoted by network and final status.",
		}, []string{"network", "status"}),
		quotesReturned: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "quotes_per_shipment",
			Help:      "Number of priced quotes attached to a successful shipment.",
			Buckets:   []float64{0, 1, 2, 5, 10, 20, 50},
		}),
		priceOverrides: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "price_overrides_total",
			Help:      "Manual customer price edits.",
		}),
	}

	m.registry.MustRegister(
		m.gatewayDuration,
		m.gatewayCalls,
		m.shipments,
		m.quotesReturned,
		m.priceOverrides,
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)
	return m
}

// Registry exposes the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveGatewayCall records one gateway call
func (m *Metrics) ObserveGatewayCall(gateway string, mode models.QuoteMode, duration time.Duration, err error) {
	m.gatewayDuration.WithLabelValues(gateway, string(mode)).Observe(duration.Seconds())
	m.gatewayCalls.WithLabelValues(gateway, string(mode), outcome(err)).Inc()
}

// ObserveShipment records a shipment that reached a final status
func (m *Metrics) ObserveShipment(result *models.ShipmentResult) {
	if result == nil || !result.Status.IsFinal() {
		return
	}
	network := string(result.Decision.Network)
	if network == "" {
		network = "unclassified"
	}
	m.shipments.WithLabelValues(network, string(result.Status)).Inc()
	if result.Status == models.ResultStatusSuccess {
		m.quotesReturned.Observe(float64(len(result.Quotes)))
	}
}

// ObservePriceOverride counts a manual price edit
func (m *Metrics) ObservePriceOverride() {
	m.priceOverrides.Inc()
}

func outcome(err error) string {
	if err == nil {
		return "success"
	}
	var rateErr *carriers.RateError
	switch {
	case carriers.IsAuthError(err):
		return "auth_error"
	case errors.As(err, &rateErr):
		return "provider_error"
	default:
		return "error"
	}
}
