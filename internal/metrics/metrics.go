package metrics

import (
	"errors"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"

	"estocks/internal/util"
)

var (
	// HTTP
	HTTPLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Latency of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	// Investments
	InvestmentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "invest_requests_total",
			Help: "Invest calls by outcome.",
		},
		[]string{"outcome"},
	)
	InvestedAmountTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "invested_amount_total",
			Help: "Sum of successfully invested amounts.",
		},
	)

	// Quotes
	QuoteRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quote_requests_total",
			Help: "Quote lookups by source (cache, live, fallback).",
		},
		[]string{"source"},
	)

	registerOnce sync.Once
)

// Handler serves the /metrics endpoint.
var Handler = promhttp.Handler

// Init registers the collectors with the default registry. Safe to call more than once.
func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(HTTPLatency, InvestmentsTotal, InvestedAmountTotal, QuoteRequestsTotal)
	})
}

// InvestOutcome maps an Invest result to a low-cardinality label.
func InvestOutcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, util.ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, util.ErrUnauthenticated):
		return "unauthenticated"
	case errors.Is(err, util.ErrWalletNotFound):
		return "wallet_not_found"
	case errors.Is(err, util.ErrFundNotFound):
		return "fund_not_found"
	case errors.Is(err, util.ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, util.ErrInvalidFundState):
		return "invalid_fund_state"
	case errors.Is(err, util.ErrPersistence):
		return "persistence_error"
	default:
		return "error"
	}
}

// ObserveInvest records one Invest call.
func ObserveInvest(err error, amount decimal.Decimal) {
	InvestmentsTotal.WithLabelValues(InvestOutcome(err)).Inc()
	if err == nil {
		InvestedAmountTotal.Add(amount.InexactFloat64())
	}
}
