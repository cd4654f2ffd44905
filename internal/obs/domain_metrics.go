package obs

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// TransactionsTotal counts settled and voided POS transactions.
	TransactionsTotal *prometheus.CounterVec
	// TransactionAmount records settled transaction totals in rupiah.
	TransactionAmount *prometheus.HistogramVec
	// PromotionApplied counts promotion applications by kind and outcome.
	PromotionApplied *prometheus.CounterVec
	// BlendQuotesTotal counts custom blend quote requests by outcome.
	BlendQuotesTotal *prometheus.CounterVec
	// WebhookDeliveriesTotal tracks webhook dispatch outcomes.
	WebhookDeliveriesTotal *prometheus.CounterVec
)

// MustRegisterDomainMetrics initialises and registers POS domain collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		TransactionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transactions_total",
			Help:      "Count of POS transactions by outcome.",
		}, []string{"outlet", "result"})
		TransactionAmount = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "transaction_amount_idr",
			Help:      "Distribution of settled transaction totals in rupiah.",
			Buckets:   []float64{10_000, 50_000, 100_000, 250_000, 500_000, 1_000_000, 5_000_000},
		}, []string{"outlet"})
		PromotionApplied = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "promotion_applied_total",
			Help:      "Count of promotion applications by kind and outcome.",
		}, []string{"kind", "result"})
		BlendQuotesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "blend_quotes_total",
			Help:      "Count of custom blend quote requests by outcome.",
		}, []string{"result"})
		WebhookDeliveriesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webhook_deliveries_total",
			Help:      "Count of webhook delivery outcomes.",
		}, []string{"result"})

		for _, c := range []prometheus.Collector{
			TransactionsTotal, TransactionAmount, PromotionApplied,
			BlendQuotesTotal, WebhookDeliveriesTotal,
		} {
			mustRegisterCollector(reg, c)
		}
	})
}

// IncPromotionApplied bumps the promotion counter when metrics are live.
func IncPromotionApplied(kind, result string) {
	if PromotionApplied != nil {
		PromotionApplied.WithLabelValues(kind, result).Inc()
	}
}

// IncBlendQuote bumps the blend quote counter when metrics are live.
func IncBlendQuote(result string) {
	if BlendQuotesTotal != nil {
		BlendQuotesTotal.WithLabelValues(result).Inc()
	}
}

// ObserveTransaction records a settled or voided transaction when metrics
// are live.
func ObserveTransaction(outlet, result string, amount int64) {
	if TransactionsTotal != nil {
		TransactionsTotal.WithLabelValues(outlet, result).Inc()
	}
	if result == "settled" && TransactionAmount != nil {
		TransactionAmount.WithLabelValues(outlet).Observe(float64(amount))
	}
}

// IncWebhookDelivery bumps the webhook delivery counter when metrics are
// live.
func IncWebhookDelivery(result string) {
	if WebhookDeliveriesTotal != nil {
		WebhookDeliveriesTotal.WithLabelValues(result).Inc()
	}
}

func mustRegisterCollector(reg prometheus.Registerer, c prometheus.Collector) {
	if err := reg.Register(c); err != nil {
		if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return
		}
		panic(err)
	}
}
