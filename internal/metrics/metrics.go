package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics счетчики обработки вебхуков и обращений к леджеру
type Metrics struct {
	WebhooksReceived prometheus.Counter
	WebhooksRejected *prometheus.CounterVec
	WebhooksSkipped  *prometheus.CounterVec
	AccountsCreated  prometheus.Counter
	TransfersCreated prometheus.Counter
	LedgerErrors     prometheus.Counter
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		WebhooksReceived: factory.NewCounter(prometheus.CounterOpts{
			Name: "autosave_webhooks_received_total",
			Help: "Total transaction webhooks received",
		}),
		WebhooksRejected: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "autosave_webhooks_rejected_total",
			Help: "Webhooks rejected before processing",
		}, []string{"reason"}),
		WebhooksSkipped: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "autosave_webhooks_skipped_total",
			Help: "Webhooks accepted but not eligible for a savings transfer",
		}, []string{"reason"}),
		AccountsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "autosave_accounts_created_total",
			Help: "Savings accounts created in the ledger",
		}),
		TransfersCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "autosave_transfers_created_total",
			Help: "Savings transfers created in the ledger",
		}),
		LedgerErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "autosave_ledger_errors_total",
			Help: "Failed calls to the ledger API",
		}),
	}
}
