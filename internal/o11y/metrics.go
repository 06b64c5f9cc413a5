package o11y

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// PriceLabelFallbacks counts chargers whose price label had to fall back to the default rate.
	PriceLabelFallbacks = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "chargebook_price_label_fallback_total",
			Help: "Total number of price labels that could not be parsed",
		},
	)

	// Payments counts payment attempts by result (paid, declined, cancelled).
	Payments = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chargebook_payments_total",
			Help: "Total number of payment attempts",
		},
		[]string{"method", "result"},
	)

	// WizardTransitions counts accepted and refused wizard events.
	WizardTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chargebook_wizard_events_total",
			Help: "Total number of booking wizard events",
		},
		[]string{"event", "outcome"},
	)
)

// RegisterDomainMetrics adds the domain collectors to reg.
func RegisterDomainMetrics(reg prometheus.Registerer) {
	reg.MustRegister(PriceLabelFallbacks, Payments, WizardTransitions)
}
