package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics are the domain counters exported next to the HTTP ones. The zero
// value is safe and records nothing.
type Metrics struct {
	transitions   metric.Int64Counter
	invoices      metric.Int64Counter
	notifications metric.Int64Counter
}

// NewMetrics registers the domain instruments on the global meter provider.
func NewMetrics() *Metrics {
	meter := otel.Meter(instrumentationName)

	transitions, _ := meter.Int64Counter(
		"medtrack_appointment_transitions_total",
		metric.WithDescription("Appointment status transitions"),
	)
	invoices, _ := meter.Int64Counter(
		"medtrack_invoices_issued_total",
		metric.WithDescription("Invoices issued"),
	)
	notifications, _ := meter.Int64Counter(
		"medtrack_notifications_total",
		metric.WithDescription("Notification deliveries by channel and outcome"),
	)

	return &Metrics{transitions: transitions, invoices: invoices, notifications: notifications}
}

func (m *Metrics) Transition(ctx context.Context, from, to string) {
	if m == nil || m.transitions == nil {
		return
	}
	m.transitions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("from", from),
		attribute.String("to", to),
	))
}

func (m *Metrics) InvoiceIssued(ctx context.Context, trigger string) {
	if m == nil || m.invoices == nil {
		return
	}
	m.invoices.Add(ctx, 1, metric.WithAttributes(attribute.String("trigger", trigger)))
}

// Notification records one delivery attempt; outcome is sent, failed or dropped.
func (m *Metrics) Notification(ctx context.Context, channel, outcome string) {
	if m == nil || m.notifications == nil {
		return
	}
	m.notifications.Add(ctx, 1, metric.WithAttributes(
		attribute.String("channel", channel),
		attribute.String("outcome", outcome),
	))
}
