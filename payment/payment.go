// Package payment simulates settling a reservation and issues its invoice.
package payment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/semanticallynull/chargebooking-backend/internal/o11y"
	"github.com/semanticallynull/chargebooking-backend/invoice"
)

// DefaultLatency is the simulated network round trip.
const DefaultLatency = 1200 * time.Millisecond

var (
	ErrDeclined          = errors.New("payment declined")
	ErrPaymentInProgress = errors.New("payment already in progress")
	ErrNoInvoice         = errors.New("no invoice issued")
	ErrUnpayableAmount   = errors.New("amount cannot be charged")
	ErrInvoiceIssued     = errors.New("an issued invoice must be dismissed first")
)

// PaymentError is a failed payment. Reason is safe to show to the customer.
type PaymentError struct {
	Method invoice.PaymentMethod
	Reason string
	Err    error
}

func (e *PaymentError) Error() string {
	return fmt.Sprintf("payment via %s failed: %s", e.Method, e.Reason)
}

func (e *PaymentError) Unwrap() error {
	return e.Err
}

// FailureReason returns the customer facing reason if err is a PaymentError.
func FailureReason(err error) (string, bool) {
	var perr *PaymentError
	if errors.As(err, &perr) {
		return perr.Reason, true
	}
	return "", false
}

// Request is what gets charged.
type Request struct {
	Details invoice.Details
}

// Processor settles a request. On success the returned invoice is final;
// on failure no invoice exists and the error is a *PaymentError or a
// context error.
type Processor interface {
	Pay(ctx context.Context, req Request) (invoice.Invoice, error)
}

// Simulator is a Processor that waits Latency and then approves, unless
// Decide says otherwise.
type Simulator struct {
	Latency time.Duration
	// Decide may decline a request by returning an error. Nil approves everything.
	Decide func(Request) error

	Now     func() time.Time
	NewCode func() (string, error)
	Logger  *slog.Logger
}

func NewSimulator(logger *slog.Logger) *Simulator {
	return &Simulator{
		Latency: DefaultLatency,
		Logger:  logger,
	}
}

func (s *Simulator) Pay(ctx context.Context, req Request) (invoice.Invoice, error) {
	ctx, span := otel.Tracer("payment").Start(ctx, "payment.simulate")
	defer span.End()
	method := string(req.Details.Method)
	span.SetAttributes(
		attribute.String("payment.method", method),
		attribute.Float64("payment.energy_kwh", req.Details.EnergyKwh),
	)

	if s.Latency > 0 {
		timer := time.NewTimer(s.Latency)
		select {
		case <-ctx.Done():
			timer.Stop()
			o11y.Payments.WithLabelValues(method, "cancelled").Inc()
			span.SetStatus(codes.Error, "cancelled")
			return invoice.Invoice{}, ctx.Err()
		case <-timer.C:
		}
	}

	if s.Decide != nil {
		if err := s.Decide(req); err != nil {
			o11y.Payments.WithLabelValues(method, "declined").Inc()
			span.RecordError(err)
			span.SetStatus(codes.Error, "declined")
			return invoice.Invoice{}, &PaymentError{Method: req.Details.Method, Reason: err.Error(), Err: errors.Join(ErrDeclined, err)}
		}
	}

	newCode := s.NewCode
	if newCode == nil {
		newCode = invoice.NewCode
	}
	code, err := newCode()
	if err != nil {
		o11y.Payments.WithLabelValues(method, "error").Inc()
		span.RecordError(err)
		return invoice.Invoice{}, &PaymentError{Method: req.Details.Method, Reason: "could not issue invoice", Err: err}
	}

	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	inv := invoice.Issue(code, now(), req.Details)
	o11y.Payments.WithLabelValues(method, "paid").Inc()
	span.SetAttributes(attribute.String("invoice.code", inv.Code))

	if s.Logger != nil {
		s.Logger.InfoContext(ctx, "payment settled",
			slog.String("invoice", inv.Code),
			slog.String("method", method),
			slog.Float64("total", inv.TotalAmount),
		)
	}
	return inv, nil
}
