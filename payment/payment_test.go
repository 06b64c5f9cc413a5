package payment

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/semanticallynull/chargebooking-backend/booking"
	"github.com/semanticallynull/chargebooking-backend/invoice"
	"github.com/semanticallynull/chargebooking-backend/pricing"
	"github.com/semanticallynull/chargebooking-backend/slot"
	"github.com/semanticallynull/chargebooking-backend/station"
)

var issuedAt = time.Date(2025, time.March, 14, 10, 8, 0, 0, time.UTC)

func instant() *Simulator {
	return &Simulator{
		Now:     func() time.Time { return issuedAt },
		NewCode: func() (string, error) { return "INV-TEST01", nil },
	}
}

func submittedHandoff(t *testing.T) booking.Handoff {
	t.Helper()
	cat, err := station.LoadSeed(nil, nil)
	require.NoError(t, err)
	ctx := context.Background()

	st, err := cat.Station(ctx, "1")
	require.NoError(t, err)
	chargers, err := cat.Chargers(ctx, "1")
	require.NoError(t, err)
	a2, ok := station.FindCharger(chargers, "2")
	require.True(t, ok)

	w := booking.NewWizard(func() time.Time { return time.Date(2025, time.March, 14, 10, 7, 0, 0, time.UTC) })
	require.NoError(t, w.PickStation(st))
	require.NoError(t, w.PickCharger(a2))
	h, err := w.Submit()
	require.NoError(t, err)
	return h
}

func TestCheckout_HappyPath(t *testing.T) {
	c := NewCheckout(submittedHandoff(t), instant())

	q := c.Quote()
	assert.Equal(t, pricing.Rate(3800), q.PricePerKwh)
	assert.Equal(t, 5.0, q.EnergyKwh)
	assert.Equal(t, 19000.0, q.TotalAmount)
	assert.Equal(t, invoice.MethodEWallet, q.PaymentMethod)

	inv, err := c.Pay(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "INV-TEST01", inv.Code)
	assert.Equal(t, issuedAt, inv.CreatedAt)
	assert.Equal(t, "Trụ A2", inv.ChargerName)
	assert.Equal(t, 19000.0, inv.TotalAmount)
	assert.Equal(t, inv.EnergyKwh*float64(inv.PricePerKwh), inv.TotalAmount)
	require.NotNil(t, inv.StartTime)
	assert.Equal(t, "10:15", inv.StartTime.String())

	stored, ok := c.Invoice()
	require.True(t, ok)
	assert.Equal(t, inv, stored)
	assert.False(t, c.Paying())
}

func TestCheckout_EnergyAndMethod(t *testing.T) {
	c := NewCheckout(submittedHandoff(t), instant())

	require.NoError(t, c.SetEnergy(7.5))
	require.NoError(t, c.SetMethod(invoice.MethodCard))
	assert.Equal(t, 28500.0, c.Quote().TotalAmount)

	assert.ErrorIs(t, c.SetEnergy(0.5), pricing.ErrInvalidEnergy)
	assert.ErrorIs(t, c.SetMethod("cheque"), invoice.ErrInvalidMethod)
	assert.Equal(t, 7.5, c.Quote().EnergyKwh)

	inv, err := c.Pay(context.Background())
	require.NoError(t, err)
	assert.Equal(t, invoice.MethodCard, inv.PaymentMethod)
}

type blockingProcessor struct {
	started chan struct{}
	release chan struct{}
}

func (p *blockingProcessor) Pay(ctx context.Context, req Request) (invoice.Invoice, error) {
	close(p.started)
	<-p.release
	return invoice.Issue("INV-SLOW00", issuedAt, req.Details), nil
}

func TestCheckout_SecondPayWhilePending(t *testing.T) {
	p := &blockingProcessor{started: make(chan struct{}), release: make(chan struct{})}
	c := NewCheckout(submittedHandoff(t), p)

	done := make(chan error, 1)
	go func() {
		_, err := c.Pay(context.Background())
		done <- err
	}()
	<-p.started

	assert.True(t, c.Paying())
	_, err := c.Pay(context.Background())
	assert.ErrorIs(t, err, ErrPaymentInProgress)
	assert.ErrorIs(t, c.SetEnergy(10), ErrPaymentInProgress)

	close(p.release)
	require.NoError(t, <-done)
	assert.False(t, c.Paying())
	_, ok := c.Invoice()
	assert.True(t, ok)
}

func TestCheckout_Declined(t *testing.T) {
	sim := instant()
	sim.Decide = func(Request) error { return errors.New("insufficient funds") }
	c := NewCheckout(submittedHandoff(t), sim)

	_, err := c.Pay(context.Background())
	assert.ErrorIs(t, err, ErrDeclined)
	reason, ok := FailureReason(err)
	require.True(t, ok)
	assert.Equal(t, "insufficient funds", reason)

	assert.False(t, c.Paying())
	_, ok = c.Invoice()
	assert.False(t, ok)
}

func TestSimulator_Cancelled(t *testing.T) {
	sim := instant()
	sim.Latency = time.Minute
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := sim.Pay(ctx, Request{Details: invoice.Details{EnergyKwh: 5, Rate: 3500}})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSimulator_Latency(t *testing.T) {
	sim := instant()
	sim.Latency = 20 * time.Millisecond

	start := time.Now()
	inv, err := sim.Pay(context.Background(), Request{Details: invoice.Details{EnergyKwh: 5, Rate: 3500}})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
	assert.Equal(t, 17500.0, inv.TotalAmount)
}

func TestSimulator_DefaultCode(t *testing.T) {
	sim := NewSimulator(nil)
	sim.Latency = 0
	inv, err := sim.Pay(context.Background(), Request{Details: invoice.Details{EnergyKwh: 1, Rate: 3500}})
	require.NoError(t, err)
	assert.Regexp(t, `^INV-[0-9A-Z]{6}$`, inv.Code)
}

func TestCheckout_DismissAndPrint(t *testing.T) {
	c := NewCheckout(submittedHandoff(t), instant())

	_, err := c.PrintView(invoice.FormatPDF)
	assert.ErrorIs(t, err, ErrNoInvoice)

	_, err = c.Pay(context.Background())
	require.NoError(t, err)

	b, err := c.PrintView(invoice.FormatPDF)
	require.NoError(t, err)
	assert.NotEmpty(t, b)
	_, ok := c.Invoice()
	assert.True(t, ok, "printing must not clear the invoice")

	c.Dismiss()
	_, ok = c.Invoice()
	assert.False(t, ok)
}

func TestCheckout_EmptyHandoff(t *testing.T) {
	c := NewCheckout(booking.Handoff{}, instant())

	for _, row := range c.Summary() {
		assert.Equal(t, invoice.Placeholder, row.Value, row.Label)
	}

	q := c.Quote()
	assert.Equal(t, pricing.DefaultRate, q.PricePerKwh)
	assert.True(t, q.RateDefaulted)

	inv, err := c.Pay(context.Background())
	require.NoError(t, err)
	assert.Nil(t, inv.Date)
	assert.Equal(t, 17500.0, inv.TotalAmount)
}

func TestCheckout_RateFromLabelWhenMissing(t *testing.T) {
	h := booking.Handoff{
		Charger:  &station.Charger{Name: "Trụ X", PriceLabel: "4.200 đ/kWh", Status: station.StatusAvailable},
		FormData: &booking.FormData{Date: slot.CalendarDate{Year: 2025, Month: time.March, Day: 15}},
	}
	c := NewCheckout(h, instant())
	assert.Equal(t, pricing.Rate(4200), c.Quote().PricePerKwh)
}

func TestCheckout_RejectsUnboundedEnergy(t *testing.T) {
	c := NewCheckout(submittedHandoff(t), instant())

	assert.ErrorIs(t, c.SetEnergy(1e307), pricing.ErrInvalidEnergy)
	assert.ErrorIs(t, c.SetEnergy(pricing.MaxEnergyKwh+1), pricing.ErrInvalidEnergy)
	require.NoError(t, c.SetEnergy(pricing.MaxEnergyKwh))
	assert.Equal(t, 3800000.0, c.Quote().TotalAmount)
}

func TestCheckout_NonFiniteTotalIsNotCharged(t *testing.T) {
	h := booking.Handoff{
		Charger: &station.Charger{Name: "Trụ X", Rate: pricing.Rate(math.MaxFloat64), Status: station.StatusAvailable},
	}
	called := false
	p := &Simulator{
		Decide: func(Request) error {
			called = true
			return nil
		},
	}
	c := NewCheckout(h, p)

	assert.ErrorIs(t, c.SetEnergy(2), pricing.ErrInvalidEnergy)

	_, err := c.Pay(context.Background())
	assert.ErrorIs(t, err, ErrUnpayableAmount)
	assert.False(t, called)
	assert.False(t, c.Paying())
	_, ok := c.Invoice()
	assert.False(t, ok)
}
