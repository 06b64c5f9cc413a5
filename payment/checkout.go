package payment

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/semanticallynull/chargebooking-backend/booking"
	"github.com/semanticallynull/chargebooking-backend/invoice"
	"github.com/semanticallynull/chargebooking-backend/pricing"
	"github.com/semanticallynull/chargebooking-backend/station"
)

// Quote is the figure shown above the pay button.
type Quote struct {
	EnergyKwh     float64               `json:"energyKwh"`
	PricePerKwh   pricing.Rate          `json:"pricePerKwh"`
	RateDefaulted bool                  `json:"rateDefaulted,omitempty"`
	TotalAmount   float64               `json:"totalAmount"`
	PaymentMethod invoice.PaymentMethod `json:"paymentMethod"`
}

// Checkout is the payment step for one submitted reservation. Any part of
// the handoff may be missing.
type Checkout struct {
	processor Processor
	handoff   booking.Handoff

	mu      sync.Mutex
	energy  float64
	method  invoice.PaymentMethod
	paying  bool
	invoice *invoice.Invoice
}

func NewCheckout(h booking.Handoff, p Processor) *Checkout {
	return &Checkout{
		processor: p,
		handoff:   h,
		energy:    pricing.DefaultEnergyKwh,
		method:    invoice.MethodEWallet,
	}
}

func (c *Checkout) Handoff() booking.Handoff {
	return c.handoff
}

// SetEnergy changes the energy to pay for. It is refused while a payment is pending.
func (c *Checkout) SetEnergy(kWh float64) error {
	if err := pricing.ValidateEnergy(kWh); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.paying {
		return ErrPaymentInProgress
	}
	r, _ := rate(c.handoff.Charger)
	if !payable(pricing.EstimateCost(kWh, r)) {
		return fmt.Errorf("%w: %g kWh at %s has no finite total", pricing.ErrInvalidEnergy, kWh, r)
	}
	c.energy = kWh
	return nil
}

func payable(total float64) bool {
	return total >= 0 && !math.IsInf(total, 0) && !math.IsNaN(total)
}

func (c *Checkout) SetMethod(m invoice.PaymentMethod) error {
	if _, err := invoice.ParseMethod(string(m)); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.paying {
		return ErrPaymentInProgress
	}
	c.method = m
	return nil
}

// rate prefers the rate parsed when the charger entered the catalog and
// falls back to reading the label for chargers that arrived without one.
// The label is not re-parsed here: every catalog parses it once on the way in.
func rate(ch *station.Charger) (pricing.Rate, bool) {
	if ch == nil {
		return pricing.DefaultRate, false
	}
	if ch.Rate > 0 {
		return ch.Rate, !ch.RateDefaulted
	}
	return pricing.ParseRatePerKwh(ch.PriceLabel)
}

func (c *Checkout) Quote() Quote {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.quoteLocked()
}

func (c *Checkout) quoteLocked() Quote {
	r, parsed := rate(c.handoff.Charger)
	return Quote{
		EnergyKwh:     c.energy,
		PricePerKwh:   r,
		RateDefaulted: !parsed,
		TotalAmount:   pricing.EstimateCost(c.energy, r),
		PaymentMethod: c.method,
	}
}

func (c *Checkout) details() invoice.Details {
	q := c.quoteLocked()
	d := invoice.Details{
		EnergyKwh: q.EnergyKwh,
		Rate:      q.PricePerKwh,
		Method:    q.PaymentMethod,
	}
	if c.handoff.Station != nil {
		d.StationName = c.handoff.Station.Name
	}
	if c.handoff.Charger != nil {
		d.ChargerName = c.handoff.Charger.Name
	}
	if fd := c.handoff.FormData; fd != nil {
		date, start := fd.Date, fd.StartTime
		d.Date, d.StartTime = &date, &start
	}
	return d
}

// Paying reports whether a payment is pending.
func (c *Checkout) Paying() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.paying
}

// Pay charges the current quote. Only one payment may be pending at a
// time; a second call returns ErrPaymentInProgress without queuing. On
// failure no invoice is stored.
func (c *Checkout) Pay(ctx context.Context) (invoice.Invoice, error) {
	c.mu.Lock()
	if c.paying {
		c.mu.Unlock()
		return invoice.Invoice{}, ErrPaymentInProgress
	}
	req := Request{Details: c.details()}
	if !payable(pricing.EstimateCost(req.Details.EnergyKwh, req.Details.Rate)) {
		c.mu.Unlock()
		return invoice.Invoice{}, ErrUnpayableAmount
	}
	c.paying = true
	c.mu.Unlock()

	inv, err := c.processor.Pay(ctx, req)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.paying = false
	if err != nil {
		return invoice.Invoice{}, err
	}
	c.invoice = &inv
	return inv, nil
}

// Invoice returns the issued invoice, if any.
func (c *Checkout) Invoice() (invoice.Invoice, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.invoice == nil {
		return invoice.Invoice{}, false
	}
	return *c.invoice, true
}

// Dismiss clears the invoice.
func (c *Checkout) Dismiss() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invoice = nil
}

// PrintView renders the current invoice without changing it.
func (c *Checkout) PrintView(f invoice.Format) ([]byte, error) {
	inv, ok := c.Invoice()
	if !ok {
		return nil, ErrNoInvoice
	}
	return invoice.Render(inv, f)
}

// Summary lists the reservation being paid for, with placeholders for
// anything the handoff lacks.
func (c *Checkout) Summary() []invoice.Row {
	h := c.handoff
	placeholder := invoice.Placeholder
	stationName, address := placeholder, placeholder
	if h.Station != nil {
		stationName, address = orPlaceholder(h.Station.Name), orPlaceholder(h.Station.Address)
	}
	chargerName, power, price := placeholder, placeholder, placeholder
	if h.Charger != nil {
		chargerName = orPlaceholder(h.Charger.Name)
		power = orPlaceholder(h.Charger.PowerLabel)
		price = orPlaceholder(h.Charger.PriceLabel)
	}
	date, start := placeholder, placeholder
	if h.FormData != nil {
		if !h.FormData.Date.IsZero() {
			date = h.FormData.Date.String()
		}
		start = h.FormData.StartTime.String()
	}
	return []invoice.Row{
		{Label: "Station", Value: stationName},
		{Label: "Address", Value: address},
		{Label: "Charger", Value: chargerName},
		{Label: "Power", Value: power},
		{Label: "Price", Value: price},
		{Label: "Date", Value: date},
		{Label: "Start time", Value: start},
	}
}

func orPlaceholder(s string) string {
	if s == "" {
		return invoice.Placeholder
	}
	return s
}
