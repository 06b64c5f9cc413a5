// Package invoice holds the record issued after a successful payment and its print renderings.
package invoice

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/semanticallynull/chargebooking-backend/pricing"
	"github.com/semanticallynull/chargebooking-backend/slot"
)

// Placeholder is printed for any field the handoff did not carry.
const Placeholder = "—"

const (
	codePrefix   = "INV-"
	codeLength   = 6
	codeAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

var ErrInvalidMethod = errors.New("invalid payment method")

// PaymentMethod is how the customer chose to pay.
type PaymentMethod string

const (
	MethodEWallet PaymentMethod = "e_wallet"
	MethodBanking PaymentMethod = "banking"
	MethodCard    PaymentMethod = "card"
	MethodCOD     PaymentMethod = "cod"
)

// Methods lists the accepted payment methods in display order.
var Methods = []PaymentMethod{MethodEWallet, MethodBanking, MethodCard, MethodCOD}

func ParseMethod(s string) (PaymentMethod, error) {
	m := PaymentMethod(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Methods {
		if m == known {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidMethod, s)
}

// Label is the human name of the method.
func (m PaymentMethod) Label() string {
	switch m {
	case MethodEWallet:
		return "E-wallet"
	case MethodBanking:
		return "Bank transfer"
	case MethodCard:
		return "Credit/debit card"
	case MethodCOD:
		return "Pay at station"
	}
	return string(m)
}

// Details are the inputs an invoice is issued from. Station, charger and
// schedule may be missing.
type Details struct {
	StationName string
	ChargerName string
	Date        *slot.CalendarDate
	StartTime   *slot.TimeOfDay
	EnergyKwh   float64
	Rate        pricing.Rate
	Method      PaymentMethod
}

// Invoice is immutable once issued.
type Invoice struct {
	Code          string             `json:"code"`
	CreatedAt     time.Time          `json:"createdAt"`
	StationName   string             `json:"stationName"`
	ChargerName   string             `json:"chargerName"`
	EnergyKwh     float64            `json:"energyKwh"`
	PricePerKwh   pricing.Rate       `json:"pricePerKwh"`
	PaymentMethod PaymentMethod      `json:"paymentMethod"`
	TotalAmount   float64            `json:"totalAmount"`
	Date          *slot.CalendarDate `json:"date,omitempty"`
	StartTime     *slot.TimeOfDay    `json:"startTime,omitempty"`
}

// Issue stamps d with code and createdAt. TotalAmount is always EnergyKwh times PricePerKwh.
func Issue(code string, createdAt time.Time, d Details) Invoice {
	return Invoice{
		Code:          code,
		CreatedAt:     createdAt,
		StationName:   d.StationName,
		ChargerName:   d.ChargerName,
		EnergyKwh:     d.EnergyKwh,
		PricePerKwh:   d.Rate,
		PaymentMethod: d.Method,
		TotalAmount:   pricing.EstimateCost(d.EnergyKwh, d.Rate),
		Date:          d.Date,
		StartTime:     d.StartTime,
	}
}

// NewCode returns "INV-" followed by six random uppercase base-36 characters.
func NewCode() (string, error) {
	max := big.NewInt(int64(len(codeAlphabet)))
	var b strings.Builder
	b.WriteString(codePrefix)
	for i := 0; i < codeLength; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("generating invoice code: %w", err)
		}
		b.WriteByte(codeAlphabet[n.Int64()])
	}
	return b.String(), nil
}

// Row is one labelled line of the print view.
type Row struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Rows is the read-only print view of the invoice.
func (inv Invoice) Rows() []Row {
	return []Row{
		{"Invoice", inv.Code},
		{"Issued", inv.CreatedAt.Format("02/01/2006 15:04")},
		{"Station", orPlaceholder(inv.StationName)},
		{"Charger", orPlaceholder(inv.ChargerName)},
		{"Date", dateOrPlaceholder(inv.Date)},
		{"Start time", timeOrPlaceholder(inv.StartTime)},
		{"Energy", pricing.FormatAmount(inv.EnergyKwh) + " kWh"},
		{"Price", inv.PricePerKwh.String()},
		{"Payment method", inv.PaymentMethod.Label()},
		{"Total", pricing.FormatAmount(inv.TotalAmount) + " đ"},
	}
}

func orPlaceholder(s string) string {
	if strings.TrimSpace(s) == "" {
		return Placeholder
	}
	return s
}

func dateOrPlaceholder(d *slot.CalendarDate) string {
	if d == nil || d.IsZero() {
		return Placeholder
	}
	return fmt.Sprintf("%02d/%02d/%d", d.Day, int(d.Month), d.Year)
}

func timeOrPlaceholder(t *slot.TimeOfDay) string {
	if t == nil {
		return Placeholder
	}
	return t.String()
}
