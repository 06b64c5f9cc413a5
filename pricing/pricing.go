// Package pricing turns catalog price labels into rates and derives cost figures.
package pricing

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// DefaultRate is used when a price label carries no number.
const DefaultRate Rate = 3500

// labelScale converts the label figure to base currency units: "3.500 đ/kWh"
// is written in thousands of đồng.
const labelScale = 1000

const (
	// DefaultEnergyKwh is the energy pre-filled on the payment step.
	DefaultEnergyKwh = 5.0
	// MinEnergyKwh is the smallest energy that can be paid for.
	MinEnergyKwh = 1.0
	// EnergyStepKwh is the granularity of the energy input.
	EnergyStepKwh = 0.5
	// MaxEnergyKwh is well above any single session's battery capacity.
	MaxEnergyKwh = 1000.0
)

var ErrInvalidEnergy = errors.New("invalid energy amount")

var (
	rateNumber  = regexp.MustCompile(`\d+(?:[.,]\d+)?`)
	powerNumber = regexp.MustCompile(`\d+(?:\.\d+)?`)
)

// Rate is a price per kWh in base currency units (đồng).
type Rate float64

// String formats the rate the way the catalog labels do, e.g. "3,500 đ/kWh".
func (r Rate) String() string {
	return FormatAmount(float64(r)) + " đ/kWh"
}

// ParseRatePerKwh extracts the first number in label and scales it by 1000.
// Either '.' or ',' may separate the thousands, so "3.500 đ/kWh" and
// "3,500 đ/kWh" both give 3500. When label has no number it returns
// DefaultRate and false.
func ParseRatePerKwh(label string) (Rate, bool) {
	m := rateNumber.FindString(label)
	if m == "" {
		return DefaultRate, false
	}
	v, err := strconv.ParseFloat(strings.Replace(m, ",", ".", 1), 64)
	if err != nil {
		return DefaultRate, false
	}
	return Rate(math.Round(v * labelScale)), true
}

// ParsePowerKw reads the rated power out of a label such as "11 kW".
func ParsePowerKw(label string) (float64, bool) {
	m := powerNumber.FindString(label)
	if m == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// EstimateCost is the price of energyKwh at rate. No rounding is applied.
func EstimateCost(energyKwh float64, rate Rate) float64 {
	return energyKwh * float64(rate)
}

// EstimateHourlyCost is the figure shown while confirming: one hour at the
// charger's rated power.
func EstimateHourlyCost(powerKw float64, rate Rate) float64 {
	return powerKw * float64(rate) / 1000
}

// ValidateEnergy checks kWh against the payment input bounds: between
// MinEnergyKwh and MaxEnergyKwh, in EnergyStepKwh steps.
func ValidateEnergy(kWh float64) error {
	if math.IsNaN(kWh) || math.IsInf(kWh, 0) {
		return fmt.Errorf("%w: not a number", ErrInvalidEnergy)
	}
	if kWh < MinEnergyKwh {
		return fmt.Errorf("%w: at least %g kWh is required", ErrInvalidEnergy, MinEnergyKwh)
	}
	if kWh > MaxEnergyKwh {
		return fmt.Errorf("%w: at most %g kWh can be booked", ErrInvalidEnergy, MaxEnergyKwh)
	}
	if steps := kWh / EnergyStepKwh; steps != math.Trunc(steps) {
		return fmt.Errorf("%w: must be a multiple of %g kWh", ErrInvalidEnergy, EnergyStepKwh)
	}
	return nil
}

// FormatAmount renders v with ',' thousand separators and at most two decimals.
func FormatAmount(v float64) string {
	s := strconv.FormatFloat(math.Abs(v), 'f', 2, 64)
	intPart, frac, _ := strings.Cut(s, ".")
	frac = strings.TrimRight(frac, "0")

	var b strings.Builder
	if v < 0 {
		b.WriteByte('-')
	}
	for i, c := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}
	if frac != "" {
		b.WriteByte('.')
		b.WriteString(frac)
	}
	return b.String()
}
