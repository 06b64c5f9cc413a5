package station

import (
	"log/slog"

	"github.com/semanticallynull/chargebooking-backend/internal/o11y"
	"github.com/semanticallynull/chargebooking-backend/pricing"
)

// ChargerSpec describes a charger relative to its station. A feed of specs
// is laid out around every station the same way.
type ChargerSpec struct {
	ID        string        `yaml:"id"`
	Name      string        `yaml:"name"`
	Offset    Coords        `yaml:"offset"`
	Power     string        `yaml:"power"`
	Price     string        `yaml:"price"`
	Status    ChargerStatus `yaml:"status"`
	Connector string        `yaml:"connector"`
}

// DeriveChargers lays feed out around st. It only depends on its arguments.
func DeriveChargers(st Station, feed []ChargerSpec) []Charger {
	chargers := make([]Charger, 0, len(feed))
	for _, spec := range feed {
		chargers = append(chargers, NewCharger(st.ID, spec.ID, spec.Name, Coords{
			Lat: st.Coords.Lat + spec.Offset.Lat,
			Lon: st.Coords.Lon + spec.Offset.Lon,
		}, spec.Power, spec.Price, spec.Status, spec.Connector))
	}
	return chargers
}

// NewCharger builds a charger from catalog labels, parsing power and price.
func NewCharger(stationID, id, name string, at Coords, power, price string, status ChargerStatus, connector string) Charger {
	powerKw, _ := pricing.ParsePowerKw(power)
	rate, parsed := pricing.ParseRatePerKwh(price)
	return Charger{
		ID:            id,
		StationID:     stationID,
		Name:          name,
		Coords:        at,
		PowerKw:       powerKw,
		PowerLabel:    power,
		PriceLabel:    price,
		Status:        status,
		Connector:     connector,
		Rate:          rate,
		RateDefaulted: !parsed,
	}
}

// FindCharger returns the charger with the given id.
func FindCharger(chargers []Charger, id string) (Charger, bool) {
	for _, c := range chargers {
		if c.ID == id {
			return c, true
		}
	}
	return Charger{}, false
}

// reportFallbacks logs every charger whose price label fell back to the default rate.
func reportFallbacks(logger *slog.Logger, chargers []Charger) {
	for _, c := range chargers {
		if !c.RateDefaulted {
			continue
		}
		o11y.PriceLabelFallbacks.Inc()
		logger.Warn("price label has no number, using default rate",
			slog.String("station_id", c.StationID),
			slog.String("charger_id", c.ID),
			slog.String("label", c.PriceLabel),
			slog.Float64("rate", float64(c.Rate)),
		)
	}
}
