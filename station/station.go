// Package station holds the charging station catalog the booking wizard reads from.
package station

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"

	"github.com/goccy/go-json"

	"github.com/semanticallynull/chargebooking-backend/pricing"
)

var (
	ErrNotFound    = errors.New("station not found")
	ErrInvalidType = errors.New("invalid station type")
)

// Type is the charging class of a station.
type Type int

const (
	AC Type = iota
	DC
	DCUltra
)

func (t Type) String() string {
	return [...]string{"AC", "DC", "DC_ULTRA"}[t]
}

// ParseType accepts the catalog spellings of a station type. "DC ULTRA"
// and lowercase variants are tolerated.
func ParseType(s string) (Type, error) {
	switch strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), " ", "_")) {
	case "AC":
		return AC, nil
	case "DC":
		return DC, nil
	case "DC_ULTRA":
		return DCUltra, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidType, s)
}

func (t Type) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *Type) UnmarshalText(b []byte) error {
	parsed, err := ParseType(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

func (t *Type) Scan(i any) error {
	switch v := i.(type) {
	case string:
		return t.UnmarshalText([]byte(v))
	case []byte:
		return t.UnmarshalText(v)
	}
	return fmt.Errorf("%w: cannot scan %T", ErrInvalidType, i)
}

func (t Type) Value() (driver.Value, error) {
	return t.String(), nil
}

// Coords is a WGS84 position.
type Coords struct {
	Lat float64 `json:"latitude" yaml:"lat"`
	Lon float64 `json:"longitude" yaml:"lon"`
}

// Station is a read-only snapshot from the catalog.
type Station struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Address    string  `json:"address"`
	Type       Type    `json:"type"`
	Available  int     `json:"available"`
	Total      int     `json:"total"`
	Coords     Coords  `json:"coords"`
	DistanceKm float64 `json:"distanceKm"`
	Rating     float64 `json:"rating"`
	// Speed and PriceLabel are the headline figures shown on the station card.
	Speed      string `json:"speed"`
	PriceLabel string `json:"price"`
}

// ChargerStatus is the live state of a single charger.
type ChargerStatus string

const (
	StatusAvailable   ChargerStatus = "available"
	StatusOccupied    ChargerStatus = "occupied"
	StatusMaintenance ChargerStatus = "maintenance"
)

// Charger is one bookable charging point of a station.
type Charger struct {
	ID         string        `json:"id"`
	StationID  string        `json:"stationId"`
	Name       string        `json:"name"`
	Coords     Coords        `json:"coords"`
	PowerKw    float64       `json:"powerKw"`
	PowerLabel string        `json:"power"`
	PriceLabel string        `json:"price"`
	Status     ChargerStatus `json:"status"`
	Connector  string        `json:"connector"`

	// Rate is parsed from PriceLabel once, when the charger enters the system.
	Rate pricing.Rate `json:"ratePerKwh"`
	// RateDefaulted is set when PriceLabel had no number and Rate is pricing.DefaultRate.
	RateDefaulted bool `json:"rateDefaulted,omitempty"`
}

// Selectable reports whether the charger can be booked.
func (c Charger) Selectable() bool {
	return c.Status == StatusAvailable
}
