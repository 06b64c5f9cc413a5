package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/semanticallynull/chargebooking-backend/pricing"
	"github.com/semanticallynull/chargebooking-backend/station"
)

// ultraPowerKw is the rated power from which a DC port counts as DC_ULTRA.
const ultraPowerKw = 150

// Source serves the admin inventory as a read-only station.Catalog.
// Inactive stations are hidden.
type Source struct {
	client *Client
	logger *slog.Logger
}

func NewSource(client *Client, logger *slog.Logger) *Source {
	if logger == nil {
		logger = slog.Default()
	}
	return &Source{client: client, logger: logger}
}

func (s *Source) Stations(ctx context.Context) ([]station.Station, error) {
	records, err := s.client.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]station.Station, 0, len(records))
	for _, r := range records {
		if r.Status == StationInactive {
			continue
		}
		out = append(out, toStation(r))
	}
	return out, nil
}

func (s *Source) Station(ctx context.Context, id string) (station.Station, error) {
	r, err := s.record(ctx, id)
	if err != nil {
		return station.Station{}, err
	}
	return toStation(r), nil
}

func (s *Source) Chargers(ctx context.Context, stationID string) ([]station.Charger, error) {
	r, err := s.record(ctx, stationID)
	if err != nil {
		return nil, err
	}
	return toChargers(r), nil
}

func (s *Source) record(ctx context.Context, id string) (Station, error) {
	records, err := s.client.List(ctx)
	if err != nil {
		return Station{}, err
	}
	for _, r := range records {
		if string(r.ID) == id && r.Status != StationInactive {
			return r, nil
		}
	}
	return Station{}, fmt.Errorf("%w: %s", station.ErrNotFound, id)
}

// PriceLabel renders a numeric price the way station cards show it: "3.500 đ/kWh".
func PriceLabel(price float64) string {
	return strings.ReplaceAll(pricing.FormatAmount(price), ",", ".") + " đ/kWh"
}

func powerLabel(kw float64) string {
	return strconv.FormatFloat(kw, 'f', -1, 64) + " kW"
}

func portType(p Port) station.Type {
	t, err := station.ParseType(p.Type)
	if err != nil {
		t = station.AC
	}
	if t == station.DC && p.PowerKw >= ultraPowerKw {
		return station.DCUltra
	}
	return t
}

func toStation(r Station) station.Station {
	st := station.Station{
		ID:      string(r.ID),
		Name:    r.Name,
		Address: r.Address,
		Type:    station.AC,
		Total:   len(r.Ports),
		Coords:  station.Coords{Lat: r.Latitude, Lon: r.Longitude},
	}
	var fastest *Port
	for i, p := range r.Ports {
		if p.Status == PortAvailable {
			st.Available++
		}
		if t := portType(p); t > st.Type {
			st.Type = t
		}
		if fastest == nil || p.PowerKw > fastest.PowerKw {
			fastest = &r.Ports[i]
		}
	}
	if fastest != nil {
		st.Speed = powerLabel(fastest.PowerKw)
		st.PriceLabel = PriceLabel(fastest.Price)
	}
	return st
}

func chargerStatus(s PortStatus) station.ChargerStatus {
	switch s {
	case PortAvailable:
		return station.StatusAvailable
	case PortInUse:
		return station.StatusOccupied
	}
	return station.StatusMaintenance
}

func toChargers(r Station) []station.Charger {
	out := make([]station.Charger, 0, len(r.Ports))
	for i, p := range r.Ports {
		id := strconv.Itoa(i + 1)
		connector := "Type 2"
		if portType(p) != station.AC {
			connector = "CCS2"
		}
		c := station.NewCharger(
			string(r.ID), id, "Port "+id,
			station.Coords{Lat: r.Latitude, Lon: r.Longitude},
			powerLabel(p.PowerKw), PriceLabel(p.Price),
			chargerStatus(p.Status), connector,
		)
		// The admin API already stores the rate as a number.
		if p.Price > 0 {
			c.Rate, c.RateDefaulted = pricing.Rate(p.Price), false
		}
		out = append(out, c)
	}
	return out
}
