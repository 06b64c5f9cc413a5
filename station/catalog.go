package station

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Catalog is the read-only source of stations and chargers.
type Catalog interface {
	Stations(ctx context.Context) ([]Station, error)
	Station(ctx context.Context, id string) (Station, error)
	Chargers(ctx context.Context, stationID string) ([]Charger, error)
}

// Static serves a fixed set of stations and lays the same charger feed out
// around each of them.
type Static struct {
	stations []Station
	feed     []ChargerSpec
	logger   *slog.Logger
}

func NewStatic(stations []Station, feed []ChargerSpec, logger *slog.Logger) *Static {
	if logger == nil {
		logger = slog.Default()
	}
	return &Static{
		stations: stations,
		feed:     feed,
		logger:   logger,
	}
}

func (s *Static) Stations(_ context.Context) ([]Station, error) {
	out := make([]Station, len(s.stations))
	copy(out, s.stations)
	return out, nil
}

func (s *Static) Station(_ context.Context, id string) (Station, error) {
	for _, st := range s.stations {
		if st.ID == id {
			return st, nil
		}
	}
	return Station{}, ErrNotFound
}

func (s *Static) Chargers(ctx context.Context, stationID string) ([]Charger, error) {
	st, err := s.Station(ctx, stationID)
	if err != nil {
		return nil, err
	}
	chargers := DeriveChargers(st, s.feed)
	reportFallbacks(s.logger, chargers)
	return chargers, nil
}

//go:embed seed.yaml
var seedYAML []byte

type seedStation struct {
	ID        string  `yaml:"id"`
	Name      string  `yaml:"name"`
	Address   string  `yaml:"address"`
	Speed     string  `yaml:"speed"`
	Price     string  `yaml:"price"`
	Coords    Coords  `yaml:"coords"`
	Type      Type    `yaml:"type"`
	Available int     `yaml:"available"`
	Total     int     `yaml:"total"`
	Distance  string  `yaml:"distance"`
	Rating    float64 `yaml:"rating"`
}

type seedFile struct {
	Stations []seedStation `yaml:"stations"`
	Chargers []ChargerSpec `yaml:"chargers"`
}

// LoadSeed decodes a catalog seed document. A nil document loads the
// built-in demo catalog.
func LoadSeed(doc []byte, logger *slog.Logger) (*Static, error) {
	if doc == nil {
		doc = seedYAML
	}
	var f seedFile
	dec := yaml.NewDecoder(bytes.NewReader(doc))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("decode catalog seed: %w", err)
	}

	stations := make([]Station, 0, len(f.Stations))
	for _, s := range f.Stations {
		stations = append(stations, Station{
			ID:         s.ID,
			Name:       s.Name,
			Address:    s.Address,
			Type:       s.Type,
			Available:  s.Available,
			Total:      s.Total,
			Coords:     s.Coords,
			DistanceKm: parseDistanceKm(s.Distance),
			Rating:     s.Rating,
			Speed:      s.Speed,
			PriceLabel: s.Price,
		})
	}
	return NewStatic(stations, f.Chargers, logger), nil
}

// parseDistanceKm reads "2.5 km". Unreadable values count as unknown (0).
func parseDistanceKm(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "km")), 64)
	if err != nil {
		return 0
	}
	return v
}
