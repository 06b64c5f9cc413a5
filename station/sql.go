package station

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jmoiron/sqlx"
)

// Repository reads the catalog from Postgres.
type Repository struct {
	db     *sqlx.DB
	logger *slog.Logger
}

func NewRepository(db *sqlx.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:     db,
		logger: logger,
	}
}

type stationRow struct {
	ID        string          `db:"id"`
	Name      string          `db:"name"`
	Address   string          `db:"address"`
	Type      Type            `db:"type"`
	Available int             `db:"available"`
	Total     int             `db:"total"`
	Location  pgtype.Point    `db:"location"`
	Distance  sql.NullFloat64 `db:"distance"`
	Rating    sql.NullFloat64 `db:"rating"`
	Speed     string          `db:"speed"`
	Price     string          `db:"price"`
}

func (r stationRow) toStation() Station {
	return Station{
		ID:         r.ID,
		Name:       r.Name,
		Address:    r.Address,
		Type:       r.Type,
		Available:  r.Available,
		Total:      r.Total,
		Coords:     Coords{Lat: r.Location.P.X, Lon: r.Location.P.Y},
		DistanceKm: r.Distance.Float64,
		Rating:     r.Rating.Float64,
		Speed:      r.Speed,
		PriceLabel: r.Price,
	}
}

func (r *Repository) Stations(ctx context.Context) ([]Station, error) {
	var rows []stationRow
	err := r.db.SelectContext(ctx, &rows, getStations)
	if err != nil {
		return nil, err
	}

	stations := make([]Station, 0, len(rows))
	for _, row := range rows {
		stations = append(stations, row.toStation())
	}
	return stations, nil
}

const getStations = `SELECT id::text AS id, name, address, type, available, total, location, distance, rating, speed, price
FROM stations ORDER BY name`

func (r *Repository) Station(ctx context.Context, id string) (Station, error) {
	var row stationRow
	err := r.db.GetContext(ctx, &row, getStation, id)
	if errors.Is(err, sql.ErrNoRows) {
		return Station{}, ErrNotFound
	}
	if err != nil {
		return Station{}, err
	}
	return row.toStation(), nil
}

const getStation = `SELECT id::text AS id, name, address, type, available, total, location, distance, rating, speed, price
FROM stations WHERE id::text = $1`

type chargerRow struct {
	ID        string        `db:"id"`
	StationID string        `db:"station_id"`
	Name      string        `db:"name"`
	Location  pgtype.Point  `db:"location"`
	Power     string        `db:"power"`
	Price     string        `db:"price"`
	Status    ChargerStatus `db:"status"`
	Connector string        `db:"connector"`
}

// Chargers returns the chargers of a station. An unknown station is ErrNotFound;
// a known station without chargers yields an empty list.
func (r *Repository) Chargers(ctx context.Context, stationID string) ([]Charger, error) {
	if _, err := r.Station(ctx, stationID); err != nil {
		return nil, err
	}

	var rows []chargerRow
	err := r.db.SelectContext(ctx, &rows, getChargersByStation, stationID)
	if err != nil {
		return nil, err
	}

	chargers := make([]Charger, 0, len(rows))
	for _, row := range rows {
		chargers = append(chargers, NewCharger(row.StationID, row.ID, row.Name,
			Coords{Lat: row.Location.P.X, Lon: row.Location.P.Y},
			row.Power, row.Price, row.Status, row.Connector))
	}
	reportFallbacks(r.logger, chargers)
	return chargers, nil
}

const getChargersByStation = `SELECT id::text AS id, station_id::text AS station_id, name, location, power, price, status, connector
FROM chargers WHERE station_id::text = $1 ORDER BY name`
