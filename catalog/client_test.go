package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/h2non/gock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/semanticallynull/chargebooking-backend/pricing"
	"github.com/semanticallynull/chargebooking-backend/station"
)

const backend = "http://catalog.test"

const stationsJSON = `[
  {"id": 1, "name": "Vincom Plaza Thủ Đức", "address": "216 Võ Văn Ngân", "latitude": 10.85, "longitude": 106.765, "status": "active",
   "ports": [
     {"type": "AC", "status": "available", "powerKw": 11, "speed": "slow", "price": 3800},
     {"type": "DC", "status": "in_use", "powerKw": 60, "speed": "fast", "price": 3500}
   ]},
  {"id": "hub-2", "name": "DC Ultra Hub", "address": "Khu công nghệ cao", "latitude": 10.865, "longitude": 106.78, "status": "active",
   "ports": [{"type": "DC", "status": "inactive", "powerKw": 180, "speed": "ultra_fast", "price": 6500}]},
  {"id": 3, "name": "Retired", "address": "Nowhere", "status": "inactive", "ports": []}
]`

func newClient(t *testing.T) *Client {
	t.Helper()
	c, err := New(backend, WithToken("secret"))
	require.NoError(t, err)
	return c
}

func TestClient_ListShapes(t *testing.T) {
	defer gock.Off()

	tests := []struct {
		name string
		body string
	}{
		{"bare array", stationsJSON},
		{"items envelope", `{"items": ` + stationsJSON + `, "total": 3}`},
		{"data envelope", `{"data": ` + stationsJSON + `}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gock.New(backend).
				Get("/stations").
				MatchHeader("Authorization", "Bearer secret").
				Reply(200).
				BodyString(tt.body)

			stations, err := newClient(t).List(context.Background())
			require.NoError(t, err)
			require.Len(t, stations, 3)
			assert.Equal(t, ID("1"), stations[0].ID)
			assert.Equal(t, ID("hub-2"), stations[1].ID)
			assert.Len(t, stations[0].Ports, 2)
		})
	}
	assert.True(t, gock.IsDone())
}

func TestClient_ListUnexpectedShape(t *testing.T) {
	defer gock.Off()
	gock.New(backend).Get("/stations").Reply(200).BodyString(`{"stations": []}`)

	_, err := newClient(t).List(context.Background())
	assert.ErrorIs(t, err, ErrUnexpectedShape)
}

func TestClient_StatusError(t *testing.T) {
	defer gock.Off()
	gock.New(backend).Get("/stations").Reply(503).JSON(map[string]string{"message": "maintenance window"})

	_, err := newClient(t).List(context.Background())
	var serr *StatusError
	require.True(t, errors.As(err, &serr))
	assert.Equal(t, 503, serr.StatusCode)
	assert.Equal(t, "maintenance window", serr.Message)
}

func TestClient_CreateFillsDefaults(t *testing.T) {
	defer gock.Off()
	gock.New(backend).
		Post("/stations").
		BodyString(`{"name":"New","address":"Somewhere","latitude":0,"longitude":0,"status":"active","ports":[{"type":"DC","status":"available","powerKw":60,"speed":"fast","price":3500}]}`).
		Reply(201).
		BodyString(`{"data": {"id": 42, "name": "New", "status": "active"}}`)

	st, err := newClient(t).Create(context.Background(), Station{Name: "New", Address: "Somewhere"})
	require.NoError(t, err)
	assert.Equal(t, ID("42"), st.ID)
	assert.True(t, gock.IsDone())
}

func TestClient_Update(t *testing.T) {
	defer gock.Off()
	gock.New(backend).
		Put("/stations/7").
		Reply(200).
		BodyString(`{"id": 7, "name": "Renamed", "status": "active"}`)

	st, err := newClient(t).Update(context.Background(), "7", Station{Name: "Renamed", Status: StationActive})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", st.Name)
}

func TestClient_Deactivate(t *testing.T) {
	defer gock.Off()
	gock.New(backend).
		Put("/stations/7").
		BodyString(`{"status":"inactive"}`).
		Reply(200).
		BodyString(`{}`)

	require.NoError(t, newClient(t).Deactivate(context.Background(), "7"))
	assert.True(t, gock.IsDone())
}

func TestNew_RejectsRelative(t *testing.T) {
	_, err := New("/stations")
	assert.Error(t, err)
}

func TestSource(t *testing.T) {
	defer gock.Off()
	gock.New(backend).Get("/stations").Times(3).Reply(200).BodyString(stationsJSON)

	src := NewSource(newClient(t), nil)
	ctx := context.Background()

	stations, err := src.Stations(ctx)
	require.NoError(t, err)
	require.Len(t, stations, 2, "inactive stations are hidden")

	first := stations[0]
	assert.Equal(t, station.DC, first.Type)
	assert.Equal(t, 1, first.Available)
	assert.Equal(t, 2, first.Total)
	assert.Equal(t, "60 kW", first.Speed)
	assert.Equal(t, "3.500 đ/kWh", first.PriceLabel)
	assert.Equal(t, station.DCUltra, stations[1].Type)

	chargers, err := src.Chargers(ctx, "1")
	require.NoError(t, err)
	require.Len(t, chargers, 2)
	assert.Equal(t, station.StatusAvailable, chargers[0].Status)
	assert.Equal(t, pricing.Rate(3800), chargers[0].Rate)
	assert.Equal(t, 11.0, chargers[0].PowerKw)
	assert.Equal(t, station.StatusOccupied, chargers[1].Status)

	_, err = src.Station(ctx, "3")
	assert.ErrorIs(t, err, station.ErrNotFound)
}

func TestPriceLabel(t *testing.T) {
	assert.Equal(t, "3.500 đ/kWh", PriceLabel(3500))
	assert.Equal(t, "3.858 đ/kWh", PriceLabel(3858))

	r, ok := pricing.ParseRatePerKwh(PriceLabel(3858))
	assert.True(t, ok)
	assert.Equal(t, pricing.Rate(3858), r)
}
