package booking

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/semanticallynull/chargebooking-backend/slot"
	"github.com/semanticallynull/chargebooking-backend/station"
)

var hcm = time.FixedZone("ICT", 7*60*60)

type fixture struct {
	stations []station.Station
	chargers map[string][]station.Charger
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	cat, err := station.LoadSeed(nil, nil)
	require.NoError(t, err)

	ctx := context.Background()
	stations, err := cat.Stations(ctx)
	require.NoError(t, err)

	f := fixture{stations: stations, chargers: map[string][]station.Charger{}}
	for _, st := range stations {
		cs, err := cat.Chargers(ctx, st.ID)
		require.NoError(t, err)
		f.chargers[st.ID] = cs
	}
	return f
}

func (f fixture) station(t *testing.T, id string) station.Station {
	t.Helper()
	for _, st := range f.stations {
		if st.ID == id {
			return st
		}
	}
	t.Fatalf("no station %s", id)
	return station.Station{}
}

func (f fixture) charger(t *testing.T, stationID, id string) station.Charger {
	t.Helper()
	c, ok := station.FindCharger(f.chargers[stationID], id)
	require.True(t, ok, "no charger %s at %s", id, stationID)
	return c
}

func clock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestNewWizard(t *testing.T) {
	w := NewWizard(clock(time.Date(2025, time.March, 14, 10, 7, 0, 0, hcm)))

	assert.Equal(t, StepSelectingStation, w.Step())
	d := w.Draft()
	assert.Nil(t, d.Station)
	assert.Nil(t, d.Charger)
	assert.Equal(t, "2025-03-14", d.Date.String())
	assert.Equal(t, "10:15", d.StartTime.String())
}

func TestNewWizard_LateEveningStartsTomorrow(t *testing.T) {
	w := NewWizard(clock(time.Date(2025, time.March, 14, 23, 50, 0, 0, hcm)))

	d := w.Draft()
	assert.Equal(t, "2025-03-15", d.Date.String())
	assert.Equal(t, slot.Midnight, d.StartTime)
}

func TestWizard_HappyPath(t *testing.T) {
	f := newFixture(t)
	w := NewWizard(clock(time.Date(2025, time.March, 14, 10, 7, 0, 0, hcm)))

	require.NoError(t, w.PickStation(f.station(t, "1")))
	assert.Equal(t, StepSelectingCharger, w.Step())

	require.NoError(t, w.PickCharger(f.charger(t, "1", "2")))
	assert.Equal(t, StepConfirming, w.Step())

	cost, ok := w.Estimate()
	require.True(t, ok)
	assert.InDelta(t, 41.8, cost, 1e-9)

	h, err := w.Submit()
	require.NoError(t, err)
	require.NotNil(t, h.Station)
	require.NotNil(t, h.Charger)
	require.NotNil(t, h.FormData)
	assert.Equal(t, "1", h.Station.ID)
	assert.Equal(t, "Trụ A2", h.Charger.Name)
	assert.Equal(t, "3.800 đ/kWh", h.Charger.PriceLabel)
	assert.Equal(t, "2025-03-14", h.FormData.Date.String())
	assert.Equal(t, "10:15", h.FormData.StartTime.String())

	assert.Equal(t, StepConfirming, w.Step(), "submit must not move the wizard")
}

func TestWizard_SubmitGuard(t *testing.T) {
	f := newFixture(t)
	w := NewWizard(clock(time.Date(2025, time.March, 14, 10, 7, 0, 0, hcm)))

	_, err := w.Submit()
	msg, ok := ValidationMessage(err)
	require.True(t, ok)
	assert.Equal(t, MsgIncompleteDraft, msg)
	assert.Equal(t, StepSelectingStation, w.Step())

	require.NoError(t, w.PickStation(f.station(t, "1")))
	_, err = w.Submit()
	_, ok = ValidationMessage(err)
	assert.True(t, ok)
	assert.Equal(t, StepSelectingCharger, w.Step())
}

func TestWizard_UnavailableChargerIsIgnored(t *testing.T) {
	f := newFixture(t)
	w := NewWizard(clock(time.Date(2025, time.March, 14, 10, 7, 0, 0, hcm)))
	require.NoError(t, w.PickStation(f.station(t, "1")))

	for _, id := range []string{"4", "8"} {
		c := f.charger(t, "1", id)
		require.False(t, c.Selectable())

		require.NoError(t, w.PickCharger(c))
		assert.Equal(t, StepSelectingCharger, w.Step())
		assert.Nil(t, w.Draft().Charger)
	}
}

func TestWizard_ChargerFromAnotherStation(t *testing.T) {
	f := newFixture(t)
	w := NewWizard(clock(time.Date(2025, time.March, 14, 10, 7, 0, 0, hcm)))
	require.NoError(t, w.PickStation(f.station(t, "1")))

	err := w.PickCharger(f.charger(t, "2", "1"))
	_, ok := ValidationMessage(err)
	assert.True(t, ok)
	assert.Equal(t, StepSelectingCharger, w.Step())
}

func TestWizard_Back(t *testing.T) {
	f := newFixture(t)
	w := NewWizard(clock(time.Date(2025, time.March, 14, 10, 7, 0, 0, hcm)))

	assert.ErrorIs(t, w.Back(), ErrInvalidTransition)

	require.NoError(t, w.PickStation(f.station(t, "1")))
	require.NoError(t, w.PickCharger(f.charger(t, "1", "1")))

	require.NoError(t, w.Back())
	assert.Equal(t, StepSelectingCharger, w.Step())
	d := w.Draft()
	require.NotNil(t, d.Station)
	assert.Equal(t, "1", d.Station.ID)
	assert.Nil(t, d.Charger)

	require.NoError(t, w.Back())
	assert.Equal(t, StepSelectingStation, w.Step())
	d = w.Draft()
	require.NotNil(t, d.Station)
	assert.Nil(t, d.Charger)

	// A station can be picked again after going back.
	require.NoError(t, w.PickStation(f.station(t, "6")))
	assert.Equal(t, "6", w.Draft().Station.ID)
}

func TestWizard_OutOfOrderEvents(t *testing.T) {
	f := newFixture(t)
	w := NewWizard(clock(time.Date(2025, time.March, 14, 10, 7, 0, 0, hcm)))

	assert.ErrorIs(t, w.PickCharger(f.charger(t, "1", "1")), ErrInvalidTransition)

	require.NoError(t, w.PickStation(f.station(t, "1")))
	assert.ErrorIs(t, w.PickStation(f.station(t, "2")), ErrInvalidTransition)
	assert.Equal(t, "1", w.Draft().Station.ID)
}

func TestWizard_SetDateResetsStartTime(t *testing.T) {
	now := time.Date(2025, time.March, 14, 10, 7, 0, 0, hcm)
	w := NewWizard(clock(now))
	today := slot.DateOf(now)

	_, err := w.SetStartTime(slot.TimeOfDay{Hour: 14, Minute: 30})
	require.NoError(t, err)

	require.NoError(t, w.SetDate(today.AddDays(1)))
	assert.Equal(t, "00:00", w.Draft().StartTime.String())

	require.NoError(t, w.SetDate(today))
	assert.Equal(t, "10:15", w.Draft().StartTime.String())
}

func TestWizard_SetDateOutOfRange(t *testing.T) {
	now := time.Date(2025, time.March, 14, 10, 7, 0, 0, hcm)
	w := NewWizard(clock(now))
	today := slot.DateOf(now)

	for _, d := range []slot.CalendarDate{today.AddDays(-1), today.AddDays(3)} {
		err := w.SetDate(d)
		_, ok := ValidationMessage(err)
		assert.True(t, ok, d.String())
	}
	assert.Equal(t, today, w.Draft().Date)
}

func TestWizard_SetDateTodayWithNothingLeft(t *testing.T) {
	now := time.Date(2025, time.March, 14, 23, 52, 0, 0, hcm)
	w := NewWizard(clock(now))

	err := w.SetDate(slot.DateOf(now))
	_, ok := ValidationMessage(err)
	assert.True(t, ok)
	assert.Equal(t, "2025-03-15", w.Draft().Date.String())
}

func TestWizard_SetStartTime(t *testing.T) {
	now := time.Date(2025, time.March, 14, 10, 7, 0, 0, hcm)
	w := NewWizard(clock(now))

	got, err := w.SetStartTime(slot.TimeOfDay{Hour: 13, Minute: 8})
	require.NoError(t, err)
	assert.Equal(t, "13:15", got.String())
	assert.Equal(t, got, w.Draft().StartTime)

	_, err = w.SetStartTime(slot.TimeOfDay{Hour: 9, Minute: 0})
	_, ok := ValidationMessage(err)
	assert.True(t, ok)
	assert.Equal(t, "13:15", w.Draft().StartTime.String())

	require.NoError(t, w.SetDate(slot.DateOf(now).AddDays(2)))
	got, err = w.SetStartTime(slot.TimeOfDay{Hour: 0, Minute: 5})
	require.NoError(t, err)
	assert.Equal(t, slot.Midnight, got)
}

func TestWizard_SubmitAfterStartTimePassed(t *testing.T) {
	f := newFixture(t)
	now := time.Date(2025, time.March, 14, 10, 7, 0, 0, hcm)
	w := NewWizard(func() time.Time { return now })

	require.NoError(t, w.PickStation(f.station(t, "1")))
	require.NoError(t, w.PickCharger(f.charger(t, "1", "1")))

	now = now.Add(time.Hour)
	_, err := w.Submit()
	_, ok := ValidationMessage(err)
	assert.True(t, ok)
}

func TestWizard_FilterDoesNotTouchDraft(t *testing.T) {
	f := newFixture(t)
	w := NewWizard(clock(time.Date(2025, time.March, 14, 10, 7, 0, 0, hcm)))
	require.NoError(t, w.PickStation(f.station(t, "13")))

	dc := station.DC
	w.SetTypeFilter(&dc)
	w.SetQuery("vinfast")

	visible := w.VisibleStations(f.stations)
	require.Len(t, visible, 1)
	assert.Equal(t, "10", visible[0].ID)
	assert.Equal(t, "13", w.Draft().Station.ID)

	w.SetTypeFilter(nil)
	w.SetQuery("")
	assert.Len(t, w.VisibleStations(f.stations), len(f.stations))
}

func TestWizard_EstimateBeforeConfirming(t *testing.T) {
	w := NewWizard(clock(time.Date(2025, time.March, 14, 10, 7, 0, 0, hcm)))
	_, ok := w.Estimate()
	assert.False(t, ok)
}
