package booking

import (
	"time"

	"github.com/semanticallynull/chargebooking-backend/internal/o11y"
	"github.com/semanticallynull/chargebooking-backend/pricing"
	"github.com/semanticallynull/chargebooking-backend/slot"
	"github.com/semanticallynull/chargebooking-backend/station"
)

// MsgIncompleteDraft is shown when submit is attempted without both selections.
const MsgIncompleteDraft = "select a station and a charger"

// Wizard owns one customer's draft. It is not safe for concurrent use.
type Wizard struct {
	state     State
	date      slot.CalendarDate
	startTime slot.TimeOfDay
	filter    station.Filter

	now func() time.Time
}

// NewWizard starts on the station screen with the schedule set to the next
// free quarter hour. A nil now uses time.Now.
func NewWizard(now func() time.Time) *Wizard {
	if now == nil {
		now = time.Now
	}
	first := slot.RoundUpToNextQuarterHour(now())
	return &Wizard{
		state:     SelectingStation{},
		date:      slot.DateOf(first),
		startTime: slot.TimeOf(first),
		now:       now,
	}
}

func (w *Wizard) State() State {
	return w.state
}

func (w *Wizard) Step() Step {
	return w.state.Step()
}

// Draft returns a copy of the reservation as filled in so far.
func (w *Wizard) Draft() Draft {
	d := Draft{Date: w.date, StartTime: w.startTime}
	switch s := w.state.(type) {
	case SelectingStation:
		if s.Highlighted != nil {
			st := *s.Highlighted
			d.Station = &st
		}
	case SelectingCharger:
		st := s.Station
		d.Station = &st
	case Confirming:
		st, c := s.Station, s.Charger
		d.Station, d.Charger = &st, &c
	}
	return d
}

func record(event string, err error) error {
	outcome := "accepted"
	if err != nil {
		outcome = "refused"
	}
	o11y.WizardTransitions.WithLabelValues(event, outcome).Inc()
	return err
}

// PickStation selects st and moves to the charger screen.
func (w *Wizard) PickStation(st station.Station) error {
	if _, ok := w.state.(SelectingStation); !ok {
		return record("pick_station", ErrInvalidTransition)
	}
	w.state = SelectingCharger{Station: st}
	return record("pick_station", nil)
}

// PickCharger selects c and moves to confirmation. A charger that is not
// available is ignored: the state stays put and no error is returned.
func (w *Wizard) PickCharger(c station.Charger) error {
	s, ok := w.state.(SelectingCharger)
	if !ok {
		return record("pick_charger", ErrInvalidTransition)
	}
	if c.StationID != "" && c.StationID != s.Station.ID {
		return record("pick_charger", &ValidationError{Field: "charger", Message: "charger belongs to another station"})
	}
	if !c.Selectable() {
		o11y.WizardTransitions.WithLabelValues("pick_charger", "ignored").Inc()
		return nil
	}
	w.state = Confirming{Station: s.Station, Charger: c}
	return record("pick_charger", nil)
}

// Back returns to the previous screen and clears the charger.
func (w *Wizard) Back() error {
	switch s := w.state.(type) {
	case SelectingCharger:
		st := s.Station
		w.state = SelectingStation{Highlighted: &st}
	case Confirming:
		w.state = SelectingCharger{Station: s.Station}
	default:
		return record("back", ErrInvalidTransition)
	}
	return record("back", nil)
}

// Submit hands the draft off to payment. The wizard state does not change,
// whether or not the guard passes.
func (w *Wizard) Submit() (Handoff, error) {
	s, ok := w.state.(Confirming)
	if !ok {
		return Handoff{}, record("submit", &ValidationError{Message: MsgIncompleteDraft})
	}
	if err := w.checkSchedule(); err != nil {
		return Handoff{}, record("submit", err)
	}
	st, c := s.Station, s.Charger
	return Handoff{
		Station:  &st,
		Charger:  &c,
		FormData: &FormData{Date: w.date, StartTime: w.startTime},
	}, record("submit", nil)
}

func (w *Wizard) checkSchedule() error {
	earliest, ok := slot.EarliestStart(w.date, w.now())
	if !slot.IsSelectableDate(w.date, w.now()) || !ok || w.startTime.Before(earliest) {
		return &ValidationError{Field: "startTime", Message: "the selected start time has already passed"}
	}
	return nil
}

// SetDate changes the booking date and resets the start time: to the next
// free quarter hour for today, to 00:00 otherwise.
func (w *Wizard) SetDate(d slot.CalendarDate) error {
	now := w.now()
	if !slot.IsSelectableDate(d, now) {
		return record("set_date", &ValidationError{Field: "date", Message: "bookings are possible from today up to two days ahead"})
	}
	start, ok := slot.EarliestStart(d, now)
	if !ok {
		return record("set_date", &ValidationError{Field: "date", Message: "no start times left today"})
	}
	w.date = d
	w.startTime = start
	return record("set_date", nil)
}

// SetStartTime rounds t to the nearest quarter hour and applies it. The
// applied value is returned.
func (w *Wizard) SetStartTime(t slot.TimeOfDay) (slot.TimeOfDay, error) {
	rounded := slot.RoundToNearestQuarterHour(t)
	earliest, ok := slot.EarliestStart(w.date, w.now())
	if !ok || rounded.Before(earliest) {
		return w.startTime, record("set_start_time", &ValidationError{Field: "startTime", Message: "start time cannot be in the past"})
	}
	w.startTime = rounded
	return rounded, record("set_start_time", nil)
}

// DateOptions lists the dates offered right now.
func (w *Wizard) DateOptions() []slot.DateOption {
	return slot.GenerateDateOptions(w.now())
}

// TimeOptions lists the start times offered for the selected date.
func (w *Wizard) TimeOptions() []slot.TimeOfDay {
	return slot.GenerateTimeOptions(w.date, w.now())
}

// SetQuery sets the station search text. It never touches the draft.
func (w *Wizard) SetQuery(q string) {
	w.filter.Query = q
}

// SetTypeFilter restricts stations to one type; nil shows all.
func (w *Wizard) SetTypeFilter(t *station.Type) {
	w.filter.Type = t
}

func (w *Wizard) Filter() station.Filter {
	return w.filter
}

// VisibleStations applies the current filter to stations.
func (w *Wizard) VisibleStations(stations []station.Station) []station.Station {
	return w.filter.Apply(stations)
}

// Estimate is the cost of charging for one hour at the picked charger's
// rated power. ok is false before a charger is picked.
func (w *Wizard) Estimate() (cost float64, ok bool) {
	s, ok := w.state.(Confirming)
	if !ok {
		return 0, false
	}
	return pricing.EstimateHourlyCost(s.Charger.PowerKw, s.Charger.Rate), true
}
