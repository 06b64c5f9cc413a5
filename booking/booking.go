// Package booking drives the three step reservation wizard: station, charger, confirmation.
package booking

import (
	"errors"

	"github.com/semanticallynull/chargebooking-backend/slot"
	"github.com/semanticallynull/chargebooking-backend/station"
)

var ErrInvalidTransition = errors.New("invalid wizard transition")

// Step numbers the wizard screens.
type Step int

const (
	StepSelectingStation Step = iota + 1
	StepSelectingCharger
	StepConfirming
)

func (s Step) String() string {
	switch s {
	case StepSelectingStation:
		return "selecting_station"
	case StepSelectingCharger:
		return "selecting_charger"
	case StepConfirming:
		return "confirming"
	}
	return "unknown"
}

func (s Step) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// State is one of SelectingStation, SelectingCharger or Confirming. Each
// carries only the selections that are valid on its screen.
type State interface {
	Step() Step
}

// SelectingStation is the first screen. Highlighted is the station picked
// before the customer went back, if any.
type SelectingStation struct {
	Highlighted *station.Station
}

func (SelectingStation) Step() Step { return StepSelectingStation }

// SelectingCharger lists the chargers of Station.
type SelectingCharger struct {
	Station station.Station
}

func (SelectingCharger) Step() Step { return StepSelectingCharger }

// Confirming shows the summary and the schedule pickers.
type Confirming struct {
	Station station.Station
	Charger station.Charger
}

func (Confirming) Step() Step { return StepConfirming }

// Draft is the reservation as currently filled in.
type Draft struct {
	Station   *station.Station  `json:"station"`
	Charger   *station.Charger  `json:"charger"`
	Date      slot.CalendarDate `json:"date"`
	StartTime slot.TimeOfDay    `json:"startTime"`
}

// Complete reports whether the draft may be submitted.
func (d Draft) Complete() bool {
	return d.Station != nil && d.Charger != nil
}

// FormData is the schedule part of a handoff.
type FormData struct {
	Date      slot.CalendarDate `json:"date"`
	StartTime slot.TimeOfDay    `json:"startTime"`
}

// Handoff is what the wizard passes on to payment once submitted. Consumers
// must cope with nil Station or Charger.
type Handoff struct {
	Station  *station.Station `json:"station,omitempty"`
	Charger  *station.Charger `json:"charger,omitempty"`
	FormData *FormData        `json:"formData,omitempty"`
}

// ValidationError is a refused user action; Message is safe to show.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// ValidationMessage returns the user facing message if err is a ValidationError.
func ValidationMessage(err error) (string, bool) {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr.Message, true
	}
	return "", false
}
