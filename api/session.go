package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/semanticallynull/chargebooking-backend/booking"
	"github.com/semanticallynull/chargebooking-backend/internal/middleware"
	"github.com/semanticallynull/chargebooking-backend/slot"
	"github.com/semanticallynull/chargebooking-backend/station"
)

type filterResponse struct {
	Query string        `json:"query"`
	Type  *station.Type `json:"type"`
}

type sessionResponse struct {
	ID                  uuid.UUID         `json:"id"`
	Step                booking.Step      `json:"step"`
	Draft               booking.Draft     `json:"draft"`
	Filter              filterResponse    `json:"filter"`
	EstimatedHourlyCost *float64          `json:"estimatedHourlyCost,omitempty"`
	Checkout            *checkoutResponse `json:"checkout,omitempty"`
}

type pickStationRequest struct {
	StationID string `json:"stationId" binding:"required"`
}

type pickChargerRequest struct {
	ChargerID string `json:"chargerId" binding:"required"`
}

type scheduleRequest struct {
	Date      *string `json:"date"`
	StartTime *string `json:"startTime"`
}

// toSessionResponse must be called with sess.mu held.
func toSessionResponse(sess *session) sessionResponse {
	w := sess.wizard
	f := w.Filter()
	resp := sessionResponse{
		ID:     sess.id,
		Step:   w.Step(),
		Draft:  w.Draft(),
		Filter: filterResponse{Query: f.Query, Type: f.Type},
	}
	if cost, ok := w.Estimate(); ok {
		resp.EstimatedHourlyCost = &cost
	}
	if sess.checkout != nil {
		co := toCheckoutResponse(sess.checkout)
		resp.Checkout = &co
	}
	return resp
}

func owner(c *gin.Context) string {
	sub, _ := middleware.Subject(c)
	return sub
}

// loadSession resolves the :id parameter, writing a 404 when it does not
// name a session of the caller.
func (a *API) loadSession(c *gin.Context) (*session, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, errSessionNotFound)
		return nil, false
	}
	sess, ok := a.sessions.get(id, owner(c))
	if !ok {
		respondError(c, errSessionNotFound)
		return nil, false
	}
	return sess, true
}

func (a *API) createSessionHandler(c *gin.Context) {
	sess := a.sessions.create(owner(c))
	middleware.GetLogger(c).InfoContext(c, "session created", "session_id", sess.id)

	sess.mu.Lock()
	defer sess.mu.Unlock()
	c.JSON(http.StatusCreated, toSessionResponse(sess))
}

func (a *API) getSessionHandler(c *gin.Context) {
	sess, ok := a.loadSession(c)
	if !ok {
		return
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	c.JSON(http.StatusOK, toSessionResponse(sess))
}

// sessionStationsHandler stores the filter on the wizard and returns the visible stations.
func (a *API) sessionStationsHandler(c *gin.Context) {
	sess, ok := a.loadSession(c)
	if !ok {
		return
	}
	filter, ok := filterFromQuery(c)
	if !ok {
		return
	}
	stations, err := a.catalog.Stations(c.Request.Context())
	if err != nil {
		respondCatalogError(c, err)
		return
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.wizard.SetQuery(filter.Query)
	sess.wizard.SetTypeFilter(filter.Type)
	c.JSON(http.StatusOK, sess.wizard.VisibleStations(stations))
}

func (a *API) pickStationHandler(c *gin.Context) {
	sess, ok := a.loadSession(c)
	if !ok {
		return
	}
	var req pickStationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, codeInvalidRequest, err.Error())
		return
	}
	st, err := a.catalog.Station(c.Request.Context(), req.StationID)
	if err != nil {
		respondCatalogError(c, err)
		return
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if err := sess.wizard.PickStation(st); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toSessionResponse(sess))
}

func (a *API) pickChargerHandler(c *gin.Context) {
	sess, ok := a.loadSession(c)
	if !ok {
		return
	}
	var req pickChargerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, codeInvalidRequest, err.Error())
		return
	}

	sess.mu.Lock()
	draft := sess.wizard.Draft()
	step := sess.wizard.Step()
	sess.mu.Unlock()
	if step != booking.StepSelectingCharger || draft.Station == nil {
		respondError(c, booking.ErrInvalidTransition)
		return
	}

	chargers, err := a.catalog.Chargers(c.Request.Context(), draft.Station.ID)
	if err != nil {
		respondCatalogError(c, err)
		return
	}
	ch, found := station.FindCharger(chargers, req.ChargerID)
	if !found {
		abort(c, http.StatusNotFound, codeNotFound, "charger not found")
		return
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if err := sess.wizard.PickCharger(ch); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toSessionResponse(sess))
}

func (a *API) backHandler(c *gin.Context) {
	sess, ok := a.loadSession(c)
	if !ok {
		return
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if err := sess.wizard.Back(); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toSessionResponse(sess))
}

func (a *API) scheduleHandler(c *gin.Context) {
	sess, ok := a.loadSession(c)
	if !ok {
		return
	}
	var req scheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, codeInvalidRequest, err.Error())
		return
	}

	var (
		date  *slot.CalendarDate
		start *slot.TimeOfDay
	)
	if req.Date != nil {
		d, err := slot.ParseDate(*req.Date)
		if err != nil {
			abort(c, http.StatusBadRequest, codeInvalidRequest, "date must be YYYY-MM-DD")
			return
		}
		date = &d
	}
	if req.StartTime != nil {
		t, err := slot.ParseTimeOfDay(*req.StartTime)
		if err != nil {
			abort(c, http.StatusBadRequest, codeInvalidRequest, "startTime must be HH:MM")
			return
		}
		start = &t
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	// The date goes first since changing it resets the start time.
	if date != nil {
		if err := sess.wizard.SetDate(*date); err != nil {
			respondError(c, err)
			return
		}
	}
	if start != nil {
		if _, err := sess.wizard.SetStartTime(*start); err != nil {
			respondError(c, err)
			return
		}
	}
	c.JSON(http.StatusOK, toSessionResponse(sess))
}
