package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/semanticallynull/chargebooking-backend/slot"
)

type timeOptionsResponse struct {
	Date  slot.CalendarDate `json:"date"`
	Times []slot.TimeOfDay  `json:"times"`
}

func (a *API) slotDatesHandler(c *gin.Context) {
	c.JSON(http.StatusOK, slot.GenerateDateOptions(a.now()))
}

func (a *API) slotTimesHandler(c *gin.Context) {
	now := a.now()
	date := slot.DateOf(now)
	if s := c.Query("date"); s != "" {
		d, err := slot.ParseDate(s)
		if err != nil {
			abort(c, http.StatusBadRequest, codeInvalidRequest, "date must be YYYY-MM-DD")
			return
		}
		date = d
	}
	if !slot.IsSelectableDate(date, now) {
		abort(c, http.StatusUnprocessableEntity, codeValidationFailed, "bookings are possible from today up to two days ahead")
		return
	}
	c.JSON(http.StatusOK, timeOptionsResponse{
		Date:  date,
		Times: slot.GenerateTimeOptions(date, now),
	})
}
