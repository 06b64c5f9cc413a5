package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/semanticallynull/chargebooking-backend/station"
)

// parseOrigin reads optional lat/lon query parameters.
func parseOrigin(c *gin.Context) (*station.Coords, bool) {
	latStr, lonStr := c.Query("lat"), c.Query("lon")
	if latStr == "" && lonStr == "" {
		return nil, true
	}
	lat, err1 := strconv.ParseFloat(latStr, 64)
	lon, err2 := strconv.ParseFloat(lonStr, 64)
	if err1 != nil || err2 != nil || lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		abort(c, http.StatusBadRequest, codeInvalidRequest, "lat and lon must be given together as decimal degrees")
		return nil, false
	}
	return &station.Coords{Lat: lat, Lon: lon}, true
}

// filterFromQuery reads the q and type query parameters.
func filterFromQuery(c *gin.Context) (station.Filter, bool) {
	t, err := station.ParseTypeFilter(c.Query("type"))
	if err != nil {
		abort(c, http.StatusBadRequest, codeInvalidRequest, err.Error())
		return station.Filter{}, false
	}
	return station.Filter{Query: c.Query("q"), Type: t}, true
}

func (a *API) stationsHandler(c *gin.Context) {
	filter, ok := filterFromQuery(c)
	if !ok {
		return
	}
	origin, ok := parseOrigin(c)
	if !ok {
		return
	}

	stations, err := a.catalog.Stations(c.Request.Context())
	if err != nil {
		respondCatalogError(c, err)
		return
	}

	stations = filter.Apply(stations)
	if origin != nil {
		stations = station.SortByDistance(stations, *origin)
	}
	c.JSON(http.StatusOK, stations)
}

func (a *API) stationHandler(c *gin.Context) {
	st, err := a.catalog.Station(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondCatalogError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

func (a *API) chargersHandler(c *gin.Context) {
	chargers, err := a.catalog.Chargers(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondCatalogError(c, err)
		return
	}
	c.JSON(http.StatusOK, chargers)
}
