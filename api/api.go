package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/semanticallynull/chargebooking-backend/internal/middleware"
	"github.com/semanticallynull/chargebooking-backend/internal/o11y"
	"github.com/semanticallynull/chargebooking-backend/payment"
	"github.com/semanticallynull/chargebooking-backend/station"
)

type Config struct {
	MetricsUsername string
	MetricsPassword string

	// Auth guards the session routes. Nil leaves them open.
	Auth gin.HandlerFunc

	// Now is the wall clock used for slots and wizards. Defaults to time.Now.
	Now func() time.Time
}

type API struct {
	r         *gin.Engine
	catalog   station.Catalog
	processor payment.Processor
	sessions  *Sessions
	now       func() time.Time
}

func New(catalog station.Catalog, processor payment.Processor, obs *o11y.Observability, cfg Config) *API {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	a := &API{
		r:         gin.New(),
		catalog:   catalog,
		processor: processor,
		sessions:  NewSessions(now),
		now:       now,
	}

	a.r.Use(
		gin.Recovery(),
		middleware.Tracing(),
		middleware.Logging(obs.Logger),
		middleware.Metrics(obs.Registry),
	)

	a.r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	metrics := promhttp.HandlerFor(obs.Registry, promhttp.HandlerOpts{})
	if cfg.MetricsUsername != "" {
		a.r.GET("/metrics", gin.BasicAuth(gin.Accounts{cfg.MetricsUsername: cfg.MetricsPassword}), gin.WrapH(metrics))
	} else {
		a.r.GET("/metrics", gin.WrapH(metrics))
	}

	a.r.GET("/stations", a.stationsHandler)
	a.r.GET("/stations/:id", a.stationHandler)
	a.r.GET("/stations/:id/chargers", a.chargersHandler)

	a.r.GET("/slots/dates", a.slotDatesHandler)
	a.r.GET("/slots/times", a.slotTimesHandler)

	sessions := a.r.Group("/sessions")
	if cfg.Auth != nil {
		sessions.Use(cfg.Auth)
	}
	sessions.POST("", a.createSessionHandler)
	sessions.GET("/:id", a.getSessionHandler)
	sessions.GET("/:id/stations", a.sessionStationsHandler)
	sessions.POST("/:id/station", a.pickStationHandler)
	sessions.POST("/:id/charger", a.pickChargerHandler)
	sessions.POST("/:id/back", a.backHandler)
	sessions.PUT("/:id/schedule", a.scheduleHandler)
	sessions.POST("/:id/submit", a.submitHandler)

	sessions.PUT("/:id/checkout", a.updateCheckoutHandler)
	sessions.POST("/:id/checkout/pay", a.payHandler)
	sessions.GET("/:id/checkout/invoice", a.invoiceHandler)
	sessions.DELETE("/:id/checkout/invoice", a.dismissInvoiceHandler)
	sessions.GET("/:id/checkout/invoice/print", a.printInvoiceHandler)

	return a
}

func (a *API) Router() *gin.Engine {
	return a.r
}

// Sessions exposes the session store so the server can expire idle sessions.
func (a *API) Sessions() *Sessions {
	return a.sessions
}
