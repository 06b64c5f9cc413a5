package acceptance

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	jwtmiddleware "github.com/auth0/go-jwt-middleware/v2"
	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/semanticallynull/chargebooking-backend/api"
	"github.com/semanticallynull/chargebooking-backend/internal/o11y"
	"github.com/semanticallynull/chargebooking-backend/payment"
	"github.com/semanticallynull/chargebooking-backend/station"
)

var ict = time.FixedZone("ICT", 7*60*60)

// testNow is a Friday morning; the first bookable start is 10:15.
var testNow = time.Date(2025, time.March, 14, 10, 7, 0, 0, ict)

type TestServer struct {
	API    *api.API
	Router http.Handler
}

func NewTestServer(t *testing.T, catalog station.Catalog, processor payment.Processor) *TestServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	if processor == nil {
		sim := payment.NewSimulator(logger)
		sim.Latency = 0
		sim.Now = func() time.Time { return testNow }
		processor = sim
	}
	obs := &o11y.Observability{
		Logger:   logger,
		Registry: prometheus.NewRegistry(),
	}

	a := api.New(catalog, processor, obs, api.Config{
		Auth: fakeAuthMiddleware(),
		Now:  func() time.Time { return testNow },
	})
	return &TestServer{API: a, Router: a.Router()}
}

func seedCatalog(t *testing.T) station.Catalog {
	t.Helper()
	cat, err := station.LoadSeed(nil, nil)
	require.NoError(t, err)
	return cat
}

// fakeAuthMiddleware trusts the X-User-ID header and stores it as the token
// subject, the way the JWT middleware does for a verified token.
func fakeAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetHeader("X-User-ID")
		if userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"code": "UNAUTHORIZED", "message": "Authentication required"})
			return
		}
		claims := &validator.ValidatedClaims{
			RegisteredClaims: validator.RegisteredClaims{Subject: userID},
		}
		ctx := context.WithValue(c.Request.Context(), jwtmiddleware.ContextKey{}, claims)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func asUser(id string) map[string]string {
	return map[string]string{"X-User-ID": id}
}

func (ts *TestServer) do(method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	ts.Router.ServeHTTP(w, req)
	return w
}

func (ts *TestServer) GET(path string, headers map[string]string) *httptest.ResponseRecorder {
	return ts.do(http.MethodGet, path, nil, headers)
}

func (ts *TestServer) POST(path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	return ts.do(http.MethodPost, path, body, headers)
}

func (ts *TestServer) PUT(path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	return ts.do(http.MethodPut, path, body, headers)
}

func (ts *TestServer) DELETE(path string, headers map[string]string) *httptest.ResponseRecorder {
	return ts.do(http.MethodDelete, path, nil, headers)
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

// CreateSession starts a wizard for user and returns its id.
func (ts *TestServer) CreateSession(t *testing.T, user string) string {
	t.Helper()
	w := ts.POST("/sessions", nil, asUser(user))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[sessionResponse](t, w).ID
}

type sessionResponse struct {
	ID    string `json:"id"`
	Step  string `json:"step"`
	Draft struct {
		Station *struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"station"`
		Charger *struct {
			ID    string  `json:"id"`
			Name  string  `json:"name"`
			Rate  float64 `json:"ratePerKwh"`
			Power string  `json:"power"`
		} `json:"charger"`
		Date      string `json:"date"`
		StartTime string `json:"startTime"`
	} `json:"draft"`
	Checkout *checkoutResponse `json:"checkout"`
}

type checkoutResponse struct {
	Summary []struct {
		Label string `json:"label"`
		Value string `json:"value"`
	} `json:"summary"`
	Quote struct {
		EnergyKwh     float64 `json:"energyKwh"`
		PricePerKwh   float64 `json:"pricePerKwh"`
		TotalAmount   float64 `json:"totalAmount"`
		PaymentMethod string  `json:"paymentMethod"`
	} `json:"quote"`
	Paying bool `json:"paying"`
}

type invoiceResponse struct {
	Code          string  `json:"code"`
	StationName   string  `json:"stationName"`
	ChargerName   string  `json:"chargerName"`
	EnergyKwh     float64 `json:"energyKwh"`
	PricePerKwh   float64 `json:"pricePerKwh"`
	PaymentMethod string  `json:"paymentMethod"`
	TotalAmount   float64 `json:"totalAmount"`
	Date          string  `json:"date"`
	StartTime     string  `json:"startTime"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// connectDB opens the database named by DATABASE_URL and loads the catalog
// schema. Tests needing Postgres are skipped when it is unset.
func connectDB(t *testing.T) *sqlx.DB {
	t.Helper()
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("DATABASE_URL not set")
	}

	db, err := sqlx.Connect("pgx", dbURL)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	schema, err := os.ReadFile("../station/schema.sql")
	require.NoError(t, err)
	_, err = db.Exec(string(schema))
	require.NoError(t, err)

	cleanupTestData(t, db)
	return db
}

func cleanupTestData(t *testing.T, db *sqlx.DB) {
	t.Helper()
	if _, err := db.Exec("DELETE FROM chargers"); err != nil {
		t.Logf("warning: failed to clean chargers: %v", err)
	}
	if _, err := db.Exec("DELETE FROM stations"); err != nil {
		t.Logf("warning: failed to clean stations: %v", err)
	}
}

func createTestStation(t *testing.T, db *sqlx.DB, name, typ, price string) string {
	t.Helper()
	var id string
	err := db.Get(&id, `
		INSERT INTO stations (name, address, type, available, total, location, speed, price)
		VALUES ($1, 'Test Address', $2, 1, 2, point(10.85, 106.77), '22 kW', $3)
		RETURNING id
	`, name, typ, price)
	require.NoError(t, err)
	return id
}

func createTestCharger(t *testing.T, db *sqlx.DB, stationID, name, power, price, status string) string {
	t.Helper()
	var id string
	err := db.Get(&id, `
		INSERT INTO chargers (station_id, name, location, power, price, status, connector)
		VALUES ($1, $2, point(10.85, 106.77), $3, $4, $5, 'Type 2')
		RETURNING id
	`, stationID, name, power, price, status)
	require.NoError(t, err)
	return id
}
