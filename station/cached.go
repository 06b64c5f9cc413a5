package station

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// Cached keeps an in-memory snapshot of another catalog and refreshes it on a
// schedule. Reads never hit the source once a snapshot exists; a failed refresh
// keeps serving the previous snapshot.
type Cached struct {
	source Catalog
	logger *slog.Logger

	mu       sync.RWMutex
	stations []Station
	chargers map[string][]Charger
	loadedAt time.Time

	scheduler gocron.Scheduler
}

func NewCached(source Catalog, logger *slog.Logger) *Cached {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cached{
		source: source,
		logger: logger,
	}
}

// Refresh reloads every station and its chargers from the source.
func (c *Cached) Refresh(ctx context.Context) error {
	stations, err := c.source.Stations(ctx)
	if err != nil {
		return err
	}
	chargers := make(map[string][]Charger, len(stations))
	for _, st := range stations {
		cs, err := c.source.Chargers(ctx, st.ID)
		if err != nil {
			return err
		}
		chargers[st.ID] = cs
	}

	c.mu.Lock()
	c.stations = stations
	c.chargers = chargers
	c.loadedAt = time.Now()
	c.mu.Unlock()

	c.logger.Info("catalog refreshed", slog.Int("stations", len(stations)))
	return nil
}

// Start loads the catalog once and then refreshes it every interval until Stop.
func (c *Cached) Start(ctx context.Context, interval time.Duration) error {
	if err := c.Refresh(ctx); err != nil {
		return err
	}

	s, err := gocron.NewScheduler()
	if err != nil {
		return err
	}
	_, err = s.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			if err := c.Refresh(ctx); err != nil {
				c.logger.Error("catalog refresh failed", slog.Any("error", err))
			}
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return err
	}
	s.Start()
	c.scheduler = s
	return nil
}

// Stop halts scheduled refreshes.
func (c *Cached) Stop() error {
	if c.scheduler == nil {
		return nil
	}
	return c.scheduler.Shutdown()
}

// LoadedAt is the time of the last successful refresh.
func (c *Cached) LoadedAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loadedAt
}

func (c *Cached) ensure(ctx context.Context) error {
	c.mu.RLock()
	loaded := c.stations != nil
	c.mu.RUnlock()
	if loaded {
		return nil
	}
	return c.Refresh(ctx)
}

func (c *Cached) Stations(ctx context.Context) ([]Station, error) {
	if err := c.ensure(ctx); err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Station, len(c.stations))
	copy(out, c.stations)
	return out, nil
}

func (c *Cached) Station(ctx context.Context, id string) (Station, error) {
	if err := c.ensure(ctx); err != nil {
		return Station{}, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, st := range c.stations {
		if st.ID == id {
			return st, nil
		}
	}
	return Station{}, ErrNotFound
}

func (c *Cached) Chargers(ctx context.Context, stationID string) ([]Charger, error) {
	if err := c.ensure(ctx); err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	cs, ok := c.chargers[stationID]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]Charger, len(cs))
	copy(out, cs)
	return out, nil
}
