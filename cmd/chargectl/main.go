package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/alecthomas/kong"

	"github.com/semanticallynull/chargebooking-backend/catalog"
	"github.com/semanticallynull/chargebooking-backend/internal/config"
	"github.com/semanticallynull/chargebooking-backend/payment"
	"github.com/semanticallynull/chargebooking-backend/station"
)

// Globals is shared by every command.
type Globals struct {
	Config  string `name:"config" short:"c" env:"CHARGECTL_CONFIG" help:"Config file path." type:"path"`
	Verbose bool   `name:"verbose" short:"v" help:"Log catalog diagnostics to stderr."`

	ctx    context.Context   `kong:"-"`
	cfg    *config.Config    `kong:"-"`
	out    io.Writer         `kong:"-"`
	now    func() time.Time  `kong:"-"`
	logger *slog.Logger      `kong:"-"`
	pay    payment.Processor `kong:"-"`
}

var cli struct {
	Globals

	Stations StationsCmd `cmd:"" help:"List charging stations."`
	Chargers ChargersCmd `cmd:"" help:"List the chargers of a station."`
	Slots    SlotsCmd    `cmd:"" help:"Show bookable dates and start times."`
	Quote    QuoteCmd    `cmd:"" help:"Estimate the cost of a charge."`
	Book     BookCmd     `cmd:"" help:"Reserve a charger, pay and print the invoice."`
	Init     InitCmd     `cmd:"" help:"Write a default config file."`
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	k := kong.Parse(&cli,
		kong.Name("chargectl"),
		kong.Description("Reserve EV charging slots from the terminal."),
		kong.UsageOnError(),
	)
	if err := cli.Globals.init(ctx, os.Stdout); err != nil {
		k.FatalIfErrorf(err)
	}
	k.FatalIfErrorf(k.Run(&cli.Globals))
}

func (g *Globals) init(ctx context.Context, out io.Writer) error {
	cfg, err := config.Load(g.Config)
	if err != nil {
		return fmt.Errorf("reading config: %w", err)
	}
	level := slog.LevelWarn
	if g.Verbose {
		level = slog.LevelDebug
	}
	g.ctx = ctx
	g.cfg = cfg
	g.out = out
	g.now = time.Now
	g.logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	return nil
}

// catalog opens the station source named in the config.
func (g *Globals) catalog() (station.Catalog, error) {
	switch g.cfg.Catalog {
	case "remote":
		if g.cfg.CatalogURL == "" {
			return nil, errors.New("catalog_url must be set for the remote catalog")
		}
		client, err := catalog.New(g.cfg.CatalogURL,
			catalog.WithToken(g.cfg.CatalogToken),
			catalog.WithLogger(g.logger),
		)
		if err != nil {
			return nil, err
		}
		return catalog.NewSource(client, g.logger), nil
	case "static", "":
		var doc []byte
		if g.cfg.SeedFile != "" {
			b, err := os.ReadFile(g.cfg.SeedFile)
			if err != nil {
				return nil, err
			}
			doc = b
		}
		return station.LoadSeed(doc, g.logger)
	}
	return nil, fmt.Errorf("unknown catalog %q", g.cfg.Catalog)
}

func (g *Globals) processor() payment.Processor {
	if g.pay != nil {
		return g.pay
	}
	return payment.NewSimulator(g.logger)
}
