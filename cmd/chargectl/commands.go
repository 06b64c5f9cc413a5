package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/semanticallynull/chargebooking-backend/booking"
	"github.com/semanticallynull/chargebooking-backend/internal/config"
	"github.com/semanticallynull/chargebooking-backend/invoice"
	"github.com/semanticallynull/chargebooking-backend/payment"
	"github.com/semanticallynull/chargebooking-backend/pricing"
	"github.com/semanticallynull/chargebooking-backend/slot"
	"github.com/semanticallynull/chargebooking-backend/station"
)

type StationsCmd struct {
	Query string `name:"query" short:"q" help:"Match name or address."`
	Type  string `name:"type" short:"t" default:"all" enum:"all,AC,DC,DC_ULTRA" help:"Station type."`
}

func (c *StationsCmd) Run(g *Globals) error {
	cat, err := g.catalog()
	if err != nil {
		return err
	}
	t, err := station.ParseTypeFilter(c.Type)
	if err != nil {
		return err
	}
	stations, err := cat.Stations(g.ctx)
	if err != nil {
		return err
	}
	stations = station.Filter{Query: c.Query, Type: t}.Apply(stations)
	if h := g.cfg.Home; h != nil {
		stations = station.SortByDistance(stations, station.Coords{Lat: h.Latitude, Lon: h.Longitude})
	}
	printStations(g.out, stations)
	return nil
}

type ChargersCmd struct {
	Station string `arg:"" help:"Station ID."`
}

func (c *ChargersCmd) Run(g *Globals) error {
	cat, err := g.catalog()
	if err != nil {
		return err
	}
	chargers, err := cat.Chargers(g.ctx, c.Station)
	if err != nil {
		return err
	}
	printChargers(g.out, chargers)
	return nil
}

type SlotsCmd struct {
	Date string `name:"date" short:"d" help:"Date as YYYY-MM-DD. Defaults to today."`
}

func (c *SlotsCmd) Run(g *Globals) error {
	now := g.now()
	for _, opt := range slot.GenerateDateOptions(now) {
		fmt.Fprintf(g.out, "%-10s %s (%s)\n", opt.Label, opt.Date, opt.SubLabel)
	}

	date := slot.DateOf(now)
	if c.Date != "" {
		d, err := slot.ParseDate(c.Date)
		if err != nil {
			return err
		}
		date = d
	}
	if !slot.IsSelectableDate(date, now) {
		return fmt.Errorf("%s is not bookable; pick today or up to two days ahead", date)
	}
	times := slot.GenerateTimeOptions(date, now)
	if len(times) == 0 {
		fmt.Fprintf(g.out, "\nno start times left on %s\n", date)
		return nil
	}
	labels := make([]string, len(times))
	for i, t := range times {
		labels[i] = t.String()
	}
	fmt.Fprintf(g.out, "\nstart times on %s:\n%s\n", date, wrap(labels, 8))
	return nil
}

type QuoteCmd struct {
	Station string  `arg:"" help:"Station ID."`
	Charger string  `arg:"" help:"Charger ID."`
	Energy  float64 `name:"energy" short:"e" help:"Energy in kWh. Defaults to the configured amount."`
}

func (c *QuoteCmd) Run(g *Globals) error {
	ch, err := findCharger(g, c.Station, c.Charger)
	if err != nil {
		return err
	}
	energy := c.Energy
	if energy == 0 {
		energy = g.cfg.EnergyKwh
	}
	if err := pricing.ValidateEnergy(energy); err != nil {
		return err
	}
	if ch.RateDefaulted {
		fmt.Fprintf(g.out, "note: %q has no price, using the default rate\n", ch.PriceLabel)
	}
	fmt.Fprintf(g.out, "%s, %s at %s\n", ch.Name, ch.PowerLabel, ch.Rate)
	fmt.Fprintf(g.out, "one hour at rated power: %s\n", pricing.FormatAmount(pricing.EstimateHourlyCost(ch.PowerKw, ch.Rate)))
	fmt.Fprintf(g.out, "%s kWh: %s đ\n", pricing.FormatAmount(energy), pricing.FormatAmount(pricing.EstimateCost(energy, ch.Rate)))
	return nil
}

type BookCmd struct {
	Station string  `arg:"" help:"Station ID."`
	Charger string  `arg:"" help:"Charger ID."`
	Date    string  `name:"date" short:"d" help:"Date as YYYY-MM-DD."`
	Time    string  `name:"time" short:"t" help:"Start time as HH:MM, rounded to the quarter hour."`
	Energy  float64 `name:"energy" short:"e" help:"Energy in kWh."`
	Method  string  `name:"method" short:"m" help:"e_wallet, banking, card or cod."`
	Output  string  `name:"output" short:"o" type:"path" help:"Write the invoice to this .pdf or .xlsx file."`
}

func (c *BookCmd) Run(g *Globals) error {
	cat, err := g.catalog()
	if err != nil {
		return err
	}
	st, err := cat.Station(g.ctx, c.Station)
	if err != nil {
		return err
	}
	chargers, err := cat.Chargers(g.ctx, c.Station)
	if err != nil {
		return err
	}
	ch, ok := station.FindCharger(chargers, c.Charger)
	if !ok {
		return fmt.Errorf("charger %s not found at station %s", c.Charger, c.Station)
	}

	w := booking.NewWizard(g.now)
	if err := w.PickStation(st); err != nil {
		return err
	}
	if err := w.PickCharger(ch); err != nil {
		return err
	}
	if w.Step() != booking.StepConfirming {
		return fmt.Errorf("%s is %s and cannot be booked", ch.Name, ch.Status)
	}
	if c.Date != "" {
		d, err := slot.ParseDate(c.Date)
		if err != nil {
			return err
		}
		if err := w.SetDate(d); err != nil {
			return err
		}
	}
	if c.Time != "" {
		t, err := slot.ParseTimeOfDay(c.Time)
		if err != nil {
			return err
		}
		if _, err := w.SetStartTime(t); err != nil {
			return err
		}
	}
	handoff, err := w.Submit()
	if err != nil {
		return err
	}

	co := payment.NewCheckout(handoff, g.processor())
	if err := c.applyCheckout(co, g.cfg); err != nil {
		return err
	}

	fmt.Fprintf(g.out, "paying %s đ...\n", pricing.FormatAmount(co.Quote().TotalAmount))
	inv, err := co.Pay(g.ctx)
	if err != nil {
		return err
	}
	printRows(g.out, inv.Rows())

	if c.Output != "" {
		return writeInvoice(co, c.Output)
	}
	return nil
}

func (c *BookCmd) applyCheckout(co *payment.Checkout, cfg *config.Config) error {
	energy := c.Energy
	if energy == 0 {
		energy = cfg.EnergyKwh
	}
	if err := co.SetEnergy(energy); err != nil {
		return err
	}
	method := c.Method
	if method == "" {
		method = cfg.PaymentMethod
	}
	m, err := invoice.ParseMethod(method)
	if err != nil {
		return err
	}
	return co.SetMethod(m)
}

func writeInvoice(co *payment.Checkout, path string) error {
	format := invoice.FormatPDF
	if strings.HasSuffix(strings.ToLower(path), ".xlsx") {
		format = invoice.FormatXLSX
	}
	b, err := co.PrintView(format)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}

type InitCmd struct {
	Force bool `name:"force" help:"Overwrite an existing file."`
}

func (c *InitCmd) Run(g *Globals) error {
	path := g.Config
	if path == "" {
		path = config.DefaultPath
	}
	if _, err := os.Stat(path); err == nil && !c.Force {
		return fmt.Errorf("%s already exists, use --force to overwrite", path)
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	if err := config.Save(config.Default(), path); err != nil {
		return err
	}
	fmt.Fprintf(g.out, "wrote %s\n", path)
	return nil
}

func findCharger(g *Globals, stationID, chargerID string) (station.Charger, error) {
	cat, err := g.catalog()
	if err != nil {
		return station.Charger{}, err
	}
	chargers, err := cat.Chargers(g.ctx, stationID)
	if err != nil {
		return station.Charger{}, err
	}
	ch, ok := station.FindCharger(chargers, chargerID)
	if !ok {
		return station.Charger{}, fmt.Errorf("charger %s not found at station %s", chargerID, stationID)
	}
	return ch, nil
}
