package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/semanticallynull/chargebooking-backend/invoice"
	"github.com/semanticallynull/chargebooking-backend/station"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).PaddingLeft(1).PaddingRight(1)
	cellStyle   = lipgloss.NewStyle().PaddingLeft(1).PaddingRight(1)
	dimStyle    = cellStyle.Foreground(lipgloss.Color("241"))
)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("99"))).
		Headers(headers...)
}

func printStations(w io.Writer, stations []station.Station) {
	var rows [][]string
	for _, s := range stations {
		rows = append(rows, []string{
			s.ID,
			s.Name,
			s.Type.String(),
			fmt.Sprintf("%d/%d", s.Available, s.Total),
			s.Speed,
			s.PriceLabel,
			fmt.Sprintf("%.1f km", s.DistanceKm),
		})
	}
	t := newTable("ID", "NAME", "TYPE", "FREE", "SPEED", "PRICE", "DISTANCE").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if col > 1 {
				return cellStyle.AlignHorizontal(lipgloss.Right)
			}
			return cellStyle
		}).
		Rows(rows...)
	fmt.Fprintln(w, t)
}

func printChargers(w io.Writer, chargers []station.Charger) {
	var rows [][]string
	for _, c := range chargers {
		rows = append(rows, []string{c.ID, c.Name, c.PowerLabel, c.PriceLabel, c.Connector, string(c.Status)})
	}
	t := newTable("ID", "NAME", "POWER", "PRICE", "CONNECTOR", "STATUS").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if row >= 0 && row < len(chargers) && !chargers[row].Selectable() {
				return dimStyle
			}
			return cellStyle
		}).
		Rows(rows...)
	fmt.Fprintln(w, t)
}

func printRows(w io.Writer, rows []invoice.Row) {
	data := make([][]string, 0, len(rows))
	for _, r := range rows {
		data = append(data, []string{r.Label, r.Value})
	}
	t := newTable().
		StyleFunc(func(row, col int) lipgloss.Style {
			if col == 0 {
				return headerStyle
			}
			return cellStyle
		}).
		Rows(data...)
	fmt.Fprintln(w, t)
}

// wrap joins labels n per line.
func wrap(labels []string, n int) string {
	var b strings.Builder
	for i, l := range labels {
		switch {
		case i == 0:
		case i%n == 0:
			b.WriteByte('\n')
		default:
			b.WriteByte(' ')
		}
		b.WriteString(l)
	}
	return b.String()
}
