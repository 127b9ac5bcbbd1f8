package app

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/pickarooms/reservations-server/internal/booking"
	"github.com/pickarooms/reservations-server/internal/spreadsheet"
)

const (
	outputTable = "table"
	outputJSON  = "json"
)

func validateOutput(format string) error {
	switch format {
	case outputTable, outputJSON:
		return nil
	default:
		return fmt.Errorf("unsupported output format %q (table, json)", format)
	}
}

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	return t
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// renderReport prints the counters of a spreadsheet reconciliation
func renderReport(w io.Writer, format string, report *spreadsheet.Report) error {
	if format == outputJSON {
		return writeJSON(w, report)
	}

	t := newTable(w)
	t.AppendHeader(table.Row{text.FgHiCyan.Sprint("RESULT"), text.FgHiCyan.Sprint("ROWS")})
	for _, r := range []struct {
		label string
		n     int
	}{
		{"Total rows", report.TotalRows},
		{"Single resource", report.SingleResource},
		{"Multi resource", report.MultiResource},
		{"Created", report.Created},
		{"Updated", report.Updated},
		{"Unchanged", report.Unchanged},
		{"Deleted", report.Deleted},
		{"Restored", report.Restored},
		{"Superseded", report.Superseded},
		{"Ignored", report.Ignored},
	} {
		t.AppendRow(table.Row{r.label, r.n})
	}
	t.Render()

	for _, s := range report.Skipped {
		fmt.Fprintf(w, "%s %s\n", text.FgYellow.Sprint("skipped:"), s)
	}
	for _, s := range report.Warnings {
		fmt.Fprintf(w, "%s %s\n", text.FgYellow.Sprint("warning:"), s)
	}
	return nil
}

type bookingRow struct {
	ID        string `json:"id"`
	Resource  string `json:"resource"`
	Channel   string `json:"channel"`
	Reference string `json:"reference,omitempty"`
	Guest     string `json:"guest,omitempty"`
	Arrival   string `json:"arrival"`
	Departure string `json:"departure"`
	Nights    int    `json:"nights"`
	Status    string `json:"status"`
	Codes     bool   `json:"codes"`
}

func toBookingRow(b *booking.Booking) bookingRow {
	return bookingRow{
		ID:        b.ID.String(),
		Resource:  b.ResourceID,
		Channel:   string(b.Channel),
		Reference: b.Reference,
		Guest:     b.DisplayName,
		Arrival:   b.Arrival.String(),
		Departure: b.Departure.String(),
		Nights:    b.Nights(),
		Status:    string(b.Status),
		Codes:     b.ContactProfileID != nil,
	}
}

// renderBookings prints booking rows
func renderBookings(w io.Writer, format string, rows []*booking.Booking) error {
	out := make([]bookingRow, 0, len(rows))
	for _, b := range rows {
		out = append(out, toBookingRow(b))
	}
	if format == outputJSON {
		return writeJSON(w, out)
	}

	if len(out) == 0 {
		_, err := fmt.Fprintln(w, text.FgYellow.Sprint("No bookings found"))
		return err
	}

	t := newTable(w)
	t.AppendHeader(table.Row{"RESOURCE", "CHANNEL", "REFERENCE", "GUEST", "ARRIVAL", "DEPARTURE", "NIGHTS", "STATUS", "CODES"})
	for _, r := range out {
		ref := r.Reference
		if ref != "" {
			ref = "#" + ref
		}
		t.AppendRow(table.Row{r.Resource, r.Channel, ref, r.Guest, r.Arrival, r.Departure, r.Nights, r.Status, strconv.FormatBool(r.Codes)})
	}
	t.AppendFooter(table.Row{"", "", "", "", "", "", "", "TOTAL", len(out)})
	t.Render()
	return nil
}
