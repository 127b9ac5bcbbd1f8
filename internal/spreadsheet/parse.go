// Package spreadsheet reconciles the periodic reservation export against the
// canonical booking store. The export is ground truth for stays arriving
// today or later.
package spreadsheet

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/xuri/excelize/v2"

	"github.com/pickarooms/reservations-server/internal/booking"
)

// Column headers of the export
const (
	ColumnReference = "Book Number"
	ColumnGuest     = "Guest Name(s)"
	ColumnArrival   = "Check-in"
	ColumnDeparture = "Check-out"
	ColumnUnitType  = "Unit type"
	ColumnPhone     = "Phone number"
	ColumnStatus    = "Status"
)

const source = "spreadsheet row"

var requiredColumns = []string{ColumnReference, ColumnArrival, ColumnDeparture, ColumnUnitType}

// RowStatus is the decoded reservation status of an export row
type RowStatus string

const (
	// RowOK is an active reservation
	RowOK RowStatus = "ok"
	// RowGuestCancelled is a reservation the guest cancelled
	RowGuestCancelled RowStatus = "cancelled_by_guest"
	// RowCancelled covers every other cancellation; such rows are ignored
	RowCancelled RowStatus = "cancelled"
)

// DecodeStatus maps the export status column onto a RowStatus
func DecodeStatus(s string) (RowStatus, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "ok":
		return RowOK, nil
	case "cancelled_by_guest":
		return RowGuestCancelled, nil
	case "cancelled", "cancelled_by_hotel", "cancelled_by_property", "no_show":
		return RowCancelled, nil
	default:
		return "", &booking.MalformedInputError{Source: "spreadsheet status", Input: s, Reason: "unknown status"}
	}
}

// Row is one decoded line of the export
type Row struct {
	Line      int
	Reference string
	GuestName string
	Arrival   civil.Date
	Departure civil.Date
	UnitType  string
	Phone     string
	Status    RowStatus
}

// Sheet is the decoded export
type Sheet struct {
	Rows []Row
	// Skipped holds one MalformedInputError per rejected line
	Skipped []error
}

// Parse decodes an export, choosing the format from the file name and
// falling back to content sniffing
func Parse(name string, data []byte) (*Sheet, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv":
		return ParseCSV(bytes.NewReader(data))
	case ".xlsx", ".xlsm", ".xls":
		return ParseWorkbook(bytes.NewReader(data))
	}
	// xlsx files are zip archives
	if bytes.HasPrefix(data, []byte("PK\x03\x04")) {
		return ParseWorkbook(bytes.NewReader(data))
	}
	return ParseCSV(bytes.NewReader(data))
}

// ParseWorkbook decodes the first sheet of an Excel workbook
func ParseWorkbook(r io.Reader) (*Sheet, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, &booking.MalformedInputError{Source: "workbook", Reason: err.Error()}
	}
	defer func() {
		_ = f.Close()
	}()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, &booking.MalformedInputError{Source: "workbook", Reason: "no sheets"}
	}
	records, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, &booking.MalformedInputError{Source: "workbook", Reason: err.Error()}
	}
	return decodeRecords(records)
}

// ParseCSV decodes a CSV export with the same columns as the workbook
func ParseCSV(r io.Reader) (*Sheet, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, &booking.MalformedInputError{Source: "csv", Reason: err.Error()}
	}
	return decodeRecords(records)
}

func decodeRecords(records [][]string) (*Sheet, error) {
	if len(records) == 0 {
		return nil, &booking.MalformedInputError{Source: "spreadsheet", Reason: "missing header row"}
	}

	columns := make(map[string]int, len(records[0]))
	for i, h := range records[0] {
		columns[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	var missing []string
	for _, c := range requiredColumns {
		if _, ok := columns[strings.ToLower(c)]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return nil, &booking.MalformedInputError{
			Source: "spreadsheet",
			Reason: "missing columns: " + strings.Join(missing, ", "),
		}
	}

	sheet := &Sheet{}
	for i, record := range records[1:] {
		cell := func(name string) string {
			idx, ok := columns[strings.ToLower(name)]
			if !ok || idx >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[idx])
		}
		if isBlank(record) {
			continue
		}

		row, err := decodeRow(i+2, cell)
		if err != nil {
			sheet.Skipped = append(sheet.Skipped, err)
			continue
		}
		sheet.Rows = append(sheet.Rows, row)
	}
	return sheet, nil
}

func decodeRow(line int, cell func(string) string) (Row, error) {
	malformed := func(input, reason string) error {
		return &booking.MalformedInputError{
			Source: source,
			Input:  input,
			Reason: fmt.Sprintf("line %d: %s", line, reason),
		}
	}

	ref := normalizeReference(cell(ColumnReference))
	if ref == "" {
		return Row{}, malformed("", "missing booking number")
	}
	arrival, err := ParseDate(cell(ColumnArrival))
	if err != nil {
		return Row{}, malformed(ref, "check-in: "+err.Error())
	}
	departure, err := ParseDate(cell(ColumnDeparture))
	if err != nil {
		return Row{}, malformed(ref, "check-out: "+err.Error())
	}
	if !departure.After(arrival) {
		return Row{}, malformed(ref, "check-out is not after check-in")
	}
	st, err := DecodeStatus(cell(ColumnStatus))
	if err != nil {
		return Row{}, malformed(ref, err.Error())
	}

	return Row{
		Line:      line,
		Reference: ref,
		GuestName: cell(ColumnGuest),
		Arrival:   arrival,
		Departure: departure,
		UnitType:  cell(ColumnUnitType),
		Phone:     cell(ColumnPhone),
		Status:    st,
	}, nil
}

// normalizeReference undoes numeric rendering of booking numbers such as
// "5012345678.0" or "5.012345678E+09"
func normalizeReference(s string) string {
	if s == "" || strings.Trim(s, "0123456789.eE+") != "" {
		return s
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != float64(int64(f)) {
		return s
	}
	return strconv.FormatInt(int64(f), 10)
}

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"02 Jan 2006",
	"2 Jan 2006",
	"2 January 2006",
	"02/01/2006",
	"Jan 2, 2006",
}

// ParseDate reads an export date: ISO and textual layouts, or an Excel serial
func ParseDate(s string) (civil.Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return civil.Date{}, errors.New("empty date")
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return civil.DateOf(t), nil
		}
	}
	if serial, err := strconv.ParseFloat(s, 64); err == nil {
		t, err := excelize.ExcelDateToTime(serial, false)
		if err != nil {
			return civil.Date{}, fmt.Errorf("invalid date %q: %w", s, err)
		}
		return civil.DateOf(t), nil
	}
	return civil.Date{}, fmt.Errorf("invalid date %q", s)
}

// DecodeUnitType maps a possibly comma-separated unit type onto resource ids
// using the lowercased label mapping. Any unknown label rejects the row.
func DecodeUnitType(unitType string, mapping map[string]string) ([]string, error) {
	var resources []string
	seen := make(map[string]bool)
	for _, part := range strings.Split(unitType, ",") {
		label := strings.ToLower(strings.TrimSpace(part))
		if label == "" {
			continue
		}
		id, ok := mapping[label]
		if !ok {
			return nil, &booking.MalformedInputError{Source: "unit type", Input: strings.TrimSpace(part), Reason: "no resource mapped"}
		}
		if !seen[id] {
			seen[id] = true
			resources = append(resources, id)
		}
	}
	if len(resources) == 0 {
		return nil, &booking.MalformedInputError{Source: "unit type", Input: unitType, Reason: "empty unit type"}
	}
	return resources, nil
}

func isBlank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
