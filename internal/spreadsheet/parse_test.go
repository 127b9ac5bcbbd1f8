package spreadsheet

import (
	"strings"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/pickarooms/reservations-server/internal/booking"
)

var header = []string{
	ColumnReference, ColumnGuest, ColumnArrival, ColumnDeparture, ColumnUnitType, ColumnPhone, ColumnStatus,
}

func csvExport(rows ...string) []byte {
	return []byte(strings.Join(header, ",") + "\n" + strings.Join(rows, "\n") + "\n")
}

func workbook(t *testing.T, rows ...[]any) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer func() {
		_ = f.Close()
	}()

	headerRow := make([]any, len(header))
	for i, h := range header {
		headerRow[i] = h
	}
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &headerRow))
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestParseCSV(t *testing.T) {
	t.Parallel()

	data := csvExport(
		`1234567890,Jane Doe,2025-06-01,2025-06-03,"Room 1, Room 2",+441234,ok`,
		`2234567890,John Roe,01 Jun 2025,4 June 2025,Single Room,,cancelled_by_guest`,
		`,Missing Ref,2025-06-01,2025-06-03,Room 1,,ok`,
		`3234567890,Bad Dates,2025-06-03,2025-06-01,Room 1,,ok`,
		`4234567890,Odd Status,2025-06-03,2025-06-05,Room 1,,on_hold`,
		`,,,,,,`,
	)

	sheet, err := Parse("export.csv", data)
	require.NoError(t, err)

	require.Len(t, sheet.Rows, 2)
	first := sheet.Rows[0]
	assert.Equal(t, "1234567890", first.Reference)
	assert.Equal(t, "Jane Doe", first.GuestName)
	assert.Equal(t, civil.Date{Year: 2025, Month: time.June, Day: 1}, first.Arrival)
	assert.Equal(t, civil.Date{Year: 2025, Month: time.June, Day: 3}, first.Departure)
	assert.Equal(t, "Room 1, Room 2", first.UnitType)
	assert.Equal(t, RowOK, first.Status)
	assert.Equal(t, 2, first.Line)

	second := sheet.Rows[1]
	assert.Equal(t, RowGuestCancelled, second.Status)
	assert.Equal(t, civil.Date{Year: 2025, Month: time.June, Day: 4}, second.Departure)

	require.Len(t, sheet.Skipped, 3)
	for _, err := range sheet.Skipped {
		assert.True(t, booking.IsMalformed(err))
	}
}

func TestParseCSVMissingColumns(t *testing.T) {
	t.Parallel()

	_, err := ParseCSV(strings.NewReader("Book Number,Guest Name(s)\n1234567890,Jane\n"))
	require.Error(t, err)
	assert.True(t, booking.IsMalformed(err))
	assert.Contains(t, err.Error(), ColumnArrival)
	assert.Contains(t, err.Error(), ColumnUnitType)
}

func TestParseWorkbook(t *testing.T) {
	t.Parallel()

	arrival := time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)
	data := workbook(t,
		[]any{1234567890, "Jane Doe", arrival, "2025-06-03", "Room 1, Room 2", "", "ok"},
		[]any{"2234567890", "John Roe", "2025-07-01", "2025-07-02", "Room 1", "", ""},
	)

	sheet, err := Parse("upload.bin", data)
	require.NoError(t, err)
	require.Empty(t, sheet.Skipped)
	require.Len(t, sheet.Rows, 2)

	assert.Equal(t, "1234567890", sheet.Rows[0].Reference)
	assert.Equal(t, civil.Date{Year: 2025, Month: time.June, Day: 1}, sheet.Rows[0].Arrival)
	assert.Equal(t, RowOK, sheet.Rows[1].Status)
}

func TestParseWorkbookRejectsGarbage(t *testing.T) {
	t.Parallel()

	_, err := Parse("export.xlsx", []byte("not a workbook"))
	require.Error(t, err)
	assert.True(t, booking.IsMalformed(err))
}

func TestDecodeStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    RowStatus
		wantErr bool
	}{
		{in: "", want: RowOK},
		{in: "OK", want: RowOK},
		{in: "cancelled_by_guest", want: RowGuestCancelled},
		{in: "cancelled_by_hotel", want: RowCancelled},
		{in: "no_show", want: RowCancelled},
		{in: "cancelled", want: RowCancelled},
		{in: "maybe cancelled", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			got, err := DecodeStatus(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, booking.IsMalformed(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeUnitType(t *testing.T) {
	t.Parallel()

	mapping := map[string]string{
		"room 1":      "room-1",
		"room 2":      "room-2",
		"single room": "room-3",
	}

	tests := []struct {
		name    string
		in      string
		want    []string
		wantErr bool
	}{
		{name: "single", in: "Single Room", want: []string{"room-3"}},
		{name: "multiple", in: "Room 1, Room 2", want: []string{"room-1", "room-2"}},
		{name: "duplicates collapse", in: "Room 1, room 1", want: []string{"room-1"}},
		{name: "unknown label", in: "Room 1, Penthouse", wantErr: true},
		{name: "empty", in: " , ", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := DecodeUnitType(tt.in, mapping)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, booking.IsMalformed(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseDate(t *testing.T) {
	t.Parallel()

	want := civil.Date{Year: 2025, Month: time.June, Day: 1}
	for _, in := range []string{"2025-06-01", "2025-06-01 14:00:00", "01 Jun 2025", "1 June 2025", "45809"} {
		got, err := ParseDate(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseDate("tomorrow")
	require.Error(t, err)
}

func TestNormalizeReference(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "5012345678", normalizeReference("5012345678"))
	assert.Equal(t, "5012345678", normalizeReference("5012345678.0"))
	assert.Equal(t, "5012345678", normalizeReference("5.012345678E+09"))
	assert.Equal(t, "HMABC123", normalizeReference("HMABC123"))
}
