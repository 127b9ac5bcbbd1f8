package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pickarooms/reservations-server/internal/booking"
	"github.com/pickarooms/reservations-server/internal/httpclient"
)

func calendar(events ...string) string {
	var b strings.Builder
	b.WriteString("BEGIN:VCALENDAR\r\nVERSION:2.0\r\nPRODID:-//Booking.com//EN\r\n")
	for _, e := range events {
		b.WriteString("BEGIN:VEVENT\r\n")
		b.WriteString(strings.ReplaceAll(strings.TrimSpace(e), "\n", "\r\n"))
		b.WriteString("\r\nEND:VEVENT\r\n")
	}
	b.WriteString("END:VCALENDAR\r\n")
	return b.String()
}

func TestParse(t *testing.T) {
	t.Parallel()

	body := calendar(
		`UID:abc@booking.com
DTSTART;VALUE=DATE:20250610
DTEND;VALUE=DATE:20250612
SUMMARY:CLOSED - 5012345678`,
		`UID:def@booking.com
DTSTART:20250615T140000Z
DTEND:20250616T100000Z
STATUS:CANCELLED
SUMMARY:Reserved`,
		`UID:tentative@airbnb.com
DTSTART;VALUE=DATE:20250701
DTEND;VALUE=DATE:20250703
STATUS:TENTATIVE
SUMMARY:Airbnb (Not available)`,
		`DTSTART;VALUE=DATE:20250610
DTEND;VALUE=DATE:20250612
SUMMARY:no uid`,
		`UID:backwards@booking.com
DTSTART;VALUE=DATE:20250612
DTEND;VALUE=DATE:20250612`,
		`UID:weird@booking.com
DTSTART;VALUE=DATE:20250612
DTEND;VALUE=DATE:20250614
STATUS:ON-HOLD`,
		`UID:nodates@booking.com
SUMMARY:Missing dates`,
	)

	result, err := Parse([]byte(body))
	require.NoError(t, err)

	require.Len(t, result.Events, 3)
	first := result.Events[0]
	assert.Equal(t, "abc@booking.com", first.UID)
	assert.Equal(t, "5012345678", first.Reference)
	assert.Equal(t, civil.Date{Year: 2025, Month: time.June, Day: 10}, first.Start)
	assert.Equal(t, civil.Date{Year: 2025, Month: time.June, Day: 12}, first.End)
	assert.Equal(t, booking.StatusConfirmed, first.Status)
	assert.Contains(t, first.Raw, "UID:abc@booking.com")

	second := result.Events[1]
	assert.Equal(t, booking.StatusCancelled, second.Status)
	assert.Equal(t, civil.Date{Year: 2025, Month: time.June, Day: 15}, second.Start)
	assert.Empty(t, second.Reference)

	assert.Equal(t, booking.StatusConfirmed, result.Events[2].Status)

	require.Len(t, result.Skipped, 4)
	for _, skipped := range result.Skipped {
		assert.True(t, booking.IsMalformed(skipped), "expected malformed input error, got %v", skipped)
	}
	assert.ElementsMatch(t,
		[]string{"backwards@booking.com", "weird@booking.com", "nodates@booking.com"}, result.SkippedUIDs)
	assert.Equal(t, Hash([]byte(body)), result.Hash)
}

func TestParseInvalidCalendar(t *testing.T) {
	t.Parallel()

	_, err := Parse([]byte("this is not a calendar"))
	require.Error(t, err)
	assert.True(t, booking.IsMalformed(err))
}

func TestParseEmptyCalendar(t *testing.T) {
	t.Parallel()

	result, err := Parse([]byte(calendar()))
	require.NoError(t, err)
	assert.Empty(t, result.Events)
	assert.Empty(t, result.Skipped)
}

func TestDecodeStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    booking.Status
		wantErr bool
	}{
		{in: "", want: booking.StatusConfirmed},
		{in: "CONFIRMED", want: booking.StatusConfirmed},
		{in: "confirmed", want: booking.StatusConfirmed},
		{in: "TENTATIVE", want: booking.StatusConfirmed},
		{in: " CANCELLED ", want: booking.StatusCancelled},
		{in: "DELETED", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			got, err := DecodeStatus(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractReference(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "plain", in: "CLOSED - Not available 5012345678", want: "5012345678"},
		{name: "first of two", in: "1111111111 and 2222222222", want: "1111111111"},
		{name: "too long", in: "50123456789", want: ""},
		{name: "too short", in: "501234567", want: ""},
		{name: "embedded in word", in: "ref5012345678x", want: ""},
		{name: "punctuated", in: "Booking #5012345678.", want: "5012345678"},
		{name: "empty", in: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ExtractReference(tt.in))
		})
	}
}

func TestFetcher(t *testing.T) {
	t.Parallel()

	body := calendar(`UID:abc@booking.com
DTSTART;VALUE=DATE:20250610
DTEND;VALUE=DATE:20250612`)

	t.Run("success", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(body))
		}))
		defer server.Close()

		f := NewFetcher(httpclient.NewDefaultClient(5 * time.Second))
		result, err := f.FetchAndParse(context.Background(), booking.ChannelBooking, server.URL)
		require.NoError(t, err)
		assert.Len(t, result.Events, 1)
	})

	t.Run("unavailable feed is transient", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer server.Close()

		f := NewFetcher(httpclient.NewDefaultClient(5 * time.Second))
		_, err := f.FetchAndParse(context.Background(), booking.ChannelAirbnb, server.URL)
		require.Error(t, err)
		assert.True(t, booking.IsTransient(err))
		assert.Contains(t, err.Error(), "channel airbnb unavailable")
	})
}
