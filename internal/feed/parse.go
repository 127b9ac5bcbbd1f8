package feed

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	ics "github.com/arran4/golang-ical"

	"github.com/pickarooms/reservations-server/internal/booking"
)

const source = "calendar event"

// Parse decodes an iCalendar body. Entries that cannot be decoded are
// reported in Result.Skipped and do not fail the whole feed; an unreadable
// calendar does.
func Parse(data []byte) (*Result, error) {
	cal, err := ics.ParseCalendar(bytes.NewReader(data))
	if err != nil {
		return nil, &booking.MalformedInputError{Source: "calendar", Reason: err.Error()}
	}

	result := &Result{Hash: Hash(data)}
	for _, vevent := range cal.Events() {
		event, err := decodeEvent(vevent)
		if err != nil {
			result.Skipped = append(result.Skipped, err)
			if uid := propertyValue(vevent, ics.ComponentPropertyUniqueId); uid != "" {
				result.SkippedUIDs = append(result.SkippedUIDs, uid)
			}
			continue
		}
		result.Events = append(result.Events, event)
	}
	return result, nil
}

func decodeEvent(vevent *ics.VEvent) (Event, error) {
	uid := propertyValue(vevent, ics.ComponentPropertyUniqueId)
	if uid == "" {
		return Event{}, &booking.MalformedInputError{Source: source, Reason: "missing UID"}
	}

	start, err := dateProperty(vevent, ics.ComponentPropertyDtStart)
	if err != nil {
		return Event{}, &booking.MalformedInputError{Source: source, Input: uid, Reason: err.Error()}
	}
	end, err := dateProperty(vevent, ics.ComponentPropertyDtEnd)
	if err != nil {
		return Event{}, &booking.MalformedInputError{Source: source, Input: uid, Reason: err.Error()}
	}
	if !end.After(start) {
		return Event{}, &booking.MalformedInputError{Source: source, Input: uid, Reason: "end date is not after start date"}
	}

	rawStatus := propertyValue(vevent, ics.ComponentPropertyStatus)
	st, err := DecodeStatus(rawStatus)
	if err != nil {
		return Event{}, &booking.MalformedInputError{Source: source, Input: uid, Reason: err.Error()}
	}

	summary := propertyValue(vevent, ics.ComponentPropertySummary)
	return Event{
		UID:       uid,
		Summary:   summary,
		Reference: ExtractReference(summary),
		Start:     start,
		End:       end,
		Status:    st,
		Raw: fmt.Sprintf("UID:%s|SUMMARY:%s|DTSTART:%s|DTEND:%s|STATUS:%s",
			uid, summary, start, end, rawStatus),
	}, nil
}

// DecodeStatus maps a VEVENT STATUS value onto a booking status.
// An absent status means the entry is an active reservation.
func DecodeStatus(s string) (booking.Status, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "CONFIRMED", "TENTATIVE":
		return booking.StatusConfirmed, nil
	case "CANCELLED":
		return booking.StatusCancelled, nil
	default:
		return "", fmt.Errorf("unknown status %q", s)
	}
}

func propertyValue(vevent *ics.VEvent, prop ics.ComponentProperty) string {
	p := vevent.GetProperty(prop)
	if p == nil {
		return ""
	}
	return strings.TrimSpace(p.Value)
}

// dateProperty reads a DATE or DATE-TIME property as a calendar date.
// Platforms publish all-day values; for date-times only the date part counts.
func dateProperty(vevent *ics.VEvent, prop ics.ComponentProperty) (civil.Date, error) {
	value := propertyValue(vevent, prop)
	if value == "" {
		return civil.Date{}, fmt.Errorf("missing %s", prop)
	}
	if len(value) < len("20060102") {
		return civil.Date{}, fmt.Errorf("invalid %s %q", prop, value)
	}
	t, err := time.Parse("20060102", value[:8])
	if err != nil {
		return civil.Date{}, fmt.Errorf("invalid %s %q", prop, value)
	}
	return civil.DateOf(t), nil
}
