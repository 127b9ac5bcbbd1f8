package archive

import (
	"regexp"
	"strings"
	"time"

	"cloud.google.com/go/civil"
)

// Kind is the type of confirmation message
type Kind string

const (
	// KindNew is a new reservation
	KindNew Kind = "new"
	// KindLastMinute is a new reservation made shortly before arrival
	KindLastMinute Kind = "new_lastminute"
	// KindModified is a changed reservation
	KindModified Kind = "modification"
	// KindCancelled is a cancelled reservation
	KindCancelled Kind = "cancellation"
)

// Confirmation is what a message subject says about a reservation
type Confirmation struct {
	Kind      Kind
	Reference string
	Arrival   civil.Date
}

// Identifies reservation activity, not cancellations
func (c Confirmation) Identifies() bool {
	return c.Kind != KindCancelled
}

var subjectPatterns = []struct {
	kind    Kind
	pattern *regexp.Regexp
}{
	{KindNew, regexp.MustCompile(`Booking\.com - New booking! \((\d{10}), (.+?)\)`)},
	{KindLastMinute, regexp.MustCompile(`Booking\.com - New last-minute booking!? \((\d{10}), (.+?)\)`)},
	{KindModified, regexp.MustCompile(`Booking\.com - Modified booking! \((\d{10}), (.+?)\)`)},
	{KindCancelled, regexp.MustCompile(`Booking\.com - Cancelled booking! \((\d{10}), (.+?)\)`)},
}

var weekdayPrefix = regexp.MustCompile(`^[A-Za-z]+,\s*`)

// ParseSubject extracts the reservation from a confirmation subject such as
// "Booking.com - New booking! (5592652343, Saturday, 20 December 2025)".
// ok is false for unrelated messages.
func ParseSubject(subject string) (Confirmation, bool) {
	for _, p := range subjectPatterns {
		m := p.pattern.FindStringSubmatch(subject)
		if m == nil {
			continue
		}
		arrival, err := parseArrival(m[2])
		if err != nil {
			return Confirmation{}, false
		}
		return Confirmation{Kind: p.kind, Reference: m[1], Arrival: arrival}, true
	}
	return Confirmation{}, false
}

func parseArrival(s string) (civil.Date, error) {
	s = weekdayPrefix.ReplaceAllString(strings.TrimSpace(s), "")
	t, err := time.Parse("2 January 2006", s)
	if err != nil {
		return civil.Date{}, err
	}
	return civil.DateOf(t), nil
}
