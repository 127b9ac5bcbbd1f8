// Package feed fetches and decodes the per-resource iCalendar exports
// published by the reservation platforms.
package feed

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"

	"cloud.google.com/go/civil"

	"github.com/pickarooms/reservations-server/internal/booking"
)

// Event is one decoded calendar entry
type Event struct {
	UID     string
	Summary string
	// Reference is the confirmation number found in the summary, if any
	Reference string
	Start     civil.Date
	End       civil.Date
	Status    booking.Status
	// Raw is a compact snapshot of the source fields kept for diagnostics
	Raw string
}

// Result is the outcome of parsing one feed body
type Result struct {
	Events []Event
	// Skipped holds one MalformedInputError per rejected entry
	Skipped []error
	// SkippedUIDs lists the UIDs of rejected entries that carried one. Rows
	// for these UIDs are kept as they are instead of being treated as gone.
	SkippedUIDs []string
	// Hash identifies the body so unchanged feeds can be skipped
	Hash string
}

var referencePattern = regexp.MustCompile(`\b(\d{10})\b`)

// ExtractReference returns the first standalone 10-digit run in s
func ExtractReference(s string) string {
	m := referencePattern.FindStringSubmatch(s)
	if m == nil {
		return ""
	}
	return m[1]
}

// Hash returns the hex sha256 of a feed body
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
