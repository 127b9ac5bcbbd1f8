package booking

import "strings"

// Status is the lifecycle state of a booking row
type Status string

const (
	// StatusPending is a row that has not been confirmed by any channel yet
	StatusPending Status = "pending"
	// StatusConfirmed is an active stay
	StatusConfirmed Status = "confirmed"
	// StatusCancelled is a stay that will not happen
	StatusCancelled Status = "cancelled"
)

// ParseStatus decodes a stored status value
func ParseStatus(s string) (Status, error) {
	switch st := Status(strings.ToLower(strings.TrimSpace(s))); st {
	case StatusPending, StatusConfirmed, StatusCancelled:
		return st, nil
	default:
		return "", &MalformedInputError{Source: "status", Input: s, Reason: "unknown booking status"}
	}
}

// CanTransition reports whether a row may move from one status to another.
// Enriched rows never fall back to pending.
func CanTransition(from, to Status, enriched bool) bool {
	if from == to {
		return true
	}
	if to == StatusPending && enriched {
		return false
	}
	return true
}
