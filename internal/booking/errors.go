package booking

import (
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/civil"
)

// ErrNotFound is returned when a requested record does not exist
var ErrNotFound = errors.New("not found")

// TransientChannelError wraps a failure to reach an external channel.
// Callers keep existing state and retry on the next trigger.
type TransientChannelError struct {
	Channel string
	Err     error
}

func (e *TransientChannelError) Error() string {
	return fmt.Sprintf("channel %s unavailable: %v", e.Channel, e.Err)
}

func (e *TransientChannelError) Unwrap() error {
	return e.Err
}

// AmbiguousMatchError reports that more than one confirmation matched the
// same arrival date and the assignment has to be resolved by an operator.
type AmbiguousMatchError struct {
	Arrival    civil.Date
	References []string
}

func (e *AmbiguousMatchError) Error() string {
	return fmt.Sprintf("ambiguous match for %s: %s", e.Arrival, strings.Join(e.References, ", "))
}

// CodeIssuanceError reports a failed access code operation on a resource
type CodeIssuanceError struct {
	Resource   string
	Err        error
	RolledBack bool
	// Remaining lists codes issued by the failed call that are still installed
	Remaining []CodeHandle
}

func (e *CodeIssuanceError) Error() string {
	msg := fmt.Sprintf("failed to issue access code for %s: %v", e.Resource, e.Err)
	if e.RolledBack {
		msg += " (issued codes revoked)"
	}
	return msg
}

func (e *CodeIssuanceError) Unwrap() error {
	return e.Err
}

// StaleCommandError is returned when an operator command targets a booking
// that was already resolved
type StaleCommandError struct {
	Reference string
	Reason    string
}

func (e *StaleCommandError) Error() string {
	return fmt.Sprintf("%s: %s", e.Reference, e.Reason)
}

// MalformedInputError reports input that could not be parsed. The offending
// item is skipped and the rest of the batch continues.
type MalformedInputError struct {
	Source string
	Input  string
	Reason string
}

func (e *MalformedInputError) Error() string {
	if e.Input == "" {
		return fmt.Sprintf("malformed %s: %s", e.Source, e.Reason)
	}
	return fmt.Sprintf("malformed %s %q: %s", e.Source, e.Input, e.Reason)
}

// IsTransient reports whether err is, or wraps, a TransientChannelError
func IsTransient(err error) bool {
	var target *TransientChannelError
	return errors.As(err, &target)
}

// IsMalformed reports whether err is, or wraps, a MalformedInputError
func IsMalformed(err error) bool {
	var target *MalformedInputError
	return errors.As(err, &target)
}
