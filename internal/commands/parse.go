// Package commands interprets the plain-text operator commands that resolve
// what automatic enrichment could not: collisions between confirmations,
// bookings whose confirmation never arrived and wrong assignments.
package commands

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/pickarooms/reservations-server/internal/booking"
)

// Kind is the type of an operator command
type Kind string

const (
	// KindHelp asks for the command guide
	KindHelp Kind = "help"
	// KindBatch assigns several references, one per line
	KindBatch Kind = "batch"
	// KindCorrect replaces a wrong assignment
	KindCorrect Kind = "correct"
	// KindCancel cancels a reservation
	KindCancel Kind = "cancel"
	// KindCheck reports the state of a reservation
	KindCheck Kind = "check"
	// KindAssign assigns one reference to a resource
	KindAssign Kind = "assign"
	// KindAdopt gives a reference to the oldest booking still waiting for one
	KindAdopt Kind = "adopt"
)

// Method tags recorded in the audit log
const (
	MethodHelp    = "sms_guide"
	MethodBatch   = "sms_multi_collision"
	MethodCorrect = "sms_correction"
	MethodCancel  = "sms_cancel"
	MethodCheck   = "sms_check"
	MethodAssign  = "sms_collision"
	MethodAdopt   = "sms_single_ref"
)

// Method returns the audit method tag of the command kind
func (k Kind) Method() string {
	switch k {
	case KindHelp:
		return MethodHelp
	case KindBatch:
		return MethodBatch
	case KindCorrect:
		return MethodCorrect
	case KindCancel:
		return MethodCancel
	case KindCheck:
		return MethodCheck
	case KindAssign:
		return MethodAssign
	default:
		return MethodAdopt
	}
}

// Assignment places a reference in the resource operators know by number
type Assignment struct {
	Reference string
	Resource  int
	Nights    int
}

// Command is a parsed operator message
type Command struct {
	Kind Kind
	// Reference is set for cancel, check and adopt commands
	Reference string
	// Assignments holds one entry for assign and correct, several for batch
	Assignments []Assignment
}

var (
	helpPattern    = regexp.MustCompile(`^(?i)(help|guide|commands|menu)$`)
	assignPattern  = regexp.MustCompile(`^#?(\d{5,})\s*:\s*(\d+)\s*-\s*(\d+)$`)
	correctPattern = regexp.MustCompile(`^(?i)#?(\d{5,})\s*:\s*(\d+)\s*-\s*(\d+)\s+correct$`)
	cancelPattern  = regexp.MustCompile(`^(?i)(?:cancel\s+#?(\d{5,})|#?(\d{5,})\s+cancel)$`)
	checkPattern   = regexp.MustCompile(`^(?i)(?:check\s+#?(\d{5,})|#?(\d{5,})\s+check)$`)
	referenceOnly  = regexp.MustCompile(`^#?(\d{5,})$`)
)

// Parse decodes an operator message. The forms are tried in a fixed order:
// help, multi-line batch, correction, cancel, check, single assignment and
// finally a bare reference.
func Parse(body string) (Command, error) {
	lines := splitLines(body)
	if len(lines) == 0 {
		return Command{}, malformed(body, "empty command")
	}

	if len(lines) == 1 && helpPattern.MatchString(lines[0]) {
		return Command{Kind: KindHelp}, nil
	}

	if len(lines) > 1 {
		cmd := Command{Kind: KindBatch}
		for i, line := range lines {
			m := assignPattern.FindStringSubmatch(line)
			if m == nil {
				return Command{}, malformed(line, fmt.Sprintf("line %d is not REF: ROOM-NIGHTS", i+1))
			}
			a, err := assignment(m)
			if err != nil {
				return Command{}, err
			}
			cmd.Assignments = append(cmd.Assignments, a)
		}
		return cmd, nil
	}

	line := lines[0]
	if m := correctPattern.FindStringSubmatch(line); m != nil {
		a, err := assignment(m)
		if err != nil {
			return Command{}, err
		}
		return Command{Kind: KindCorrect, Reference: a.Reference, Assignments: []Assignment{a}}, nil
	}
	if m := cancelPattern.FindStringSubmatch(line); m != nil {
		return Command{Kind: KindCancel, Reference: firstNonEmpty(m[1:])}, nil
	}
	if m := checkPattern.FindStringSubmatch(line); m != nil {
		return Command{Kind: KindCheck, Reference: firstNonEmpty(m[1:])}, nil
	}
	if m := assignPattern.FindStringSubmatch(line); m != nil {
		a, err := assignment(m)
		if err != nil {
			return Command{}, err
		}
		return Command{Kind: KindAssign, Reference: a.Reference, Assignments: []Assignment{a}}, nil
	}
	if m := referenceOnly.FindStringSubmatch(line); m != nil {
		return Command{Kind: KindAdopt, Reference: m[1]}, nil
	}
	return Command{}, malformed(line, "unknown command")
}

func assignment(m []string) (Assignment, error) {
	resource, err := strconv.Atoi(m[2])
	if err != nil {
		return Assignment{}, malformed(m[0], "invalid room number")
	}
	nights, err := strconv.Atoi(m[3])
	if err != nil || nights < 1 {
		return Assignment{}, malformed(m[0], "nights must be at least 1")
	}
	return Assignment{Reference: m[1], Resource: resource, Nights: nights}, nil
}

func splitLines(body string) []string {
	var lines []string
	for _, line := range strings.Split(strings.ReplaceAll(body, "\r\n", "\n"), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

func firstNonEmpty(values []string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func malformed(input, reason string) error {
	return &booking.MalformedInputError{Source: "command", Input: input, Reason: reason}
}

// Guide is the reply to a help command
const Guide = `Commands:
COLLISION: REF: ROOM-NIGHTS
  e.g. 6588202211: 1-2
  several bookings, one per line
EMAIL NOT FOUND: reply the reference only
  e.g. 6588202211
CHECK: check 6588202211
CORRECT: 6588202211: 2-2 correct
CANCEL: cancel 6588202211
HELP: help | guide | commands | menu`
