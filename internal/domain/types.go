package domain

import (
	"fmt"
	"strings"
)

// Phase identifies when a collection script runs.
type Phase string

const (
	// PhasePreRequest scripts run before the request is sent.
	PhasePreRequest Phase = "prerequest"
	// PhaseTest scripts run after the response is received.
	PhaseTest Phase = "test"
)

// OrDefault resolves an unset phase to the test phase. A script is only
// treated as pre-request when the nearest enclosing event declared it.
func (p Phase) OrDefault() Phase {
	if p == "" {
		return PhaseTest
	}
	return p
}

// Fragment is one script's joined source text, the unit of conversion.
type Fragment struct {
	Lines []string
	Phase Phase
}

// Text returns the fragment source joined by newlines.
func (f Fragment) Text() string {
	return strings.Join(f.Lines, "\n")
}

// IsBlank reports whether every line of the fragment is empty or
// whitespace-only. Blank fragments represent "no script" and are never
// sent to the conversion service.
func (f Fragment) IsBlank() bool {
	for _, line := range f.Lines {
		if strings.TrimSpace(line) != "" {
			return false
		}
	}
	return true
}

// Defect is a detected syntactic incompleteness or imbalance in
// generated text. Line is 1-based; 0 means the defect is not tied to a
// specific line.
type Defect struct {
	Line    int
	Message string
}

func (d Defect) String() string {
	if d.Line > 0 {
		return fmt.Sprintf("%s (line %d)", d.Message, d.Line)
	}
	return d.Message
}

// DefectMessages flattens a defect list into plain strings, suitable
// for feeding back into a repair prompt.
func DefectMessages(defects []Defect) []string {
	msgs := make([]string, 0, len(defects))
	for _, d := range defects {
		msgs = append(msgs, d.String())
	}
	return msgs
}

// FragmentReport describes how a fragment conversion went. Attempts
// counts service rounds actually spent; Degraded marks fragments that
// exhausted the retry budget and were accepted after the last-resort
// syntax fix; Emptied marks fragments that degraded all the way to an
// empty script.
type FragmentReport struct {
	Attempts int
	Degraded bool
	Emptied  bool
	Defects  []Defect
}

// OutcomeKind is the final per-document classification after
// validation and optional repair.
type OutcomeKind string

const (
	// OutcomeConverted documents were written and passed validation.
	OutcomeConverted OutcomeKind = "converted"
	// OutcomeRepaired documents failed first validation but passed
	// after one whole-document repair call.
	OutcomeRepaired OutcomeKind = "converted-then-repaired"
	// OutcomeRejected documents were skipped: already conformant, or
	// no recognizable collection structure.
	OutcomeRejected OutcomeKind = "rejected"
	// OutcomeFailed documents exhausted repair attempts and are
	// excluded from the output archive.
	OutcomeFailed OutcomeKind = "failed"
)

// Outcome records what happened to one input document. Every input
// document yields exactly one Outcome.
type Outcome struct {
	File   string
	Kind   OutcomeKind
	Reason string   // set for rejected documents
	Errors []string // validation/repair errors for failed documents
}

// Reporter is the operator feedback channel: status, progress and
// warning notifications keyed by filename and fragment. It is not part
// of the data contract, only observability for partial failures.
type Reporter interface {
	Status(file, msg string)
	Warning(file, msg string)
	Failure(file, msg string)
	Fragment(file string, index int, msg string)
}
