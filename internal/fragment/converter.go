// Package fragment drives the per-script conversion state machine:
// bounded retries against the generation service with accumulating
// defect feedback from the completeness checker.
package fragment

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/apimorph/pmconv/internal/config"
	"github.com/apimorph/pmconv/internal/domain"
	"github.com/apimorph/pmconv/internal/genservice"
	"github.com/apimorph/pmconv/internal/syntax"
)

// Converter converts one script fragment at a time. It never returns
// an error: failures degrade to an empty script with a logged warning,
// because document-level validation downstream is the actual gate.
type Converter struct {
	client      genservice.Client
	maxAttempts int
	maxBytes    int
	log         logrus.FieldLogger
}

// NewConverter creates a Converter with the given retry budget.
func NewConverter(client genservice.Client, cfg *config.Convert, log logrus.FieldLogger) *Converter {
	maxAttempts := cfg.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	maxBytes := cfg.MaxFragmentBytes
	if maxBytes < 1 {
		maxBytes = 256 * 1024
	}
	return &Converter{
		client:      client,
		maxAttempts: maxAttempts,
		maxBytes:    maxBytes,
		log:         log,
	}
}

// ConvertFragment converts one fragment and returns the new exec
// lines. An all-blank fragment short-circuits without any service
// call. The attempt counter is strictly bounded by the configured cap;
// exhausting it falls through to one best-effort syntax fix whose
// result is accepted regardless of remaining defects.
func (c *Converter) ConvertFragment(ctx context.Context, frag domain.Fragment) ([]string, domain.FragmentReport) {
	if frag.IsBlank() {
		return []string{}, domain.FragmentReport{}
	}

	original := frag.Text()
	var buf string
	var defects []domain.Defect
	attempts := 0

	text, err := c.client.Convert(ctx, original, frag.Phase)
	attempts++
	if err != nil {
		c.log.Warnf("Conversion call failed: %v", err)
		defects = []domain.Defect{{Message: "service error: " + err.Error()}}
	} else {
		buf = genservice.CleanScript(text)
		defects = syntax.Check(buf)
	}

	// Repair rounds: each continuation appends onto the buffer, never
	// replacing it. A failed call counts as a round defect and still
	// consumes one attempt.
	for len(defects) > 0 && attempts < c.maxAttempts && len(buf) < c.maxBytes {
		cont, err := c.client.ContinueTruncated(ctx, buf, original, frag.Phase, domain.DefectMessages(defects))
		attempts++
		if err != nil {
			c.log.Warnf("Continuation call failed (attempt %d/%d): %v", attempts, c.maxAttempts, err)
			defects = append(defects, domain.Defect{Message: "service error: " + err.Error()})
			continue
		}
		piece := genservice.CleanScript(cont)
		if piece != "" {
			buf = joinContinuation(buf, piece)
		}
		defects = syntax.Check(buf)
	}

	degraded := false
	if len(defects) > 0 && buf != "" {
		degraded = true
		c.log.Debugf("Retry budget spent after %d attempt(s), requesting last-resort syntax fix", attempts)
		fixed, err := c.client.FixSyntax(ctx, buf, original)
		if err != nil {
			c.log.Warnf("Syntax fix call failed, keeping degraded output: %v", err)
		} else if cleaned := genservice.CleanScript(fixed); cleaned != "" {
			buf = cleaned
		}
		defects = syntax.Check(buf)
	}

	report := domain.FragmentReport{
		Attempts: attempts,
		Degraded: degraded,
		Defects:  defects,
	}

	if strings.TrimSpace(buf) == "" {
		report.Emptied = true
		c.log.Warnf("Fragment conversion produced no usable output after %d attempt(s); emitting empty script", attempts)
		return []string{}, report
	}

	if degraded && len(defects) > 0 {
		c.log.Warnf("Accepting fragment with %d remaining defect(s) after syntax fix", len(defects))
	}

	return strings.Split(buf, "\n"), report
}

// joinContinuation appends a continuation piece onto the buffer. When
// the buffer ends at a statement boundary the piece starts on its own
// line; a buffer cut off mid-expression is continued in place.
func joinContinuation(buf, piece string) string {
	if buf == "" {
		return piece
	}
	trimmed := strings.TrimRight(buf, " \t\n")
	if trimmed == "" {
		return piece
	}
	switch trimmed[len(trimmed)-1] {
	case ';', '{', '}':
		return trimmed + "\n" + piece
	}
	return trimmed + piece
}
