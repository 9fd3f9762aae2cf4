// Package syntax implements the completeness checker that gates the
// fragment repair loop. It is a heuristic scanner, not a parser: it
// trades recall for precision, so false positives stay rare enough not
// to burn the retry budget on already-valid text.
package syntax

import (
	"fmt"
	"strings"

	"github.com/apimorph/pmconv/internal/domain"
)

// opener is one unclosed delimiter on the scan stack.
type opener struct {
	ch   byte
	line int
	call bool // the '(' directly follows an identifier, i.e. a call
}

// matching maps closing delimiters to their opening counterparts.
var matching = map[byte]byte{')': '(', ']': '[', '}': '{'}

// Check scans a script fragment once and reports every detected
// imbalance or plausible truncation. A fragment is complete iff the
// returned list is empty. Empty or whitespace-only text is always
// complete: it represents "no script".
func Check(text string) []domain.Defect {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	var defects []domain.Defect
	var stack []opener

	line := 1
	var inStr byte // 0 when outside a string literal
	escaped := false
	inLineComment := false
	inBlockComment := false
	var prevSig byte // last significant char seen anywhere
	var lineLast byte
	lineBalance := 0

	flushLine := func(n int) {
		// A line that opens more delimiters than it closes is fine
		// when it visibly continues (trailing opener, comma, operator).
		// Anything else looks like a statement cut off mid-expression.
		if lineBalance > 0 && lineLast != 0 && !isContinuation(lineLast) {
			defects = append(defects, domain.Defect{
				Line:    n,
				Message: "statement appears truncated",
			})
		}
		lineLast = 0
		lineBalance = 0
	}

	for i := 0; i < len(text); i++ {
		c := text[i]

		if c == '\n' {
			flushLine(line)
			line++
			inLineComment = false
			escaped = false
			continue
		}

		if inLineComment {
			continue
		}
		if inBlockComment {
			if c == '*' && i+1 < len(text) && text[i+1] == '/' {
				inBlockComment = false
				i++
			}
			continue
		}
		if inStr != 0 {
			if escaped {
				escaped = false
				continue
			}
			switch c {
			case '\\':
				escaped = true
			case inStr:
				inStr = 0
			}
			continue
		}

		switch c {
		case '"', '\'', '`':
			inStr = c
			continue
		case '/':
			if i+1 < len(text) {
				switch text[i+1] {
				case '/':
					inLineComment = true
					i++
					continue
				case '*':
					inBlockComment = true
					i++
					continue
				}
			}
		}

		if c == ' ' || c == '\t' || c == '\r' {
			continue
		}

		switch c {
		case '(', '{', '[':
			stack = append(stack, opener{
				ch:   c,
				line: line,
				call: c == '(' && isIdentChar(prevSig),
			})
			lineBalance++
		case ')', '}', ']':
			want := matching[c]
			switch {
			case len(stack) == 0:
				defects = append(defects, domain.Defect{
					Line:    line,
					Message: fmt.Sprintf("unmatched closing %q", string(c)),
				})
			case stack[len(stack)-1].ch != want:
				top := stack[len(stack)-1]
				defects = append(defects, domain.Defect{
					Line: line,
					Message: fmt.Sprintf("mismatched delimiter: %q closes %q opened at line %d",
						string(c), string(top.ch), top.line),
				})
				stack = stack[:len(stack)-1]
			default:
				stack = stack[:len(stack)-1]
			}
			lineBalance--
		}

		prevSig = c
		lineLast = c
	}

	flushLine(line)

	if inStr != 0 {
		defects = append(defects, domain.Defect{
			Line:    line,
			Message: "unterminated string literal",
		})
	}

	for _, o := range stack {
		if o.call {
			defects = append(defects, domain.Defect{
				Line:    o.line,
				Message: fmt.Sprintf("call expression left open at end of script, opened at line %d", o.line),
			})
			continue
		}
		defects = append(defects, domain.Defect{
			Line:    o.line,
			Message: fmt.Sprintf("unclosed %q, opened at line %d", string(o.ch), o.line),
		})
	}

	// A script whose last significant character is a dangling operator
	// ended mid-statement even when every delimiter is balanced.
	if isDanglingOperator(prevSig) {
		defects = append(defects, domain.Defect{
			Line:    line,
			Message: fmt.Sprintf("script ends mid-statement after %q", string(prevSig)),
		})
	}

	return defects
}

// Complete reports whether the fragment has no detected defects.
func Complete(text string) bool {
	return len(Check(text)) == 0
}

func isIdentChar(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	case c == '_' || c == '$':
		return true
	}
	return false
}

// isContinuation reports whether a trailing character signals a
// deliberately continued multi-line statement.
func isContinuation(c byte) bool {
	switch c {
	case '(', '[', '{', ',', ';', '.', '+', '-', '*', '/', '=', '&', '|', '!', '?', ':', '<', '>':
		return true
	}
	return false
}

func isDanglingOperator(c byte) bool {
	switch c {
	case '+', '-', '*', '=', '&', '|', ',', '.', ':', '?':
		return true
	}
	return false
}
