package schema

import (
	"encoding/json"
	"strings"

	"github.com/apimorph/pmconv/internal/collection"
	"github.com/apimorph/pmconv/internal/domain"
)

// Salvage recovers a document from possibly truncated repair output.
// It locates the outermost object boundaries, tolerates trailing junk
// after a complete object, and as a last resort auto-closes unbalanced
// braces and brackets. The returned note is non-empty when the input
// needed salvaging.
func Salvage(name, raw string) (*collection.Document, string, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end == -1 || end <= start {
		return nil, "", domain.NewError("parse", name, 0, "no JSON object boundaries found in repair response", nil)
	}
	candidate := raw[start : end+1]

	if doc, err := collection.Decode(name, []byte(candidate)); err == nil {
		return doc, "", nil
	}

	// Decode just the first object, ignoring any trailing garbage.
	dec := json.NewDecoder(strings.NewReader(candidate))
	var m map[string]any
	if err := dec.Decode(&m); err == nil && m != nil {
		return &collection.Document{Name: name, Root: m},
			"partial JSON salvaged from truncated output", nil
	}

	fixed := candidate + closers(candidate)
	if doc, err := collection.Decode(name, []byte(fixed)); err == nil {
		return doc, "partial JSON salvaged by auto-closing braces/brackets", nil
	}

	return nil, "", domain.NewError("parse", name, 0, "could not salvage any valid JSON from repair response", nil)
}

// closers computes the closing delimiters needed to balance the
// candidate, in reverse nesting order, ignoring delimiters inside
// string literals.
func closers(s string) string {
	var stack []byte
	inStr := false
	escaped := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inStr {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inStr = false
			}
			continue
		}
		switch c {
		case '"':
			inStr = true
		case '{', '[':
			stack = append(stack, c)
		case '}', ']':
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		}
	}

	var b strings.Builder
	if inStr {
		b.WriteByte('"')
	}
	for i := len(stack) - 1; i >= 0; i-- {
		if stack[i] == '{' {
			b.WriteByte('}')
		} else {
			b.WriteByte(']')
		}
	}
	return b.String()
}
