package collection

import (
	"context"
	"fmt"
	"sort"

	"github.com/apimorph/pmconv/internal/domain"
)

// VisitFunc converts one fragment and returns the replacement exec
// lines written back into the owning script.
type VisitFunc func(ctx context.Context, frag domain.Fragment) []string

// WalkScripts walks the document tree and dispatches every script
// fragment to visit exactly once, rewriting each script's exec field
// in place. Keys and ordering of non-script fields are untouched.
func WalkScripts(ctx context.Context, doc *Document, visit VisitFunc) {
	walk(ctx, doc.Root, "", visit)
}

// walk visits one node. Traversal order per container: events first
// (each event's declared phase propagates into its own subtree), then
// the node's own script, then item children with the phase reset, then
// every other nested value with the inherited phase preserved.
func walk(ctx context.Context, node any, phase domain.Phase, visit VisitFunc) {
	switch n := node.(type) {
	case map[string]any:
		for _, ev := range eventsOf(n) {
			walk(ctx, ev, declaredPhase(ev, phase), visit)
		}

		if script, ok := scriptOf(n); ok {
			frag := domain.Fragment{Lines: execLines(script), Phase: phase.OrDefault()}
			script["exec"] = toExecValue(visit(ctx, frag))
		}

		// Phase inheritance stops at item boundaries: each child item
		// starts unset until its own event declares one.
		for _, item := range itemsOf(n) {
			walk(ctx, item, "", visit)
		}

		for _, key := range otherKeys(n) {
			walk(ctx, n[key], phase, visit)
		}
	case []any:
		for _, v := range n {
			walk(ctx, v, phase, visit)
		}
	}
}

// eventsOf returns the node's event sequence, if any.
func eventsOf(n map[string]any) []map[string]any {
	seq, ok := n["event"].([]any)
	if !ok {
		return nil
	}
	events := make([]map[string]any, 0, len(seq))
	for _, v := range seq {
		if ev, ok := v.(map[string]any); ok {
			events = append(events, ev)
		}
	}
	return events
}

// declaredPhase resolves an event's listen field, keeping the
// inherited phase when the event declares nothing recognizable.
func declaredPhase(ev map[string]any, inherited domain.Phase) domain.Phase {
	switch listen, _ := ev["listen"].(string); listen {
	case string(domain.PhasePreRequest):
		return domain.PhasePreRequest
	case string(domain.PhaseTest):
		return domain.PhaseTest
	}
	return inherited
}

// scriptOf returns the node's script object when the node is a script
// holder: a container whose "script" member is an object with an
// "exec" field.
func scriptOf(n map[string]any) (map[string]any, bool) {
	script, ok := n["script"].(map[string]any)
	if !ok {
		return nil, false
	}
	if _, ok := script["exec"]; !ok {
		return nil, false
	}
	return script, true
}

// execLines normalizes a script's exec field, which the legacy format
// stores as either a sequence of lines or a single string.
func execLines(script map[string]any) []string {
	switch exec := script["exec"].(type) {
	case []any:
		lines := make([]string, 0, len(exec))
		for _, v := range exec {
			if s, ok := v.(string); ok {
				lines = append(lines, s)
				continue
			}
			lines = append(lines, fmt.Sprint(v))
		}
		return lines
	case string:
		return []string{exec}
	}
	return nil
}

// itemsOf returns the node's item sequence, if any.
func itemsOf(n map[string]any) []any {
	seq, _ := n["item"].([]any)
	return seq
}

// otherKeys returns the node's keys excluding the three recognized
// shapes handled explicitly, sorted for deterministic traversal.
func otherKeys(n map[string]any) []string {
	keys := make([]string, 0, len(n))
	for k := range n {
		switch k {
		case "event", "script", "item":
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// toExecValue converts replacement lines back into a JSON-compatible
// exec value. Empty fragments normalize to an empty sequence.
func toExecValue(lines []string) []any {
	out := make([]any, 0, len(lines))
	for _, line := range lines {
		out = append(out, line)
	}
	return out
}
