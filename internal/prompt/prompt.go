// Package prompt renders the instruction payloads sent to the
// generative conversion service. Wording lives in text/template blocks
// so call sites only supply the data that varies per operation.
package prompt

import (
	"bytes"
	"text/template"

	"github.com/apimorph/pmconv/internal/domain"
)

// Template names for the four service operations.
const (
	ConvertScript    = "convert_script"
	ContinueScript   = "continue_script"
	FixSyntax        = "fix_syntax"
	RepairCollection = "repair_collection"
)

// Data is the struct passed to prompt templates. Only the fields
// relevant to the rendered template need to be set.
type Data struct {
	Phase    string // "prerequest" or "test"
	Fragment string // original pre-conversion script text
	Partial  string // accumulated converted text so far
	Current  string // text needing a syntax-only fix
	Document string // whole-collection JSON text
	Defects  []string
}

// Set holds the parsed prompt templates.
type Set struct {
	templates map[string]*template.Template
}

// NewSet parses the built-in prompt templates.
func NewSet() (*Set, error) {
	s := &Set{templates: make(map[string]*template.Template)}
	for name, text := range builtin {
		t, err := template.New(name).Parse(text)
		if err != nil {
			return nil, domain.NewError("setup", "", 0, "failed to parse prompt template "+name, err)
		}
		s.templates[name] = t
	}
	return s, nil
}

// Render executes the named template with the given data.
func (s *Set) Render(name string, data Data) (string, error) {
	t, ok := s.templates[name]
	if !ok {
		return "", domain.NewError("convert", "", 0, "unknown prompt template "+name, nil)
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", domain.NewError("convert", "", 0, "failed to render prompt "+name, err)
	}
	return buf.String(), nil
}

// Names returns the available template names.
func (s *Set) Names() []string {
	names := make([]string, 0, len(s.templates))
	for name := range s.templates {
		names = append(names, name)
	}
	return names
}

var builtin = map[string]string{
	ConvertScript: `Convert the following old Postman {{.Phase}} script from the legacy v2.1.0 style to the modern v2.2.0 style.

Make the following changes:
- Replace tests["..."] = ... assertions with pm.test(...) and pm.expect(...).
- Replace responseBody with pm.response.json().
- Replace responseCode.code with pm.response.code.
- Replace postman.setEnvironmentVariable(...) with pm.environment.set(...).

Output only the converted script as plain JavaScript. Do not include markdown, code fences, or commentary.

{{.Fragment}}
`,

	ContinueScript: `A converted Postman {{.Phase}} script was cut off before completion. Continue it.

The original script before conversion was:
{{.Fragment}}

The converted output produced so far is:
{{.Partial}}
{{if .Defects}}
Detected problems with the output so far:
{{range .Defects}}- {{.}}
{{end}}{{end}}
Output only the missing remainder needed to complete the converted script. Do not repeat any text already produced. Do not include markdown, code fences, or commentary.
`,

	FixSyntax: `The following converted Postman script has syntax problems. Correct the syntax only; preserve the logic exactly.

The original script before conversion was:
{{.Fragment}}

The script to fix:
{{.Current}}

Output only the corrected script as plain JavaScript. Do not include markdown, code fences, or commentary.
`,

	RepairCollection: `Update this Postman collection to the v2.2.0 format with proper test scripts (pm.test, pm.expect, pm.response). Retain the v2.1.0 URL in the schema string. Output only valid collection JSON with no extra text, markdown, or formatting.

` + "```json" + `
{{.Document}}
`,
}
