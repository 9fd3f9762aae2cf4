// Package collection models a test collection as a decoded JSON tree
// and implements the script-locating tree walk over it.
package collection

import (
	"encoding/json"

	"github.com/tidwall/gjson"

	"github.com/apimorph/pmconv/internal/domain"
)

// Document is one collection under conversion. The walker owns the
// tree for the duration of processing and mutates it in place.
type Document struct {
	Name string // source file name, used for reporting
	Root map[string]any
}

// HasItems is a cheap raw-byte probe for the top-level "item" marker
// that identifies a convertible collection, run before full decoding.
func HasItems(data []byte) bool {
	return gjson.GetBytes(data, "item").Exists()
}

// Decode parses raw JSON into a Document. The top level must be an
// object.
func Decode(name string, data []byte) (*Document, error) {
	var root any
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, domain.NewError("parse", name, 0, "file is not valid JSON", err)
	}
	m, ok := root.(map[string]any)
	if !ok {
		return nil, domain.NewError("parse", name, 0, "top-level JSON value is not an object", nil)
	}
	return &Document{Name: name, Root: m}, nil
}

// Encode serializes the document as two-space-indented JSON.
func (d *Document) Encode() ([]byte, error) {
	data, err := json.MarshalIndent(d.Root, "", "  ")
	if err != nil {
		return nil, domain.NewError("write", d.Name, 0, "failed to serialize document", err)
	}
	return data, nil
}

// SchemaID returns the collection's info.schema identifier, or "".
func (d *Document) SchemaID() string {
	info, ok := d.Root["info"].(map[string]any)
	if !ok {
		return ""
	}
	s, _ := info["schema"].(string)
	return s
}

// SetSchemaID sets info.schema, creating the info object if missing.
func (d *Document) SetSchemaID(url string) {
	info, ok := d.Root["info"].(map[string]any)
	if !ok {
		info = map[string]any{}
		d.Root["info"] = info
	}
	info["schema"] = url
}
