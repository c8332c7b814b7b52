package template

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	strerrors "github.com/a3tai/str-extractor/internal/errors"
)

const (
	// HeaderSuffix marks template fields that anchor sections rather than hold values
	HeaderSuffix = "_header"

	// DimensionTolerance is the allowed difference, in points, between the
	// template's recorded page size and the actual page
	DimensionTolerance = 10.0
)

// Box is an axis-aligned field rectangle in page points, y growing downward
type Box struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width" validate:"gt=0"`
	Height float64 `json:"height" validate:"gt=0"`
}

// Dimensions is the page size a template was drawn against
type Dimensions struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Template maps field names to boxes. A Template is never modified after it is
// built; editing operations return a new value.
type Template struct {
	Fields     map[string]Box
	Order      []string
	Dimensions *Dimensions
	Path       string
}

// file is the on-disk shape. Fields are decoded lazily so key order and key
// presence can be inspected.
type file struct {
	Fields        json.RawMessage `json:"fields"`
	PDFDimensions *Dimensions     `json:"pdf_dimensions,omitempty"`
}

var validate = validator.New()

// reservedNames are record keys the extractor writes itself; a template field
// with one of these names would be overwritten in the output
var reservedNames = map[string]bool{
	"anak":         true,
	"pasangan":     true,
	"waris":        true,
	"_source_file": true,
}

// checkName rejects field names that collide with reserved record keys
func checkName(name string) error {
	if reservedNames[name] {
		return fmt.Errorf("field name %q is reserved", name)
	}
	return nil
}

// Load reads a template file. A missing file is TEMPLATE_NOT_FOUND; invalid
// JSON, a missing "fields" key, a field lacking x/y/width/height, or a box with
// a non-positive size is TEMPLATE_MALFORMED.
func Load(path string) (*Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		// unreadable counts as absent
		return nil, strerrors.New(strerrors.KindTemplateNotFound, "load template", err).WithPath(path)
	}

	tmpl, err := Parse(data)
	if err != nil {
		return nil, strerrors.New(strerrors.KindTemplateMalformed, "parse template", err).WithPath(path)
	}
	tmpl.Path = path
	return tmpl, nil
}

// Parse decodes template JSON
func Parse(data []byte) (*Template, error) {
	var f file
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	if len(f.Fields) == 0 || string(f.Fields) == "null" {
		return nil, fmt.Errorf("missing required key %q", "fields")
	}

	order, err := objectKeys(f.Fields)
	if err != nil {
		return nil, fmt.Errorf("fields: %w", err)
	}

	var raw map[string]map[string]json.RawMessage
	if err := json.Unmarshal(f.Fields, &raw); err != nil {
		return nil, fmt.Errorf("fields: %w", err)
	}

	fields := make(map[string]Box, len(raw))
	for _, name := range order {
		if err := checkName(name); err != nil {
			return nil, err
		}
		keys := raw[name]
		for _, k := range []string{"x", "y", "width", "height"} {
			if _, ok := keys[k]; !ok {
				return nil, fmt.Errorf("field %q is missing %q", name, k)
			}
		}

		var box Box
		buf, _ := json.Marshal(keys)
		if err := json.Unmarshal(buf, &box); err != nil {
			return nil, fmt.Errorf("field %q: %w", name, err)
		}
		if err := validate.Struct(box); err != nil {
			return nil, fmt.Errorf("field %q: %w", name, err)
		}
		fields[name] = box
	}

	return &Template{
		Fields:     fields,
		Order:      order,
		Dimensions: f.PDFDimensions,
	}, nil
}

// objectKeys returns the keys of a JSON object in document order
func objectKeys(data json.RawMessage) ([]string, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("expected an object")
	}

	var keys []string
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected token %v", tok)
		}
		keys = append(keys, key)

		var skip json.RawMessage
		if err := dec.Decode(&skip); err != nil {
			return nil, err
		}
	}
	return keys, nil
}

// Save writes the template as indented JSON with fields in template order
func (t *Template) Save(path string) error {
	data, err := t.MarshalJSON()
	if err != nil {
		return err
	}
	var out bytes.Buffer
	if err := json.Indent(&out, data, "", "  "); err != nil {
		return fmt.Errorf("failed to format template: %w", err)
	}
	out.WriteByte('\n')
	if err := os.WriteFile(path, out.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write template %s: %w", path, err)
	}
	return nil
}

// MarshalJSON encodes the template in its file format, keeping field order
func (t *Template) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	buf.WriteString(`{"fields":{`)
	for i, name := range t.Names() {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := enc.Encode(name); err != nil {
			return nil, err
		}
		buf.Truncate(buf.Len() - 1)
		buf.WriteByte(':')
		if err := enc.Encode(t.Fields[name]); err != nil {
			return nil, err
		}
		buf.Truncate(buf.Len() - 1)
	}
	buf.WriteByte('}')

	if t.Dimensions != nil {
		buf.WriteString(`,"pdf_dimensions":`)
		if err := enc.Encode(t.Dimensions); err != nil {
			return nil, err
		}
		buf.Truncate(buf.Len() - 1)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Names returns field names in template order. Names missing from Order (for
// templates built in code) follow in sorted order.
func (t *Template) Names() []string {
	seen := make(map[string]bool, len(t.Order))
	names := make([]string, 0, len(t.Fields))
	for _, name := range t.Order {
		if _, ok := t.Fields[name]; ok && !seen[name] {
			names = append(names, name)
			seen[name] = true
		}
	}
	var rest []string
	for name := range t.Fields {
		if !seen[name] {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	return append(names, rest...)
}

// Box returns the named box
func (t *Template) Box(name string) (Box, bool) {
	b, ok := t.Fields[name]
	return b, ok
}

// IsHeader reports whether name is a section anchor rather than a value field
func IsHeader(name string) bool {
	return strings.HasSuffix(name, HeaderSuffix)
}

// CheckDimensions reports whether the page size matches the recorded template
// size within DimensionTolerance on both axes. Templates without recorded
// dimensions always match.
func (t *Template) CheckDimensions(width, height float64) bool {
	if t.Dimensions == nil || t.Dimensions.Width == 0 || t.Dimensions.Height == 0 {
		return true
	}
	return math.Abs(width-t.Dimensions.Width) <= DimensionTolerance &&
		math.Abs(height-t.Dimensions.Height) <= DimensionTolerance
}
