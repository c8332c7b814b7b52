package template

import (
	"fmt"
	"math"
)

// MinBoxSize is the smallest width or height a corner drag can produce
const MinBoxSize = 10.0

// Corner names a box corner for ResizeCorner
type Corner string

const (
	CornerNW Corner = "nw"
	CornerNE Corner = "ne"
	CornerSW Corner = "sw"
	CornerSE Corner = "se"
)

// starterBoxes is the main-applicant box set a new template begins with. The
// right-column fields sit in a strip along the top so they are easy to drag
// into place.
var starterBoxes = []struct {
	name string
	box  Box
}{
	{"nama", Box{X: 47, Y: 86, Width: 466, Height: 15}},
	{"no_mykad", Box{X: 73, Y: 113, Width: 194, Height: 16}},
	{"umur", Box{X: 53, Y: 133, Width: 217, Height: 16}},
	{"jantina", Box{X: 62, Y: 153, Width: 209, Height: 17}},
	{"no_telefon_rumah", Box{X: 104, Y: 174, Width: 167, Height: 13}},
	{"no_telefon_bimbit", Box{X: 100, Y: 194, Width: 167, Height: 14}},
	{"pekerjaan", Box{X: 67, Y: 215, Width: 203, Height: 17}},
	{"pendapatan_kasar", Box{X: 104, Y: 234, Width: 162, Height: 16}},
	{"status_perkahwinan", Box{X: 106, Y: 276, Width: 153, Height: 15}},
	{"tarikh_perkahwinan", Box{X: 104, Y: 304, Width: 155, Height: 20}},
	{"tarikh_cerai_kematian", Box{X: 104, Y: 333, Width: 155, Height: 20}},

	{"alamat_surat", Box{X: 20, Y: 20, Width: 100, Height: 16}},
	{"poskod", Box{X: 130, Y: 20, Width: 60, Height: 16}},
	{"bandar_daerah", Box{X: 200, Y: 20, Width: 80, Height: 16}},
	{"negeri", Box{X: 290, Y: 20, Width: 80, Height: 16}},
	{"nama_bank", Box{X: 380, Y: 20, Width: 120, Height: 20}},
	{"no_akaun_bank", Box{X: 510, Y: 20, Width: 100, Height: 16}},
	{"alamat_emel", Box{X: 620, Y: 20, Width: 120, Height: 16}},
}

// Starter returns the initial template for a page of the given size
func Starter(width, height float64) *Template {
	t := &Template{Fields: make(map[string]Box, len(starterBoxes))}
	for _, sb := range starterBoxes {
		t.Fields[sb.name] = sb.box
		t.Order = append(t.Order, sb.name)
	}
	if width > 0 && height > 0 {
		t.Dimensions = &Dimensions{Width: width, Height: height}
	}
	return t
}

// Contains reports whether the point lies inside the box, edges included
func (b Box) Contains(x, y float64) bool {
	return x >= b.X && x <= b.X+b.Width && y >= b.Y && y <= b.Y+b.Height
}

// Scaled multiplies every coordinate by factor and truncates toward zero, the
// rounding used when converting between page points and display pixels
func (b Box) Scaled(factor float64) Box {
	return Box{
		X:      math.Trunc(b.X * factor),
		Y:      math.Trunc(b.Y * factor),
		Width:  math.Trunc(b.Width * factor),
		Height: math.Trunc(b.Height * factor),
	}
}

// clone copies the template so edits never touch the receiver
func (t *Template) clone() *Template {
	c := &Template{
		Fields: make(map[string]Box, len(t.Fields)),
		Order:  append([]string(nil), t.Names()...),
		Path:   t.Path,
	}
	for name, b := range t.Fields {
		c.Fields[name] = b
	}
	if t.Dimensions != nil {
		d := *t.Dimensions
		c.Dimensions = &d
	}
	return c
}

// WithBox returns a copy with name set to box. New names are appended to the
// field order.
func (t *Template) WithBox(name string, box Box) (*Template, error) {
	if name == "" {
		return nil, fmt.Errorf("field name is required")
	}
	if err := checkName(name); err != nil {
		return nil, err
	}
	if err := validate.Struct(box); err != nil {
		return nil, fmt.Errorf("field %q: %w", name, err)
	}
	c := t.clone()
	if _, ok := c.Fields[name]; !ok {
		c.Order = append(c.Order, name)
	}
	c.Fields[name] = box
	return c, nil
}

// Without returns a copy with name removed
func (t *Template) Without(name string) *Template {
	c := t.clone()
	delete(c.Fields, name)
	order := c.Order[:0]
	for _, n := range c.Order {
		if n != name {
			order = append(order, n)
		}
	}
	c.Order = order
	return c
}

// Move returns a copy with the named box's origin at (x, y)
func (t *Template) Move(name string, x, y float64) (*Template, error) {
	b, ok := t.Fields[name]
	if !ok {
		return nil, fmt.Errorf("unknown field %q", name)
	}
	b.X, b.Y = x, y
	c := t.clone()
	c.Fields[name] = b
	return c, nil
}

// ResizeCorner drags one corner of the named box to (x, y). The opposite
// corner stays put except when a side hits MinBoxSize.
func (t *Template) ResizeCorner(name string, corner Corner, x, y float64) (*Template, error) {
	b, ok := t.Fields[name]
	if !ok {
		return nil, fmt.Errorf("unknown field %q", name)
	}

	switch corner {
	case CornerNW:
		b.Width = math.Max(MinBoxSize, b.Width+(b.X-x))
		b.Height = math.Max(MinBoxSize, b.Height+(b.Y-y))
		b.X, b.Y = x, y
	case CornerNE:
		b.Width = math.Max(MinBoxSize, x-b.X)
		b.Height = math.Max(MinBoxSize, b.Height+(b.Y-y))
		b.Y = y
	case CornerSW:
		b.Width = math.Max(MinBoxSize, b.Width+(b.X-x))
		b.Height = math.Max(MinBoxSize, y-b.Y)
		b.X = x
	case CornerSE:
		b.Width = math.Max(MinBoxSize, x-b.X)
		b.Height = math.Max(MinBoxSize, y-b.Y)
	default:
		return nil, fmt.Errorf("unknown corner %q", corner)
	}

	c := t.clone()
	c.Fields[name] = b
	return c, nil
}

// Scaled returns a copy with every box scaled by factor. Converting a display
// template back to page points is Scaled(1/scale).
func (t *Template) Scaled(factor float64) *Template {
	c := t.clone()
	for name, b := range c.Fields {
		c.Fields[name] = b.Scaled(factor)
	}
	return c
}

// At returns the first field, in template order, whose box contains the point
func (t *Template) At(x, y float64) (string, bool) {
	for _, name := range t.Names() {
		if t.Fields[name].Contains(x, y) {
			return name, true
		}
	}
	return "", false
}
