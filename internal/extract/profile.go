package extract

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// Section describes how to find one form section's header and which template
// fields move with it
type Section struct {
	Key         string   `toml:"key"`
	Header      string   `toml:"header"`       // template field holding the header box
	Prefix      string   `toml:"prefix"`       // field-name prefix; "" is the main applicant section
	Keywords    []string `toml:"keywords"`     // any one of these identifies a header word
	SearchRange float64  `toml:"search_range"` // vertical window around the template y
	XMargin     float64  `toml:"x_margin"`     // horizontal slack on both sides of the header box

	// Pair requires a word matching Keywords[0] and one matching Keywords[1]
	// on the same line (within PairTolerance). Anchor picks which of the two
	// supplies the header y.
	Pair          bool    `toml:"pair"`
	PairTolerance float64 `toml:"pair_tolerance"`
	Anchor        string  `toml:"anchor"`
}

// Label is one field of a labeled section: the output key and the printed
// label that precedes its value
type Label struct {
	Key   string `toml:"key"`
	Label string `toml:"label"`
}

// LabeledSection is a block whose values are found next to printed labels
// instead of inside template boxes
type LabeledSection struct {
	Key             string   `toml:"key"`
	Keywords        []string `toml:"keywords"`         // two header tokens, e.g. MAKLUMAT + WARIS
	HeaderTolerance float64  `toml:"header_tolerance"` // max top difference of the two header tokens
	LineTolerance   float64  `toml:"line_tolerance"`   // max top difference between label and value
	UntilKeyword    string   `toml:"until_keyword"`    // next-header token bounding the region
	UntilAny        []string `toml:"until_any"`        // and one of these alongside it
	SkipLabelTokens bool     `toml:"skip_label_tokens"`
	Fields          []Label  `toml:"fields"`
}

// ToleranceTable holds the vertical slack used around boxes
type ToleranceTable struct {
	Default   float64            `toml:"default"`
	Overrides map[string]float64 `toml:"overrides"`
}

// For returns the tolerance for a field name
func (t ToleranceTable) For(field string) float64 {
	if v, ok := t.Overrides[field]; ok {
		return v
	}
	return t.Default
}

// SelectorRule picks the template variant from one field's text
type SelectorRule struct {
	Field  string `toml:"field"`
	Marker string `toml:"marker"`
}

// Profile is the declarative description of a form family
type Profile struct {
	Sections  []Section        `toml:"sections"`
	Tolerance ToleranceTable   `toml:"tolerance"`
	Selector  SelectorRule     `toml:"selector"`
	Labeled   []LabeledSection `toml:"labeled"`
}

// DefaultProfile returns the profile for the STR application form
func DefaultProfile() *Profile {
	return &Profile{
		Sections: []Section{
			{Key: "pemohon", Header: "maklumat_pemohon_header", Prefix: "", Keywords: []string{"MAKLUMAT", "PEMOHON"}, SearchRange: 50, XMargin: 20},
			{Key: "pasangan", Header: "maklumat_pasangan_header", Prefix: "pasangan_", Keywords: []string{"MAKLUMAT", "PASANGAN"}, SearchRange: 50, XMargin: 20},
			{Key: "anak", Header: "maklumat_anak_header", Prefix: "anak_", Keywords: []string{"MAKLUMAT", "ANAK"}, SearchRange: 50, XMargin: 20},
			{Key: "waris", Header: "maklumat_waris_header", Prefix: "waris_", Keywords: []string{"MAKLUMAT", "WARIS"}, SearchRange: 200, XMargin: 20,
				Pair: true, PairTolerance: 5, Anchor: "WARIS"},
		},
		Tolerance: ToleranceTable{
			Default:   5,
			Overrides: map[string]float64{"jantina": 3},
		},
		Selector: SelectorRule{Field: "status_perkahwinan", Marker: "KAHWIN"},
		Labeled: []LabeledSection{
			{
				Key:             "pasangan",
				Keywords:        []string{"MAKLUMAT", "PASANGAN"},
				HeaderTolerance: 5,
				LineTolerance:   10,
				UntilKeyword:    "MAKLUMAT",
				UntilAny:        []string{"ANAK", "WARIS"},
				SkipLabelTokens: true,
				Fields: []Label{
					{"nama", "Nama"},
					{"jenis_pengenalan", "Jenis Pengenalan"},
					{"no_mykad", "MyKAD"},
					{"negara_asal", "Negara Asal"},
					{"no_telefon", "No. Telefon"},
					{"jantina", "Jantina"},
					{"pekerjaan", "Pekerjaan"},
					{"nama_bank", "Nama Bank Pasangan"},
					{"no_akaun_bank", "No Akaun Bank Pasangan"},
				},
			},
			{
				Key:             "waris",
				Keywords:        []string{"MAKLUMAT", "WARIS"},
				HeaderTolerance: 5,
				LineTolerance:   10,
				Fields: []Label{
					{"hubungan", "Hubungan"},
					{"no_pengenalan", "No Pengenalan"},
					{"nama", "Nama"},
					{"no_telefon", "No Telefon"},
				},
			},
		},
	}
}

// LoadProfile decodes a TOML profile. Keys absent from the file keep their
// DefaultProfile values; arrays present in the file replace the defaults.
func LoadProfile(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile %s: %w", path, err)
	}

	var present map[string]interface{}
	if err := toml.Unmarshal(data, &present); err != nil {
		return nil, fmt.Errorf("failed to parse profile %s: %w", path, err)
	}

	p := DefaultProfile()
	if _, ok := present["sections"]; ok {
		p.Sections = nil
	}
	if _, ok := present["labeled"]; ok {
		p.Labeled = nil
	}
	if err := toml.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("failed to parse profile %s: %w", path, err)
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("invalid profile %s: %w", path, err)
	}
	return p, nil
}

// Validate checks the profile is usable by the detectors
func (p *Profile) Validate() error {
	seen := make(map[string]bool, len(p.Sections))
	for _, s := range p.Sections {
		if s.Key == "" {
			return fmt.Errorf("section without key")
		}
		if seen[s.Key] {
			return fmt.Errorf("duplicate section %q", s.Key)
		}
		seen[s.Key] = true
		if len(s.Keywords) == 0 {
			return fmt.Errorf("section %q has no keywords", s.Key)
		}
		if s.Pair && len(s.Keywords) != 2 {
			return fmt.Errorf("paired section %q needs exactly two keywords", s.Key)
		}
		if s.SearchRange < 0 || s.XMargin < 0 {
			return fmt.Errorf("section %q has a negative window", s.Key)
		}
	}
	for _, l := range p.Labeled {
		if len(l.Keywords) != 2 {
			return fmt.Errorf("labeled section %q needs exactly two keywords", l.Key)
		}
	}
	if p.Tolerance.Default < 0 {
		return fmt.Errorf("negative default tolerance")
	}
	if p.Selector.Field == "" || p.Selector.Marker == "" {
		return fmt.Errorf("selector needs a field and a marker")
	}
	return nil
}

// SectionFor returns the section whose prefix starts field, the longest
// prefix winning. Fields without a matching prefix belong to the section with
// the empty prefix.
func (p *Profile) SectionFor(field string) (Section, bool) {
	sections := make([]Section, len(p.Sections))
	copy(sections, p.Sections)
	sort.SliceStable(sections, func(i, j int) bool {
		return len(sections[i].Prefix) > len(sections[j].Prefix)
	})
	for _, s := range sections {
		if strings.HasPrefix(field, s.Prefix) {
			return s, true
		}
	}
	return Section{}, false
}

// LabeledSection returns the labeled section with the given key
func (p *Profile) LabeledSection(key string) (LabeledSection, bool) {
	for _, l := range p.Labeled {
		if l.Key == key {
			return l, true
		}
	}
	return LabeledSection{}, false
}
