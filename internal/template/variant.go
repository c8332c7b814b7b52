package template

import (
	"os"
	"path/filepath"

	strerrors "github.com/a3tai/str-extractor/internal/errors"
)

// Default variant file names, looked up next to the bootstrap template
const (
	WithSpouseFile    = "template_with_pasangan.json"
	WithoutSpouseFile = "template_without_pasangan.json"
)

// Variant is one of the two field sets a form can need
type Variant int

const (
	WithoutSpouse Variant = iota
	WithSpouse
)

func (v Variant) String() string {
	if v == WithSpouse {
		return "with_spouse"
	}
	return "without_spouse"
}

// VariantSet names the bootstrap template used for stage-1 selection and the
// two variant files stage 2 loads from
type VariantSet struct {
	Bootstrap     string
	WithSpouse    string
	WithoutSpouse string
}

// NewVariantSet resolves variant paths. An empty path defaults to the
// standard file name in the bootstrap template's directory, and to the
// bootstrap template itself when that file does not exist. Paths given
// explicitly are kept as is, so a missing one fails Check.
func NewVariantSet(bootstrap, withSpouse, withoutSpouse string) VariantSet {
	dir := filepath.Dir(bootstrap)
	resolve := func(explicit, name string) string {
		if explicit != "" {
			return explicit
		}
		candidate := filepath.Join(dir, name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
		return bootstrap
	}
	return VariantSet{
		Bootstrap:     bootstrap,
		WithSpouse:    resolve(withSpouse, WithSpouseFile),
		WithoutSpouse: resolve(withoutSpouse, WithoutSpouseFile),
	}
}

// Path returns the file for v
func (s VariantSet) Path(v Variant) string {
	if v == WithSpouse {
		return s.WithSpouse
	}
	return s.WithoutSpouse
}

// Load reads the template for v. Each call returns a freshly parsed Template
// so fields from one variant never leak into the next document.
func (s VariantSet) Load(v Variant) (*Template, error) {
	return Load(s.Path(v))
}

// Check verifies every template in the set exists and parses
func (s VariantSet) Check() error {
	seen := make(map[string]bool, 3)
	for _, p := range []string{s.Bootstrap, s.WithSpouse, s.WithoutSpouse} {
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		if _, err := os.Stat(p); err != nil {
			return strerrors.New(strerrors.KindTemplateNotFound, "check templates", err).WithPath(p)
		}
		if _, err := Load(p); err != nil {
			return err
		}
	}
	return nil
}
