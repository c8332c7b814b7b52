package layout

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Word is a run of glyphs on one line, in top-origin page coordinates (y grows
// downward). Words are read-only input to the extraction heuristics.
type Word struct {
	Text   string  `json:"text"`
	X0     float64 `json:"x0"`
	X1     float64 `json:"x1"`
	Top    float64 `json:"top"`
	Bottom float64 `json:"bottom"`
}

// Glyph is one positioned text run as reported by the PDF library, already
// converted to top-origin coordinates
type Glyph struct {
	Text   string
	X      float64
	Width  float64
	Top    float64
	Bottom float64
	Size   float64
}

// Table is a detected table: rows of cell strings, "" standing for an empty cell
type Table [][]string

// Page holds everything the extractor needs from one PDF page
type Page struct {
	Number int     `json:"number"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Words  []Word  `json:"words"`
	Tables []Table `json:"tables,omitempty"`
}

// Fold normalises s for keyword comparison: compatibility-decomposed
// characters are recombined (NFKC) and the result upper-cased. A Caser keeps
// state, so one is built per call.
func Fold(s string) string {
	return cases.Upper(language.Und).String(norm.NFKC.String(s))
}

// ContainsFold reports whether s contains substr, ignoring case
func ContainsFold(s, substr string) bool {
	return strings.Contains(Fold(s), Fold(substr))
}
