package extract

import (
	"math"
	"strings"

	"github.com/phuslu/log"

	strerrors "github.com/a3tai/str-extractor/internal/errors"
	"github.com/a3tai/str-extractor/internal/layout"
	"github.com/a3tai/str-extractor/internal/template"
)

// Offsets maps section keys to the vertical shift applied to their fields
type Offsets map[string]int

// For returns the offset for a section key, zero when unknown
func (o Offsets) For(key string) int {
	return o[key]
}

// DetectOffset finds the section header near its template position and
// returns round(header_top - template_y). It returns 0 and false when no
// header candidate lies inside the search windows. Words are not modified.
func DetectOffset(words []layout.Word, section Section, box template.Box) (int, bool) {
	xMin := box.X - section.XMargin
	xMax := box.X + box.Width + section.XMargin

	inWindow := func(w layout.Word) bool {
		return w.X0 >= xMin && w.X0 <= xMax && math.Abs(w.Top-box.Y) <= section.SearchRange
	}

	if section.Pair {
		y, ok := findPair(words, section, inWindow)
		if !ok {
			return 0, false
		}
		return int(math.Round(y - box.Y)), true
	}

	for _, w := range words {
		if !inWindow(w) {
			continue
		}
		text := layout.Fold(w.Text)
		for _, kw := range section.Keywords {
			if containsFolded(text, kw) {
				return int(math.Round(w.Top - box.Y)), true
			}
		}
	}
	return 0, false
}

// findPair returns the anchor y of the first (first keyword, second keyword)
// pair of in-window words whose tops differ by at most PairTolerance. A word
// containing both keywords counts only as the first.
func findPair(words []layout.Word, section Section, inWindow func(layout.Word) bool) (float64, bool) {
	first, second := section.Keywords[0], section.Keywords[1]

	var firsts, seconds []layout.Word
	for _, w := range words {
		if !inWindow(w) {
			continue
		}
		text := layout.Fold(w.Text)
		switch {
		case containsFolded(text, first):
			firsts = append(firsts, w)
		case containsFolded(text, second):
			seconds = append(seconds, w)
		}
	}

	anchorSecond := section.Anchor != "" && layout.Fold(section.Anchor) == layout.Fold(second)
	for _, a := range firsts {
		for _, b := range seconds {
			if math.Abs(a.Top-b.Top) <= section.PairTolerance {
				if anchorSecond {
					return b.Top, true
				}
				return a.Top, true
			}
		}
	}
	return 0, false
}

// DetectOffsets runs DetectOffset for every profile section whose header box
// exists in tmpl. Sections without a header box, or whose header is not found,
// get a zero offset.
func DetectOffsets(words []layout.Word, tmpl *template.Template, profile *Profile) Offsets {
	offsets := make(Offsets, len(profile.Sections))
	for _, s := range profile.Sections {
		box, ok := tmpl.Box(s.Header)
		if !ok {
			offsets[s.Key] = 0
			continue
		}
		offset, found := DetectOffset(words, s, box)
		offsets[s.Key] = offset
		if !found {
			log.Debug().
				Str("section", s.Key).
				Str("kind", strerrors.KindSectionHeaderNotFound.String()).
				Msg("Section header not found, using template position")
			continue
		}
		log.Info().
			Str("section", s.Key).
			Float64("template_y", box.Y).
			Int("offset", offset).
			Msg("Section offset detected")
	}
	return offsets
}

// containsFolded reports whether already-folded text contains keyword
func containsFolded(text, keyword string) bool {
	return keyword != "" && strings.Contains(text, layout.Fold(keyword))
}
