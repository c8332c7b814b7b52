package extract

import (
	"math"
	"strings"

	"github.com/a3tai/str-extractor/internal/layout"
)

// ExtractLabeledSection reads a block whose values follow printed labels.
// The region runs from the bottom of the section header down to the next
// section header (when UntilKeyword is set) or the page bottom. Each label is
// searched for independently; its value is every word to the right of it on
// the same line, colons dropped. A missing header gives an empty map; a
// missing label gives "".
func ExtractLabeledSection(words []layout.Word, section LabeledSection, pageHeight float64) map[string]string {
	result := map[string]string{}
	if len(section.Keywords) != 2 {
		return result
	}

	var sorted []layout.Word
	for _, line := range layout.GroupLines(words) {
		sorted = append(sorted, line...)
	}

	_, headerBottom, ok := findHeaderLine(sorted, section.Keywords[0], section.Keywords[1:], section.HeaderTolerance)
	if !ok {
		return result
	}

	upper := pageHeight
	if upper <= 0 {
		upper = math.Inf(1)
	}
	if section.UntilKeyword != "" {
		var below []layout.Word
		for _, w := range sorted {
			if w.Top > headerBottom {
				below = append(below, w)
			}
		}
		if nextTop, _, found := findHeaderLine(below, section.UntilKeyword, section.UntilAny, section.HeaderTolerance); found {
			upper = nextTop
		}
	}

	var region []layout.Word
	for _, w := range sorted {
		if w.Top >= headerBottom && w.Bottom <= upper {
			region = append(region, w)
		}
	}

	for _, f := range section.Fields {
		result[f.Key] = labelValue(region, f.Label, section.LineTolerance, section.SkipLabelTokens)
	}
	return result
}

// findHeaderLine locates a header made of a word containing first and a word
// containing one of others. A single word containing both matches on its
// own; otherwise the two words must have tops less than tolerance apart. It
// returns the line's top and the lower of the two bottoms.
func findHeaderLine(words []layout.Word, first string, others []string, tolerance float64) (float64, float64, bool) {
	containsOther := func(text string) bool {
		for _, o := range others {
			if containsFolded(text, o) {
				return true
			}
		}
		return false
	}

	for _, w := range words {
		text := layout.Fold(w.Text)
		if containsFolded(text, first) && containsOther(text) {
			return w.Top, w.Bottom, true
		}
		if !containsOther(text) {
			continue
		}
		for _, o := range words {
			if math.Abs(o.Top-w.Top) < tolerance && containsFolded(layout.Fold(o.Text), first) {
				return math.Min(w.Top, o.Top), math.Max(w.Bottom, o.Bottom), true
			}
		}
	}
	return 0, 0, false
}

// labelValue finds label in region and returns the words to its right on the
// same line. Multi-word labels match consecutive words on one line.
func labelValue(region []layout.Word, label string, lineTolerance float64, skipLabelTokens bool) string {
	tokens := strings.Fields(layout.Fold(label))
	if len(tokens) == 0 {
		return ""
	}

	start, end := -1, -1
	for i := range region {
		if matchLabelAt(region, i, tokens) {
			start, end = i, i+len(tokens)-1
			break
		}
	}
	if start < 0 {
		return ""
	}

	labelTop := region[start].Top
	labelRight := region[end].X1
	foldedLabel := layout.Fold(label)

	var parts []string
	for _, w := range region {
		if math.Abs(w.Top-labelTop) >= lineTolerance || w.X0 <= labelRight {
			continue
		}
		text := strings.TrimSpace(w.Text)
		if text == "" || text == ":" {
			continue
		}
		if skipLabelTokens && strings.Contains(foldedLabel, layout.Fold(text)) {
			continue
		}
		parts = append(parts, text)
	}
	return strings.TrimSpace(strings.Join(parts, " "))
}

func matchLabelAt(region []layout.Word, i int, tokens []string) bool {
	if i+len(tokens) > len(region) {
		return false
	}
	for j, tok := range tokens {
		w := region[i+j]
		if math.Abs(w.Top-region[i].Top) > layout.LineTolerance {
			return false
		}
		if !strings.Contains(layout.Fold(w.Text), tok) {
			return false
		}
	}
	return true
}
