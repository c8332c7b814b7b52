package extract

import (
	"sort"
	"strings"

	"github.com/a3tai/str-extractor/internal/layout"
	"github.com/a3tai/str-extractor/internal/template"
)

// trailingPunct is stripped from the end of every extracted value
const trailingPunct = ":;,."

// ExtractBox joins the words that fall inside box after shifting it down by
// offset. A word is inside when its x0 lies in [x, x+width] and its top lies
// in [y+offset-tolerance, y+offset+height+tolerance]. Matches are joined in
// reading order with single spaces; surrounding whitespace and trailing
// ":;,." are removed. No match gives "".
func ExtractBox(words []layout.Word, box template.Box, offset int, tolerance float64) string {
	y := box.Y + float64(offset)
	top, bottom := y-tolerance, y+box.Height+tolerance

	var matched []layout.Word
	for _, w := range words {
		if w.X0 >= box.X && w.X0 <= box.X+box.Width && w.Top >= top && w.Top <= bottom {
			matched = append(matched, w)
		}
	}
	if len(matched) == 0 {
		return ""
	}

	sort.SliceStable(matched, func(i, j int) bool {
		if matched[i].Top != matched[j].Top {
			return matched[i].Top < matched[j].Top
		}
		return matched[i].X0 < matched[j].X0
	})

	parts := make([]string, len(matched))
	for i, w := range matched {
		parts[i] = w.Text
	}
	return cleanValue(strings.Join(parts, " "))
}

// cleanValue collapses whitespace runs and strips trailing punctuation
func cleanValue(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	return strings.TrimRightFunc(s, isPunctOrSpace)
}

func isPunctOrSpace(r rune) bool {
	return r == ' ' || strings.ContainsRune(trailingPunct, r)
}
