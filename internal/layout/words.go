package layout

import (
	"math"
	"sort"
	"strings"
	"unicode"
)

const (
	// LineTolerance is the vertical distance within which glyphs share a line
	LineTolerance = 3.0
	// WordGap is the horizontal gap that starts a new word
	WordGap = 3.0
)

// BuildWords groups glyphs into words. Glyphs are bucketed into lines, sorted
// left to right, and split on whitespace or on gaps wider than WordGap. The
// result is in reading order: top to bottom, then left to right.
func BuildWords(glyphs []Glyph) []Word {
	if len(glyphs) == 0 {
		return nil
	}

	var words []Word
	for _, line := range groupGlyphLines(glyphs) {
		sort.SliceStable(line, func(i, j int) bool {
			return line[i].X < line[j].X
		})

		var current *Word
		var text strings.Builder
		flush := func() {
			if current == nil {
				return
			}
			current.Text = text.String()
			if strings.TrimSpace(current.Text) != "" {
				words = append(words, *current)
			}
			current = nil
			text.Reset()
		}

		for _, g := range line {
			if isBlank(g.Text) {
				flush()
				continue
			}

			if current != nil && g.X-current.X1 > WordGap {
				flush()
			}

			// Runs may carry embedded spaces; split them, spreading the run
			// width evenly over its characters
			runes := []rune(g.Text)
			charWidth := g.Width / float64(len(runes))
			start := 0
			for i := 0; i <= len(runes); i++ {
				if i < len(runes) && !unicode.IsSpace(runes[i]) {
					continue
				}
				if i > start {
					x0 := g.X + float64(start)*charWidth
					x1 := g.X + float64(i)*charWidth
					if current == nil {
						current = &Word{X0: x0, X1: x1, Top: g.Top, Bottom: g.Bottom}
					}
					text.WriteString(string(runes[start:i]))
					current.X1 = math.Max(current.X1, x1)
					current.Top = math.Min(current.Top, g.Top)
					current.Bottom = math.Max(current.Bottom, g.Bottom)
				}
				if i < len(runes) {
					flush()
				}
				start = i + 1
			}
		}
		flush()
	}

	SortReadingOrder(words)
	return words
}

// SortReadingOrder sorts words by top, then x0
func SortReadingOrder(words []Word) {
	sort.SliceStable(words, func(i, j int) bool {
		if words[i].Top != words[j].Top {
			return words[i].Top < words[j].Top
		}
		return words[i].X0 < words[j].X0
	})
}

// GroupLines buckets words whose tops lie within LineTolerance of the
// line's first word. Lines come back ordered top to bottom, words left to right.
func GroupLines(words []Word) [][]Word {
	sorted := make([]Word, len(words))
	copy(sorted, words)
	SortReadingOrder(sorted)

	var lines [][]Word
	for _, w := range sorted {
		n := len(lines)
		if n > 0 && math.Abs(lines[n-1][0].Top-w.Top) <= LineTolerance {
			lines[n-1] = append(lines[n-1], w)
			continue
		}
		lines = append(lines, []Word{w})
	}

	for _, line := range lines {
		sort.SliceStable(line, func(i, j int) bool {
			return line[i].X0 < line[j].X0
		})
	}
	return lines
}

func groupGlyphLines(glyphs []Glyph) [][]Glyph {
	sorted := make([]Glyph, len(glyphs))
	copy(sorted, glyphs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Top < sorted[j].Top
	})

	var lines [][]Glyph
	for _, g := range sorted {
		n := len(lines)
		if n > 0 && math.Abs(lines[n-1][0].Top-g.Top) <= LineTolerance {
			lines[n-1] = append(lines[n-1], g)
			continue
		}
		lines = append(lines, []Glyph{g})
	}
	return lines
}

func isBlank(s string) bool {
	return strings.IndexFunc(s, func(r rune) bool { return !unicode.IsSpace(r) }) < 0
}
