package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func glyph(text string, x, top float64) Glyph {
	w := 6.0 * float64(len([]rune(text)))
	return Glyph{Text: text, X: x, Width: w, Top: top, Bottom: top + 10, Size: 10}
}

func word(text string, x0, top float64) Word {
	return Word{Text: text, X0: x0, X1: x0 + 6*float64(len(text)), Top: top, Bottom: top + 10}
}

func texts(words []Word) []string {
	out := make([]string, len(words))
	for i, w := range words {
		out[i] = w.Text
	}
	return out
}

func TestBuildWords_MergesAdjacentGlyphs(t *testing.T) {
	glyphs := []Glyph{
		glyph("A", 100, 50),
		glyph("L", 106, 50),
		glyph("I", 112, 50.5),
		glyph(" ", 118, 50),
		glyph("B", 124, 50),
		glyph("I", 130, 50),
		glyph("N", 136, 50),
	}

	words := BuildWords(glyphs)
	require.Len(t, words, 2)
	assert.Equal(t, "ALI", words[0].Text)
	assert.Equal(t, 100.0, words[0].X0)
	assert.Equal(t, 118.0, words[0].X1)
	assert.Equal(t, "BIN", words[1].Text)
}

func TestBuildWords_SplitsOnGap(t *testing.T) {
	glyphs := []Glyph{
		glyph("NAMA", 20, 80),
		glyph("ALI", 120, 80),
	}

	words := BuildWords(glyphs)
	assert.Equal(t, []string{"NAMA", "ALI"}, texts(words))
}

func TestBuildWords_SplitsRunsWithSpaces(t *testing.T) {
	words := BuildWords([]Glyph{glyph("MAKLUMAT WARIS", 40, 500)})

	require.Len(t, words, 2)
	assert.Equal(t, "MAKLUMAT", words[0].Text)
	assert.Equal(t, "WARIS", words[1].Text)
	assert.InDelta(t, 40+9*6.0, words[1].X0, 0.001)
}

func TestBuildWords_ReadingOrder(t *testing.T) {
	glyphs := []Glyph{
		glyph("second", 10, 200),
		glyph("right", 300, 100),
		glyph("left", 10, 100),
	}

	assert.Equal(t, []string{"left", "right", "second"}, texts(BuildWords(glyphs)))
	assert.Nil(t, BuildWords(nil))
}

func TestGroupLines(t *testing.T) {
	words := []Word{
		word("b", 50, 101),
		word("a", 10, 100),
		word("c", 10, 120),
	}

	lines := GroupLines(words)
	require.Len(t, lines, 2)
	assert.Equal(t, []string{"a", "b"}, texts(lines[0]))
	assert.Equal(t, []string{"c"}, texts(lines[1]))
	// input untouched
	assert.Equal(t, "b", words[0].Text)
}

func TestDetectTables(t *testing.T) {
	words := []Word{
		word("Title", 10, 10),

		word("Nama", 20, 400),
		word("MyKad", 200, 400),
		word("Umur", 320, 400),
		word("Status", 400, 400),

		word("Ali", 20, 420),
		word("Bin", 42, 420),
		word("Abu", 64, 420),
		word("990101-01-1234", 195, 420),
		word("12", 322, 420),
		word("Anak", 400, 420),

		word("Siti", 20, 440),
		word("7", 322, 440),

		word("MAKLUMAT WARIS", 20, 520),
	}

	tables := DetectTables(words, DefaultTableConfig())
	require.Len(t, tables, 1)

	table := tables[0]
	require.Len(t, table, 3)
	assert.Equal(t, []string{"Nama", "MyKad", "Umur", "Status"}, table[0])
	assert.Equal(t, []string{"Ali Bin Abu", "990101-01-1234", "12", "Anak"}, table[1])
	assert.Equal(t, []string{"Siti", "", "7", ""}, table[2])
}

func TestDetectTables_RowGapEndsTable(t *testing.T) {
	words := []Word{
		word("A", 20, 100), word("B", 200, 100),
		word("1", 20, 115), word("2", 200, 115),
		word("C", 20, 300), word("D", 200, 300),
	}

	tables := DetectTables(words, DefaultTableConfig())
	require.Len(t, tables, 1)
	assert.Len(t, tables[0], 2)
}

func TestDetectTables_LabelLineAboveHeader(t *testing.T) {
	words := []Word{
		word("MAKLUMAT", 20, 360), word("ANAK", 80, 360),

		word("Bilangan", 20, 380), word("Anak", 74, 380), word(":", 200, 380), word("1", 220, 380),

		word("Nama", 20, 400),
		word("MyKad/MyKid", 200, 400),
		word("Umur", 320, 400),
		word("Hubungan", 400, 400),

		word("ALI", 20, 420),
		word("990101-01-1234", 195, 420),
		word("12", 322, 420),
		word("ANAK", 400, 420),
	}

	tables := DetectTables(words, DefaultTableConfig())
	require.Len(t, tables, 1)
	require.Len(t, tables[0], 2)
	assert.Equal(t, []string{"Nama", "MyKad/MyKid", "Umur", "Hubungan"}, tables[0][0])
	assert.Equal(t, []string{"ALI", "990101-01-1234", "12", "ANAK"}, tables[0][1])
}

func TestFold(t *testing.T) {
	assert.Equal(t, "MAKLUMAT", Fold("Maklumat"))
	assert.Equal(t, "FI", Fold("ﬁ"))
	assert.True(t, ContainsFold("Berkahwin", "KAHWIN"))
	assert.False(t, ContainsFold("Bujang", "kahwin"))
}
