package overlay

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-pdf/fpdf"
	"github.com/phuslu/log"

	"github.com/a3tai/str-extractor/internal/extract"
	"github.com/a3tai/str-extractor/internal/layout"
	"github.com/a3tai/str-extractor/internal/template"
)

// Suffix is appended to the source file's stem to name the overlay
const Suffix = "_overlay.pdf"

const (
	labelSize = 6.0
	font      = "Helvetica"
)

type rgb struct{ r, g, b int }

var (
	wordColor   = rgb{150, 150, 150}
	headerColor = rgb{0, 90, 200}
	filledColor = rgb{0, 150, 60}
	emptyColor  = rgb{210, 40, 40}
)

// Writer renders overlays into Dir
type Writer struct {
	Dir string
}

// NewWriter creates a writer for dir
func NewWriter(dir string) *Writer {
	return &Writer{Dir: dir}
}

// Path returns the overlay path for a source document
func (w *Writer) Path(source string) string {
	base := filepath.Base(source)
	return filepath.Join(w.Dir, strings.TrimSuffix(base, filepath.Ext(base))+Suffix)
}

// Render draws the page's words in grey and every placed box on top: headers
// in blue, boxes that produced text in green, empty boxes in red. Each box is
// labelled with its field name.
func (w *Writer) Render(source string, page *layout.Page, placements []extract.Placement) (string, error) {
	if page.Width <= 0 || page.Height <= 0 {
		return "", fmt.Errorf("page has no size")
	}
	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create overlay directory: %w", err)
	}

	doc := fpdf.NewCustom(&fpdf.InitType{
		UnitStr: "pt",
		Size:    fpdf.SizeType{Wd: page.Width, Ht: page.Height},
	})
	doc.SetAutoPageBreak(false, 0)
	doc.SetMargins(0, 0, 0)
	doc.AddPage()
	tr := doc.UnicodeTranslatorFromDescriptor("")

	setText(doc, wordColor)
	for _, word := range page.Words {
		size := word.Bottom - word.Top
		if size <= 0 {
			continue
		}
		doc.SetFont(font, "", size)
		doc.Text(word.X0, word.Top+0.8*size, tr(word.Text))
	}

	doc.SetLineWidth(0.8)
	doc.SetFont(font, "", labelSize)
	for _, p := range placements {
		color := filledColor
		switch {
		case template.IsHeader(p.Field):
			color = headerColor
		case p.Value == "":
			color = emptyColor
		}
		doc.SetDrawColor(color.r, color.g, color.b)
		doc.Rect(p.Box.X, p.Box.Y, p.Box.Width, p.Box.Height, "D")

		label := p.Field
		if p.Offset != 0 {
			label = fmt.Sprintf("%s (%+d)", p.Field, p.Offset)
		}
		setText(doc, color)
		doc.Text(p.Box.X, p.Box.Y-1, tr(label))
	}

	out := w.Path(source)
	if err := doc.OutputFileAndClose(out); err != nil {
		return "", fmt.Errorf("failed to write overlay %s: %w", out, err)
	}

	log.Debug().Str("source", source).Str("overlay", out).Int("boxes", len(placements)).Msg("Overlay rendered")
	return out, nil
}

func setText(doc *fpdf.Fpdf, c rgb) {
	doc.SetTextColor(c.r, c.g, c.b)
}
