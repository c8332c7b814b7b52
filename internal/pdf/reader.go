package pdf

import (
	"fmt"
	"os"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/phuslu/log"

	strerrors "github.com/a3tai/str-extractor/internal/errors"
	"github.com/a3tai/str-extractor/internal/layout"
)

const (
	// ascentRatio is the share of the font size drawn above the baseline
	ascentRatio = 0.8
	// fallbackCharWidth approximates a glyph's advance, as a share of the
	// font size, for fonts that carry no Widths array
	fallbackCharWidth = 0.5
)

// Reader turns PDF pages into positioned words and tables
type Reader struct {
	validator *Validator
	tables    layout.TableConfig
}

// NewReader creates a reader that refuses files larger than maxFileSize
func NewReader(maxFileSize int64) *Reader {
	return &Reader{
		validator: NewValidator(maxFileSize),
		tables:    layout.DefaultTableConfig(),
	}
}

// ReadPage reads page number (1-based) of the PDF at path. The file is
// closed before ReadPage returns; panics raised while decoding the content
// stream come back as EXTRACTION_FAILURE.
func (r *Reader) ReadPage(path string, number int) (page *layout.Page, err error) {
	if err := r.validator.Validate(path); err != nil {
		return nil, err
	}

	f, pdfReader, err := pdf.Open(path)
	if err != nil {
		return nil, strerrors.New(strerrors.KindExtractionFailure, "open pdf", err).WithPath(path)
	}
	defer f.Close()
	defer strerrors.Recover("read page", &err)

	if number < 1 || number > pdfReader.NumPage() {
		return nil, strerrors.Newf(strerrors.KindExtractionFailure, "read page",
			"page %d out of range (document has %d)", number, pdfReader.NumPage()).WithPath(path)
	}

	p := pdfReader.Page(number)
	if p.V.IsNull() {
		return nil, strerrors.Newf(strerrors.KindExtractionFailure, "read page", "page %d is empty", number).WithPath(path)
	}

	width, height, ok := pageSize(path, number)
	if !ok {
		width, height = mediaBox(p)
	}
	if height <= 0 {
		return nil, strerrors.Newf(strerrors.KindExtractionFailure, "read page", "page %d has no size", number).WithPath(path)
	}

	glyphs := toGlyphs(p.Content().Text, height)
	words := layout.BuildWords(glyphs)

	log.Debug().
		Str("path", path).
		Int("page", number).
		Int("glyphs", len(glyphs)).
		Int("words", len(words)).
		Float64("width", width).
		Float64("height", height).
		Msg("Page read")

	return &layout.Page{
		Number: number,
		Width:  width,
		Height: height,
		Words:  words,
		Tables: layout.DetectTables(words, r.tables),
	}, nil
}

// toGlyphs converts bottom-origin text runs to top-origin glyphs. Runs
// without width information are spaced by an estimated advance.
func toGlyphs(texts []pdf.Text, pageHeight float64) []layout.Glyph {
	glyphs := make([]layout.Glyph, 0, len(texts))

	var prev pdf.Text
	var prevX, prevW float64
	for i, t := range texts {
		x, w := t.X, t.W
		if w <= 0 {
			w = fallbackCharWidth * t.FontSize * float64(len([]rune(t.S)))
			// zero-advance runs repeat the start position of their string
			if i > 0 && prev.W <= 0 && prev.X == t.X && prev.Y == t.Y {
				x = prevX + prevW
			}
		}
		prev, prevX, prevW = t, x, w

		top := pageHeight - t.Y - ascentRatio*t.FontSize
		glyphs = append(glyphs, layout.Glyph{
			Text:   t.S,
			X:      x,
			Width:  w,
			Top:    top,
			Bottom: top + t.FontSize,
			Size:   t.FontSize,
		})
	}
	return glyphs
}

// pageSize reads the page dimensions with pdfcpu
func pageSize(path string, number int) (float64, float64, bool) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, false
	}
	defer f.Close()

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	dims, err := api.PageDims(f, conf)
	if err != nil || number > len(dims) {
		log.Debug().Err(err).Str("path", path).Msg("pdfcpu could not read page size")
		return 0, 0, false
	}
	return dims[number-1].Width, dims[number-1].Height, true
}

// mediaBox reads the page size from the page's MediaBox, walking up the page
// tree for an inherited box
func mediaBox(p pdf.Page) (float64, float64) {
	for v := p.V; !v.IsNull(); v = v.Key("Parent") {
		box := v.Key("MediaBox")
		if box.Kind() == pdf.Array && box.Len() == 4 {
			return box.Index(2).Float64() - box.Index(0).Float64(),
				box.Index(3).Float64() - box.Index(1).Float64()
		}
	}
	return 0, 0
}

// PageCount returns the number of pages in the PDF at path
func (r *Reader) PageCount(path string) (int, error) {
	if err := r.validator.Validate(path); err != nil {
		return 0, err
	}
	f, pdfReader, err := pdf.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()
	return pdfReader.NumPage(), nil
}
