package extract

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/phuslu/log"

	strerrors "github.com/a3tai/str-extractor/internal/errors"
	"github.com/a3tai/str-extractor/internal/layout"
	"github.com/a3tai/str-extractor/internal/template"
)

// FormPage is the page of a document the form fields are read from
const FormPage = 1

// PageReader turns one page of a PDF into positioned words and tables
type PageReader interface {
	ReadPage(path string, number int) (*layout.Page, error)
}

// Placement is a template box as it was applied to a page: shifted by its
// section offset, with the text found inside
type Placement struct {
	Field  string
	Box    template.Box
	Offset int
	Value  string
}

// Renderer draws a processed page for review. Failures are logged, never
// returned to the caller of ExtractFile.
type Renderer interface {
	Render(source string, page *layout.Page, placements []Placement) (string, error)
}

// Options configures an Extractor
type Options struct {
	Templates template.VariantSet
	Profile   *Profile
	Reader    PageReader
	Renderer  Renderer
}

// Extractor runs the two-stage template extraction over documents. It holds
// no per-document state; the variant template is loaded fresh for every page.
type Extractor struct {
	templates template.VariantSet
	bootstrap *template.Template
	profile   *Profile
	reader    PageReader
	renderer  Renderer
}

// New loads the bootstrap template and checks the variant files. Template
// errors are fatal and returned as is.
func New(opts Options) (*Extractor, error) {
	if opts.Reader == nil {
		return nil, fmt.Errorf("page reader is required")
	}
	profile := opts.Profile
	if profile == nil {
		profile = DefaultProfile()
	}
	if err := profile.Validate(); err != nil {
		return nil, fmt.Errorf("invalid profile: %w", err)
	}
	if err := opts.Templates.Check(); err != nil {
		return nil, err
	}
	bootstrap, err := template.Load(opts.Templates.Bootstrap)
	if err != nil {
		return nil, err
	}

	return &Extractor{
		templates: opts.Templates,
		bootstrap: bootstrap,
		profile:   profile,
		reader:    opts.Reader,
		renderer:  opts.Renderer,
	}, nil
}

// Bootstrap returns the template used for variant selection
func (e *Extractor) Bootstrap() *template.Template {
	return e.bootstrap
}

// Templates returns the configured template files
func (e *Extractor) Templates() template.VariantSet {
	return e.templates
}

// ExtractPage extracts every field of the form on page
func (e *Extractor) ExtractPage(page *layout.Page) (*Record, error) {
	rec, _, err := e.extractPage(page)
	return rec, err
}

func (e *Extractor) extractPage(page *layout.Page) (*Record, []Placement, error) {
	rule := e.profile.Selector
	variant, status := SelectVariant(page.Words, e.bootstrap, rule, e.profile.Tolerance.For(rule.Field))
	log.Info().
		Str("field", rule.Field).
		Str("value", status).
		Str("variant", variant.String()).
		Msg("Template variant selected")

	tmpl, err := e.templates.Load(variant)
	if err != nil {
		return nil, nil, err
	}
	if !tmpl.CheckDimensions(page.Width, page.Height) {
		log.Warn().
			Float64("expected_width", tmpl.Dimensions.Width).
			Float64("expected_height", tmpl.Dimensions.Height).
			Float64("width", page.Width).
			Float64("height", page.Height).
			Msg("PDF dimensions don't match template")
	}

	offsets := DetectOffsets(page.Words, tmpl, e.profile)

	rec := &Record{Pasangan: Values{}, Waris: Values{}}
	placements := make([]Placement, 0, len(tmpl.Fields))

	for _, name := range tmpl.Names() {
		box := tmpl.Fields[name]
		section, _ := e.profile.SectionFor(name)
		offset := offsets.For(section.Key)

		placed := Placement{Field: name, Box: box, Offset: offset}
		placed.Box.Y += float64(offset)

		if template.IsHeader(name) {
			placements = append(placements, placed)
			continue
		}

		text, err := e.extractField(page.Words, name, box, offset)
		if err != nil {
			log.Warn().Err(err).Str("field", name).Msg("Field extraction failed")
		}
		placed.Value = text
		placements = append(placements, placed)

		switch {
		case strings.HasPrefix(name, KeyPasangan+"_"):
			rec.Pasangan = rec.Pasangan.Set(strings.TrimPrefix(name, KeyPasangan+"_"), text)
		case strings.HasPrefix(name, KeyWaris+"_"):
			rec.Waris = rec.Waris.Set(strings.TrimPrefix(name, KeyWaris+"_"), text)
		default:
			rec.Fields = rec.Fields.Set(name, text)
		}
		log.Debug().Str("field", name).Int("offset", offset).Str("value", text).Msg("Field extracted")
	}

	rec.Anak = e.extractChildren(page.Tables)
	log.Info().Int("children", len(rec.Anak)).Msg("Children table extracted")

	for _, section := range e.profile.Labeled {
		values := e.extractLabeled(page, section)
		switch section.Key {
		case KeyPasangan:
			rec.Pasangan = fillEmpty(rec.Pasangan, section, values)
		case KeyWaris:
			rec.Waris = fillEmpty(rec.Waris, section, values)
		}
	}

	return rec, placements, nil
}

func (e *Extractor) extractField(words []layout.Word, name string, box template.Box, offset int) (text string, err error) {
	defer withField(name, &err)
	defer strerrors.Recover("extract field", &err)
	return ExtractBox(words, box, offset, e.profile.Tolerance.For(name)), nil
}

// withField tags an extraction error with the template field it came from
func withField(name string, errp *error) {
	if e, ok := (*errp).(*strerrors.Error); ok {
		e.WithField(name)
	}
}

func (e *Extractor) extractChildren(tables []layout.Table) (children []Child) {
	var err error
	func() {
		defer strerrors.Recover("extract children table", &err)
		children = ExtractChildren(tables)
	}()
	if err != nil {
		log.Warn().Err(err).Msg("Children table extraction failed")
		return []Child{}
	}
	return children
}

func (e *Extractor) extractLabeled(page *layout.Page, section LabeledSection) (values map[string]string) {
	var err error
	func() {
		defer strerrors.Recover("extract section "+section.Key, &err)
		values = ExtractLabeledSection(page.Words, section, page.Height)
	}()
	if err != nil {
		log.Warn().Err(err).Str("section", section.Key).Msg("Section extraction failed")
		return map[string]string{}
	}
	if len(values) == 0 {
		log.Debug().
			Str("section", section.Key).
			Str("kind", strerrors.KindSectionHeaderNotFound.String()).
			Msg("Labeled section header not found")
	}
	return values
}

// fillEmpty copies labeled-section values into keys the template boxes left
// empty or did not define. Box values win.
func fillEmpty(dst Values, section LabeledSection, values map[string]string) Values {
	for _, f := range section.Fields {
		v := values[f.Key]
		if v == "" {
			continue
		}
		if cur, ok := dst.Get(f.Key); ok && cur != "" {
			continue
		}
		dst = dst.Set(f.Key, v)
	}
	return dst
}

// ExtractFile reads the form page of path and extracts it. When a renderer is
// configured an overlay is produced as well.
func (e *Extractor) ExtractFile(path string) (rec *Record, err error) {
	defer strerrors.Recover("extract "+path, &err)

	log.Info().Str("path", path).Msg("Extracting")

	page, err := e.reader.ReadPage(path, FormPage)
	if err != nil {
		return nil, err
	}

	rec, placements, err := e.extractPage(page)
	if err != nil {
		return nil, err
	}

	if e.renderer != nil {
		out, rerr := e.renderer.Render(path, page, placements)
		if rerr != nil {
			log.Warn().Err(rerr).Str("path", path).Msg("Overlay rendering failed")
		} else {
			log.Info().Str("path", out).Msg("Overlay written")
		}
	}
	return rec, nil
}

// ExtractBatch processes paths one after another. A failing document is
// logged and collected; the remaining documents still run. Each record
// carries its source path.
func (e *Extractor) ExtractBatch(ctx context.Context, paths []string) ([]*Record, *strerrors.Collection) {
	runID := uuid.NewString()
	failures := strerrors.NewCollection()
	records := make([]*Record, 0, len(paths))

	log.Info().Str("run_id", runID).Int("documents", len(paths)).Msg("Batch started")

	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			failures.Add(path, err)
			log.Error().
				Str("run_id", runID).
				Str("path", path).
				Str("kind", strerrors.KindDocumentProcessingFailure.String()).
				Err(err).
				Msg("Document skipped")
			continue
		}

		rec, err := e.ExtractFile(path)
		if err != nil {
			failures.Add(path, err)
			log.Error().
				Str("run_id", runID).
				Str("path", path).
				Str("kind", strerrors.KindDocumentProcessingFailure.String()).
				Err(err).
				Msg("Document failed")
			continue
		}
		rec.SourceFile = path
		records = append(records, rec)
	}

	log.Info().
		Str("run_id", runID).
		Int("succeeded", len(records)).
		Int("failed", failures.Len()).
		Msg("Batch complete")

	return records, failures
}
