package extract

import (
	"github.com/a3tai/str-extractor/internal/layout"
	"github.com/a3tai/str-extractor/internal/template"
)

// SelectVariant extracts the rule's field from the bootstrap template with no
// offset and picks the spouse variant when the text contains the marker. A
// template without the field selects WithoutSpouse. The extracted text is
// returned for logging.
func SelectVariant(words []layout.Word, bootstrap *template.Template, rule SelectorRule, tolerance float64) (template.Variant, string) {
	box, ok := bootstrap.Box(rule.Field)
	if !ok {
		return template.WithoutSpouse, ""
	}

	text := ExtractBox(words, box, 0, tolerance)
	if rule.Marker != "" && layout.ContainsFold(text, rule.Marker) {
		return template.WithSpouse, layout.Fold(text)
	}
	return template.WithoutSpouse, layout.Fold(text)
}
