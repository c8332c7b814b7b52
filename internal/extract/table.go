package extract

import (
	"strings"

	"github.com/a3tai/str-extractor/internal/layout"
)

// Child is one row of the children table
type Child struct {
	Nama    string `json:"nama"`
	NoMykad string `json:"no_mykad"`
	Umur    string `json:"umur"`
	Status  string `json:"status"`
}

// IsChildrenHeader reports whether a header row belongs to the children table:
// its joined text must mention NAMA, MYKAD or MYKID, and UMUR
func IsChildrenHeader(header []string) bool {
	text := layout.Fold(strings.Join(header, " "))
	return strings.Contains(text, "NAMA") &&
		(strings.Contains(text, "MYKAD") || strings.Contains(text, "MYKID")) &&
		strings.Contains(text, "UMUR")
}

// ExtractChildren reads the first table whose header identifies it as the
// children table. Blank rows are skipped. No such table gives an empty list.
func ExtractChildren(tables []layout.Table) []Child {
	for _, table := range tables {
		if len(table) < 2 || !IsChildrenHeader(table[0]) {
			continue
		}

		header := table[0]
		children := []Child{}
		for _, row := range table[1:] {
			if isBlankRow(row) {
				continue
			}
			if child, ok := childFromRow(header, row); ok {
				children = append(children, child)
			}
		}
		return children
	}
	return []Child{}
}

// childFromRow maps cells to fields by their column's header text. ok is
// false when no column maps to a field.
func childFromRow(header, row []string) (Child, bool) {
	var child Child
	mapped := false
	for i, cell := range row {
		if i >= len(header) || strings.TrimSpace(header[i]) == "" {
			continue
		}
		name := layout.Fold(strings.TrimSpace(header[i]))
		value := strings.TrimSpace(cell)

		switch {
		case strings.Contains(name, "NAMA"):
			child.Nama = value
		case strings.Contains(name, "MYKAD") || strings.Contains(name, "MYKID"):
			child.NoMykad = value
		case strings.Contains(name, "UMUR"):
			child.Umur = value
		case strings.Contains(name, "STATUS") || strings.Contains(name, "HUBUNGAN"):
			child.Status = value
		default:
			continue
		}
		mapped = true
	}
	return child, mapped
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
