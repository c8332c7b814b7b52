package output

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Formats understood by Write
const (
	FormatJSON = "json"
	FormatCSV  = "csv"
)

// DefaultBatchName is the output stem used when several inputs are written
const DefaultBatchName = "str_extracted"

// utf8BOM lets spreadsheet applications detect the encoding
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Row is a record that can be laid out as one CSV row
type Row interface {
	Columns() map[string]interface{}
}

// WriteJSON writes v as 2-space indented JSON without HTML escaping, so
// non-ASCII text is kept as is
func WriteJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

// WriteCSV writes rows with a UTF-8 BOM. The header is the sorted union of
// every row's columns; a row missing a column gets an empty cell. Nested
// values are written as compact JSON inside their cell.
func WriteCSV(w io.Writer, rows []Row) error {
	if len(rows) == 0 {
		return fmt.Errorf("no records to write")
	}

	columns := make([]map[string]interface{}, len(rows))
	seen := map[string]bool{}
	var header []string
	for i, row := range rows {
		columns[i] = row.Columns()
		for k := range columns[i] {
			if !seen[k] {
				seen[k] = true
				header = append(header, k)
			}
		}
	}
	sort.Strings(header)

	if _, err := w.Write(utf8BOM); err != nil {
		return fmt.Errorf("failed to write CSV: %w", err)
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, cols := range columns {
		record := make([]string, len(header))
		for i, k := range header {
			cell, err := cellText(cols[k])
			if err != nil {
				return fmt.Errorf("column %s: %w", k, err)
			}
			record[i] = cell
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func cellText(v interface{}) (string, error) {
	switch val := v.(type) {
	case nil:
		return "", nil
	case string:
		return val, nil
	default:
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false)
		if err := enc.Encode(val); err != nil {
			return "", err
		}
		return strings.TrimSuffix(buf.String(), "\n"), nil
	}
}

// DefaultPath returns <stem>.<format> for a single input and
// str_extracted.<format> for several, both relative to the working directory
func DefaultPath(inputs []string, format string) string {
	if len(inputs) == 1 {
		base := filepath.Base(inputs[0])
		stem := strings.TrimSuffix(base, filepath.Ext(base))
		return stem + "." + format
	}
	return DefaultBatchName + "." + format
}

// Write serializes records to path in the given format. With bare set and
// exactly one record, JSON output is the record itself instead of a list.
func Write[T Row](path, format string, records []T, bare bool) error {
	if records == nil {
		records = []T{}
	}
	var buf bytes.Buffer
	switch format {
	case FormatJSON:
		var v interface{} = records
		if bare && len(records) == 1 {
			v = records[0]
		}
		if err := WriteJSON(&buf, v); err != nil {
			return err
		}
	case FormatCSV:
		rows := make([]Row, len(records))
		for i, r := range records {
			rows[i] = r
		}
		if err := WriteCSV(&buf, rows); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unsupported format %q", format)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
