package output

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/str-extractor/internal/extract"
)

func sampleRecords() []*extract.Record {
	return []*extract.Record{
		{
			Fields:     extract.Values{{Key: "nama", Text: "SITI BINTI ALI"}, {Key: "jantina", Text: "Perempuan"}},
			Anak:       []extract.Child{{Nama: "Ali", NoMykad: "990101-01-1234", Umur: "12", Status: "Anak"}},
			Pasangan:   extract.Values{{Key: "nama", Text: "AHMAD"}},
			Waris:      extract.Values{},
			SourceFile: "a.pdf",
		},
		{
			Fields:     extract.Values{{Key: "nama", Text: "ÉLODIE <ABU>"}, {Key: "alamat_emel", Text: "abu@example.com"}},
			SourceFile: "b.pdf",
		},
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, sampleRecords()[1]))

	out := buf.String()
	assert.Contains(t, out, `"nama": "ÉLODIE <ABU>"`)
	assert.True(t, strings.HasPrefix(out, "{\n  \"nama\""))
	assert.True(t, strings.HasSuffix(out, "}\n"))
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	records := sampleRecords()
	rows := []Row{records[0], records[1]}
	require.NoError(t, WriteCSV(&buf, rows))

	data := buf.Bytes()
	require.True(t, bytes.HasPrefix(data, utf8BOM))

	parsed, err := csv.NewReader(bytes.NewReader(data[len(utf8BOM):])).ReadAll()
	require.NoError(t, err)
	require.Len(t, parsed, 3)

	header := parsed[0]
	assert.Equal(t, []string{"_source_file", "alamat_emel", "anak", "jantina", "nama", "pasangan", "waris"}, header)

	first := map[string]string{}
	second := map[string]string{}
	for i, k := range header {
		first[k] = parsed[1][i]
		second[k] = parsed[2][i]
	}
	assert.Equal(t, "SITI BINTI ALI", first["nama"])
	assert.Equal(t, "", first["alamat_emel"])
	assert.Equal(t, `[{"nama":"Ali","no_mykad":"990101-01-1234","umur":"12","status":"Anak"}]`, first["anak"])
	assert.Equal(t, `{"nama":"AHMAD"}`, first["pasangan"])
	assert.Equal(t, `{}`, first["waris"])
	assert.Equal(t, "ÉLODIE <ABU>", second["nama"])
	assert.Equal(t, "[]", second["anak"])
	assert.Equal(t, "b.pdf", second["_source_file"])
}

func TestWriteCSV_Empty(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, WriteCSV(&buf, nil))
}

func TestDefaultPath(t *testing.T) {
	assert.Equal(t, "permohonan.json", DefaultPath([]string{"/data/in/permohonan.pdf"}, FormatJSON))
	assert.Equal(t, "form.v2.csv", DefaultPath([]string{"form.v2.pdf"}, FormatCSV))
	assert.Equal(t, "str_extracted.json", DefaultPath([]string{"a.pdf", "b.pdf"}, FormatJSON))
}

func TestWrite(t *testing.T) {
	dir := t.TempDir()
	records := sampleRecords()

	single := filepath.Join(dir, "single.json")
	require.NoError(t, Write(single, FormatJSON, records[:1], true))
	data, err := os.ReadFile(single)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "{"))

	batch := filepath.Join(dir, "batch.json")
	require.NoError(t, Write(batch, FormatJSON, records[:1], false))
	data, err = os.ReadFile(batch)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "["))

	none := filepath.Join(dir, "none.json")
	require.NoError(t, Write[*extract.Record](none, FormatJSON, nil, false))
	data, err = os.ReadFile(none)
	require.NoError(t, err)
	assert.Equal(t, "[]\n", string(data))

	csvPath := filepath.Join(dir, "out.csv")
	require.NoError(t, Write(csvPath, FormatCSV, records, false))
	data, err = os.ReadFile(csvPath)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, utf8BOM))

	assert.Error(t, Write(filepath.Join(dir, "x.xml"), "xml", records, false))
}
