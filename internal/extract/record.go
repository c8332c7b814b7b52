package extract

import (
	"bytes"
	"encoding/json"
)

// Output keys for the grouped sections
const (
	KeyAnak       = "anak"
	KeyPasangan   = "pasangan"
	KeyWaris      = "waris"
	KeySourceFile = "_source_file"
)

// Value is one extracted field
type Value struct {
	Key  string
	Text string
}

// Values is an ordered set of extracted fields. It encodes as a JSON object
// in insertion order.
type Values []Value

// Get returns the text stored under key
func (v Values) Get(key string) (string, bool) {
	for _, f := range v {
		if f.Key == key {
			return f.Text, true
		}
	}
	return "", false
}

// Set replaces the text under key or appends a new entry
func (v Values) Set(key, text string) Values {
	for i := range v {
		if v[i].Key == key {
			v[i].Text = text
			return v
		}
	}
	return append(v, Value{Key: key, Text: text})
}

// MarshalJSON encodes the values as an object, keeping order
func (v Values) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	buf.WriteByte('{')
	for i, f := range v {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := encodeCompact(enc, &buf, f.Key); err != nil {
			return nil, err
		}
		buf.WriteByte(':')
		if err := encodeCompact(enc, &buf, f.Text); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Record is everything extracted from one document
type Record struct {
	Fields     Values // main applicant fields, flat, in template order
	Anak       []Child
	Pasangan   Values
	Waris      Values
	SourceFile string
}

// MarshalJSON encodes the record with main fields first, then anak,
// pasangan, waris and, in batch mode, _source_file
func (r *Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	buf.WriteByte('{')
	first := true
	write := func(key string, value interface{}) error {
		if !first {
			buf.WriteByte(',')
		}
		first = false
		if err := encodeCompact(enc, &buf, key); err != nil {
			return err
		}
		buf.WriteByte(':')
		return encodeCompact(enc, &buf, value)
	}

	for _, f := range r.Fields {
		if err := write(f.Key, f.Text); err != nil {
			return nil, err
		}
	}
	for _, kv := range r.sections() {
		if err := write(kv.key, kv.value); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Columns returns the record's top-level keys and values for tabular output.
// Main fields are strings; anak, pasangan and waris keep their nested types.
func (r *Record) Columns() map[string]interface{} {
	cols := make(map[string]interface{}, len(r.Fields)+4)
	for _, f := range r.Fields {
		cols[f.Key] = f.Text
	}
	for _, kv := range r.sections() {
		cols[kv.key] = kv.value
	}
	return cols
}

type keyValue struct {
	key   string
	value interface{}
}

func (r *Record) sections() []keyValue {
	anak := r.Anak
	if anak == nil {
		anak = []Child{}
	}
	pasangan, waris := r.Pasangan, r.Waris
	if pasangan == nil {
		pasangan = Values{}
	}
	if waris == nil {
		waris = Values{}
	}

	out := []keyValue{
		{KeyAnak, anak},
		{KeyPasangan, pasangan},
		{KeyWaris, waris},
	}
	if r.SourceFile != "" {
		out = append(out, keyValue{KeySourceFile, r.SourceFile})
	}
	return out
}

// encodeCompact writes v without the encoder's trailing newline
func encodeCompact(enc *json.Encoder, buf *bytes.Buffer, v interface{}) error {
	if err := enc.Encode(v); err != nil {
		return err
	}
	buf.Truncate(buf.Len() - 1)
	return nil
}
