package ingest

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/pgEdge/pgedge-ledgergen/internal/schema"
)

// JSONSource yields rows from a JSON array of objects. The whole array is
// read up front since every record takes part in type inference.
type JSONSource struct {
	records []map[string]any
	columns []Column
	keyCol  string
	pos     int
	skipped int
}

// NewJSONSource decodes r and infers column types: a field is Float64 when
// any record holds a number and String otherwise, and is nullable when any
// record holds null for it.
func NewJSONSource(r io.Reader, opts Options) (*JSONSource, error) {
	var records []map[string]any
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("decode json array: %w", err)
	}

	type seen struct{ number, null bool }
	kinds := make(map[string]*seen)
	for _, rec := range records {
		for field, v := range rec {
			k, ok := kinds[field]
			if !ok {
				k = &seen{}
				kinds[field] = k
			}
			switch v.(type) {
			case nil:
				k.null = true
			case float64:
				k.number = true
			}
		}
	}

	fields := make([]string, 0, len(kinds))
	for f := range kinds {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	names := columnNames(fields)
	columns := make([]Column, len(fields))
	for i, f := range fields {
		t := schema.String
		if kinds[f].number {
			t = schema.Float64
		}
		if kinds[f].null {
			t = schema.Nullable(t)
		}
		columns[i] = Column{Source: f, Name: names[i], Type: t}
	}

	src := &JSONSource{records: records, columns: columns}
	if opts.KeyColumn != "" {
		for _, c := range columns {
			if c.Source == opts.KeyColumn || c.Name == opts.KeyColumn {
				src.keyCol = c.Source
			}
		}
		if src.keyCol == "" {
			return nil, fmt.Errorf("key column %q not found in records", opts.KeyColumn)
		}
	}
	return src, nil
}

// Columns implements Source.
func (s *JSONSource) Columns() []Column {
	return s.columns
}

// Skipped implements Source.
func (s *JSONSource) Skipped() int {
	return s.skipped
}

// Next implements Source.
func (s *JSONSource) Next() ([]any, error) {
	for s.pos < len(s.records) {
		rec := s.records[s.pos]
		s.pos++

		if s.keyCol != "" {
			if v, ok := rec[s.keyCol]; !ok || v == nil || strings.TrimSpace(fmt.Sprint(v)) == "" {
				s.skipped++
				continue
			}
		}

		row := make([]any, len(s.columns))
		for i, c := range s.columns {
			row[i] = convertJSON(rec[c.Source], c.Type)
		}
		return row, nil
	}
	return nil, io.EOF
}

// convertJSON converts a decoded JSON value to the column type. Missing
// values in a non-nullable column take the type's zero value.
func convertJSON(v any, t schema.Type) any {
	if v == nil {
		if t.Nullable {
			return nil
		}
		if t.Kind == schema.KindFloat64 {
			return float64(0)
		}
		return ""
	}

	if t.Kind == schema.KindFloat64 {
		switch x := v.(type) {
		case float64:
			return x
		case string:
			f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
			if err != nil {
				if t.Nullable {
					return nil
				}
				return float64(0)
			}
			return f
		case bool:
			if x {
				return float64(1)
			}
			return float64(0)
		}
		return float64(0)
	}

	switch x := v.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case map[string]any, []any:
		b, _ := json.Marshal(x)
		return string(b)
	}
	return fmt.Sprint(v)
}
