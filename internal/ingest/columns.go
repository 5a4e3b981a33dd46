//-------------------------------------------------------------------------
//
// pgEdge Ledger Generator
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package ingest loads CSV and JSON files into new tables, inferring column
// types from the data.
package ingest

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pgEdge/pgedge-ledgergen/internal/schema"
)

// Column maps a field of the input file to a table column.
type Column struct {
	// Source is the field name as it appears in the file.
	Source string
	Name   string
	Type   schema.Type
}

// Options controls how a file is cleaned and loaded.
type Options struct {
	Table string

	// KeyColumn names the field whose empty values cause a row to be
	// skipped. For CSV files it defaults to the first column.
	KeyColumn string

	// NullTokens are values read as NULL, compared case-insensitively after
	// trimming spaces.
	NullTokens []string
}

// DefaultNullTokens are used when Options.NullTokens is empty.
var DefaultNullTokens = []string{"NA", "N/A", ""}

// SanitizeName turns a field name into a column name: spaces become
// underscores and anything other than ASCII letters, digits and underscores
// is dropped.
func SanitizeName(name string) string {
	name = strings.ReplaceAll(strings.TrimSpace(name), " ", "_")
	var b strings.Builder
	for _, r := range name {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// columnNames sanitizes fields and makes the results unique and non-empty.
func columnNames(fields []string) []string {
	names := make([]string, len(fields))
	seen := make(map[string]int)
	for i, f := range fields {
		name := SanitizeName(f)
		if name == "" {
			name = fmt.Sprintf("column_%d", i+1)
		}
		seen[name]++
		if n := seen[name]; n > 1 {
			name = fmt.Sprintf("%s_%d", name, n)
		}
		names[i] = name
	}
	return names
}

// isNull reports whether v is one of tokens.
func isNull(v string, tokens []string) bool {
	v = strings.TrimSpace(v)
	for _, t := range tokens {
		if strings.EqualFold(v, strings.TrimSpace(t)) {
			return true
		}
	}
	return false
}

// detectType infers a column type from a sample CSV value. CSV columns are
// always nullable.
func detectType(sample string, nullTokens []string) schema.Type {
	if isNull(sample, nullTokens) {
		return schema.Nullable(schema.String)
	}
	v := strings.Trim(strings.TrimSpace(sample), `"`)
	if _, err := strconv.ParseInt(v, 10, 32); err == nil {
		return schema.Nullable(schema.Int32)
	}
	if _, err := strconv.ParseFloat(v, 64); err == nil {
		return schema.Nullable(schema.Float64)
	}
	return schema.Nullable(schema.String)
}

// convertText converts a CSV value to the column type. Null tokens and
// values that do not parse as the column's numeric type become NULL.
func convertText(v string, t schema.Type, nullTokens []string) any {
	if isNull(v, nullTokens) {
		return nil
	}
	switch t.Kind {
	case schema.KindInt32:
		n, err := strconv.ParseInt(strings.Trim(strings.TrimSpace(v), `"`), 10, 32)
		if err != nil {
			return nil
		}
		return int32(n)
	case schema.KindFloat64:
		f, err := strconv.ParseFloat(strings.Trim(strings.TrimSpace(v), `"`), 64)
		if err != nil {
			return nil
		}
		return f
	}
	return v
}

// buildTable returns the table definition for columns. Imported tables have
// no key, matching the files they come from.
func buildTable(name string, columns []Column) schema.Table {
	t := schema.Table{Name: name}
	for _, c := range columns {
		t.Columns = append(t.Columns, schema.Column{Name: c.Name, Type: c.Type})
	}
	return t
}
