//-------------------------------------------------------------------------
//
// pgEdge Ledger Generator
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package schema describes tables independently of the target database and
// renders their DDL for each supported dialect.
package schema

import (
	"fmt"
	"strings"
)

// Dialect identifies the SQL flavour of a store.
type Dialect string

// Supported dialects.
const (
	Postgres   Dialect = "postgres"
	ClickHouse Dialect = "clickhouse"
	SQLite     Dialect = "sqlite"
)

// Dialects lists every supported dialect.
func Dialects() []Dialect {
	return []Dialect{Postgres, ClickHouse, SQLite}
}

// ParseDialect converts a driver name into a Dialect.
func ParseDialect(name string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "postgres", "postgresql", "pg":
		return Postgres, nil
	case "clickhouse", "ch":
		return ClickHouse, nil
	case "sqlite", "sqlite3":
		return SQLite, nil
	}
	return "", fmt.Errorf("unknown driver %q (want postgres, clickhouse or sqlite)", name)
}

// Kind is the base type of a column.
type Kind int

// Column kinds.
const (
	KindInt8 Kind = iota
	KindInt16
	KindInt32
	KindFloat64
	KindString
	KindDate
	KindBool
	KindStringArray
)

// Type is a column type, optionally nullable.
type Type struct {
	Kind     Kind
	Nullable bool
}

// Column types used by table definitions.
var (
	Int8        = Type{Kind: KindInt8}
	Int16       = Type{Kind: KindInt16}
	Int32       = Type{Kind: KindInt32}
	Float64     = Type{Kind: KindFloat64}
	String      = Type{Kind: KindString}
	Date        = Type{Kind: KindDate}
	Bool        = Type{Kind: KindBool}
	StringArray = Type{Kind: KindStringArray}
)

// Nullable returns t with NULL allowed.
func Nullable(t Type) Type {
	t.Nullable = true
	return t
}

// String returns the ClickHouse spelling of the type, which is also how
// types are written in logs and test output.
func (t Type) String() string {
	return t.SQL(ClickHouse)
}

// SQL renders the type for dialect d.
func (t Type) SQL(d Dialect) string {
	var base string
	switch d {
	case Postgres:
		base = postgresTypes[t.Kind]
		if !t.Nullable {
			base += " NOT NULL"
		}
		return base
	case SQLite:
		base = sqliteTypes[t.Kind]
		if !t.Nullable {
			base += " NOT NULL"
		}
		return base
	default:
		base = clickhouseTypes[t.Kind]
		if t.Nullable && t.Kind != KindStringArray {
			return "Nullable(" + base + ")"
		}
		return base
	}
}

var postgresTypes = map[Kind]string{
	KindInt8:        "SMALLINT",
	KindInt16:       "SMALLINT",
	KindInt32:       "INTEGER",
	KindFloat64:     "DOUBLE PRECISION",
	KindString:      "TEXT",
	KindDate:        "DATE",
	KindBool:        "BOOLEAN",
	KindStringArray: "TEXT[]",
}

var clickhouseTypes = map[Kind]string{
	KindInt8:        "Int8",
	KindInt16:       "Int16",
	KindInt32:       "Int32",
	KindFloat64:     "Float64",
	KindString:      "String",
	KindDate:        "Date",
	KindBool:        "Bool",
	KindStringArray: "Array(String)",
}

// SQLite has no date, boolean or array types. Dates are stored as
// YYYY-MM-DD text, booleans as 0/1 and arrays as JSON text.
var sqliteTypes = map[Kind]string{
	KindInt8:        "INTEGER",
	KindInt16:       "INTEGER",
	KindInt32:       "INTEGER",
	KindFloat64:     "REAL",
	KindString:      "TEXT",
	KindDate:        "TEXT",
	KindBool:        "INTEGER",
	KindStringArray: "TEXT",
}

// Column is a named, typed column.
type Column struct {
	Name string
	Type Type
}

// Table is a table definition.
type Table struct {
	Name    string
	Columns []Column

	// OrderBy is the sort key (ClickHouse) and, when PrimaryKey is set,
	// the primary key (PostgreSQL and SQLite).
	OrderBy    []string
	PrimaryKey bool
}

// ColumnNames returns the column names in declaration order.
func (t Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// Column returns the named column.
func (t Table) Column(name string) (Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// QuoteIdent quotes an identifier for dialect d.
func QuoteIdent(d Dialect, name string) string {
	if d == ClickHouse {
		return "`" + strings.ReplaceAll(name, "`", "``") + "`"
	}
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// CreateTableSQL renders the CREATE TABLE statement for t.
func CreateTableSQL(d Dialect, t Table) string {
	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE IF NOT EXISTS %s (\n", QuoteIdent(d, t.Name))
	for i, c := range t.Columns {
		fmt.Fprintf(&b, "    %s %s", QuoteIdent(d, c.Name), c.Type.SQL(d))
		if i < len(t.Columns)-1 || (d != ClickHouse && t.PrimaryKey && len(t.OrderBy) > 0) {
			b.WriteString(",")
		}
		b.WriteString("\n")
	}

	keys := make([]string, len(t.OrderBy))
	for i, k := range t.OrderBy {
		keys[i] = QuoteIdent(d, k)
	}

	if d == ClickHouse {
		b.WriteString(") ENGINE = MergeTree()\n")
		switch len(keys) {
		case 0:
			b.WriteString("ORDER BY tuple()")
		case 1:
			b.WriteString("ORDER BY " + keys[0])
		default:
			b.WriteString("ORDER BY (" + strings.Join(keys, ", ") + ")")
		}
		return b.String()
	}

	if t.PrimaryKey && len(keys) > 0 {
		fmt.Fprintf(&b, "    PRIMARY KEY (%s)\n", strings.Join(keys, ", "))
	}
	b.WriteString(")")
	return b.String()
}

// DropTableSQL renders the DROP TABLE statement for name.
func DropTableSQL(d Dialect, name string) string {
	return "DROP TABLE IF EXISTS " + QuoteIdent(d, name)
}
