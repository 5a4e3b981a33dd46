package ingest

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pgEdge/pgedge-ledgergen/internal/datagen"
	"github.com/pgEdge/pgedge-ledgergen/internal/schema"
	"github.com/pgEdge/pgedge-ledgergen/internal/store"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Loan ID", "Loan_ID"},
		{"Current Loan Amount", "Current_Loan_Amount"},
		{"Months since last delinquent", "Months_since_last_delinquent"},
		{"Annual Income ($)", "Annual_Income_"},
		{"  padded  ", "padded"},
		{"%%", ""},
	}
	for _, tt := range tests {
		if got := SanitizeName(tt.in); got != tt.want {
			t.Errorf("SanitizeName(%q): expected %q, got %q", tt.in, tt.want, got)
		}
	}
}

func TestColumnNamesUnique(t *testing.T) {
	got := columnNames([]string{"a b", "a_b", "!!"})
	want := []string{"a_b", "a_b_2", "column_3"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("Expected %v, got %v", want, got)
	}
}

func TestDetectType(t *testing.T) {
	tests := []struct {
		sample string
		want   schema.Type
	}{
		{"42", schema.Nullable(schema.Int32)},
		{"-7", schema.Nullable(schema.Int32)},
		{"3.14", schema.Nullable(schema.Float64)},
		{"9999999999", schema.Nullable(schema.Float64)},
		{"Home Mortgage", schema.Nullable(schema.String)},
		{"", schema.Nullable(schema.String)},
		{"NA", schema.Nullable(schema.String)},
	}
	for _, tt := range tests {
		if got := detectType(tt.sample, DefaultNullTokens); got != tt.want {
			t.Errorf("detectType(%q): expected %v, got %v", tt.sample, tt.want, got)
		}
	}
}

func TestCSVSource(t *testing.T) {
	input := `Loan ID,Amount,Rate,Purpose
L1,1000,3.5,Home
,2000,4.0,Car
L3,na,bad,NA
L4,3000,5,Debt Consolidation
`
	src, err := NewCSVSource(strings.NewReader(input), Options{})
	if err != nil {
		t.Fatalf("NewCSVSource failed: %v", err)
	}

	cols := src.Columns()
	wantTypes := []schema.Type{
		schema.Nullable(schema.String),
		schema.Nullable(schema.Int32),
		schema.Nullable(schema.Float64),
		schema.Nullable(schema.String),
	}
	for i, c := range cols {
		if c.Type != wantTypes[i] {
			t.Errorf("Column %s: expected %v, got %v", c.Name, wantTypes[i], c.Type)
		}
	}
	if cols[0].Name != "Loan_ID" || cols[0].Source != "Loan ID" {
		t.Errorf("Unexpected first column %+v", cols[0])
	}

	var rows [][]any
	for {
		row, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("Next failed: %v", err)
		}
		rows = append(rows, row)
	}

	if len(rows) != 3 {
		t.Fatalf("Expected 3 rows, got %d", len(rows))
	}
	if src.Skipped() != 1 {
		t.Errorf("Expected 1 skipped row, got %d", src.Skipped())
	}
	if rows[0][1] != int32(1000) || rows[0][2] != 3.5 {
		t.Errorf("Unexpected first row %v", rows[0])
	}
	if rows[1][1] != nil || rows[1][2] != nil || rows[1][3] != nil {
		t.Errorf("Expected NA and unparseable values to be NULL, got %v", rows[1])
	}
	if rows[2][2] != float64(5) {
		t.Errorf("Expected 5 as float, got %#v", rows[2][2])
	}
}

func TestCSVSourceKeyColumn(t *testing.T) {
	input := "id,name\n1,\n2,bob\n"
	src, err := NewCSVSource(strings.NewReader(input), Options{KeyColumn: "name"})
	if err != nil {
		t.Fatalf("NewCSVSource failed: %v", err)
	}
	row, err := src.Next()
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	if row[1] != "bob" {
		t.Errorf("Expected the row with a name, got %v", row)
	}

	if _, err := NewCSVSource(strings.NewReader(input), Options{KeyColumn: "missing"}); err == nil {
		t.Error("Expected error for unknown key column")
	}
}

func TestJSONSource(t *testing.T) {
	input := `[
		{"Customer ID": "C1", "Balance": 10.5, "Notes": null},
		{"Customer ID": "C2", "Balance": "20", "Notes": "vip"},
		{"Customer ID": "", "Balance": 1, "Notes": "skip me"}
	]`
	src, err := NewJSONSource(strings.NewReader(input), Options{KeyColumn: "Customer ID"})
	if err != nil {
		t.Fatalf("NewJSONSource failed: %v", err)
	}

	cols := src.Columns()
	want := map[string]schema.Type{
		"Balance":     schema.Float64,
		"Customer_ID": schema.String,
		"Notes":       schema.Nullable(schema.String),
	}
	if len(cols) != len(want) {
		t.Fatalf("Expected %d columns, got %d", len(want), len(cols))
	}
	for _, c := range cols {
		if c.Type != want[c.Name] {
			t.Errorf("Column %s: expected %v, got %v", c.Name, want[c.Name], c.Type)
		}
	}

	first, err := src.Next()
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	// Columns are sorted: Balance, Customer_ID, Notes.
	if first[0] != 10.5 || first[1] != "C1" || first[2] != nil {
		t.Errorf("Unexpected first row %v", first)
	}
	second, _ := src.Next()
	if second[0] != float64(20) {
		t.Errorf("Expected numeric string to convert, got %#v", second[0])
	}
	if _, err := src.Next(); !errors.Is(err, io.EOF) {
		t.Errorf("Expected EOF after skipping empty key, got %v", err)
	}
	if src.Skipped() != 1 {
		t.Errorf("Expected 1 skipped record, got %d", src.Skipped())
	}
}

func TestJSONSourceInvalid(t *testing.T) {
	if _, err := NewJSONSource(strings.NewReader(`{"not": "an array"}`), Options{}); err == nil {
		t.Error("Expected error for non-array input")
	}
}

func TestDetectFormatAndTableName(t *testing.T) {
	if f, err := DetectFormat("data/BankCustomerData.CSV"); err != nil || f != FormatCSV {
		t.Errorf("Expected csv, got %v (%v)", f, err)
	}
	if _, err := DetectFormat("data.xml"); err == nil {
		t.Error("Expected error for unknown extension")
	}
	if got := TableName("/tmp/credit-train.csv"); got != "credit_train" {
		t.Errorf("Expected credit_train, got %s", got)
	}
}

func TestLoadFileIntoSQLite(t *testing.T) {
	ctx := context.Background()
	s, err := store.OpenSQLite(ctx, ":memory:")
	if err != nil {
		t.Fatalf("OpenSQLite failed: %v", err)
	}
	defer s.Close()

	path := filepath.Join(t.TempDir(), "bank customers.csv")
	content := "Customer Id,Age,Balance\n1,34,100.5\n2,NA,\n,40,1\n3,51,7\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	res, err := LoadFile(ctx, s, path, Options{}, datagen.BatchInsertConfig{BatchSize: 2, ProgressInterval: 10}, true)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if res.Table.Name != "bank_customers" {
		t.Errorf("Expected table bank_customers, got %s", res.Table.Name)
	}
	if res.Inserted != 3 || res.Skipped != 1 {
		t.Errorf("Expected 3 inserted and 1 skipped, got %d and %d", res.Inserted, res.Skipped)
	}

	n, err := store.CountRows(ctx, s, "bank_customers")
	if err != nil || n != 3 {
		t.Errorf("Expected 3 stored rows, got %d (err %v)", n, err)
	}

	rows, err := s.Query(ctx, `SELECT count(*) FROM bank_customers WHERE "Age" IS NULL`)
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	defer rows.Close()
	var nulls int64
	if rows.Next() {
		_ = rows.Scan(&nulls)
	}
	if nulls != 1 {
		t.Errorf("Expected 1 NULL age, got %d", nulls)
	}
}
