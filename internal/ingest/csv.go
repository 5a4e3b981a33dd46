package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// CSVSource streams rows from a CSV file with a header row. Column types
// are inferred from the first data row.
type CSVSource struct {
	reader  *csv.Reader
	columns []Column
	opts    Options
	keyIdx  int
	pending []string
	skipped int
}

// NewCSVSource reads the header and first data row of r.
func NewCSVSource(r io.Reader, opts Options) (*CSVSource, error) {
	if len(opts.NullTokens) == 0 {
		opts.NullTokens = DefaultNullTokens
	}
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	first, err := reader.Read()
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("read first row: %w", err)
	}

	names := columnNames(header)
	columns := make([]Column, len(header))
	for i, field := range header {
		sample := ""
		if i < len(first) {
			sample = first[i]
		}
		columns[i] = Column{Source: field, Name: names[i], Type: detectType(sample, opts.NullTokens)}
	}

	keyIdx := 0
	if opts.KeyColumn != "" {
		keyIdx = -1
		for i, c := range columns {
			if c.Source == opts.KeyColumn || c.Name == opts.KeyColumn {
				keyIdx = i
				break
			}
		}
		if keyIdx < 0 {
			return nil, fmt.Errorf("key column %q not found in header", opts.KeyColumn)
		}
	}

	return &CSVSource{
		reader:  reader,
		columns: columns,
		opts:    opts,
		keyIdx:  keyIdx,
		pending: first,
	}, nil
}

// Columns implements Source.
func (s *CSVSource) Columns() []Column {
	return s.columns
}

// Skipped implements Source.
func (s *CSVSource) Skipped() int {
	return s.skipped
}

// Next implements Source.
func (s *CSVSource) Next() ([]any, error) {
	for {
		record, err := s.read()
		if err != nil {
			return nil, err
		}
		if s.keyIdx >= len(record) || strings.TrimSpace(record[s.keyIdx]) == "" {
			s.skipped++
			continue
		}

		row := make([]any, len(s.columns))
		for i, c := range s.columns {
			if i < len(record) {
				row[i] = convertText(record[i], c.Type, s.opts.NullTokens)
			}
		}
		return row, nil
	}
}

func (s *CSVSource) read() ([]string, error) {
	if s.pending != nil {
		r := s.pending
		s.pending = nil
		return r, nil
	}
	return s.reader.Read()
}
