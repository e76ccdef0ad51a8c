// Package export renders tabular schedules into downloadable documents.
package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
)

// Table is an ordered grid of string cells under a header row.
type Table struct {
	Title   string
	Headers []string
	Rows    [][]string
}

// Renderer turns a table into a document of one format.
type Renderer interface {
	Render(table Table) ([]byte, error)
	ContentType() string
	Extension() string
}

// CSVRenderer renders tables as RFC 4180 CSV.
type CSVRenderer struct{}

// NewCSVRenderer builds a CSV renderer.
func NewCSVRenderer() *CSVRenderer {
	return &CSVRenderer{}
}

// ContentType implements Renderer.
func (r *CSVRenderer) ContentType() string { return "text/csv" }

// Extension implements Renderer.
func (r *CSVRenderer) Extension() string { return "csv" }

// Render writes the header row followed by every row. Short rows are padded.
func (r *CSVRenderer) Render(table Table) ([]byte, error) {
	if len(table.Headers) == 0 {
		return nil, fmt.Errorf("csv requires at least one header")
	}
	buf := &bytes.Buffer{}
	writer := csv.NewWriter(buf)
	if err := writer.Write(table.Headers); err != nil {
		return nil, fmt.Errorf("write csv headers: %w", err)
	}
	record := make([]string, len(table.Headers))
	for _, row := range table.Rows {
		for i := range record {
			record[i] = cell(row, i)
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

func cell(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}
