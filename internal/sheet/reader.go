package sheet

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Workbook is a parsed snapshot of the backing spreadsheet. Each
// lookup opens a fresh one; nothing is cached between requests.
type Workbook struct {
	file *excelize.File
}

// Open fetches and parses the workbook. An error here means the store
// is wholly unreachable; per-table problems are absorbed by Read.
func Open(ctx context.Context, src Source) (*Workbook, error) {
	data, err := src.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse workbook: %w", err)
	}
	return &Workbook{file: f}, nil
}

func (w *Workbook) Close() error {
	return w.file.Close()
}

// Table is a named tab reduced to the caller's expected columns. A
// missing tab yields an empty table with exactly those columns, so
// downstream code branches on emptiness, never on reader failure.
type Table struct {
	Name    string
	Columns []string

	colIdx map[string]int
	rows   [][]string
}

func (t Table) Len() int { return len(t.rows) }

// Get returns the cell at row/column, empty when the column is absent
// from the source or the row is ragged.
func (t Table) Get(row int, column string) string {
	if row < 0 || row >= len(t.rows) {
		return ""
	}
	idx, ok := t.colIdx[normalizeHeader(column)]
	if !ok || idx >= len(t.rows[row]) {
		return ""
	}
	return strings.TrimSpace(t.rows[row][idx])
}

// Read loads a named tab. The first row is the header; expected
// columns are matched case-insensitively after whitespace trimming.
func (w *Workbook) Read(name string, expectedColumns []string) Table {
	t := Table{Name: name, Columns: expectedColumns, colIdx: map[string]int{}}

	rows, err := w.file.GetRows(name)
	if err != nil || len(rows) == 0 {
		return t
	}

	header := rows[0]
	for _, col := range expectedColumns {
		want := normalizeHeader(col)
		for i, h := range header {
			if normalizeHeader(h) == want {
				t.colIdx[want] = i
				break
			}
		}
	}

	t.rows = rows[1:]
	return t
}

func normalizeHeader(h string) string {
	return strings.ToLower(strings.TrimSpace(h))
}
