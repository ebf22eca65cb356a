// Package dataset provides the column-keyed table abstraction the pipeline
// operates on. Tables carry string cells; the empty string is a null.
package dataset

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
)

// Table is a named, column-keyed table. Rows are positional; columns are
// looked up by name so input files may order columns freely.
type Table struct {
	Name    string
	Columns []string
	Rows    [][]string

	index map[string]int
}

// New creates a table with the given columns and no rows.
func New(name string, columns []string) *Table {
	t := &Table{Name: name, Columns: columns}
	t.buildIndex()
	return t
}

func (t *Table) buildIndex() {
	t.index = make(map[string]int, len(t.Columns))
	for i, c := range t.Columns {
		t.index[c] = i
	}
}

// HasColumn reports whether the table contains the named column.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Value returns the cell at (row, column). Missing columns and cells outside
// the row return the empty string, which callers treat as null.
func (t *Table) Value(row int, column string) string {
	i, ok := t.index[column]
	if !ok || row < 0 || row >= len(t.Rows) || i >= len(t.Rows[row]) {
		return ""
	}
	return t.Rows[row][i]
}

// Append adds a row. The row must be in column order.
func (t *Table) Append(row []string) {
	t.Rows = append(t.Rows, row)
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.Rows)
}

// ReadCSV loads a CSV file into a table. The first record is the header.
// Ragged rows are tolerated; short rows read as nulls past their end.
func ReadCSV(path string, name string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("read %s: file has no header row", path)
	}

	t := New(name, records[0])
	t.Rows = records[1:]
	return t, nil
}

// WriteCSV writes the table to path, creating parent directories as needed.
func (t *Table) WriteCSV(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create dir for %s: %w", path, err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(t.Columns); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	for _, row := range t.Rows {
		if err := w.Write(row); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
	}
	w.Flush()
	return w.Error()
}
