// Package table implements a small two-dimensional container addressed by
// row/column keys as well as raw positions. It backs the CPU power-draw and
// carbon-intensity reference tables.
package table

import (
	"fmt"
	"math"
)

// Table holds typed cells (int64, float64 or string) in a fixed row/column
// grid. Keys are unique per axis and iterate in insertion order. A Table is
// built once and treated as immutable by readers; Select returns new tables
// rather than views into shared state.
type Table struct {
	rowKeys []string
	colKeys []string
	rowIdx  map[string]int
	colIdx  map[string]int
	cells   [][]any
}

// New builds a table from explicit keys and cells. Every row must have
// exactly len(colKeys) cells and keys must be unique within their axis.
func New(rowKeys, colKeys []string, cells [][]any) (*Table, error) {
	if len(cells) != len(rowKeys) {
		return nil, &ParseError{Reason: fmt.Sprintf("%d row keys but %d rows of cells", len(rowKeys), len(cells))}
	}
	t := &Table{
		rowKeys: append([]string(nil), rowKeys...),
		colKeys: append([]string(nil), colKeys...),
		rowIdx:  make(map[string]int, len(rowKeys)),
		colIdx:  make(map[string]int, len(colKeys)),
		cells:   make([][]any, len(cells)),
	}
	for i, k := range t.rowKeys {
		if _, dup := t.rowIdx[k]; dup {
			return nil, &ParseError{Reason: fmt.Sprintf("duplicate row key %q", k)}
		}
		t.rowIdx[k] = i
	}
	for j, k := range t.colKeys {
		if _, dup := t.colIdx[k]; dup {
			return nil, &ParseError{Reason: fmt.Sprintf("duplicate column key %q", k)}
		}
		t.colIdx[k] = j
	}
	for i, row := range cells {
		if len(row) != len(t.colKeys) {
			return nil, &ParseError{Reason: fmt.Sprintf("row %q has %d cells, want %d", t.rowKeys[i], len(row), len(t.colKeys))}
		}
		t.cells[i] = append([]any(nil), row...)
	}
	return t, nil
}

// NumRows returns the number of data rows.
func (t *Table) NumRows() int { return len(t.rowKeys) }

// NumCols returns the number of columns.
func (t *Table) NumCols() int { return len(t.colKeys) }

// RowKeys returns the row keys in table order.
func (t *Table) RowKeys() []string { return append([]string(nil), t.rowKeys...) }

// ColKeys returns the column keys in table order.
func (t *Table) ColKeys() []string { return append([]string(nil), t.colKeys...) }

// HasRow reports whether a row key exists.
func (t *Table) HasRow(key string) bool {
	_, ok := t.rowIdx[key]
	return ok
}

// HasCol reports whether a column key exists.
func (t *Table) HasCol(key string) bool {
	_, ok := t.colIdx[key]
	return ok
}

// Get returns the cell addressed by row and column key.
func (t *Table) Get(rowKey, colKey string) (any, error) {
	i, ok := t.rowIdx[rowKey]
	if !ok {
		return nil, &KeyNotFoundError{Axis: "row", Key: rowKey}
	}
	j, ok := t.colIdx[colKey]
	if !ok {
		return nil, &KeyNotFoundError{Axis: "column", Key: colKey}
	}
	return t.cells[i][j], nil
}

// GetAt returns the cell at raw 0-based positions.
func (t *Table) GetAt(row, col int) (any, error) {
	if row < 0 || row >= len(t.rowKeys) {
		return nil, fmt.Errorf("table: row %d out of range [0,%d)", row, len(t.rowKeys))
	}
	if col < 0 || col >= len(t.colKeys) {
		return nil, fmt.Errorf("table: column %d out of range [0,%d)", col, len(t.colKeys))
	}
	return t.cells[row][col], nil
}

// Set replaces one cell in place. It is used only during controlled updates
// such as merging a custom override file, before the table is shared.
func (t *Table) Set(rowKey, colKey string, v any) error {
	i, ok := t.rowIdx[rowKey]
	if !ok {
		return &KeyNotFoundError{Axis: "row", Key: rowKey}
	}
	j, ok := t.colIdx[colKey]
	if !ok {
		return &KeyNotFoundError{Axis: "column", Key: colKey}
	}
	t.cells[i][j] = v
	return nil
}

// Select returns a new table restricted to the given keys, preserving the
// relative order of the surviving keys as in the receiver. An empty key set
// means "all keys of that axis". Unknown keys fail with KeyNotFoundError.
func (t *Table) Select(rowKeys, colKeys []string) (*Table, error) {
	keepRows, err := t.keep("row", t.rowIdx, t.rowKeys, rowKeys)
	if err != nil {
		return nil, err
	}
	keepCols, err := t.keep("column", t.colIdx, t.colKeys, colKeys)
	if err != nil {
		return nil, err
	}

	out := &Table{
		rowIdx: make(map[string]int, len(keepRows)),
		colIdx: make(map[string]int, len(keepCols)),
	}
	for _, i := range keepRows {
		out.rowIdx[t.rowKeys[i]] = len(out.rowKeys)
		out.rowKeys = append(out.rowKeys, t.rowKeys[i])
		row := make([]any, 0, len(keepCols))
		for _, j := range keepCols {
			row = append(row, t.cells[i][j])
		}
		out.cells = append(out.cells, row)
	}
	for _, j := range keepCols {
		out.colIdx[t.colKeys[j]] = len(out.colKeys)
		out.colKeys = append(out.colKeys, t.colKeys[j])
	}
	return out, nil
}

// keep maps a requested key subset to ascending source positions.
func (t *Table) keep(axis string, idx map[string]int, all, requested []string) ([]int, error) {
	if len(requested) == 0 {
		pos := make([]int, len(all))
		for i := range all {
			pos[i] = i
		}
		return pos, nil
	}
	want := make(map[string]struct{}, len(requested))
	for _, k := range requested {
		if _, ok := idx[k]; !ok {
			return nil, &KeyNotFoundError{Axis: axis, Key: k}
		}
		want[k] = struct{}{}
	}
	var pos []int
	for i, k := range all {
		if _, ok := want[k]; ok {
			pos = append(pos, i)
		}
	}
	return pos, nil
}

// Equal reports whether both tables have identical key orderings and cell
// contents. Numeric cells compare by value and type; NaN never equals NaN.
func (t *Table) Equal(o *Table) bool {
	if o == nil {
		return false
	}
	if len(t.rowKeys) != len(o.rowKeys) || len(t.colKeys) != len(o.colKeys) {
		return false
	}
	for i := range t.rowKeys {
		if t.rowKeys[i] != o.rowKeys[i] {
			return false
		}
	}
	for j := range t.colKeys {
		if t.colKeys[j] != o.colKeys[j] {
			return false
		}
	}
	for i := range t.cells {
		for j := range t.cells[i] {
			if t.cells[i][j] != o.cells[i][j] {
				return false
			}
		}
	}
	return true
}

// Float converts a cell to float64. Integer cells widen; string cells fail.
func Float(cell any) (float64, bool) {
	switch v := cell.(type) {
	case float64:
		return v, !math.IsNaN(v)
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}

// Int converts a cell to int64. Float cells convert only when integral.
func Int(cell any) (int64, bool) {
	switch v := cell.(type) {
	case int64:
		return v, true
	case float64:
		if v == math.Trunc(v) && !math.IsInf(v, 0) {
			return int64(v), true
		}
		return 0, false
	default:
		return 0, false
	}
}
