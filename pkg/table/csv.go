package table

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// FromCSV parses delimited text into a Table.
//
// headerRow is the 0-based position of the header line; earlier lines are
// skipped (some sources carry a title or provenance line first). keyColumn
// names the column whose cells become the row keys; it is removed from the
// data columns. An empty keyColumn keeps all columns and numbers the rows
// "0", "1", ... in file order.
//
// Cell types are inferred per cell: integer, then float, else string.
func FromCSV(r io.Reader, sep rune, headerRow int, keyColumn string) (*Table, error) {
	cr := csv.NewReader(r)
	cr.Comma = sep
	cr.FieldsPerRecord = -1 // cell-count mismatches are reported as ParseError below
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, &ParseError{Reason: err.Error()}
	}
	if headerRow < 0 || headerRow >= len(records) {
		return nil, &ParseError{Reason: fmt.Sprintf("header row %d outside %d-line source", headerRow, len(records))}
	}

	header := records[headerRow]
	keyCol := -1
	if keyColumn != "" {
		for j, name := range header {
			if name == keyColumn {
				keyCol = j
				break
			}
		}
		if keyCol < 0 {
			return nil, &ParseError{Line: headerRow + 1, Reason: fmt.Sprintf("row-key column %q not in header", keyColumn)}
		}
	}

	colKeys := make([]string, 0, len(header))
	for j, name := range header {
		if j != keyCol {
			colKeys = append(colKeys, name)
		}
	}

	var rowKeys []string
	var cells [][]any
	for n, rec := range records[headerRow+1:] {
		line := headerRow + n + 2
		if len(rec) != len(header) {
			return nil, &ParseError{Line: line, Reason: fmt.Sprintf("%d cells, header has %d", len(rec), len(header))}
		}
		row := make([]any, 0, len(colKeys))
		key := strconv.Itoa(n)
		for j, raw := range rec {
			if j == keyCol {
				key = strings.TrimSpace(raw)
				continue
			}
			row = append(row, inferCell(raw))
		}
		rowKeys = append(rowKeys, key)
		cells = append(cells, row)
	}
	return New(rowKeys, colKeys, cells)
}

// WriteCSV writes the table back out with the row key as leading column.
// A table written with key column name k round-trips through FromCSV(k).
func (t *Table) WriteCSV(w io.Writer, sep rune, keyColumn string) error {
	cw := csv.NewWriter(w)
	cw.Comma = sep

	header := append([]string{keyColumn}, t.colKeys...)
	if err := cw.Write(header); err != nil {
		return err
	}
	for i, key := range t.rowKeys {
		rec := make([]string, 0, len(t.colKeys)+1)
		rec = append(rec, key)
		for _, cell := range t.cells[i] {
			rec = append(rec, formatCell(cell))
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func inferCell(raw string) any {
	s := strings.TrimSpace(raw)
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}

func formatCell(cell any) string {
	switch v := cell.(type) {
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}
