package cpu

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"

	"github.com/ja7ad/co2footprint/pkg/logx"
	"github.com/ja7ad/co2footprint/pkg/table"
)

// Bundled TDP reference data, one row per CPU model plus the fallback row.
// Derived from vendor specification sheets and the Green Algorithms dataset.
//
//go:embed tdp.csv
var tdpCSV []byte

// KeyColumn is the row-key column of a TDP reference CSV.
const KeyColumn = "name"

// DefaultTable loads the bundled TDP reference table.
func DefaultTable() (*table.Table, error) {
	return table.FromCSV(bytes.NewReader(tdpCSV), ',', 0, KeyColumn)
}

// LoadCustomFile reads a user-supplied TDP CSV with the same schema as the
// bundled table.
func LoadCustomFile(path string) (*table.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cpu: custom TDP file: %w", err)
	}
	defer f.Close()
	return table.FromCSV(f, ',', 0, KeyColumn)
}

// Merge overlays custom rows onto base, producing a new table. Rows present
// in both are taken from custom with a logged conflict; rows only in custom
// are appended after the base rows. The custom table must carry every base
// column.
func Merge(base, custom *table.Table, log *logx.Once) (*table.Table, error) {
	if log == nil {
		log = logx.New(nil)
	}
	cols := base.ColKeys()
	for _, col := range cols {
		if !custom.HasCol(col) {
			return nil, fmt.Errorf("cpu: custom table lacks column %q", col)
		}
	}

	pick := func(t *table.Table, key string) ([]any, error) {
		row := make([]any, 0, len(cols))
		for _, col := range cols {
			v, err := t.Get(key, col)
			if err != nil {
				return nil, err
			}
			row = append(row, v)
		}
		return row, nil
	}

	var rowKeys []string
	var cells [][]any
	for _, key := range base.RowKeys() {
		src := base
		if custom.HasRow(key) {
			log.Warn("cpu-merge:"+key, "custom TDP entry overrides bundled model", "model", key)
			src = custom
		}
		row, err := pick(src, key)
		if err != nil {
			return nil, err
		}
		rowKeys = append(rowKeys, key)
		cells = append(cells, row)
	}
	for _, key := range custom.RowKeys() {
		if base.HasRow(key) {
			continue
		}
		row, err := pick(custom, key)
		if err != nil {
			return nil, err
		}
		rowKeys = append(rowKeys, key)
		cells = append(cells, row)
	}
	return table.New(rowKeys, cols, cells)
}
