package trace

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ja7ad/co2footprint/pkg/types"
)

// Column names accepted in a trace file header. Engines differ slightly in
// what they call the process column, so both spellings are recognized.
const (
	colTaskID   = "task_id"
	colName     = "name"
	colProcess  = "process"
	colStatus   = "status"
	colRealtime = "realtime"
	colCPUs     = "cpus"
	colPctCPU   = "%cpu"
	colCPUModel = "cpu_model"
	colMemory   = "memory"
	colPeakRSS  = "peak_rss"
	colComplete = "complete"
)

// missing is the placeholder engines write for unreported cells.
const missing = "-"

// ReadFile loads a tab-separated trace file into Records.
func ReadFile(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("trace: %w", err)
	}
	defer f.Close()
	return Read(f)
}

// Read parses tab-separated trace text. The first line is the header; cells
// holding the missing placeholder (or nothing) leave the field unset rather
// than failing the row.
func Read(r io.Reader) ([]Record, error) {
	cr := csv.NewReader(r)
	cr.Comma = '\t'
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("trace: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	col := make(map[string]int, len(rows[0]))
	for j, name := range rows[0] {
		col[strings.ToLower(strings.TrimSpace(name))] = j
	}

	cell := func(row []string, name string) (string, bool) {
		j, ok := col[name]
		if !ok || j >= len(row) {
			return "", false
		}
		s := strings.TrimSpace(row[j])
		if s == "" || s == missing {
			return "", false
		}
		return s, true
	}

	records := make([]Record, 0, len(rows)-1)
	for n, row := range rows[1:] {
		var rec Record
		if v, ok := cell(row, colTaskID); ok {
			rec.TaskID = v
		}
		if v, ok := cell(row, colProcess); ok {
			rec.Process = v
		} else if v, ok := cell(row, colName); ok {
			rec.Process = v
		}
		if v, ok := cell(row, colStatus); ok {
			rec.Status = v
		}
		if v, ok := cell(row, colCPUModel); ok {
			rec.CPUModel = v
		}
		if v, ok := cell(row, colRealtime); ok {
			ms, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("trace: line %d: realtime %q: %w", n+2, v, err)
			}
			rec.RealtimeMs = &ms
		}
		if v, ok := cell(row, colCPUs); ok {
			c, err := strconv.Atoi(v)
			if err != nil {
				return nil, fmt.Errorf("trace: line %d: cpus %q: %w", n+2, v, err)
			}
			rec.CPUs = &c
		}
		if v, ok := cell(row, colPctCPU); ok {
			p, err := strconv.ParseFloat(strings.TrimSuffix(v, "%"), 64)
			if err != nil {
				return nil, fmt.Errorf("trace: line %d: %%cpu %q: %w", n+2, v, err)
			}
			rec.CPUPercent = &p
		}
		if v, ok := cell(row, colMemory); ok {
			b, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("trace: line %d: memory %q: %w", n+2, v, err)
			}
			m := types.Bytes(b)
			rec.Memory = &m
		}
		if v, ok := cell(row, colPeakRSS); ok {
			b, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("trace: line %d: peak_rss %q: %w", n+2, v, err)
			}
			m := types.Bytes(b)
			rec.PeakRSS = &m
		}
		if v, ok := cell(row, colComplete); ok {
			if ts, err := time.Parse(time.RFC3339, v); err == nil {
				rec.CompletedAt = ts
			}
		}
		records = append(records, rec)
	}
	return records, nil
}
