// Package trace defines the task resource-usage record supplied by the host
// workflow engine and a reader for tabular trace files. The footprint core
// consumes Records and never mutates them.
package trace

import (
	"time"

	"github.com/ja7ad/co2footprint/pkg/types"
)

// Record is one finished task's resource usage as reported by the engine.
// Numeric fields are pointers so an absent value is distinguishable from a
// reported zero; the default/fallback policies in pkg/footprint depend on
// that distinction.
type Record struct {
	TaskID  string
	Process string
	Status  string

	CPUModel   string
	RealtimeMs *int64   // wall-clock runtime in milliseconds
	CPUs       *int     // requested CPU count
	CPUPercent *float64 // utilization across all cores, 100 per fully used core

	Memory  *types.Bytes // requested memory
	PeakRSS *types.Bytes // peak resident set size

	CompletedAt time.Time // zero when the engine did not report it
}

// RuntimeHours returns the runtime in hours, or (0, false) when unreported.
func (r *Record) RuntimeHours() (float64, bool) {
	if r.RealtimeMs == nil {
		return 0, false
	}
	return float64(*r.RealtimeMs) / (1000 * 60 * 60), true
}

// Label identifies the task in logs and statistics output.
func (r *Record) Label() string {
	if r.TaskID != "" {
		return r.TaskID
	}
	return r.Process
}
