// Package stats rolls per-task emissions records up to per-process and
// whole-run summaries using order statistics.
package stats

import (
	"sort"
	"sync"

	"github.com/ja7ad/co2footprint/pkg/footprint"
)

// Metric selects which numeric field of a record a stat block describes.
type Metric int

const (
	MetricCO2e Metric = iota
	MetricEnergy
	MetricRuntime
	MetricMemory
)

// String names the metric for report output.
func (m Metric) String() string {
	switch m {
	case MetricCO2e:
		return "co2e"
	case MetricEnergy:
		return "energy"
	case MetricRuntime:
		return "runtime"
	case MetricMemory:
		return "memory"
	default:
		return "unknown"
	}
}

// valueOf is the pure accessor behind each metric.
func (m Metric) valueOf(r *footprint.Record) float64 {
	switch m {
	case MetricCO2e:
		return r.CO2e.Grams()
	case MetricEnergy:
		return r.Energy.Wh()
	case MetricRuntime:
		return r.RuntimeH
	case MetricMemory:
		return float64(r.Memory)
	default:
		return 0
	}
}

// Stat is one metric's summary over a process's tasks. The label fields name
// the task that produced each boundary statistic.
type Stat struct {
	Metric Metric
	Count  int
	Mean   float64

	Min, Q1, Median, Q3, Max                          float64
	MinLabel, Q1Label, MedianLabel, Q3Label, MaxLabel string
}

// entry keeps the record together with its insertion rank for deterministic
// tie-breaking.
type entry struct {
	rec *footprint.Record
	seq int
}

// bucket holds one process's records behind its own lock, so concurrent
// completions of unrelated processes never serialize on each other.
type bucket struct {
	mu      sync.Mutex
	entries []entry
}

// Aggregator accumulates emissions records grouped by process name. Add is
// safe for concurrent callers; the compute methods are meant for after the
// run has drained.
type Aggregator struct {
	mu      sync.RWMutex
	buckets map[string]*bucket
	metrics []Metric
}

// New creates an aggregator tracking the given metrics, or co2e and energy
// when none are named.
func New(metrics ...Metric) *Aggregator {
	if len(metrics) == 0 {
		metrics = []Metric{MetricCO2e, MetricEnergy}
	}
	return &Aggregator{buckets: make(map[string]*bucket), metrics: metrics}
}

// Add appends one record to its process bucket.
func (a *Aggregator) Add(rec *footprint.Record) {
	a.mu.RLock()
	b := a.buckets[rec.Process]
	a.mu.RUnlock()
	if b == nil {
		a.mu.Lock()
		if b = a.buckets[rec.Process]; b == nil {
			b = &bucket{}
			a.buckets[rec.Process] = b
		}
		a.mu.Unlock()
	}

	b.mu.Lock()
	b.entries = append(b.entries, entry{rec: rec, seq: len(b.entries)})
	b.mu.Unlock()
}

// Count returns the number of records collected for a process.
func (a *Aggregator) Count(process string) int {
	a.mu.RLock()
	b := a.buckets[process]
	a.mu.RUnlock()
	if b == nil {
		return 0
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.entries)
}

// Processes returns the tracked process names sorted for stable output.
func (a *Aggregator) Processes() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	names := make([]string, 0, len(a.buckets))
	for name := range a.buckets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ProcessStats computes, per process, one stat block per tracked metric.
// Call after the run has drained; results are deterministic for a given
// record set and insertion order.
func (a *Aggregator) ProcessStats() map[string][]Stat {
	out := make(map[string][]Stat)
	for _, name := range a.Processes() {
		a.mu.RLock()
		b := a.buckets[name]
		a.mu.RUnlock()

		b.mu.Lock()
		entries := append([]entry(nil), b.entries...)
		b.mu.Unlock()

		stats := make([]Stat, 0, len(a.metrics))
		for _, m := range a.metrics {
			stats = append(stats, computeStat(entries, m))
		}
		out[name] = stats
	}
	return out
}

// Totals is the whole-run reduction over every process.
type Totals struct {
	Tasks      int
	EnergyWh   float64
	CO2eGrams  float64
	CO2eMarket float64 // zero when no market CI was configured
}

// RunTotals reduces per-process records to whole-run sums.
func (a *Aggregator) RunTotals() Totals {
	var t Totals
	for _, name := range a.Processes() {
		a.mu.RLock()
		b := a.buckets[name]
		a.mu.RUnlock()

		b.mu.Lock()
		for _, e := range b.entries {
			t.Tasks++
			t.EnergyWh += e.rec.Energy.Wh()
			t.CO2eGrams += e.rec.CO2e.Grams()
			if e.rec.CO2eMarket != nil {
				t.CO2eMarket += e.rec.CO2eMarket.Grams()
			}
		}
		b.mu.Unlock()
	}
	return t
}

// computeStat sorts a copy of the entries by metric value, stable on
// insertion order, and reads the five boundary statistics plus the mean.
func computeStat(entries []entry, m Metric) Stat {
	s := Stat{Metric: m, Count: len(entries)}
	if len(entries) == 0 {
		return s
	}

	sorted := append([]entry(nil), entries...)
	sort.SliceStable(sorted, func(i, j int) bool {
		vi, vj := m.valueOf(sorted[i].rec), m.valueOf(sorted[j].rec)
		if vi != vj {
			return vi < vj
		}
		return sorted[i].seq < sorted[j].seq
	})

	values := make([]float64, len(sorted))
	var sum float64
	for i, e := range sorted {
		values[i] = m.valueOf(e.rec)
		sum += values[i]
	}
	s.Mean = sum / float64(len(values))

	label := func(q float64) string {
		return sorted[quantileIndex(len(sorted), q)].rec.Label()
	}
	s.Min, s.MinLabel = Quantile(values, 0), label(0)
	s.Q1, s.Q1Label = Quantile(values, 0.25), label(0.25)
	s.Median, s.MedianLabel = Quantile(values, 0.5), label(0.5)
	s.Q3, s.Q3Label = Quantile(values, 0.75), label(0.75)
	s.Max, s.MaxLabel = Quantile(values, 1), label(1)
	return s
}
