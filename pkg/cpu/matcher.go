// Package cpu resolves free-text CPU model strings, as reported by schedulers
// and /proc/cpuinfo, to reference power-draw data.
package cpu

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ja7ad/co2footprint/pkg/logx"
	"github.com/ja7ad/co2footprint/pkg/table"
)

// FallbackModel is the distinguished row used when no unique match exists.
const FallbackModel = "default"

// Required columns of a TDP reference table.
const (
	ColTDP     = "tdp (W)"
	ColCores   = "cores"
	ColThreads = "threads"
)

// CPU is one resolved reference row.
type CPU struct {
	Model   string
	TDP     float64 // watts
	Cores   int
	Threads int
}

// CoreWatts returns the power draw attributed to a single core.
func (c CPU) CoreWatts() float64 { return c.TDP / float64(c.Cores) }

// ThreadWatts returns the power draw attributed to a single hardware thread.
func (c CPU) ThreadWatts() float64 { return c.TDP / float64(c.Threads) }

// Options tune a Matcher. Overrides > 0 win over the table value for every
// resolved model, matched or fallback.
type Options struct {
	DisableFallback bool // no unique match returns nil instead of the fallback row

	TDP     float64 // watts
	Cores   int
	Threads int

	Log *logx.Once
}

// Matcher finds the unique reference row for a reported model name.
type Matcher struct {
	tbl  *table.Table
	opts Options
	warn *logx.Once

	// normalized row keys in table order, computed once
	keys []string
	norm []string
}

// NewMatcher builds a matcher over a TDP reference table. The table must
// carry the tdp/cores/threads columns; when fallback is enabled it must also
// carry the FallbackModel row.
func NewMatcher(tbl *table.Table, opts Options) (*Matcher, error) {
	for _, col := range []string{ColTDP, ColCores, ColThreads} {
		if !tbl.HasCol(col) {
			return nil, fmt.Errorf("cpu: reference table lacks column %q", col)
		}
	}
	if !opts.DisableFallback && !tbl.HasRow(FallbackModel) {
		return nil, fmt.Errorf("cpu: reference table lacks fallback row %q", FallbackModel)
	}
	if opts.Log == nil {
		opts.Log = logx.New(nil)
	}
	m := &Matcher{tbl: tbl, opts: opts, warn: opts.Log}
	for _, k := range tbl.RowKeys() {
		m.keys = append(m.keys, k)
		m.norm = append(m.norm, normalize(k))
	}
	return m, nil
}

// Match resolves a reported model string to exactly one reference row.
//
// No unique match falls back to the FallbackModel row with a deduplicated
// warning, or returns nil when fallback is disabled. Ambiguity (more than one
// matching row) is never auto-resolved; it takes the same fallback path but
// is logged distinctly.
func (m *Matcher) Match(model string) *CPU {
	key, n := m.findUnique(model)

	// Schedulers commonly append a clock suffix ("... @ 2.30GHz"); retry on
	// the text before the last "@".
	if n != 1 {
		if at := strings.LastIndex(model, "@"); at >= 0 {
			key, n = m.findUnique(model[:at])
		}
	}

	if n == 1 {
		c := m.row(key)
		return &c
	}

	if m.opts.DisableFallback {
		return nil
	}

	fb := m.row(FallbackModel)
	if n > 1 {
		m.warn.Warn("cpu-ambiguous:"+model,
			"CPU model matches more than one reference row, using fallback power draw",
			"model", model, "matches", n, "fallbackWatts", fb.TDP)
	} else {
		m.warn.Warn("cpu-unmatched:"+model,
			"CPU model not found in reference table, using fallback power draw",
			"model", model, "fallbackWatts", fb.TDP)
	}
	return &fb
}

// Fallback returns the fallback row with overrides applied.
func (m *Matcher) Fallback() CPU { return m.row(FallbackModel) }

// findUnique returns the matching row key when exactly one normalized key
// matches the pattern built from model, along with the match count.
func (m *Matcher) findUnique(model string) (string, int) {
	re, err := pattern(model)
	if err != nil {
		return "", 0
	}
	var found string
	n := 0
	for i, norm := range m.norm {
		if re.MatchString(norm) {
			found = m.keys[i]
			n++
		}
	}
	if n != 1 {
		return "", n
	}
	return found, 1
}

func (m *Matcher) row(key string) CPU {
	c := CPU{Model: key, TDP: 1, Cores: 1, Threads: 1}
	if v, err := m.tbl.Get(key, ColTDP); err == nil {
		if f, ok := table.Float(v); ok {
			c.TDP = f
		}
	}
	if v, err := m.tbl.Get(key, ColCores); err == nil {
		if i, ok := table.Int(v); ok && i > 0 {
			c.Cores = int(i)
		}
	}
	if v, err := m.tbl.Get(key, ColThreads); err == nil {
		if i, ok := table.Int(v); ok && i > 0 {
			c.Threads = int(i)
		}
	}
	// Explicit configuration beats the table.
	if m.opts.TDP > 0 {
		c.TDP = m.opts.TDP
	}
	if m.opts.Cores > 0 {
		c.Cores = m.opts.Cores
	}
	if m.opts.Threads > 0 {
		c.Threads = m.opts.Threads
	}
	return c
}

// decorations strips trademark/registered marks OS reporting tacks onto
// vendor strings, after lower-casing.
var decorations = strings.NewReplacer(
	"(r)", "", "(tm)", "", "(c)", "",
	"®", "", "™", "", "©", "",
)

// normalize lower-cases, strips decoration marks, drops the filler words
// "processor" and "cpu", and collapses whitespace runs to single spaces.
func normalize(s string) string {
	s = decorations.Replace(strings.ToLower(s))
	fields := strings.Fields(s)
	kept := fields[:0]
	for _, f := range fields {
		if f == "processor" || f == "cpu" {
			continue
		}
		kept = append(kept, f)
	}
	return strings.Join(kept, " ")
}

// pattern turns a reported model into an unanchored regex over normalized
// keys, with whitespace between tokens optional.
func pattern(model string) (*regexp.Regexp, error) {
	norm := normalize(model)
	if norm == "" {
		return nil, fmt.Errorf("cpu: empty model after normalization")
	}
	tokens := strings.Split(norm, " ")
	for i := range tokens {
		tokens[i] = regexp.QuoteMeta(tokens[i])
	}
	return regexp.Compile(strings.Join(tokens, `\s*`))
}
