// Package intensity resolves grid carbon intensity (gCO2e/kWh) for a zone
// and point in time, blending a static fallback table with an optional live
// polled time series.
package intensity

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ja7ad/co2footprint/pkg/table"
)

// GlobalZone is the distinguished static row used when a zone is unknown.
const GlobalZone = "GLOBAL"

// KeyColumn and ValueColumn are the required columns of a carbon-intensity
// reference CSV.
const (
	KeyColumn   = "Zone id"
	ValueColumn = "Carbon intensity gCO2eq/kWh"
)

// ErrUnresolvable means not even the GLOBAL row exists: the reference data is
// misconfigured. This is fatal for the run, not a per-task condition.
var ErrUnresolvable = errors.New("intensity: no carbon intensity for zone and no GLOBAL fallback")

// Bundled yearly average intensity per zone, gCO2e/kWh life-cycle.
//
//go:embed ci.csv
var ciCSV []byte

// DefaultTable loads the bundled zone-intensity table.
func DefaultTable() (*table.Table, error) {
	return table.FromCSV(bytes.NewReader(ciCSV), ',', 0, KeyColumn)
}

// Resolver answers "what was the carbon intensity for this run's zone at
// time t". Lookup order: live series, static zone row, GLOBAL row.
type Resolver struct {
	tbl    *table.Table
	zone   string
	series *Series
}

// NewResolver builds a resolver over a static table. series may be nil when
// live polling is disabled. The zone key is case-normalized.
func NewResolver(tbl *table.Table, zone string, series *Series) (*Resolver, error) {
	if !tbl.HasCol(ValueColumn) {
		return nil, fmt.Errorf("intensity: reference table lacks column %q", ValueColumn)
	}
	return &Resolver{tbl: tbl, zone: strings.ToUpper(strings.TrimSpace(zone)), series: series}, nil
}

// Zone returns the normalized zone code.
func (r *Resolver) Zone() string { return r.zone }

// At resolves the intensity for time t. A live reading covering t wins over
// the static table; outside coverage the zone row applies, then GLOBAL.
// ErrUnresolvable is returned only when even GLOBAL is absent.
func (r *Resolver) At(t time.Time) (float64, error) {
	if r.series != nil {
		if v, ok := r.series.At(t); ok {
			return v, nil
		}
	}
	if r.zone != "" {
		if v, ok := r.static(r.zone); ok {
			return v, nil
		}
	}
	if v, ok := r.static(GlobalZone); ok {
		return v, nil
	}
	return 0, fmt.Errorf("%w (zone %q)", ErrUnresolvable, r.zone)
}

func (r *Resolver) static(zone string) (float64, bool) {
	cell, err := r.tbl.Get(zone, ValueColumn)
	if err != nil {
		return 0, false
	}
	return table.Float(cell)
}
