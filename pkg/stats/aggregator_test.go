package stats

import (
	"fmt"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ja7ad/co2footprint/pkg/footprint"
	"github.com/ja7ad/co2footprint/pkg/types"
)

func rec(process, id string, co2e float64) *footprint.Record {
	return &footprint.Record{
		TaskID:  id,
		Process: process,
		CO2e:    types.Mass(co2e),
		Energy:  types.Energy(co2e * 2),
	}
}

func TestQuantile_R7Reference(t *testing.T) {
	v := []float64{1, 2, 3, 4, 5}
	assert.Equal(t, 1.0, Quantile(v, 0))
	assert.Equal(t, 2.0, Quantile(v, 0.25), "pos 1 of 4 is exact, no interpolation")
	assert.Equal(t, 3.0, Quantile(v, 0.5))
	assert.Equal(t, 4.0, Quantile(v, 0.75))
	assert.Equal(t, 5.0, Quantile(v, 1))

	// Even length interpolates: q1 of [1..4] at pos 0.75 = 1 + 0.75*(2-1).
	assert.InDelta(t, 1.75, Quantile([]float64{1, 2, 3, 4}, 0.25), 1e-12)
	assert.InDelta(t, 2.5, Quantile([]float64{1, 2, 3, 4}, 0.5), 1e-12)
}

func TestQuantile_Degenerate(t *testing.T) {
	assert.True(t, math.IsNaN(Quantile(nil, 0.5)))
	assert.Equal(t, 7.0, Quantile([]float64{7}, 0.25))
}

func TestComputeStat_ValuesAndLabels(t *testing.T) {
	a := New(MetricCO2e)
	for i, v := range []float64{5, 1, 3, 2, 4} {
		a.Add(rec("ALIGN", fmt.Sprintf("t%d", i), v))
	}

	stats := a.ProcessStats()["ALIGN"]
	require.Len(t, stats, 1)
	s := stats[0]

	assert.Equal(t, 5, s.Count)
	assert.InDelta(t, 3.0, s.Mean, 1e-12)
	assert.Equal(t, 1.0, s.Min)
	assert.Equal(t, 2.0, s.Q1)
	assert.Equal(t, 3.0, s.Median)
	assert.Equal(t, 4.0, s.Q3)
	assert.Equal(t, 5.0, s.Max)

	assert.Equal(t, "t1", s.MinLabel)
	assert.Equal(t, "t3", s.Q1Label)
	assert.Equal(t, "t2", s.MedianLabel)
	assert.Equal(t, "t4", s.Q3Label)
	assert.Equal(t, "t0", s.MaxLabel)
}

func TestComputeStat_TiesBreakByInsertionOrder(t *testing.T) {
	a := New(MetricCO2e)
	a.Add(rec("P", "first", 1))
	a.Add(rec("P", "second", 1))
	a.Add(rec("P", "third", 1))

	s := a.ProcessStats()["P"][0]
	assert.Equal(t, "first", s.MinLabel)
	assert.Equal(t, "second", s.MedianLabel)
	assert.Equal(t, "third", s.MaxLabel)
}

func TestProcessStats_GroupsByProcess(t *testing.T) {
	a := New()
	a.Add(rec("ALIGN", "a1", 10))
	a.Add(rec("SORT", "s1", 1))
	a.Add(rec("ALIGN", "a2", 20))

	out := a.ProcessStats()
	require.Len(t, out, 2)
	assert.Equal(t, []string{"ALIGN", "SORT"}, a.Processes())

	align := out["ALIGN"]
	require.Len(t, align, 2, "default metrics are co2e and energy")
	assert.Equal(t, MetricCO2e, align[0].Metric)
	assert.Equal(t, MetricEnergy, align[1].Metric)
	assert.InDelta(t, 15.0, align[0].Mean, 1e-12)
	assert.InDelta(t, 30.0, align[1].Mean, 1e-12, "energy is co2e*2 in this fixture")
}

func TestRunTotals(t *testing.T) {
	a := New()
	market := types.Mass(3)
	r := rec("P", "t", 10)
	r.CO2eMarket = &market
	a.Add(r)
	a.Add(rec("Q", "u", 5))

	tot := a.RunTotals()
	assert.Equal(t, 2, tot.Tasks)
	assert.InDelta(t, 15.0, tot.CO2eGrams, 1e-12)
	assert.InDelta(t, 30.0, tot.EnergyWh, 1e-12)
	assert.InDelta(t, 3.0, tot.CO2eMarket, 1e-12)
}

func TestAdd_ConcurrentNoLostUpdates(t *testing.T) {
	a := New()
	const (
		workers = 32
		each    = 50
	)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < each; i++ {
				a.Add(rec("SAME", fmt.Sprintf("w%d-%d", w, i), float64(i)))
				a.Add(rec(fmt.Sprintf("P%d", w%4), fmt.Sprintf("x%d-%d", w, i), float64(i)))
			}
		}(w)
	}
	wg.Wait()

	assert.Equal(t, workers*each, a.Count("SAME"))
	assert.Equal(t, workers*each*2, a.RunTotals().Tasks)
}

func TestDeterminism_SameInputSameOutput(t *testing.T) {
	build := func() *Aggregator {
		a := New(MetricCO2e)
		for i, v := range []float64{2, 2, 1, 3, 1} {
			a.Add(rec("P", fmt.Sprintf("t%d", i), v))
		}
		return a
	}

	s1 := build().ProcessStats()["P"][0]
	s2 := build().ProcessStats()["P"][0]
	assert.Equal(t, s1, s2)
}
