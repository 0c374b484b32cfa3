package footprint

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ja7ad/co2footprint/pkg/cpu"
	"github.com/ja7ad/co2footprint/pkg/intensity"
	"github.com/ja7ad/co2footprint/pkg/logx"
	"github.com/ja7ad/co2footprint/pkg/table"
	"github.com/ja7ad/co2footprint/pkg/trace"
	"github.com/ja7ad/co2footprint/pkg/types"
)

const tdpCSV = `name,tdp (W),cores,threads
Intel Xeon Gold 6140,140,14,28
default,12,1,2
`

const ciCSV = `Zone id,Carbon intensity gCO2eq/kWh
DE,344.9
GLOBAL,475
`

func newComputer(t *testing.T, cfg *Config) (*Computer, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	warn := logx.New(slog.New(slog.NewTextHandler(&buf, nil)))

	tdp, err := table.FromCSV(strings.NewReader(tdpCSV), ',', 0, "name")
	require.NoError(t, err)
	matcher, err := cpu.NewMatcher(tdp, cpu.Options{Log: warn})
	require.NoError(t, err)

	zone := ""
	if cfg != nil {
		zone = cfg.Zone
	}
	ci, err := table.FromCSV(strings.NewReader(ciCSV), ',', 0, intensity.KeyColumn)
	require.NoError(t, err)
	resolver, err := intensity.NewResolver(ci, zone, nil)
	require.NoError(t, err)

	return NewComputer(cfg, matcher, resolver, warn), &buf
}

func ptr[T any](v T) *T { return &v }

func fullTask() *trace.Record {
	return &trace.Record{
		TaskID:      "7",
		Process:     "ALIGN",
		Status:      "COMPLETED",
		CPUModel:    "Intel(R) Xeon(R) Gold 6140 CPU @ 2.30GHz",
		RealtimeMs:  ptr[int64](3600000), // 1 h
		CPUs:        ptr(4),
		CPUPercent:  ptr(400.0),
		Memory:      ptr(types.Bytes(8 << 30)),
		CompletedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

// Reference case: 1 h, 4 cores at 10 W each fully used, 8 GB at 0.3725 W/GB,
// PUE 1, CI 475 -> 0.04298 kWh and 20.4155 g.
func TestCompute_ReferenceValues(t *testing.T) {
	c, _ := newComputer(t, &Config{PUE: 1.0, CI: 475, PowerDrawCPU: 10})

	rec, err := c.Compute(fullTask())
	require.NoError(t, err)

	assert.InDelta(t, 0.04298, rec.Energy.KWh(), 1e-9)
	assert.InDelta(t, 20.4155, rec.CO2e.Grams(), 1e-6)
	assert.Equal(t, 475.0, rec.CI)
	assert.Equal(t, 4, rec.CPUs)
	assert.InDelta(t, 1.0, rec.RuntimeH, 1e-12)
	assert.Nil(t, rec.CO2eMarket)
}

func TestCompute_TableDrawAndZoneCI(t *testing.T) {
	c, _ := newComputer(t, &Config{PUE: 1.0, Zone: "DE"})

	rec, err := c.Compute(fullTask())
	require.NoError(t, err)

	// 140 W / 14 cores = 10 W per core, CI from the DE row.
	assert.InDelta(t, 10.0, rec.PowerDrawCPU, 1e-12)
	assert.Equal(t, 344.9, rec.CI)
	assert.Equal(t, "Intel Xeon Gold 6140", rec.CPUModel)
	assert.InDelta(t, 0.04298*344.9, rec.CO2e.Grams(), 1e-6)
}

func TestCompute_PUEScalesEnergy(t *testing.T) {
	base, _ := newComputer(t, &Config{PUE: 1.0, CI: 475, PowerDrawCPU: 10})
	scaled, _ := newComputer(t, &Config{PUE: 1.67, CI: 475, PowerDrawCPU: 10})

	a, err := base.Compute(fullTask())
	require.NoError(t, err)
	b, err := scaled.Compute(fullTask())
	require.NoError(t, err)
	assert.InDelta(t, a.Energy.KWh()*1.67, b.Energy.KWh(), 1e-9)
}

func TestCompute_MarketCI(t *testing.T) {
	c, _ := newComputer(t, &Config{PUE: 1.0, CI: 475, MarketCI: 30, PowerDrawCPU: 10})

	rec, err := c.Compute(fullTask())
	require.NoError(t, err)
	require.NotNil(t, rec.CO2eMarket)
	assert.InDelta(t, 0.04298*30, rec.CO2eMarket.Grams(), 1e-6)
}

func TestCompute_DefaultsForMissingFields(t *testing.T) {
	c, buf := newComputer(t, &Config{PUE: 1.0, CI: 475, PowerDrawCPU: 10})

	task := fullTask()
	task.RealtimeMs = nil
	task.CPUs = nil
	task.CPUPercent = nil

	rec, err := c.Compute(task)
	require.NoError(t, err)
	assert.Equal(t, 1, rec.CPUs)
	assert.Equal(t, 100.0, rec.CPUUsage, "defaults to cpus*100")
	assert.Zero(t, rec.RuntimeH)
	assert.Zero(t, rec.Energy.Wh(), "zero runtime means zero energy")

	out := buf.String()
	assert.Contains(t, out, "runtime not reported")
	assert.Contains(t, out, "CPU count not reported")
	assert.Contains(t, out, "CPU usage not reported")
}

func TestCompute_ZeroUsageHonored(t *testing.T) {
	c, buf := newComputer(t, &Config{PUE: 1.0, CI: 475, PowerDrawCPU: 10})

	task := fullTask()
	task.CPUPercent = ptr(0.0)

	rec, err := c.Compute(task)
	require.NoError(t, err)
	assert.Zero(t, rec.CPUUsage)
	// Memory side still draws power.
	assert.InDelta(t, 8*0.3725*0.001, rec.Energy.KWh(), 1e-9)
	assert.Contains(t, buf.String(), "0% CPU usage")
}

func TestCompute_UsageFractionUncapped(t *testing.T) {
	c, _ := newComputer(t, &Config{PUE: 1.0, CI: 475, PowerDrawCPU: 10})

	task := fullTask()
	task.CPUs = ptr(2)
	task.CPUPercent = ptr(400.0) // oversubscribed

	rec, err := c.Compute(task)
	require.NoError(t, err)
	// fraction 2.0: 1h * 2 cores * 10W * 2.0 = 40 Wh CPU side.
	assert.InDelta(t, (40+8*0.3725)*0.001, rec.Energy.KWh(), 1e-9)
}

func TestCompute_MemoryFallbackWarnsOnce(t *testing.T) {
	c, buf := newComputer(t, &Config{PUE: 1.0, CI: 475, PowerDrawCPU: 10})

	for i := 0; i < 3; i++ {
		task := fullTask()
		task.Memory = nil
		task.PeakRSS = ptr(types.Bytes(2 << 30))
		rec, err := c.Compute(task)
		require.NoError(t, err)
		assert.Equal(t, types.Bytes(2<<30), rec.Memory)
	}
	assert.Equal(t, 1, strings.Count(buf.String(), "using peak RSS"))
}

func TestCompute_NoMemoryAtAllFailsTask(t *testing.T) {
	c, _ := newComputer(t, &Config{PUE: 1.0, CI: 475, PowerDrawCPU: 10})

	task := fullTask()
	task.Memory = nil
	task.PeakRSS = nil

	_, err := c.Compute(task)
	var mve *MissingValueError
	require.ErrorAs(t, err, &mve)
	assert.Equal(t, "memory", mve.Field)
	assert.Equal(t, "7", mve.TaskID)
}

func TestCompute_IgnoreCPUModelUsesFallback(t *testing.T) {
	c, _ := newComputer(t, &Config{PUE: 1.0, CI: 475, IgnoreCPUModel: true})

	rec, err := c.Compute(fullTask())
	require.NoError(t, err)
	assert.Equal(t, cpu.FallbackModel, rec.CPUModel)
	assert.InDelta(t, 12.0, rec.PowerDrawCPU, 1e-12)
}

func TestEquivalences(t *testing.T) {
	eq := EquivalencesOf(50000)
	require.NotNil(t, eq.PlanePercent)
	assert.InDelta(t, 100, *eq.PlanePercent, 1e-9, "exactly one reference flight stays on the percent path")
	assert.Nil(t, eq.PlaneFlights)
	assert.InDelta(t, 50000.0/175, eq.CarKm, 1e-9)
	assert.InDelta(t, 50000.0/917, eq.TreeMonths, 1e-9)

	eq = EquivalencesOf(100000)
	assert.Nil(t, eq.PlanePercent)
	require.NotNil(t, eq.PlaneFlights)
	assert.InDelta(t, 2, *eq.PlaneFlights, 1e-9)
}

func TestWithDefaults(t *testing.T) {
	cfg := withDefaults(nil)
	assert.InDelta(t, 1.67, cfg.PUE, 1e-12)
	assert.InDelta(t, 0.3725, cfg.PowerDrawMem, 1e-12)
	assert.Equal(t, time.Hour, cfg.PollInterval)

	cfg = withDefaults(&Config{PUE: 1.2, PowerDrawMem: 0.5})
	assert.InDelta(t, 1.2, cfg.PUE, 1e-12)
	assert.InDelta(t, 0.5, cfg.PowerDrawMem, 1e-12)
}
