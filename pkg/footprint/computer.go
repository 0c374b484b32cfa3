// Package footprint computes per-task energy use and CO2e emissions from
// resource-usage records, following the Green Algorithms model.
package footprint

import (
	"time"

	"github.com/ja7ad/co2footprint/pkg/cpu"
	"github.com/ja7ad/co2footprint/pkg/intensity"
	"github.com/ja7ad/co2footprint/pkg/logx"
	"github.com/ja7ad/co2footprint/pkg/trace"
	"github.com/ja7ad/co2footprint/pkg/types"
)

// Computer turns one task-usage record into one emissions Record. It holds
// no per-task state and is safe for concurrent use.
type Computer struct {
	cfg  *Config
	cpus *cpu.Matcher
	ci   *intensity.Resolver
	warn *logx.Once
}

// NewComputer wires the model together. cfg may be nil for pure defaults.
func NewComputer(cfg *Config, matcher *cpu.Matcher, resolver *intensity.Resolver, log *logx.Once) *Computer {
	if log == nil {
		log = logx.New(nil)
	}
	return &Computer{cfg: withDefaults(cfg), cpus: matcher, ci: resolver, warn: log}
}

// Compute builds the emissions record for one finished task.
//
// Missing runtime, CPU count and CPU usage are defaulted with a deduplicated
// warning each. Memory falls back to peak RSS; when neither exists the task
// fails with MissingValueError, since the formula cannot proceed without it.
func (c *Computer) Compute(task *trace.Record) (*Record, error) {
	runtimeH, ok := task.RuntimeHours()
	if !ok {
		c.warn.Warn("missing-realtime", "task runtime not reported, assuming 0", "task", task.Label())
		runtimeH = 0
	}

	cpus := 1
	if task.CPUs != nil {
		cpus = *task.CPUs
	} else {
		c.warn.Warn("missing-cpus", "task CPU count not reported, assuming 1", "task", task.Label())
	}

	usage := float64(cpus) * 100
	switch {
	case task.CPUPercent == nil:
		c.warn.Warn("missing-pcpu", "task CPU usage not reported, assuming full load on every core", "task", task.Label())
	case *task.CPUPercent == 0:
		// Reported and zero: suspicious, but honored.
		c.warn.Warn("zero-pcpu", "task reports 0% CPU usage", "task", task.Label())
		usage = 0
	default:
		usage = *task.CPUPercent
	}

	var mem types.Bytes
	switch {
	case task.Memory != nil:
		mem = *task.Memory
	case task.PeakRSS != nil:
		c.warn.Warn("missing-memory", "requested memory not reported, using peak RSS", "task", task.Label())
		mem = *task.PeakRSS
	default:
		return nil, &MissingValueError{TaskID: task.Label(), Field: "memory"}
	}

	model := c.resolveCPU(task.CPUModel)
	powerPerCore := model.CoreWatts()
	if c.cfg.PowerDrawCPU > 0 {
		powerPerCore = c.cfg.PowerDrawCPU
	}

	ci, err := c.resolveCI(task.CompletedAt)
	if err != nil {
		return nil, err
	}

	// Core-usage fraction is intentionally uncapped: 400% on 2 requested
	// cores charges the oversubscription to this task.
	coreUsage := usage / (100 * float64(cpus))

	energyCPU := runtimeH * float64(cpus) * powerPerCore * coreUsage * 0.001 // kWh
	energyMem := runtimeH * mem.GB() * c.cfg.PowerDrawMem * 0.001            // kWh
	energyKWh := c.cfg.PUE * (energyCPU + energyMem)

	rec := &Record{
		TaskID:       task.TaskID,
		Process:      task.Process,
		Energy:       types.Energy(energyKWh * 1000),
		CO2e:         types.Mass(energyKWh * ci),
		CI:           ci,
		CPUs:         cpus,
		PowerDrawCPU: powerPerCore,
		CPUUsage:     usage,
		Memory:       mem,
		RuntimeH:     runtimeH,
		CPUModel:     model.Model,
	}
	if c.cfg.MarketCI > 0 {
		m := types.Mass(energyKWh * c.cfg.MarketCI)
		rec.CO2eMarket = &m
	}
	return rec, nil
}

func (c *Computer) resolveCPU(model string) cpu.CPU {
	if c.cfg.IgnoreCPUModel || model == "" {
		return c.cpus.Fallback()
	}
	if m := c.cpus.Match(model); m != nil {
		return *m
	}
	return c.cpus.Fallback()
}

func (c *Computer) resolveCI(at time.Time) (float64, error) {
	if c.cfg.CI > 0 {
		return c.cfg.CI, nil
	}
	if at.IsZero() {
		at = time.Now()
	}
	return c.ci.At(at)
}
