package footprint

import (
	"time"

	"github.com/ja7ad/co2footprint/pkg/types"
)

// Config holds the knobs of the energy/CO2e model. Values come from the host
// configuration layer; the core never reads ambient globals.
// Units:
//   - CI/MarketCI: gCO2e/kWh
//   - PUE: datacenter multiplier >= 1
//   - PowerDrawMem: W per GB of memory
//   - PowerDrawCPU: W per core, overrides the TDP table when > 0
type Config struct {
	Zone         string  // grid zone code, e.g. "DE"
	CI           float64 // > 0 overrides any resolved carbon intensity
	MarketCI     float64 // > 0 enables the market-based CO2e figure
	PUE          float64
	PowerDrawMem float64
	PowerDrawCPU float64

	IgnoreCPUModel bool // skip matching, always use the fallback row

	APIKey       string // live polling credential; empty disables polling
	PollInterval time.Duration
}

// defaultConfig carries the Green Algorithms reference values.
func defaultConfig() *Config {
	return &Config{
		PUE:          1.67,   // worldwide datacenter average
		PowerDrawMem: 0.3725, // W/GB
		PollInterval: time.Hour,
	}
}

// withDefaults merges cfg over the defaults. Fields > 0 override; zero or
// negative means "unset".
func withDefaults(cfg *Config) *Config {
	base := defaultConfig()
	if cfg == nil {
		return base
	}
	merged := *cfg
	if merged.PUE <= 0 {
		merged.PUE = base.PUE
	}
	if merged.PowerDrawMem <= 0 {
		merged.PowerDrawMem = base.PowerDrawMem
	}
	if merged.PollInterval <= 0 {
		merged.PollInterval = base.PollInterval
	}
	return &merged
}

// Record is the immutable per-task result. Created exactly once per completed
// task and owned by the aggregator for the rest of the run.
type Record struct {
	TaskID  string `json:"taskId"`
	Process string `json:"process"`

	Energy     types.Energy `json:"energy_wh"`
	CO2e       types.Mass   `json:"co2e_g"`
	CO2eMarket *types.Mass  `json:"co2e_market_g,omitempty"`

	CI           float64     `json:"ci"`            // gCO2e/kWh actually used
	CPUs         int         `json:"cpus"`
	PowerDrawCPU float64     `json:"power_cpu_w"`   // W per core
	CPUUsage     float64     `json:"cpu_usage"`     // percent, 100 per fully used core
	Memory       types.Bytes `json:"memory_bytes"`
	RuntimeH     float64     `json:"runtime_h"`
	CPUModel     string      `json:"cpu_model"`     // resolved reference row label
}

// Label identifies the task in statistics output.
func (r *Record) Label() string {
	if r.TaskID != "" {
		return r.TaskID
	}
	return r.Process
}
