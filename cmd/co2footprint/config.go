package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ja7ad/co2footprint/pkg/footprint"
)

// fileConfig is the YAML shape of a co2footprint config file. Every field is
// optional; flags override file values which override model defaults.
type fileConfig struct {
	Location       string  `yaml:"location"`
	CI             float64 `yaml:"ci"`
	MarketCI       float64 `yaml:"market_ci"`
	PUE            float64 `yaml:"pue"`
	PowerDrawMem   float64 `yaml:"power_draw_mem"`
	PowerDrawCPU   float64 `yaml:"power_draw_cpu"`
	IgnoreCPUModel bool    `yaml:"ignore_cpu_model"`
	CustomCPUFile  string  `yaml:"custom_cpu_file"`
	APIKey         string  `yaml:"api_key"`
	PollInterval   string  `yaml:"poll_interval"` // duration string, e.g. "1h"
}

// loadConfig reads a YAML config file into the model config. A missing path
// returns zero values so defaults apply.
func loadConfig(path string) (footprint.Config, string, error) {
	var cfg footprint.Config
	if path == "" {
		return cfg, "", nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, "", fmt.Errorf("config: %w", err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return cfg, "", fmt.Errorf("config: %w", err)
	}

	cfg = footprint.Config{
		Zone:           fc.Location,
		CI:             fc.CI,
		MarketCI:       fc.MarketCI,
		PUE:            fc.PUE,
		PowerDrawMem:   fc.PowerDrawMem,
		PowerDrawCPU:   fc.PowerDrawCPU,
		IgnoreCPUModel: fc.IgnoreCPUModel,
		APIKey:         fc.APIKey,
	}
	if fc.PollInterval != "" {
		d, err := time.ParseDuration(fc.PollInterval)
		if err != nil {
			return cfg, "", fmt.Errorf("config: poll_interval: %w", err)
		}
		cfg.PollInterval = d
	}
	return cfg, fc.CustomCPUFile, nil
}
