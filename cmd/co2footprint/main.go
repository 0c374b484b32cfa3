package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/ja7ad/co2footprint/pkg/cpu"
	"github.com/ja7ad/co2footprint/pkg/footprint"
	"github.com/ja7ad/co2footprint/pkg/intensity"
	"github.com/ja7ad/co2footprint/pkg/logx"
	"github.com/ja7ad/co2footprint/pkg/stats"
	"github.com/ja7ad/co2footprint/pkg/trace"
)

type opts struct {
	configPath string
	tracePath  string

	location     string
	ci           float64
	marketCI     float64
	pue          float64
	powerMem     float64
	powerCPU     float64
	ignoreModel  bool
	customCPUs   string
	apiKey       string
	pollInterval time.Duration

	csvPath  string
	jsonPath string
}

func main() {
	var o opts

	root := &cobra.Command{
		Use:   "co2footprint --trace trace.txt",
		Short: "Estimate workflow energy use and CO2e emissions",
		Long: `co2footprint reads a workflow execution trace (one row per finished task,
with runtime, CPU and memory usage) and estimates each task's energy
consumption and CO2-equivalent emissions following the Green Algorithms
model. Per-process and whole-run statistics are printed at the end.

Examples:
  co2footprint --trace trace.txt --location DE
  co2footprint --trace trace.txt --config co2.yml --csv tasks.csv`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(o)
		},
	}

	root.Flags().StringVar(&o.configPath, "config", "", "YAML config file")
	root.Flags().StringVar(&o.tracePath, "trace", "", "workflow trace file (TSV)")
	_ = root.MarkFlagRequired("trace")

	root.Flags().StringVar(&o.location, "location", "", "grid zone code, e.g. DE")
	root.Flags().Float64Var(&o.ci, "ci", 0, "carbon intensity override in gCO2e/kWh")
	root.Flags().Float64Var(&o.marketCI, "market-ci", 0, "market-based carbon intensity in gCO2e/kWh")
	root.Flags().Float64Var(&o.pue, "pue", 0, "power usage effectiveness (default 1.67)")
	root.Flags().Float64Var(&o.powerMem, "power-mem", 0, "memory power draw in W/GB (default 0.3725)")
	root.Flags().Float64Var(&o.powerCPU, "power-cpu", 0, "per-core CPU power draw override in W")
	root.Flags().BoolVar(&o.ignoreModel, "ignore-cpu-model", false, "skip model matching, use fallback power draw")
	root.Flags().StringVar(&o.customCPUs, "custom-cpus", "", "custom TDP CSV merged over the bundled table")
	root.Flags().StringVar(&o.apiKey, "api-key", "", "live carbon-intensity API key (enables polling)")
	root.Flags().DurationVar(&o.pollInterval, "poll-interval", 0, "live polling interval (default 1h)")

	root.Flags().StringVar(&o.csvPath, "csv", "", "write per-task records to CSV file")
	root.Flags().StringVar(&o.jsonPath, "json", "", "write per-task records to JSON file")

	if err := root.Execute(); err != nil {
		slog.Error(err.Error())
		os.Exit(1)
	}
}

func run(o opts) error {
	cfg, customFromFile, err := loadConfig(o.configPath)
	if err != nil {
		return err
	}
	mergeFlags(&cfg, o)
	if o.customCPUs == "" {
		o.customCPUs = customFromFile
	}

	warn := logx.New(slog.Default())

	tdp, err := cpu.DefaultTable()
	if err != nil {
		return err
	}
	if o.customCPUs != "" {
		custom, err := cpu.LoadCustomFile(o.customCPUs)
		if err != nil {
			return err
		}
		if tdp, err = cpu.Merge(tdp, custom, warn); err != nil {
			return err
		}
	}
	matcher, err := cpu.NewMatcher(tdp, cpu.Options{Log: warn})
	if err != nil {
		return err
	}

	ciTable, err := intensity.DefaultTable()
	if err != nil {
		return err
	}
	var series *intensity.Series
	var poller *intensity.Poller
	if cfg.APIKey != "" && cfg.Zone != "" {
		series = intensity.NewSeries()
		client := intensity.NewClient("", cfg.Zone, cfg.APIKey)
		poller = intensity.StartPoller(client, series, cfg.PollInterval, warn)
	}
	resolver, err := intensity.NewResolver(ciTable, cfg.Zone, series)
	if err != nil {
		return err
	}

	records, err := trace.ReadFile(o.tracePath)
	if err != nil {
		return err
	}

	computer := footprint.NewComputer(&cfg, matcher, resolver, warn)
	agg := stats.New()

	var results []*footprint.Record
	for i := range records {
		rec, err := computer.Compute(&records[i])
		if err != nil {
			// Fatal for this task's footprint only; the run keeps going.
			slog.Warn("skipping task footprint", "task", records[i].Label(), "err", err)
			continue
		}
		agg.Add(rec)
		results = append(results, rec)
	}

	if poller != nil {
		poller.Stop()
	}

	if o.csvPath != "" {
		if err := writeCSV(o.csvPath, results); err != nil {
			return err
		}
	}
	if o.jsonPath != "" {
		if err := writeJSON(o.jsonPath, results); err != nil {
			return err
		}
	}

	printSummary(agg, len(records))
	return nil
}

// mergeFlags lets explicitly set flags win over file values.
func mergeFlags(cfg *footprint.Config, o opts) {
	if o.location != "" {
		cfg.Zone = o.location
	}
	if o.ci > 0 {
		cfg.CI = o.ci
	}
	if o.marketCI > 0 {
		cfg.MarketCI = o.marketCI
	}
	if o.pue > 0 {
		cfg.PUE = o.pue
	}
	if o.powerMem > 0 {
		cfg.PowerDrawMem = o.powerMem
	}
	if o.powerCPU > 0 {
		cfg.PowerDrawCPU = o.powerCPU
	}
	if o.ignoreModel {
		cfg.IgnoreCPUModel = true
	}
	if o.apiKey != "" {
		cfg.APIKey = o.apiKey
	}
	if o.pollInterval > 0 {
		cfg.PollInterval = o.pollInterval
	}
}

func printSummary(agg *stats.Aggregator, total int) {
	tot := agg.RunTotals()
	eq := footprint.EquivalencesOf(tot.CO2eGrams)

	fmt.Println()
	fmt.Printf("co2footprint summary (%s of %s tasks):\n",
		humanize.Comma(int64(tot.Tasks)), humanize.Comma(int64(total)))
	fmt.Printf("- energy: %.6f kWh\n", tot.EnergyWh/1000)
	fmt.Printf("- co2e:   %.3f g\n", tot.CO2eGrams)
	if tot.CO2eMarket > 0 {
		fmt.Printf("- co2e (market): %.3f g\n", tot.CO2eMarket)
	}
	fmt.Printf("- like driving %.2f km by car\n", eq.CarKm)
	fmt.Printf("- like %.2f tree-months of sequestration\n", eq.TreeMonths)
	if eq.PlanePercent != nil {
		fmt.Printf("- %.2f%% of one Paris-London flight\n", *eq.PlanePercent)
	} else {
		fmt.Printf("- %.2f Paris-London flights\n", *eq.PlaneFlights)
	}
	fmt.Println()

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PROCESS\tMETRIC\tN\tMIN\tQ1\tMEDIAN\tQ3\tMAX\tMEAN")
	fmt.Fprintln(tw, "-------\t------\t-\t---\t--\t------\t--\t---\t----")
	perProcess := agg.ProcessStats()
	for _, name := range agg.Processes() {
		for _, s := range perProcess[name] {
			fmt.Fprintf(tw, "%s\t%s\t%d\t%.4g\t%.4g\t%.4g\t%.4g\t%.4g\t%.4g\n",
				name, s.Metric, s.Count, s.Min, s.Q1, s.Median, s.Q3, s.Max, s.Mean)
		}
	}
	tw.Flush()
}

func writeCSV(path string, recs []*footprint.Record) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{
		"task_id", "process", "energy_wh", "co2e_g", "ci", "cpus",
		"power_cpu_w", "cpu_usage", "memory_bytes", "runtime_h", "cpu_model",
	}); err != nil {
		return err
	}
	for _, r := range recs {
		rec := []string{
			r.TaskID, r.Process,
			strconv.FormatFloat(r.Energy.Wh(), 'g', -1, 64),
			strconv.FormatFloat(r.CO2e.Grams(), 'g', -1, 64),
			strconv.FormatFloat(r.CI, 'g', -1, 64),
			strconv.Itoa(r.CPUs),
			strconv.FormatFloat(r.PowerDrawCPU, 'g', -1, 64),
			strconv.FormatFloat(r.CPUUsage, 'g', -1, 64),
			strconv.FormatUint(uint64(r.Memory), 10),
			strconv.FormatFloat(r.RuntimeH, 'g', -1, 64),
			r.CPUModel,
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func writeJSON(path string, recs []*footprint.Record) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(recs)
}
