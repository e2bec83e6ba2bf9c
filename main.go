package main

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	cli "github.com/urfave/cli/v2"

	"github.com/mikegeo98/cloud-sort/pkg/benchmark"
	"github.com/mikegeo98/cloud-sort/pkg/config"
	"github.com/mikegeo98/cloud-sort/pkg/data"
	"github.com/mikegeo98/cloud-sort/pkg/device"
	"github.com/mikegeo98/cloud-sort/pkg/radix"
	"github.com/mikegeo98/cloud-sort/pkg/simulate"
)

var log = logrus.New()

// Shared flag definitions, one var per flag so commands can mix and match
var (
	configFlag = &cli.StringFlag{
		Name:  "config",
		Usage: "Path to a TOML configuration file",
	}
	verboseFlag = &cli.BoolFlag{
		Name:  "verbose",
		Usage: "Enable debug logging",
	}
	nelemFlag = &cli.IntFlag{
		Name:  "nelem",
		Usage: "Number of 64 bit keys",
	}
	seedFlag = &cli.Int64Flag{
		Name:  "seed",
		Usage: "Seed for anything randomly generated",
	}
	inputFlag = &cli.StringFlag{
		Name:  "input",
		Usage: "Read keys from this file instead of generating them",
	}
	outFlag = &cli.StringFlag{
		Name:  "out",
		Usage: "Path of the key file to write",
	}
	deviceFlag = &cli.StringFlag{
		Name:  "device",
		Usage: "Device backend to sort on",
	}
	workersFlag = &cli.IntFlag{
		Name:  "workers",
		Usage: "Device worker count, 0 means one per CPU",
	}
	cpuFlag = &cli.BoolFlag{
		Name:  "cpu",
		Usage: "Use the single-threaded host sorter",
	}
	repeatFlag = &cli.IntFlag{
		Name:  "repeat",
		Usage: "Measurement repetitions",
	}
	jsonFlag = &cli.StringFlag{
		Name:  "json",
		Usage: "Write a JSON report to this path",
	}
	datasetFlag = &cli.Float64Flag{
		Name:  "dataset-mb",
		Usage: "Dataset size to simulate, in megabytes",
	}
	trialsFlag = &cli.IntFlag{
		Name:  "trials",
		Usage: "Simulation repetitions per strategy",
	}
	plotFlag = &cli.StringFlag{
		Name:  "plot",
		Usage: "Write an HTML chart to this path",
	}
)

// setup loads the config file (if any) and applies the logging flags.
func setup(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}
	if c.IsSet("verbose") {
		cfg.Verbose = c.Bool("verbose")
	}
	if cfg.Verbose {
		log.SetLevel(logrus.DebugLevel)
	}
	return cfg, nil
}

func openDevice(run config.RunConfig) (device.Device, error) {
	return device.Open(run.Device, device.Config{Workers: run.Workers, Log: log})
}

// applyRunFlags folds the command line into the run section. Flags win over
// the file, the file wins over the defaults.
func applyRunFlags(c *cli.Context, run *config.RunConfig) {
	if c.IsSet("nelem") {
		run.NElem = c.Int("nelem")
	}
	if c.IsSet("seed") {
		run.Seed = c.Int64("seed")
	}
	if c.IsSet("input") {
		run.Input = c.String("input")
	}
	if c.IsSet("device") {
		run.Device = c.String("device")
	}
	if c.IsSet("workers") {
		run.Workers = c.Int("workers")
	}
}

func loadKeys(run config.RunConfig) ([]uint64, error) {
	if run.Input != "" {
		keys, err := data.ReadFile(run.Input)
		if err != nil {
			return nil, err
		}
		fmt.Printf("Read %v keys from %v\n", len(keys), run.Input)
		return keys, nil
	}

	keys := data.RandomKeys(run.NElem, run.Seed)
	fmt.Printf("Generated %v random keys\n", len(keys))
	return keys, nil
}

func handleGen(c *cli.Context) error {
	cfg, err := setup(c)
	if err != nil {
		return err
	}
	applyRunFlags(c, &cfg.Run)

	out := c.String("out")
	if out == "" {
		return errors.Errorf("No output path, use --out")
	}

	keys := data.RandomKeys(cfg.Run.NElem, cfg.Run.Seed)
	if err := data.WriteFile(out, keys); err != nil {
		return err
	}
	fmt.Printf("Wrote %v keys to %v\n", len(keys), out)
	return nil
}

func handleRun(c *cli.Context) error {
	cfg, err := setup(c)
	if err != nil {
		return err
	}
	applyRunFlags(c, &cfg.Run)

	keys, err := loadKeys(cfg.Run)
	if err != nil {
		return err
	}

	if c.Bool("cpu") {
		if err := radix.CheckSort(keys, radix.SortLocal(keys)); err != nil {
			return cli.Exit(fmt.Sprintf("Sorted wrong: %v", err), 2)
		}
		fmt.Println("PASS")
		return nil
	}

	dev, err := openDevice(cfg.Run)
	if err != nil {
		return err
	}
	defer dev.Close()

	sorter, err := radix.NewSorter(dev, log)
	if err != nil {
		return err
	}

	res, err := sorter.Sort(keys)
	if err != nil {
		return err
	}

	if err := radix.CheckSort(keys, res.Keys); err != nil {
		return cli.Exit(fmt.Sprintf("Sorted wrong: %v", err), 2)
	}

	fmt.Println("PASS")
	fmt.Printf("Total H→D bytes: %v\n", res.Transfers.HostToDevice)
	fmt.Printf("Total D→H bytes: %v\n", res.Transfers.DeviceToHost)
	return nil
}

func handleBench(c *cli.Context) error {
	cfg, err := setup(c)
	if err != nil {
		return err
	}

	bench := cfg.Bench
	if c.IsSet("nelem") {
		bench.NElem = c.Int("nelem")
	}
	if c.IsSet("repeat") {
		bench.Repeat = c.Int("repeat")
	}
	if c.IsSet("seed") {
		bench.Seed = c.Int64("seed")
	}
	if c.IsSet("cpu") {
		bench.Local = c.Bool("cpu")
	}
	if c.IsSet("json") {
		bench.JSON = c.String("json")
	}
	applyRunFlags(c, &cfg.Run)

	dev, err := openDevice(cfg.Run)
	if err != nil {
		return err
	}
	defer dev.Close()

	fmt.Printf("Benchmarking %v keys, %v repetitions\n", bench.NElem, bench.Repeat)
	summary, err := benchmark.RunBenchmarks(dev, bench.NElem, bench.Repeat, bench.Seed, bench.Local)
	if err != nil {
		return err
	}

	for _, suite := range []string{"Device", "Local"} {
		stats, ok := summary.Suites[suite]
		if !ok {
			continue
		}
		fmt.Printf("== %v ==\n", suite)
		benchmark.ReportStats(stats, os.Stdout)
	}
	fmt.Printf("Total H→D bytes: %v\n", summary.DeviceTransfers.HostToDevice)
	fmt.Printf("Total D→H bytes: %v\n", summary.DeviceTransfers.DeviceToHost)

	if bench.JSON != "" {
		if err := benchmark.WriteReport(bench.JSON, summary); err != nil {
			return err
		}
		fmt.Printf("Wrote report to %v\n", bench.JSON)
	}
	return nil
}

func handleSimulate(c *cli.Context) error {
	cfg, err := setup(c)
	if err != nil {
		return err
	}

	sc := cfg.Simulate
	if c.IsSet("dataset-mb") {
		sc.DatasetMB = c.Float64("dataset-mb")
	}
	if c.IsSet("seed") {
		sc.Seed = c.Int64("seed")
	}
	if c.IsSet("trials") {
		sc.Trials = c.Int("trials")
	}

	stats, err := simulate.Simulate(sc, log)
	if err != nil {
		return err
	}

	simulate.WriteText(os.Stdout, stats)

	if path := c.String("json"); path != "" {
		if err := simulate.WriteJSON(path, sc, stats); err != nil {
			return err
		}
		fmt.Printf("Wrote report to %v\n", path)
	}
	if path := c.String("plot"); path != "" {
		if err := simulate.WritePlot(path, stats); err != nil {
			return err
		}
		fmt.Printf("Wrote plot to %v\n", path)
	}
	return nil
}

var app = &cli.App{
	Name:  "cloud-sort",
	Usage: "Sort 64 bit keys on parallel devices and price the cloud variants",
	Commands: []*cli.Command{
		{
			Name:   "gen",
			Usage:  "Generate a key file",
			Flags:  []cli.Flag{configFlag, verboseFlag, nelemFlag, seedFlag, outFlag},
			Action: handleGen,
		},
		{
			Name:   "run",
			Usage:  "Sort once and verify the result",
			Flags:  []cli.Flag{configFlag, verboseFlag, nelemFlag, seedFlag, inputFlag, deviceFlag, workersFlag, cpuFlag},
			Action: handleRun,
		},
		{
			Name:   "bench",
			Usage:  "Measure sort performance",
			Flags:  []cli.Flag{configFlag, verboseFlag, nelemFlag, repeatFlag, seedFlag, deviceFlag, workersFlag, cpuFlag, jsonFlag},
			Action: handleBench,
		},
		{
			Name:   "simulate",
			Usage:  "Price external sort strategies on cloud object storage",
			Flags:  []cli.Flag{configFlag, verboseFlag, datasetFlag, seedFlag, trialsFlag, jsonFlag, plotFlag},
			Action: handleSimulate,
		},
	},
}

func main() {
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
