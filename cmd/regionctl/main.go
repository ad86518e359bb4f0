// Command regionctl exercises regions, file loading and slot tables from the
// command line.
package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kingpin/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/pavanmanishd/region"
	"github.com/pavanmanishd/region/regionmetrics"
)

// env is shared by every command once flags are parsed.
type env struct {
	fs     afero.Fs
	cfg    Config
	logger *zap.Logger

	registry    *prometheus.Registry
	metrics     *regionmetrics.Metrics
	metricsFile string

	// release frees regions from newRegion; nil means Region.Release.
	release func(*region.Region) error
}

// newRegion initializes a region sized by the config. Every region of the
// process reports through the same collectors, registered on first use.
func (e *env) newRegion() (*region.Region, *regionmetrics.Metrics, error) {
	r, err := region.New(int(e.cfg.Capacity.Bytes()),
		region.WithBacking(e.cfg.Backing),
		region.WithLogger(e.logger))
	if err != nil {
		return nil, nil, err
	}
	if e.metrics == nil {
		e.metrics = regionmetrics.New(e.registry, "regionctl")
	}
	return r, e.metrics, nil
}

// releaseRegion frees a region obtained from newRegion.
func (e *env) releaseRegion(r *region.Region) error {
	if e.release != nil {
		return e.release(r)
	}
	return r.Release()
}

// writeMetrics dumps the registry in text format when --metrics.file is set.
func (e *env) writeMetrics() error {
	if e.metricsFile == "" {
		return nil
	}
	return prometheus.WriteToTextfile(e.metricsFile, e.registry)
}

func main() {
	app := kingpin.New("regionctl", "Load files, list directories and plan slot tables in region memory.")
	app.HelpFlag.Short('h')

	var (
		configFile = app.Flag("config.file", "YAML config file.").Short('c').String()
		o          overrides
		e          = &env{fs: afero.NewOsFs(), registry: prometheus.NewRegistry()}
	)
	app.Flag("capacity", "Region capacity, e.g. 64MB.").StringVar(&o.capacity)
	app.Flag("backing", "Region backing: heap or mmap.").EnumVar(&o.backing, "heap", "mmap")
	app.Flag("slot-limit", "Number of slots in the slot table.").IntVar(&o.slotLimit)
	app.Flag("log.level", "Log level: debug, info, warn, error.").StringVar(&o.logLevel)
	app.Flag("log.format", "Log format: console or json.").EnumVar(&o.logFormat, "console", "json")
	app.Flag("metrics.file", "Write region metrics in Prometheus text format to this file on exit.").StringVar(&e.metricsFile)

	app.PreAction(func(*kingpin.ParseContext) error {
		cfg := DefaultConfig()
		if *configFile != "" {
			var err error
			if cfg, err = LoadConfig(e.fs, *configFile); err != nil {
				return err
			}
		}
		if err := o.apply(&cfg); err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		logger, err := cfg.NewLogger()
		if err != nil {
			return err
		}
		e.cfg = cfg
		e.logger = logger
		return nil
	})

	addLoadCommand(app, e)
	addListCommand(app, e)
	addSlotsCommand(app, e)

	_, err := app.Parse(os.Args[1:])
	if e.logger != nil {
		_ = e.logger.Sync()
	}
	if err != nil {
		exitWithErr(err)
	}
}

func exitWithErr(err error) {
	fmt.Fprintln(os.Stderr, "regionctl:", err)
	os.Exit(1)
}
