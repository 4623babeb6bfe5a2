// Command wanlens runs one correlation pass and prints the result.
//
// Documents are read from the files named by flags, or from the sources in
// the config file when -serviceability is not given. -input skips correlation
// and reloads a result written by an earlier run:
//
//	wanlens -serviceability s.json -telemetry t.json -isis isis.json -format yaml
//	wanlens -serviceability s.json -path ams-dz1:lon-dz1 -strategy hops
//	wanlens -input last.yaml -health drifted -format json
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"wanlens/internal/codec"
	"wanlens/internal/config"
	"wanlens/internal/correlate"
	"wanlens/internal/domain"
	"wanlens/internal/graph"
	"wanlens/internal/source"
)

type options struct {
	configPath     string
	input          string
	serviceability string
	telemetry      string
	isis           string
	format         string
	path           string
	strategy       string
	threshold      float64
	health         string
	verbose        bool
}

func main() {
	var opts options
	flag.StringVar(&opts.configPath, "config", "", "Config file used when no document flags are given")
	flag.StringVar(&opts.input, "input", "", "Previously exported result (.json or .yaml) to read instead of correlating")
	flag.StringVar(&opts.serviceability, "serviceability", "", "Serviceability snapshot JSON file")
	flag.StringVar(&opts.telemetry, "telemetry", "", "Telemetry snapshot JSON file (optional)")
	flag.StringVar(&opts.isis, "isis", "", "IS-IS database JSON file (optional)")
	flag.StringVar(&opts.format, "format", "json", "Output format: json or yaml")
	flag.StringVar(&opts.path, "path", "", "Print the cheapest path between two devices, as SRC:DST")
	flag.StringVar(&opts.strategy, "strategy", string(graph.StrategyLatency), "Path strategy: latency, hops or bandwidth")
	flag.Float64Var(&opts.threshold, "threshold", 0, "Drift threshold percent (default from config, else 10)")
	flag.StringVar(&opts.health, "health", "", "Only print links with these comma-separated health statuses")
	flag.BoolVar(&opts.verbose, "v", false, "Verbose logging")
	flag.Parse()

	if err := run(context.Background(), opts, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "wanlens: %v\n", err)
		var inputErr *codec.InputError
		if errors.As(err, &inputErr) {
			for _, d := range inputErr.Details {
				fmt.Fprintf(os.Stderr, "  - %s\n", d)
			}
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options, out io.Writer) error {
	level := slog.LevelWarn
	if opts.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	result, err := loadResult(ctx, opts, logger)
	if err != nil {
		return err
	}

	if opts.path != "" {
		return printPath(ctx, result, opts, out)
	}

	if opts.health != "" {
		var statuses []domain.HealthStatus
		for _, h := range strings.Split(opts.health, ",") {
			s := domain.HealthStatus(strings.ToUpper(strings.TrimSpace(h)))
			if !s.Valid() {
				return fmt.Errorf("unknown health status %q", h)
			}
			statuses = append(statuses, s)
		}
		result = result.Filter(domain.NewFilterCriteria(statuses, nil, nil, nil))
	}

	exporter, err := codec.ExporterFor(opts.format)
	if err != nil {
		return err
	}
	return exporter.Export(result, out)
}

// loadResult reads an exported result when -input is set, otherwise it
// correlates the documents named by flags or config
func loadResult(ctx context.Context, opts options, logger *slog.Logger) (*domain.Result, error) {
	if opts.input != "" {
		importer, err := codec.ImporterFor(opts.input)
		if err != nil {
			return nil, err
		}
		data, err := source.NewFile(opts.input).Fetch(ctx)
		if err != nil {
			return nil, err
		}
		return importer.Parse(bytes.NewReader(data))
	}

	threshold := opts.threshold
	var snap codec.Snapshot

	if opts.serviceability != "" {
		var err error
		if snap, err = readFiles(ctx, opts); err != nil {
			return nil, err
		}
	} else {
		cfg, err := loadConfig(opts.configPath)
		if err != nil {
			return nil, err
		}
		if !cfg.Sources.Serviceability.Enabled() {
			return nil, errors.New("no -serviceability file and no serviceability source configured")
		}
		set, err := source.FromConfig(cfg, logger)
		if err != nil {
			return nil, err
		}
		if snap, err = set.Fetch(ctx); err != nil {
			return nil, err
		}
		if threshold == 0 {
			threshold = cfg.Correlation.DriftThresholdPct
		}
	}

	return correlate.New(correlate.Options{
		DriftThresholdPct: threshold,
		Logger:            logger,
	}).CorrelateSnapshot(snap)
}

func readFiles(ctx context.Context, opts options) (codec.Snapshot, error) {
	var snap codec.Snapshot
	var err error
	if snap.Serviceability, err = source.NewFile(opts.serviceability).Fetch(ctx); err != nil {
		return snap, err
	}
	if opts.telemetry != "" {
		if snap.Telemetry, err = source.NewFile(opts.telemetry).Fetch(ctx); err != nil {
			return snap, err
		}
	}
	if opts.isis != "" {
		if snap.ISIS, err = source.NewFile(opts.isis).Fetch(ctx); err != nil {
			return snap, err
		}
	}
	return snap, nil
}

func printPath(ctx context.Context, result *domain.Result, opts options, out io.Writer) error {
	src, dst, ok := domain.SplitLinkCode(opts.path)
	if !ok {
		return fmt.Errorf("-path must be SRC:DST, got %q", opts.path)
	}
	strategy, err := graph.ParseStrategy(opts.strategy)
	if err != nil {
		return err
	}

	path, err := graph.ShortestPathContext(ctx, graph.Build(result.Topology, strategy), src, dst)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(path)
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		cfg, _, err := config.LoadFromPath(path)
		return cfg, err
	}
	cfg, _, err := config.Load()
	return cfg, err
}
