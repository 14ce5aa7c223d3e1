// Command viewdataset prints the first samples of a dataset.
//
// Usage:
//
//	viewdataset [-dataset oieieio/OpenR1-Math-220k] [-name all] [-split train] [-samples 1]
//	viewdataset -source jsonl -path samples.jsonl -samples 3 -format json
//
// Settings come from an optional YAML file (-config), then THINKTOOLS_*
// environment variables, then flags.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/oieieio/think-tools/config"
	"github.com/oieieio/think-tools/dataset"
	"github.com/oieieio/think-tools/dataset/hub"
	"github.com/oieieio/think-tools/dataset/jsonl"
	"github.com/oieieio/think-tools/internal/logging"
)

const commandName = "viewdataset"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", commandName, err)
		stop()
		os.Exit(1)
	}
}

// flagValues holds the raw flag values; only flags the user set are applied.
type flagValues struct {
	configPath string
	source     string
	datasetID  string
	name       string
	split      string
	path       string
	endpoint   string
	samples    int
	offset     int
	streaming  bool
	format     string
	logLevel   string
	logFormat  string
	logFile    string
}

func parseFlags(args []string, stderr io.Writer) (*flag.FlagSet, flagValues, error) {
	var v flagValues

	fs := flag.NewFlagSet(commandName, flag.ContinueOnError)
	fs.SetOutput(stderr)

	fs.StringVar(&v.configPath, "config", "", "path to a YAML settings file")
	fs.StringVar(&v.source, "source", "", "dataset source: hub or jsonl")
	fs.StringVar(&v.datasetID, "dataset", "", "dataset repository id")
	fs.StringVar(&v.name, "name", "", "dataset configuration name")
	fs.StringVar(&v.split, "split", "", "dataset split")
	fs.StringVar(&v.path, "path", "", "JSON Lines file for -source jsonl")
	fs.StringVar(&v.endpoint, "endpoint", "", "datasets-server endpoint")
	fs.IntVar(&v.samples, "samples", 0, "number of samples to print")
	fs.IntVar(&v.offset, "offset", 0, "index of the first sample")
	fs.BoolVar(&v.streaming, "streaming", true, "fetch rows page by page")
	fs.StringVar(&v.format, "format", "", "output format: text or json")
	fs.StringVar(&v.logLevel, "log-level", "", "log level: debug, info, warn or error")
	fs.StringVar(&v.logFormat, "log-format", "", "log format: text or json")
	fs.StringVar(&v.logFile, "log-file", "", "rotating log file (default stderr)")

	if err := fs.Parse(args); err != nil {
		return nil, v, err
	}

	return fs, v, nil
}

func applyFlags(fs *flag.FlagSet, v flagValues, s *config.Settings) {
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "source":
			s.Dataset.Source = v.source
		case "dataset":
			s.Dataset.ID = v.datasetID
		case "name":
			s.Dataset.Config = v.name
		case "split":
			s.Dataset.Split = v.split
		case "path":
			s.Dataset.Path = v.path
		case "endpoint":
			s.Dataset.Endpoint = v.endpoint
		case "samples":
			s.Dataset.Samples = v.samples
		case "offset":
			s.Dataset.Offset = v.offset
		case "streaming":
			s.Dataset.Streaming = v.streaming
		case "format":
			s.Dataset.Format = v.format
		case "log-level":
			s.Log.Level = v.logLevel
		case "log-format":
			s.Log.Format = v.logFormat
		case "log-file":
			s.Log.File = v.logFile
		}
	})
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs, v, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}

	settings, err := config.LoadSettings(v.configPath)
	if err != nil {
		return err
	}
	if err := settings.ApplyEnv(); err != nil {
		return err
	}
	applyFlags(fs, v, &settings)

	if err := settings.ValidateDataset(); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}

	logger, err := logging.Init(settings.Log, commandName, stderr)
	if err != nil {
		logger.Warn("log_file_unavailable", "error", err)
	}

	src, err := newSource(settings, logger)
	if err != nil {
		return err
	}

	d := settings.Dataset
	logger.Info("view_start",
		"source", d.Source,
		"dataset", d.ID,
		"config", d.Config,
		"split", d.Split,
		"samples", d.Samples,
	)

	start := time.Now()
	var n int
	if d.Format == config.FormatJSON {
		n, err = dataset.ViewJSON(ctx, src, d.Samples, stdout)
	} else {
		n, err = dataset.View(ctx, src, d.Samples, stdout)
	}
	if err != nil {
		return err
	}

	logger.Info("view_done",
		"records", n,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return nil
}

func newSource(s config.Settings, logger *slog.Logger) (dataset.Source, error) {
	d := s.Dataset

	if d.Source == config.SourceJSONL {
		return dataset.Offset(jsonl.Open(d.Path), d.Offset), nil
	}

	opts := []config.Option{config.WithLogger(logger)}
	if d.Endpoint != "" {
		opts = append(opts, config.WithBaseURL(d.Endpoint))
	}

	client, err := hub.New(opts...)
	if err != nil {
		return nil, err
	}

	return client.Source(hub.Query{
		Dataset:   d.ID,
		Config:    d.Config,
		Split:     d.Split,
		Offset:    d.Offset,
		PageSize:  min(max(d.Samples, 1), hub.MaxPageLength),
		Streaming: d.Streaming,
	}), nil
}
