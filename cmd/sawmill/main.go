// Command sawmill normalizes coding-agent logs into the agentlog.v1 event
// stream.
//
// Usage:
//
//	sawmill normalize [flags] adapter=path [adapter=path ...]
//	sawmill validate  [flags] events.jsonl
//	sawmill schema    [flags]
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/hejijunhao/sawmill/internal/adapter"
	"github.com/hejijunhao/sawmill/internal/artifact"
	"github.com/hejijunhao/sawmill/internal/config"
	"github.com/hejijunhao/sawmill/internal/engine"
	"github.com/hejijunhao/sawmill/internal/engine/vocab"
	"github.com/hejijunhao/sawmill/internal/logging"
	"github.com/hejijunhao/sawmill/internal/model"
	"github.com/hejijunhao/sawmill/internal/output"
	"github.com/hejijunhao/sawmill/internal/output/multi"
	"github.com/hejijunhao/sawmill/internal/output/sqlitemart"
	"github.com/hejijunhao/sawmill/internal/output/stdout"
	"github.com/hejijunhao/sawmill/internal/output/webhook"
	"github.com/hejijunhao/sawmill/internal/pipeline"
	"github.com/hejijunhao/sawmill/internal/schema"
	"github.com/hejijunhao/sawmill/internal/validate"

	// Register adapter implementations.
	_ "github.com/hejijunhao/sawmill/internal/adapter/amp"
	_ "github.com/hejijunhao/sawmill/internal/adapter/claude"
	_ "github.com/hejijunhao/sawmill/internal/adapter/codex"
	_ "github.com/hejijunhao/sawmill/internal/adapter/gemini"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "sawmill: %v\n", err)
		os.Exit(2)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		fmt.Fprintf(os.Stderr, "\nreceived %v, shutting down...\n", sig)
		cancel()
	}()

	var code int
	switch os.Args[1] {
	case "normalize":
		code = runNormalize(ctx, cfg, os.Args[2:])
	case "validate":
		code = runValidate(cfg, os.Args[2:])
	case "schema":
		code = runSchema(os.Args[2:])
	default:
		usage()
		code = 2
	}
	os.Exit(code)
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: sawmill <normalize|validate|schema> [flags] [args]")
}

func runNormalize(ctx context.Context, cfg config.Config, args []string) int {
	fs := flag.NewFlagSet("normalize", flag.ExitOnError)
	runID := fs.String("run-id", cfg.Run.RunID, "run identifier (default: generated)")
	outDir := fs.String("out", cfg.Output.Dir, "artifact output directory")
	format := fs.String("output", cfg.Output.Format, "event destination: file or stdout")
	verbosity := fs.String("verbosity", cfg.Output.Verbosity, "payload verbosity: minimal or standard")
	workers := fs.Int("workers", cfg.Run.Workers, "normalization worker count")
	failFast := fs.Bool("fail-fast", cfg.Run.FailFast, "abort the run on the first record error")
	fs.Parse(args)

	cfg.Run.RunID = *runID
	cfg.Output.Dir = *outDir
	cfg.Output.Format = *format
	cfg.Output.Verbosity = *verbosity
	cfg.Run.Workers = *workers
	cfg.Run.FailFast = *failFast

	logging.Init(cfg.Output.Format == "stdout", logging.ParseLevel(cfg.LogLevel))

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		return 2
	}
	if fs.NArg() == 0 {
		slog.Error("no inputs given", "usage", "sawmill normalize adapter=path ...")
		return 2
	}
	if cfg.Run.RunID == "" {
		cfg.Run.RunID = uuid.NewString()
	}
	if cfg.Run.AnchorUnixMS == 0 {
		cfg.Run.AnchorUnixMS = uint64(time.Now().UnixMilli())
	}
	log := logging.ForRun(cfg.Run.RunID)

	records, parseWarnings, err := ingest(ctx, fs.Args())
	if err != nil {
		log.Error("ingest failed", "error", err)
		return 1
	}
	log.Info("ingest complete", "records", len(records), "warnings", len(parseWarnings))

	sink, layout, err := buildSink(cfg)
	if err != nil {
		log.Error("open output failed", "error", err)
		return 1
	}

	p := pipeline.New(engine.New(vocab.DefaultTable()))
	result, err := p.RunTo(ctx, records, pipeline.Config{
		RunID:        cfg.Run.RunID,
		AnchorUnixMS: cfg.Run.AnchorUnixMS,
		Workers:      cfg.Run.Workers,
		FailFast:     cfg.Run.FailFast,
	}, sink)
	if closeErr := sink.Close(); closeErr != nil {
		log.Error("close output failed", "error", closeErr)
	}
	if err != nil {
		log.Error("run failed", "error", err)
		return 1
	}

	result.Stats.Counts.Warnings += len(parseWarnings)
	if layout != nil {
		if err := layout.WriteSchema(); err != nil {
			log.Error("write schema failed", "error", err)
			return 1
		}
		if err := layout.WriteStats(result.Stats); err != nil {
			log.Error("write stats failed", "error", err)
			return 1
		}
	}

	log.Info("run complete",
		"events", result.Stats.Counts.RecordsEmitted,
		"duplicates", result.Stats.Counts.DuplicatesRemoved,
		"warnings", result.Stats.Counts.Warnings,
		"errors", result.Stats.Counts.Errors,
	)
	return 0
}

// ingest reads adapter=path inputs in argument order.
func ingest(ctx context.Context, args []string) ([]model.IntermediateRecord, []model.Warning, error) {
	var records []model.IntermediateRecord
	var warnings []model.Warning

	for _, arg := range args {
		name, path, ok := strings.Cut(arg, "=")
		if !ok {
			return nil, nil, fmt.Errorf("invalid input %q (want adapter=path)", arg)
		}
		ctor, err := adapter.Get(name)
		if err != nil {
			return nil, nil, err
		}
		a := ctor()
		if !a.Matches(path) {
			slog.Warn("input does not match adapter conventions", "adapter", name, "path", path)
		}
		parsed, err := a.ParseFile(ctx, path)
		if err != nil {
			return nil, nil, fmt.Errorf("parse %s: %w", path, err)
		}
		records = append(records, parsed.Records...)
		warnings = append(warnings, parsed.Warnings...)
	}
	return records, warnings, nil
}

// buildSink composes the event destination. The artifact layout is non-nil
// only for file output, where schema and stats land next to the stream.
func buildSink(cfg config.Config) (output.Output, *artifact.Layout, error) {
	verbosity := output.Standard
	if cfg.Output.Verbosity == "minimal" {
		verbosity = output.Minimal
	}

	var sinks []output.Output
	var layout *artifact.Layout

	switch cfg.Output.Format {
	case "stdout":
		sinks = append(sinks, stdout.New(verbosity, false))
	default:
		l, err := artifact.NewLayout(cfg.Output.Dir)
		if err != nil {
			return nil, nil, err
		}
		events, err := l.EventsOutput(verbosity)
		if err != nil {
			return nil, nil, err
		}
		layout = &l
		sinks = append(sinks, events)
	}

	if cfg.Output.WebhookURL != "" {
		sinks = append(sinks, webhook.New(cfg.Output.WebhookURL))
	}
	if cfg.Output.SQLitePath != "" {
		store, err := sqlitemart.Open(cfg.Output.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		sinks = append(sinks, store)
	}

	if len(sinks) == 1 {
		return sinks[0], layout, nil
	}
	return multi.New(sinks...), layout, nil
}

func runValidate(cfg config.Config, args []string) int {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	mode := fs.String("mode", cfg.Validation.Mode, "validation mode: baseline or strict")
	reportPath := fs.String("report", "", "write report.json here (default: stdout)")
	fs.Parse(args)

	logging.Init(*reportPath == "", logging.ParseLevel(cfg.LogLevel))

	if fs.NArg() != 1 {
		slog.Error("expected one events.jsonl path")
		return 2
	}
	if *mode != string(validate.Baseline) && *mode != string(validate.Strict) {
		slog.Error("invalid mode", "mode", *mode)
		return 2
	}

	events, err := artifact.ReadEvents(fs.Arg(0))
	if err != nil {
		slog.Error("read events failed", "error", err)
		return 1
	}

	report := validate.Run(events, validate.Mode(*mode))
	encoded, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		slog.Error("marshal report failed", "error", err)
		return 1
	}
	encoded = append(encoded, '\n')

	if *reportPath != "" {
		if err := os.WriteFile(*reportPath, encoded, 0o644); err != nil {
			slog.Error("write report failed", "error", err)
			return 1
		}
	} else {
		os.Stdout.Write(encoded)
	}

	slog.Info("validation complete",
		"mode", report.Mode,
		"events", report.EventsChecked,
		"findings", len(report.Findings),
		"passed", report.Passed,
	)
	if !report.Passed {
		return 2
	}
	return 0
}

func runSchema(args []string) int {
	fs := flag.NewFlagSet("schema", flag.ExitOnError)
	outPath := fs.String("o", "", "write the schema document here (default: stdout)")
	fs.Parse(args)

	doc, err := schema.Marshal()
	if err != nil {
		fmt.Fprintf(os.Stderr, "sawmill: %v\n", err)
		return 1
	}
	if *outPath != "" {
		if err := os.WriteFile(*outPath, doc, 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "sawmill: %v\n", err)
			return 1
		}
		return 0
	}
	os.Stdout.Write(doc)
	return 0
}
