// Package pipeline orchestrates one normalization run: per-record stages in
// a worker pool, a full-batch barrier, dedupe, global ordering, and ordered
// emission. Nothing is written before the dedupe barrier completes, because
// dedupe can change which record represents a cluster.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"

	"github.com/hejijunhao/sawmill/internal/engine"
	"github.com/hejijunhao/sawmill/internal/engine/dedupe"
	"github.com/hejijunhao/sawmill/internal/engine/order"
	"github.com/hejijunhao/sawmill/internal/model"
	"github.com/hejijunhao/sawmill/internal/output"
)

// Config holds the run-scoped inputs supplied by the caller.
type Config struct {
	RunID        string
	AnchorUnixMS uint64 // run-start instant, the timestamp of last resort
	Workers      int    // 0 means GOMAXPROCS
	FailFast     bool
}

// Result is the outcome of one run. Events are final: deduplicated, totally
// ordered, with sequence_global assigned.
type Result struct {
	Events   []model.Event
	Stats    Stats
	Warnings []model.Warning // run-level: rejections, ambiguous merges
	Errors   []model.Warning // per-record fatal entries
}

// Pipeline wires the engine stages together. Independent runs may execute
// concurrently; each run owns its batch and sink.
type Pipeline struct {
	engine *engine.Engine
}

// New creates a Pipeline around the given engine.
func New(eng *engine.Engine) *Pipeline {
	return &Pipeline{engine: eng}
}

type outcome struct {
	event model.Event
	err   error
}

// Run normalizes the batch and returns the final ordered events.
func (p *Pipeline) Run(ctx context.Context, records []model.IntermediateRecord, cfg Config) (Result, error) {
	run := engine.Run{RunID: cfg.RunID, AnchorUnixMS: cfg.AnchorUnixMS}

	outcomes := make([]outcome, len(records))
	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > len(records) && len(records) > 0 {
		workers = len(records)
	}

	// Per-record stages are pure; fan out across the batch and collect by
	// index so results are deterministic regardless of scheduling.
	indexes := make(chan int)
	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indexes {
				if ctx.Err() != nil {
					return
				}
				event, err := p.engine.Process(records[i], run, uint64(i))
				outcomes[i] = outcome{event: event, err: err}
			}
		}()
	}
submit:
	for i := range records {
		select {
		case indexes <- i:
		case <-ctx.Done():
			break submit
		}
	}
	close(indexes)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	// Barrier reached: the whole batch is hashed and timestamped.
	var result Result
	events := make([]model.Event, 0, len(records))
	for _, o := range outcomes {
		if o.err == nil {
			events = append(events, o.event)
			continue
		}
		var rejection *engine.RejectionError
		if errors.As(o.err, &rejection) {
			result.Warnings = append(result.Warnings, rejection.Warning)
			continue
		}
		var recordErr *engine.RecordError
		if errors.As(o.err, &recordErr) {
			if cfg.FailFast {
				return Result{}, fmt.Errorf("record failed: %w", recordErr)
			}
			result.Errors = append(result.Errors, model.Warning{
				Code:   recordErr.Code,
				Detail: recordErr.Locator,
			})
			continue
		}
		if cfg.FailFast {
			return Result{}, o.err
		}
		result.Errors = append(result.Errors, model.Warning{Code: "record_error", Detail: o.err.Error()})
	}

	merged := dedupe.Merge(events)
	result.Warnings = append(result.Warnings, merged.Warnings...)

	order.Sort(merged.Events)
	result.Events = merged.Events
	result.Stats = buildStats(merged.Events, merged.Stats, len(records), len(result.Warnings), len(result.Errors))
	return result, nil
}

// RunTo normalizes the batch and streams the ordered events to the sink.
// Output starts only after dedupe and ordering are complete.
func (p *Pipeline) RunTo(ctx context.Context, records []model.IntermediateRecord, cfg Config, out output.Output) (Result, error) {
	result, err := p.Run(ctx, records, cfg)
	if err != nil {
		return Result{}, err
	}
	for i := range result.Events {
		if err := out.Write(ctx, result.Events[i]); err != nil {
			return Result{}, fmt.Errorf("write event %s: %w", result.Events[i].EventID, err)
		}
	}
	return result, nil
}
