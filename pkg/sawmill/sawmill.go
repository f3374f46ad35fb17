package sawmill

import (
	"context"
	"time"

	"github.com/hejijunhao/sawmill/internal/engine"
	"github.com/hejijunhao/sawmill/internal/engine/vocab"
	"github.com/hejijunhao/sawmill/internal/model"
	"github.com/hejijunhao/sawmill/internal/pipeline"
)

// Record is the adapter-level input type, re-exported for embedders that
// feed records from their own parsers.
type Record = model.IntermediateRecord

// Event is one canonical output event.
type Event = model.Event

// RunConfig labels and anchors one normalization run.
type RunConfig struct {
	// RunID labels every emitted event. Required.
	RunID string
	// AnchorUnixMS is the run-start wall clock used for timestamp fallback.
	// Zero means now.
	AnchorUnixMS uint64
}

// Result is the outcome of one run: final ordered events plus the run
// summary.
type Result struct {
	Events   []Event
	Stats    pipeline.Stats
	Warnings []model.Warning
	Errors   []model.Warning
}

// Sawmill is the embeddable normalization engine. Safe for concurrent use;
// each Normalize call is an independent run.
type Sawmill struct {
	pipeline *pipeline.Pipeline
	opts     options
}

// New creates a Sawmill with the default vocabulary table.
func New(opts ...Option) *Sawmill {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Sawmill{
		pipeline: pipeline.New(engine.New(vocab.DefaultTable())),
		opts:     o,
	}
}

// Normalize runs the full stage chain over the batch: vocabulary mapping,
// timestamp normalization, hashing, dedupe, and global ordering.
func (s *Sawmill) Normalize(ctx context.Context, records []Record, cfg RunConfig) (Result, error) {
	anchor := cfg.AnchorUnixMS
	if anchor == 0 {
		anchor = uint64(time.Now().UnixMilli())
	}
	result, err := s.pipeline.Run(ctx, records, pipeline.Config{
		RunID:        cfg.RunID,
		AnchorUnixMS: anchor,
		Workers:      s.opts.workers,
		FailFast:     s.opts.failFast,
	})
	if err != nil {
		return Result{}, err
	}
	return Result{
		Events:   result.Events,
		Stats:    result.Stats,
		Warnings: result.Warnings,
		Errors:   result.Errors,
	}, nil
}
