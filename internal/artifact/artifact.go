// Package artifact lays out the on-disk run artifact: the event stream,
// the schema document, and the run statistics, side by side under one
// output directory.
package artifact

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hejijunhao/sawmill/internal/model"
	"github.com/hejijunhao/sawmill/internal/output"
	"github.com/hejijunhao/sawmill/internal/output/file"
	"github.com/hejijunhao/sawmill/internal/schema"
)

const (
	EventsFile = "events.jsonl"
	SchemaFile = "agentlog.v1.schema.json"
	StatsFile  = "stats.json"
)

// Layout names the artifact files for one run directory.
type Layout struct {
	Dir        string
	EventsPath string
	SchemaPath string
	StatsPath  string
}

// NewLayout creates dir (and parents) and returns the resolved paths.
func NewLayout(dir string) (Layout, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Layout{}, fmt.Errorf("create artifact dir: %w", err)
	}
	return Layout{
		Dir:        dir,
		EventsPath: filepath.Join(dir, EventsFile),
		SchemaPath: filepath.Join(dir, SchemaFile),
		StatsPath:  filepath.Join(dir, StatsFile),
	}, nil
}

// EventsOutput opens the NDJSON event writer for the layout.
func (l Layout) EventsOutput(verbosity output.Verbosity) (output.Output, error) {
	return file.New(l.EventsPath, verbosity)
}

// WriteSchema renders the schema document next to the event stream.
func (l Layout) WriteSchema() error {
	doc, err := schema.Marshal()
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	if err := os.WriteFile(l.SchemaPath, doc, 0o644); err != nil {
		return fmt.Errorf("write schema: %w", err)
	}
	return nil
}

// WriteStats writes the run summary as indented JSON. The value is any
// JSON-marshalable stats struct; keeping the parameter loose avoids an
// import cycle with the pipeline.
func (l Layout) WriteStats(stats any) error {
	encoded, err := json.MarshalIndent(stats, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal stats: %w", err)
	}
	encoded = append(encoded, '\n')
	if err := os.WriteFile(l.StatsPath, encoded, 0o644); err != nil {
		return fmt.Errorf("write stats: %w", err)
	}
	return nil
}

// ReadEvents loads an events.jsonl file back into memory, in file order.
// The validator and tests use it to round-trip a run.
func ReadEvents(path string) ([]model.Event, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read events: %w", err)
	}
	var events []model.Event
	dec := json.NewDecoder(bytes.NewReader(content))
	for dec.More() {
		var event model.Event
		if err := dec.Decode(&event); err != nil {
			return nil, fmt.Errorf("decode event %d: %w", len(events), err)
		}
		events = append(events, event)
	}
	return events, nil
}
