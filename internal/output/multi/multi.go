// Package multi fans canonical events out to several sinks.
package multi

import (
	"context"
	"errors"
	"fmt"

	"github.com/hejijunhao/sawmill/internal/model"
	"github.com/hejijunhao/sawmill/internal/output"
)

// Multi delivers every event to each wrapped sink in order. A failing sink
// never blocks delivery to the others; its error is joined into the return
// value, annotated with the sink position.
type Multi struct {
	sinks    []output.Output
	failures []int
}

// New wraps the given sinks. A Multi with no sinks accepts and discards
// everything.
func New(sinks ...output.Output) *Multi {
	return &Multi{sinks: sinks, failures: make([]int, len(sinks))}
}

// Write sends the event to every sink and joins any errors.
func (m *Multi) Write(ctx context.Context, event model.Event) error {
	var errs []error
	for i, s := range m.sinks {
		if err := s.Write(ctx, event); err != nil {
			m.failures[i]++
			errs = append(errs, fmt.Errorf("sink %d: %w", i, err))
		}
	}
	return errors.Join(errs...)
}

// Failures reports how many writes each sink has rejected, by position.
func (m *Multi) Failures() []int {
	out := make([]int, len(m.failures))
	copy(out, m.failures)
	return out
}

// Close closes every sink, joining any errors.
func (m *Multi) Close() error {
	var errs []error
	for i, s := range m.sinks {
		if err := s.Close(); err != nil {
			errs = append(errs, fmt.Errorf("sink %d: %w", i, err))
		}
	}
	return errors.Join(errs...)
}
