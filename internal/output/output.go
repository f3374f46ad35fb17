// Package output defines the sink interface for canonical events and the
// shared emission formatting rules.
package output

import (
	"context"

	"github.com/hejijunhao/sawmill/internal/model"
)

// Output is a destination for the finite, ordered canonical event sequence
// of one run. Write is called once per event, in emission order, only after
// dedupe and global ordering have completed.
type Output interface {
	Write(ctx context.Context, event model.Event) error
	Close() error
}
