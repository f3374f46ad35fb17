// Package adapter defines the interface source-specific parsers implement
// and a registry for resolving them by name. Adapters own resilient parsing
// of malformed rows: a bad line becomes a warning, never a failed file.
package adapter

import (
	"context"

	"github.com/hejijunhao/sawmill/internal/model"
)

// ParseResult is one file's worth of intermediate records plus the non-fatal
// warnings collected while parsing it.
type ParseResult struct {
	Records  []model.IntermediateRecord
	Warnings []model.Warning
}

// Adapter parses source artifacts of one agent tool family into
// intermediate records. Implementations must be stateless: records depend
// only on file content, so repeated parses are identical.
type Adapter interface {
	// Name is the canonical adapter name (a model.SourceKind value).
	Name() string

	// Matches reports whether the adapter can parse the given file path.
	Matches(path string) bool

	// ParseFile reads and parses one source file.
	ParseFile(ctx context.Context, path string) (ParseResult, error)
}
