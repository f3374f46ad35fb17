package output

import "github.com/hejijunhao/sawmill/internal/model"

// Verbosity controls how much payload survives emission.
type Verbosity int

const (
	// Minimal drops full content and tool result text, keeping excerpts.
	Minimal Verbosity = iota
	// Standard emits every populated field.
	Standard
)

// FormatEvent returns a copy of the event with fields stripped according to
// verbosity. At Minimal, content_text and tool_result_text are omitted; the
// excerpt remains. Hashes and identity are never stripped.
func FormatEvent(e model.Event, verbosity Verbosity) model.Event {
	if verbosity == Minimal {
		e.ContentText = ""
		e.ToolResultText = ""
	}
	return e
}
