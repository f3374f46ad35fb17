// Package engine composes the per-record normalization stages: vocabulary
// mapping, timestamp resolution, and content-addressed hashing. Per-record
// processing is pure — identical inputs always produce the identical event —
// so the pipeline may evaluate records in parallel.
package engine

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/hejijunhao/sawmill/internal/engine/canonhash"
	"github.com/hejijunhao/sawmill/internal/engine/timestamp"
	"github.com/hejijunhao/sawmill/internal/engine/vocab"
	"github.com/hejijunhao/sawmill/internal/model"
)

// DefaultExcerptMaxChars bounds the derived content excerpt.
const DefaultExcerptMaxChars = 280

// Run carries the run-scoped inputs shared by every record of one
// normalization run.
type Run struct {
	RunID        string
	AnchorUnixMS uint64
}

// RejectionError marks a record whose source identity could not be resolved.
// Identity is never guessed: the record is dropped and the caller is told
// which locator was dropped.
type RejectionError struct {
	Warning model.Warning
}

func (e *RejectionError) Error() string {
	return "record rejected: " + e.Warning.String()
}

// RecordError is a per-record fatal error (for that record only); the
// pipeline continues unless fail-fast was requested.
type RecordError struct {
	Code    string
	Locator string
	Err     error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("%s at %s: %v", e.Code, e.Locator, e.Err)
}

func (e *RecordError) Unwrap() error { return e.Err }

// Engine runs the per-record stages. It holds only the immutable vocabulary
// table; no state survives across records or runs.
type Engine struct {
	vocab vocab.Table
}

// New creates an Engine bound to the given vocabulary table.
func New(table vocab.Table) *Engine {
	return &Engine{vocab: table}
}

// Vocab exposes the engine's vocabulary table.
func (e *Engine) Vocab() vocab.Table { return e.vocab }

// Process converts one intermediate record into a pre-dedupe canonical
// event. seq is the record's stable traversal index within the run.
func (e *Engine) Process(rec model.IntermediateRecord, run Run, seq uint64) (model.Event, error) {
	locator := rec.SourcePath + "#" + rec.SourceRecordLocator

	sourceKind, ok := e.vocab.MapSourceKind(rec.RawSourceKind)
	if !ok {
		return model.Event{}, &RejectionError{Warning: model.Warning{
			Code:   model.WarnUnknownSourceKind,
			Detail: fmt.Sprintf("raw=%s locator=%s", rec.RawSourceKind, locator),
		}}
	}
	adapterName, ok := e.vocab.MapSourceKind(rec.RawAdapterName)
	if !ok {
		return model.Event{}, &RejectionError{Warning: model.Warning{
			Code:   model.WarnUnknownAdapterName,
			Detail: fmt.Sprintf("raw=%s locator=%s", rec.RawAdapterName, locator),
		}}
	}

	var warnings []model.Warning
	metadata := copyMetadata(rec.Metadata)

	format, w := e.vocab.MapRecordFormat(rec.RawRecordFormat)
	if w != nil {
		warnings = append(warnings, *w)
		metadata["original_record_format"] = rec.RawRecordFormat
	}
	eventType, w := e.vocab.MapEventType(rec.RawEventType, format)
	if w != nil {
		warnings = append(warnings, *w)
		metadata["original_event_type"] = rec.RawEventType
	}
	role, w := e.vocab.MapRole(rec.RawRole, format)
	if w != nil {
		warnings = append(warnings, *w)
		metadata["original_role"] = rec.RawRole
	}
	eventType, role = vocab.ApplyCrossFieldRules(format, eventType, role)

	if format == model.FormatMessage && strings.TrimSpace(rec.ContentText) == "" {
		warnings = append(warnings, model.Warning{
			Code:   model.WarnMissingContent,
			Detail: "locator=" + locator,
		})
	}

	ts := timestamp.Normalize(timestamp.Input{
		Candidates:    rec.Timestamps,
		AnchorUnixMS:  run.AnchorUnixMS,
		SequenceIndex: seq,
	})
	warnings = append(warnings, ts.Warnings...)

	rawHash := canonhash.Raw(rec.RawPayload)

	canonicalHash, err := canonhash.Canonical(canonhash.Input{
		EventType:         eventType,
		Role:              role,
		Content:           rec.ContentText,
		RecordFormat:      format,
		ToolName:          rec.ToolName,
		ToolArgumentsJSON: rec.ToolArgumentsJSON,
		ToolResultText:    rec.ToolResultText,
		TimestampUnixMS:   ts.UnixMS,
		TimestampQuality:  ts.Quality,
	})
	if err != nil {
		return model.Event{}, &RecordError{
			Code:    model.ErrHashMaterialInvalid,
			Locator: locator,
			Err:     err,
		}
	}

	contentMime := rec.ContentMime
	if contentMime == "" && rec.ContentText != "" {
		contentMime = "text/plain"
	}

	event := model.Event{
		SchemaVersion:       model.SchemaVersion,
		EventID:             deriveEventID(sourceKind, rec.SourcePath, rec.SourceRecordLocator, seq),
		RunID:               run.RunID,
		SequenceSource:      rec.SequenceSource,
		SourceKind:          sourceKind,
		SourcePath:          rec.SourcePath,
		SourceRecordLocator: rec.SourceRecordLocator,
		SourceRecordHash:    rec.SourceRecordHash,
		AdapterName:         adapterName,
		AdapterVersion:      rec.AdapterVersion,
		RecordFormat:        format,
		EventType:           eventType,
		Role:                role,
		TimestampUTC:        ts.UTC,
		TimestampUnixMS:     ts.UnixMS,
		TimestampQuality:    ts.Quality,
		SessionID:           rec.SessionID,
		ConversationID:      rec.ConversationID,
		TurnID:              rec.TurnID,
		ParentEventID:       rec.ParentEventID,
		ActorID:             rec.ActorID,
		ActorName:           rec.ActorName,
		Provider:            rec.Provider,
		Model:               rec.Model,
		ContentText:         rec.ContentText,
		ContentExcerpt:      deriveExcerpt(rec.ContentText, DefaultExcerptMaxChars),
		ContentMime:         contentMime,
		ToolName:            rec.ToolName,
		ToolCallID:          rec.ToolCallID,
		ToolArgumentsJSON:   rec.ToolArgumentsJSON,
		ToolResultText:      rec.ToolResultText,
		InputTokens:         rec.InputTokens,
		OutputTokens:        rec.OutputTokens,
		TotalTokens:         rec.TotalTokens,
		CostUSD:             rec.CostUSD,
		Tags:                rec.Tags,
		Flags:               rec.Flags,
		RawHash:             rawHash,
		CanonicalHash:       canonicalHash,
		Metadata:            metadata,
	}
	for _, warning := range warnings {
		event.Warnings = append(event.Warnings, warning.String())
	}
	if len(event.Metadata) == 0 {
		event.Metadata = nil
	}
	return event, nil
}

// deriveEventID builds a deterministic, run-unique identifier from the
// source triple and the traversal index.
func deriveEventID(kind model.SourceKind, path, locator string, seq uint64) string {
	h := sha256.New()
	for _, part := range []string{string(kind), path, locator, strconv.FormatUint(seq, 10)} {
		fmt.Fprintf(h, "%d:%s\n", len(part), part)
	}
	return string(kind) + "-" + hex.EncodeToString(h.Sum(nil))[:16]
}

// deriveExcerpt normalizes whitespace and truncates to maxChars runes,
// appending an ellipsis when truncation happened.
func deriveExcerpt(text string, maxChars int) string {
	if maxChars == 0 {
		return ""
	}
	normalized := strings.Join(strings.Fields(text), " ")
	if normalized == "" {
		return ""
	}
	runes := []rune(normalized)
	if len(runes) <= maxChars {
		return normalized
	}
	return string(runes[:maxChars]) + "..."
}

func copyMetadata(src map[string]any) map[string]any {
	out := make(map[string]any, len(src)+3)
	for k, v := range src {
		out[k] = v
	}
	return out
}
