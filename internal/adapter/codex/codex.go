// Package codex parses Codex CLI rollout and history JSONL files.
package codex

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/hejijunhao/sawmill/internal/adapter"
	"github.com/hejijunhao/sawmill/internal/model"
)

const adapterVersion = "v1"

func init() {
	adapter.Register("codex", func() adapter.Adapter { return &Codex{} })
}

// Codex parses rollout event streams. History files (prompt journals) share
// the same line shape apart from the prompt_id key and are handled by the
// same parser.
type Codex struct{}

func (c *Codex) Name() string { return string(model.SourceCodex) }

func (c *Codex) Matches(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jsonl", ".ndjson":
		return true
	}
	return false
}

func (c *Codex) ParseFile(ctx context.Context, path string) (adapter.ParseResult, error) {
	content, mtime, err := adapter.LoadFile(ctx, path)
	if err != nil {
		return adapter.ParseResult{}, err
	}
	return c.Parse(content, path, mtime), nil
}

// Parse converts rollout JSONL into intermediate records. Malformed lines
// become warnings; the rest of the file still parses.
func (c *Codex) Parse(content []byte, sourcePath string, mtime model.TimestampCandidate) adapter.ParseResult {
	var result adapter.ParseResult

	for index, line := range strings.Split(string(content), "\n") {
		lineNumber := index + 1
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}

		var object map[string]any
		if err := json.Unmarshal([]byte(trimmed), &object); err != nil {
			result.Warnings = append(result.Warnings, model.Warning{
				Code:   "invalid_json_line",
				Detail: fmt.Sprintf("%s#line:%d", sourcePath, lineNumber),
			})
			continue
		}

		rawEventType := adapter.StringField(object, "event_type")
		if rawEventType == "" && adapter.StringField(object, "prompt_id") != "" {
			// History journal line: a recorded user prompt.
			rawEventType = "user_prompt"
		}
		if rawEventType == "" {
			rawEventType = "unknown"
		}
		rawFormat, rawRole := classifyFamily(rawEventType, object)

		seq := uint64(index)
		record := model.IntermediateRecord{
			RawSourceKind:       string(model.SourceCodex),
			RawAdapterName:      string(model.SourceCodex),
			RawRecordFormat:     rawFormat,
			RawEventType:        rawEventType,
			RawRole:             rawRole,
			AdapterVersion:      adapterVersion,
			SourcePath:          sourcePath,
			SourceRecordLocator: fmt.Sprintf("line:%d", lineNumber),
			RawPayload:          []byte(trimmed),
			SequenceSource:      &seq,
			SessionID:           adapter.StringField(object, "session_id"),
			ContentText:         extractContent(object),
			ToolName:            adapter.StringField(object, "tool_name"),
			ToolCallID:          adapter.StringField(object, "call_id"),
			Tags:                []string{"codex", "rollout"},
			Metadata: map[string]any{
				"source_line":      lineNumber,
				"codex_event_type": rawEventType,
			},
		}

		if rawFormat == "tool_result" {
			for _, key := range []string{"output", "result"} {
				if value, ok := object[key]; ok {
					record.ToolResultText = adapter.ExtractText(value)
					break
				}
			}
		}
		if args, ok := object["arguments"]; ok {
			if encoded, err := json.Marshal(args); err == nil {
				record.ToolArgumentsJSON = string(encoded)
			}
		}

		if ts := adapter.RawTimestampField(object, "created_at", "timestamp"); ts != "" {
			record.Timestamps = append(record.Timestamps, model.TimestampCandidate{
				Class:     model.ClassEvent,
				Value:     ts,
				AssumeUTC: true,
			})
		}
		record.Timestamps = append(record.Timestamps, mtime)

		if exitCode, ok := object["exit_code"].(float64); ok {
			record.Metadata["exit_code"] = int(exitCode)
		}

		result.Records = append(result.Records, record)
	}
	return result
}

// classifyFamily maps a rollout event type onto raw structural classifiers.
// Unknown families flow through as diagnostics; the vocabulary stage warns.
func classifyFamily(eventType string, object map[string]any) (format, role string) {
	switch {
	case eventType == "user_prompt":
		return "message", "user"
	case eventType == "assistant_response":
		return "message", "assistant"
	case eventType == "tool_call":
		return "tool_call", "tool"
	case eventType == "tool_result":
		return "tool_result", "tool"
	case strings.HasPrefix(eventType, "event_msg"):
		return "system", "runtime"
	default:
		if hint := adapter.StringField(object, "role"); hint != "" {
			return "diagnostic", hint
		}
		return "diagnostic", "runtime"
	}
}

func extractContent(object map[string]any) string {
	for _, key := range []string{"message", "text", "content", "input"} {
		if value, ok := object[key]; ok {
			if text := adapter.ExtractText(value); text != "" {
				return text
			}
		}
	}
	return ""
}
