// Package claude parses Claude Code project session JSONL files.
package claude

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
	adapter.Register("claude", func() adapter.Adapter { return &Claude{} })
}

// Claude parses per-session transcript journals. Each line is one entry:
// a user or assistant message, a tool use, or a session bookkeeping record.
type Claude struct{}

func (c *Claude) Name() string { return string(model.SourceClaude) }

func (c *Claude) Matches(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".jsonl")
}

func (c *Claude) ParseFile(ctx context.Context, path string) (adapter.ParseResult, error) {
	content, mtime, err := adapter.LoadFile(ctx, path)
	if err != nil {
		return adapter.ParseResult{}, err
	}
	return c.Parse(content, path, mtime), nil
}

func (c *Claude) Parse(content []byte, sourcePath string, mtime model.TimestampCandidate) adapter.ParseResult {
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

		rawRole := adapter.StringField(object, "role")
		rawKind := adapter.StringField(object, "kind")
		if rawKind == "" {
			rawKind = adapter.StringField(object, "type")
		}
		rawFormat, rawEventType := classifyEntry(rawKind, rawRole, object)

		seq := uint64(index)
		record := model.IntermediateRecord{
			RawSourceKind:       string(model.SourceClaude),
			RawAdapterName:      string(model.SourceClaude),
			RawRecordFormat:     rawFormat,
			RawEventType:        rawEventType,
			RawRole:             rawRole,
			AdapterVersion:      adapterVersion,
			SourcePath:          sourcePath,
			SourceRecordLocator: fmt.Sprintf("line:%d", lineNumber),
			RawPayload:          []byte(trimmed),
			SequenceSource:      &seq,
			SessionID:           adapter.StringField(object, "session_id"),
			ConversationID:      adapter.StringField(object, "project_id"),
			TurnID:              adapter.StringField(object, "turn_id"),
			Model:               adapter.StringField(object, "model"),
			ContentText:         extractContent(object),
			ToolName:            adapter.StringField(object, "tool_name"),
			ToolCallID:          adapter.StringField(object, "tool_use_id"),
			Tags:                []string{"claude", "session"},
			Metadata: map[string]any{
				"source_line": lineNumber,
			},
		}
		if parent := adapter.StringField(object, "parent_session_id"); parent != "" {
			record.Metadata["parent_session_id"] = parent
		}
		if usage, ok := object["usage"].(map[string]any); ok {
			record.InputTokens = tokenField(usage, "input_tokens")
			record.OutputTokens = tokenField(usage, "output_tokens")
		}

		if ts := adapter.RawTimestampField(object, "created_at", "timestamp"); ts != "" {
			record.Timestamps = append(record.Timestamps, model.TimestampCandidate{
				Class:     model.ClassMessage,
				Value:     ts,
				AssumeUTC: true,
			})
		}
		record.Timestamps = append(record.Timestamps, mtime)

		result.Records = append(result.Records, record)
	}
	return result
}

func classifyEntry(kind, role string, object map[string]any) (format, eventType string) {
	switch kind {
	case "tool_use", "tool_call":
		return "tool_call", "tool_invocation"
	case "tool_result":
		return "tool_result", "tool_output"
	case "system", "summary":
		return "system", "system_notice"
	}
	switch role {
	case "user", "human":
		return "message", "prompt"
	case "assistant", "model":
		return "message", "response"
	}
	if kind != "" {
		return "diagnostic", kind
	}
	return "diagnostic", "unknown"
}

func extractContent(object map[string]any) string {
	for _, key := range []string{"message", "content", "text", "response"} {
		if value, ok := object[key]; ok {
			if text := adapter.ExtractText(value); text != "" {
				return text
			}
		}
	}
	return ""
}

func tokenField(object map[string]any, key string) *uint64 {
	value, ok := object[key].(float64)
	if !ok || value < 0 {
		return nil
	}
	n := uint64(value)
	return &n
}
