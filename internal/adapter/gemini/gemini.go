// Package gemini parses Gemini CLI logs.json files and saved chat sessions.
package gemini

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
	adapter.Register("gemini", func() adapter.Adapter { return &Gemini{} })
}

// Gemini handles two on-disk shapes. logs.json is a flat array of runtime
// log entries; chat session files are a single object holding an ordered
// messages array plus session-level metadata.
type Gemini struct{}

func (g *Gemini) Name() string { return string(model.SourceGemini) }

func (g *Gemini) Matches(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".json")
}

func (g *Gemini) ParseFile(ctx context.Context, path string) (adapter.ParseResult, error) {
	content, mtime, err := adapter.LoadFile(ctx, path)
	if err != nil {
		return adapter.ParseResult{}, err
	}
	return g.Parse(content, path, mtime), nil
}

func (g *Gemini) Parse(content []byte, sourcePath string, mtime model.TimestampCandidate) adapter.ParseResult {
	trimmed := strings.TrimSpace(string(content))
	if strings.HasPrefix(trimmed, "[") {
		return g.parseLogs([]byte(trimmed), sourcePath, mtime)
	}
	return g.parseSession([]byte(trimmed), sourcePath, mtime)
}

// parseLogs handles the flat logs.json array of runtime diagnostics.
func (g *Gemini) parseLogs(content []byte, sourcePath string, mtime model.TimestampCandidate) adapter.ParseResult {
	var result adapter.ParseResult

	var entries []map[string]any
	if err := json.Unmarshal(content, &entries); err != nil {
		result.Warnings = append(result.Warnings, model.Warning{
			Code:   "invalid_json_file",
			Detail: sourcePath,
		})
		return result
	}

	for index, entry := range entries {
		payload, err := json.Marshal(entry)
		if err != nil {
			continue
		}
		rawEventType := adapter.StringField(entry, "type")
		if rawEventType == "" {
			rawEventType = "log"
		}
		if level := adapter.StringField(entry, "level"); level == "error" {
			rawEventType = "error"
		}

		seq := uint64(index)
		record := model.IntermediateRecord{
			RawSourceKind:       string(model.SourceGemini),
			RawAdapterName:      string(model.SourceGemini),
			RawRecordFormat:     "diagnostic",
			RawEventType:        rawEventType,
			RawRole:             "runtime",
			AdapterVersion:      adapterVersion,
			SourcePath:          sourcePath,
			SourceRecordLocator: fmt.Sprintf("entry:%d", index),
			RawPayload:          payload,
			SequenceSource:      &seq,
			SessionID:           adapter.StringField(entry, "sessionId"),
			ContentText:         adapter.ExtractText(entry["message"]),
			Tags:                []string{"gemini", "logs"},
			Metadata: map[string]any{
				"entry_index": index,
			},
		}
		if level := adapter.StringField(entry, "level"); level != "" {
			record.Metadata["log_level"] = level
		}

		if ts := adapter.RawTimestampField(entry, "timestamp"); ts != "" {
			record.Timestamps = append(record.Timestamps, model.TimestampCandidate{
				Class:     model.ClassEvent,
				Value:     ts,
				AssumeUTC: true,
			})
		}
		record.Timestamps = append(record.Timestamps, mtime)

		result.Records = append(result.Records, record)
	}
	return result
}

// parseSession handles a saved chat session object. Per-message timestamps
// are preferred; the session start time backs them up for messages that
// carry none.
func (g *Gemini) parseSession(content []byte, sourcePath string, mtime model.TimestampCandidate) adapter.ParseResult {
	var result adapter.ParseResult

	var session map[string]any
	if err := json.Unmarshal(content, &session); err != nil {
		result.Warnings = append(result.Warnings, model.Warning{
			Code:   "invalid_json_file",
			Detail: sourcePath,
		})
		return result
	}

	sessionID := adapter.StringField(session, "sessionId")
	if sessionID == "" {
		sessionID = adapter.StringField(session, "session_id")
	}
	startTime := adapter.RawTimestampField(session, "startTime", "start_time")

	messages, _ := session["messages"].([]any)
	for index, raw := range messages {
		message, ok := raw.(map[string]any)
		if !ok {
			result.Warnings = append(result.Warnings, model.Warning{
				Code:   "invalid_message_entry",
				Detail: fmt.Sprintf("%s#message:%d", sourcePath, index),
			})
			continue
		}
		payload, err := json.Marshal(message)
		if err != nil {
			continue
		}

		rawRole := adapter.StringField(message, "role")
		rawFormat, rawEventType := classifyMessage(rawRole)

		seq := uint64(index)
		record := model.IntermediateRecord{
			RawSourceKind:       string(model.SourceGemini),
			RawAdapterName:      string(model.SourceGemini),
			RawRecordFormat:     rawFormat,
			RawEventType:        rawEventType,
			RawRole:             rawRole,
			AdapterVersion:      adapterVersion,
			SourcePath:          sourcePath,
			SourceRecordLocator: fmt.Sprintf("message:%d", index),
			RawPayload:          payload,
			SequenceSource:      &seq,
			SessionID:           sessionID,
			ConversationID:      adapter.StringField(session, "conversationId"),
			Model:               adapter.StringField(session, "model"),
			ContentText:         messageText(message),
			Tags:                []string{"gemini", "chat"},
			Metadata: map[string]any{
				"message_index": index,
			},
		}

		if ts := adapter.RawTimestampField(message, "timestamp"); ts != "" {
			record.Timestamps = append(record.Timestamps, model.TimestampCandidate{
				Class:     model.ClassMessage,
				Value:     ts,
				AssumeUTC: true,
			})
		}
		if startTime != "" {
			record.Timestamps = append(record.Timestamps, model.TimestampCandidate{
				Class:     model.ClassSession,
				Value:     startTime,
				AssumeUTC: true,
			})
		}
		record.Timestamps = append(record.Timestamps, mtime)

		result.Records = append(result.Records, record)
	}
	return result
}

func classifyMessage(role string) (format, eventType string) {
	switch role {
	case "user", "human":
		return "message", "prompt"
	case "model", "assistant", "ai":
		return "message", "response"
	default:
		return "system", "system_notice"
	}
}

// messageText joins the parts array when present, otherwise falls back to
// the flat text/content keys.
func messageText(message map[string]any) string {
	if parts, ok := message["parts"].([]any); ok {
		var texts []string
		for _, part := range parts {
			if text := adapter.ExtractText(part); text != "" {
				texts = append(texts, text)
			}
		}
		if len(texts) > 0 {
			return strings.Join(texts, "\n")
		}
	}
	for _, key := range []string{"text", "content"} {
		if value, ok := message[key]; ok {
			if text := adapter.ExtractText(value); text != "" {
				return text
			}
		}
	}
	return ""
}
