// Package amp parses Amp file-change event JSONL files.
package amp

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
	adapter.Register("amp", func() adapter.Adapter { return &Amp{} })
}

// Amp parses workspace file-change journals. Each line records one mutation
// to a tracked file and maps onto an artifact reference event.
type Amp struct{}

func (a *Amp) Name() string { return string(model.SourceAmp) }

func (a *Amp) Matches(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".jsonl")
}

func (a *Amp) ParseFile(ctx context.Context, path string) (adapter.ParseResult, error) {
	content, mtime, err := adapter.LoadFile(ctx, path)
	if err != nil {
		return adapter.ParseResult{}, err
	}
	return a.Parse(content, path, mtime), nil
}

func (a *Amp) Parse(content []byte, sourcePath string, mtime model.TimestampCandidate) adapter.ParseResult {
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

		filePath := adapter.StringField(object, "path")
		if filePath == "" {
			filePath = adapter.StringField(object, "file")
		}
		change := adapter.StringField(object, "change")
		if change == "" {
			change = adapter.StringField(object, "op")
		}
		if change == "" {
			change = "modified"
		}

		seq := uint64(index)
		record := model.IntermediateRecord{
			RawSourceKind:       string(model.SourceAmp),
			RawAdapterName:      string(model.SourceAmp),
			RawRecordFormat:     "system",
			RawEventType:        "artifact_reference",
			RawRole:             "runtime",
			AdapterVersion:      adapterVersion,
			SourcePath:          sourcePath,
			SourceRecordLocator: fmt.Sprintf("line:%d", lineNumber),
			RawPayload:          []byte(trimmed),
			SequenceSource:      &seq,
			SessionID:           adapter.StringField(object, "session_id"),
			ConversationID:      adapter.StringField(object, "thread_id"),
			ContentText:         changeSummary(change, filePath),
			Tags:                []string{"amp", "file_change"},
			Metadata: map[string]any{
				"source_line": lineNumber,
				"change_kind": change,
			},
		}
		if filePath != "" {
			record.Metadata["file_path"] = filePath
		}

		if ts := adapter.RawTimestampField(object, "timestamp", "created_at"); ts != "" {
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

func changeSummary(change, filePath string) string {
	if filePath == "" {
		return change
	}
	return change + " " + filePath
}
