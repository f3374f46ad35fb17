// Package sqlitemart materializes canonical events into a SQLite database
// for downstream SQL consumers. It is an output sink: the write side of the
// mart lives here, the read-only query surface belongs to those consumers.
package sqlitemart

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/hejijunhao/sawmill/internal/model"
)

const schemaDDL = `
CREATE TABLE IF NOT EXISTS events (
  event_id              TEXT PRIMARY KEY,
  run_id                TEXT NOT NULL,
  sequence_global       INTEGER NOT NULL,
  sequence_source       INTEGER,
  source_kind           TEXT NOT NULL,
  source_path           TEXT NOT NULL,
  source_record_locator TEXT NOT NULL,
  source_record_hash    TEXT,
  adapter_name          TEXT NOT NULL,
  adapter_version       TEXT,
  record_format         TEXT NOT NULL,
  event_type            TEXT NOT NULL,
  role                  TEXT NOT NULL,
  timestamp_utc         TEXT NOT NULL,
  timestamp_unix_ms     INTEGER NOT NULL,
  timestamp_quality     TEXT NOT NULL,
  session_id            TEXT,
  conversation_id       TEXT,
  turn_id               TEXT,
  parent_event_id       TEXT,
  content_text          TEXT,
  content_excerpt       TEXT,
  tool_name             TEXT,
  tool_call_id          TEXT,
  raw_hash              TEXT NOT NULL,
  canonical_hash        TEXT NOT NULL,
  warnings_json         TEXT,
  metadata_json         TEXT
);
CREATE INDEX IF NOT EXISTS idx_events_run_seq ON events (run_id, sequence_global);
CREATE INDEX IF NOT EXISTS idx_events_canonical_hash ON events (canonical_hash);
`

// Store persists canonical events in SQLite. It implements output.Output.
type Store struct {
	sqlDB *sql.DB
}

// Open opens (or creates) the mart database and bootstraps the schema.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("mart path is required")
	}
	dsn := filepath.Clean(path) + "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite mart: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite mart: %w", err)
	}
	if _, err := sqlDB.Exec(schemaDDL); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("bootstrap mart schema: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Write inserts one canonical event. Re-running a normalize into the same
// mart replaces prior rows for the same event_id.
func (s *Store) Write(ctx context.Context, event model.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	warningsJSON, err := encodeJSON(event.Warnings)
	if err != nil {
		return fmt.Errorf("encode warnings for %s: %w", event.EventID, err)
	}
	metadataJSON, err := encodeJSON(event.Metadata)
	if err != nil {
		return fmt.Errorf("encode metadata for %s: %w", event.EventID, err)
	}

	_, err = s.sqlDB.ExecContext(
		ctx,
		`INSERT OR REPLACE INTO events (
		   event_id, run_id, sequence_global, sequence_source,
		   source_kind, source_path, source_record_locator, source_record_hash,
		   adapter_name, adapter_version,
		   record_format, event_type, role,
		   timestamp_utc, timestamp_unix_ms, timestamp_quality,
		   session_id, conversation_id, turn_id, parent_event_id,
		   content_text, content_excerpt, tool_name, tool_call_id,
		   raw_hash, canonical_hash, warnings_json, metadata_json
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		event.EventID,
		event.RunID,
		int64(event.SequenceGlobal),
		nullableUint(event.SequenceSource),
		string(event.SourceKind),
		event.SourcePath,
		event.SourceRecordLocator,
		nullableString(event.SourceRecordHash),
		string(event.AdapterName),
		nullableString(event.AdapterVersion),
		string(event.RecordFormat),
		string(event.EventType),
		string(event.Role),
		event.TimestampUTC,
		int64(event.TimestampUnixMS),
		string(event.TimestampQuality),
		nullableString(event.SessionID),
		nullableString(event.ConversationID),
		nullableString(event.TurnID),
		nullableString(event.ParentEventID),
		nullableString(event.ContentText),
		nullableString(event.ContentExcerpt),
		nullableString(event.ToolName),
		nullableString(event.ToolCallID),
		event.RawHash,
		event.CanonicalHash,
		warningsJSON,
		metadataJSON,
	)
	if err != nil {
		return fmt.Errorf("insert event %s: %w", event.EventID, err)
	}
	return nil
}

// CountEvents reports how many events a run materialized.
func (s *Store) CountEvents(ctx context.Context, runID string) (int, error) {
	var count int
	err := s.sqlDB.QueryRowContext(
		ctx, `SELECT COUNT(*) FROM events WHERE run_id = ?`, runID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count events for run %s: %w", runID, err)
	}
	return count, nil
}

// EventIDsInOrder returns a run's event ids ordered by sequence_global.
func (s *Store) EventIDsInOrder(ctx context.Context, runID string) ([]string, error) {
	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT event_id FROM events WHERE run_id = ? ORDER BY sequence_global`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("query events for run %s: %w", runID, err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan event id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func encodeJSON(v any) (any, error) {
	switch value := v.(type) {
	case []string:
		if len(value) == 0 {
			return nil, nil
		}
	case map[string]any:
		if len(value) == 0 {
			return nil, nil
		}
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullableUint(p *uint64) any {
	if p == nil {
		return nil
	}
	return int64(*p)
}
