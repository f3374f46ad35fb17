package sqlitemart

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hejijunhao/sawmill/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "mart.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func martEvent(id string, seq uint64) model.Event {
	return model.Event{
		SchemaVersion:       model.SchemaVersion,
		EventID:             id,
		RunID:               "run-1",
		SequenceGlobal:      seq,
		SourceKind:          model.SourceCodex,
		SourcePath:          "a.jsonl",
		SourceRecordLocator: "line:1",
		AdapterName:         model.SourceCodex,
		RecordFormat:        model.FormatMessage,
		EventType:           model.TypeResponse,
		Role:                model.RoleAssistant,
		TimestampUTC:        "2023-11-14T23:00:00.000Z",
		TimestampUnixMS:     1_700_002_800_000,
		TimestampQuality:    model.QualityExact,
		RawHash:             "raw-" + id,
		CanonicalHash:       "canon-" + id,
	}
}

func TestOpen_EmptyPath(t *testing.T) {
	_, err := Open("  ")
	assert.Error(t, err)
}

func TestWriteAndCount(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Write(ctx, martEvent("a", 0)))
	require.NoError(t, store.Write(ctx, martEvent("b", 1)))

	count, err := store.CountEvents(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	count, err = store.CountEvents(ctx, "other-run")
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestWrite_ReplaceOnRerun(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	event := martEvent("a", 0)
	require.NoError(t, store.Write(ctx, event))
	event.ContentText = "updated"
	require.NoError(t, store.Write(ctx, event))

	count, err := store.CountEvents(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, 1, count, "same event_id replaces, never duplicates")
}

func TestEventIDsInOrder(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	// Insert out of sequence order.
	require.NoError(t, store.Write(ctx, martEvent("late", 2)))
	require.NoError(t, store.Write(ctx, martEvent("first", 0)))
	require.NoError(t, store.Write(ctx, martEvent("mid", 1)))

	ids, err := store.EventIDsInOrder(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "mid", "late"}, ids)
}

func TestWrite_OptionalFieldsNullable(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	event := martEvent("a", 0)
	seq := uint64(7)
	event.SequenceSource = &seq
	event.SessionID = "s1"
	event.Warnings = []string{"timestamp_fallback"}
	event.Metadata = map[string]any{"dedupe_count": 2}
	require.NoError(t, store.Write(ctx, event))

	// A bare event with every optional column NULL also round-trips.
	require.NoError(t, store.Write(ctx, martEvent("bare", 1)))

	count, err := store.CountEvents(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestWrite_CancelledContext(t *testing.T) {
	store := openTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, store.Write(ctx, martEvent("a", 0)))
}
