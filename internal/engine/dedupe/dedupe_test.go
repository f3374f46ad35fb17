package dedupe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hejijunhao/sawmill/internal/model"
)

func canonicalEvent(id, hash string, mutate ...func(*model.Event)) model.Event {
	e := model.Event{
		EventID:             id,
		CanonicalHash:       hash,
		RawHash:             "raw-" + id,
		SourceKind:          model.SourceCodex,
		AdapterName:         model.SourceCodex,
		SourcePath:          "a.jsonl",
		SourceRecordLocator: "line:" + id,
		EventType:           model.TypeResponse,
		TimestampQuality:    model.QualityExact,
	}
	for _, m := range mutate {
		m(&e)
	}
	return e
}

func TestMerge_CanonicalHashCollapses(t *testing.T) {
	result := Merge([]model.Event{
		canonicalEvent("a", "h1"),
		canonicalEvent("b", "h1"),
		canonicalEvent("c", "h2"),
	})

	require.Len(t, result.Events, 2)
	assert.Equal(t, 3, result.Stats.InputRecords)
	assert.Equal(t, 2, result.Stats.UniqueRecords)
	assert.Equal(t, 1, result.Stats.DuplicateRecords)
	assert.Empty(t, result.Warnings)

	winner := result.Events[0]
	assert.Equal(t, "canonical_hash", winner.Metadata["dedupe_strategy"])
	assert.Equal(t, 2, winner.Metadata["dedupe_count"])
	assert.Equal(t, []string{"a", "b"}, winner.Metadata["dedupe_members"])
}

func TestMerge_SingletonsStillAnnotated(t *testing.T) {
	result := Merge([]model.Event{canonicalEvent("a", "h1")})
	require.Len(t, result.Events, 1)
	assert.Equal(t, 1, result.Events[0].Metadata["dedupe_count"])
	entries := result.Events[0].Metadata["provenance_entries"].([]model.ProvenanceEntry)
	require.Len(t, entries, 1)
	assert.Equal(t, "a", entries[0].EventID)
}

func TestMerge_WinnerPrefersQualityThenRichness(t *testing.T) {
	richer := canonicalEvent("rich", "h1", func(e *model.Event) {
		e.TimestampQuality = model.QualityDerived
		e.SessionID = "s1"
		e.Model = "m1"
	})
	exact := canonicalEvent("exact", "h1", func(e *model.Event) {
		e.TimestampQuality = model.QualityExact
	})
	result := Merge([]model.Event{richer, exact})
	require.Len(t, result.Events, 1)
	assert.Equal(t, "exact", result.Events[0].EventID, "quality outranks richness")

	derivedPoor := canonicalEvent("poor", "h2", func(e *model.Event) {
		e.TimestampQuality = model.QualityDerived
	})
	derivedRich := canonicalEvent("rich2", "h2", func(e *model.Event) {
		e.TimestampQuality = model.QualityDerived
		e.SessionID = "s1"
	})
	result = Merge([]model.Event{derivedPoor, derivedRich})
	require.Len(t, result.Events, 1)
	assert.Equal(t, "rich2", result.Events[0].EventID, "richness breaks quality ties")
}

func TestMerge_ProvenanceConservation(t *testing.T) {
	input := []model.Event{
		canonicalEvent("a", "h1"),
		canonicalEvent("b", "h1"),
		canonicalEvent("c", "h1"),
		canonicalEvent("d", "h2"),
	}
	result := Merge(input)

	seen := map[string]int{}
	for _, event := range result.Events {
		entries := event.Metadata["provenance_entries"].([]model.ProvenanceEntry)
		assert.Equal(t, event.Metadata["dedupe_count"], len(entries))
		for _, entry := range entries {
			seen[entry.EventID]++
		}
	}
	// Every input event id appears in exactly one cluster's provenance.
	require.Len(t, seen, len(input))
	for id, count := range seen {
		assert.Equal(t, 1, count, "event %s", id)
	}
}

func fallbackAEvent(id, conversation, content string, mutate ...func(*model.Event)) model.Event {
	e := model.Event{
		EventID:             id,
		RawHash:             "raw-" + id,
		SourceKind:          model.SourceClaude,
		AdapterName:         model.SourceClaude,
		SourcePath:          id + ".jsonl",
		SourceRecordLocator: "line:1",
		ConversationID:      conversation,
		ContentText:         content,
		Role:                model.RoleAssistant,
		EventType:           model.TypeResponse,
		TimestampQuality:    model.QualityDerived,
		TimestampUnixMS:     1_700_000_000_200,
	}
	for _, m := range mutate {
		m(&e)
	}
	return e
}

func TestMerge_FallbackA_SameConversationAndContent(t *testing.T) {
	result := Merge([]model.Event{
		fallbackAEvent("a", "conv1", "same words"),
		fallbackAEvent("b", "conv1", "same   words"), // whitespace-equivalent
	})
	require.Len(t, result.Events, 1)
	assert.Equal(t, "fallback_a", result.Events[0].Metadata["dedupe_strategy"])
}

func TestMerge_FallbackA_TimestampBucketSeparates(t *testing.T) {
	result := Merge([]model.Event{
		fallbackAEvent("a", "conv1", "same words"),
		fallbackAEvent("b", "conv1", "same words", func(e *model.Event) {
			e.TimestampUnixMS += 2_000
		}),
	})
	assert.Len(t, result.Events, 2, "different second buckets do not merge")
}

func TestMerge_FallbackA_FallbackQualityIgnoresBucket(t *testing.T) {
	result := Merge([]model.Event{
		fallbackAEvent("a", "conv1", "same words", func(e *model.Event) {
			e.TimestampQuality = model.QualityFallback
		}),
		fallbackAEvent("b", "conv1", "same words", func(e *model.Event) {
			e.TimestampQuality = model.QualityFallback
			e.TimestampUnixMS += 60_000
		}),
	})
	assert.Len(t, result.Events, 1, "fallback anchors carry no bucket identity")
}

func TestMerge_FallbackA_EventTypeConflict(t *testing.T) {
	result := Merge([]model.Event{
		fallbackAEvent("a", "conv1", "same words"),
		fallbackAEvent("b", "conv1", "same words", func(e *model.Event) {
			e.EventType = model.TypeSystemNotice
		}),
	})
	assert.Len(t, result.Events, 2, "conflicting event types never merge")
	require.Len(t, result.Warnings, 1)
	assert.Equal(t, model.WarnAmbiguousMerge, result.Warnings[0].Code)

	var flagged *model.Event
	for i := range result.Events {
		if result.Events[i].EventID == "b" {
			flagged = &result.Events[i]
		}
	}
	require.NotNil(t, flagged)
	assert.Contains(t, flagged.Warnings, model.WarnAmbiguousMerge)
}

func fallbackBEvent(id, path, locator, rawHash string) model.Event {
	return model.Event{
		EventID:             id,
		RawHash:             rawHash,
		SourceKind:          model.SourceGemini,
		AdapterName:         model.SourceGemini,
		SourcePath:          path,
		SourceRecordLocator: locator,
		EventType:           model.TypeDebugLog,
		TimestampQuality:    model.QualityFallback,
	}
}

func TestMerge_FallbackB_SameLocatorSameBytes(t *testing.T) {
	result := Merge([]model.Event{
		fallbackBEvent("a", "logs.json", "entry:0", "raw1"),
		fallbackBEvent("b", "logs.json", "entry:0", "raw1"),
	})
	require.Len(t, result.Events, 1)
	assert.Equal(t, "fallback_b", result.Events[0].Metadata["dedupe_strategy"])
}

func TestMerge_FallbackB_RawHashConflict(t *testing.T) {
	result := Merge([]model.Event{
		fallbackBEvent("a", "logs.json", "entry:0", "raw1"),
		fallbackBEvent("b", "logs.json", "entry:0", "raw2"),
	})
	assert.Len(t, result.Events, 2, "same locator with different bytes is ambiguous")
	require.Len(t, result.Warnings, 1)
	assert.Equal(t, model.WarnAmbiguousMerge, result.Warnings[0].Code)
}

func TestMerge_DeterministicOutputOrder(t *testing.T) {
	events := []model.Event{
		canonicalEvent("c", "h3"),
		canonicalEvent("a", "h1"),
		canonicalEvent("b", "h1"),
	}
	first := Merge(events)
	second := Merge(events)
	require.Equal(t, len(first.Events), len(second.Events))
	for i := range first.Events {
		assert.Equal(t, first.Events[i].EventID, second.Events[i].EventID)
	}
	// First-seen cluster order is preserved.
	assert.Equal(t, "c", first.Events[0].EventID)
}

func TestMerge_DoesNotMutateInputMetadata(t *testing.T) {
	shared := map[string]any{"k": "v"}
	a := canonicalEvent("a", "h1", func(e *model.Event) { e.Metadata = shared })
	b := canonicalEvent("b", "h1")
	Merge([]model.Event{a, b})
	assert.Equal(t, map[string]any{"k": "v"}, shared, "input metadata maps stay untouched")
}
