// Package dedupe partitions the run's event batch into duplicate clusters
// and collapses each cluster to one deterministic winner with full
// provenance. It requires the whole batch: cluster membership depends on
// global knowledge, so it runs behind the pipeline's barrier.
package dedupe

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hejijunhao/sawmill/internal/engine/canonhash"
	"github.com/hejijunhao/sawmill/internal/model"
)

// Strategy names the dedupe key tier that formed a cluster.
type Strategy string

const (
	StrategyCanonical Strategy = "canonical_hash"
	StrategyFallbackA Strategy = "fallback_a"
	StrategyFallbackB Strategy = "fallback_b"
)

// Stats summarizes one merge pass.
type Stats struct {
	InputRecords     int
	UniqueRecords    int
	DuplicateRecords int
}

// Result is the collapsed batch plus merge diagnostics.
type Result struct {
	Events   []model.Event
	Stats    Stats
	Warnings []model.Warning
}

type bucket struct {
	winner     model.Event
	strategy   Strategy
	eventType  model.EventType
	rawHash    string
	memberIDs  []string
	provenance []model.ProvenanceEntry
}

// Merge groups events by the tiered key hierarchy and emits one winner per
// cluster. raw_hash is never used as a cross-adapter key: identical semantics
// wrapped in different raw bytes must still collapse. Conflicting strong
// signals inside a fallback cluster resolve to no merge plus an
// ambiguous_merge warning, never a guessed merge.
func Merge(events []model.Event) Result {
	buckets := make(map[string]*bucket)
	var keys []string
	var warnings []model.Warning

	for _, event := range events {
		strategy := strategyFor(&event)
		key := keyFor(&event, strategy)

		if b, ok := buckets[key]; ok {
			if !conflicts(b, &event) {
				addMember(b, event)
				continue
			}
			warnings = append(warnings, model.Warning{
				Code:   model.WarnAmbiguousMerge,
				Detail: fmt.Sprintf("event_id=%s key_strategy=%s", event.EventID, strategy),
			})
			event.Warnings = append(event.Warnings, model.WarnAmbiguousMerge)
			// Forced singleton; event_id keeps the key unique.
			key += "|!" + event.EventID
		}

		buckets[key] = newBucket(event, strategy)
		keys = append(keys, key)
	}

	deduped := make([]model.Event, 0, len(keys))
	for _, key := range keys {
		deduped = append(deduped, finalize(buckets[key]))
	}

	return Result{
		Events: deduped,
		Stats: Stats{
			InputRecords:     len(events),
			UniqueRecords:    len(deduped),
			DuplicateRecords: len(events) - len(deduped),
		},
		Warnings: warnings,
	}
}

// strategyFor picks the highest key tier the event can support. Fallback
// tiers apply only when canonical hash material was missing or unstable.
func strategyFor(e *model.Event) Strategy {
	if strings.TrimSpace(e.CanonicalHash) != "" {
		return StrategyCanonical
	}
	if e.ConversationID != "" || e.TurnID != "" || e.ContentText != "" {
		return StrategyFallbackA
	}
	return StrategyFallbackB
}

func keyFor(e *model.Event, strategy Strategy) string {
	switch strategy {
	case StrategyCanonical:
		return "canonical:" + e.CanonicalHash
	case StrategyFallbackA:
		// 1-second bucket, omitted entirely for fallback quality so that
		// imprecise anchors cannot cause false non-matches.
		tsBucket := ""
		if e.TimestampQuality != model.QualityFallback {
			tsBucket = fmt.Sprintf("%d", e.TimestampUnixMS/1000)
		}
		return strings.Join([]string{
			"a", string(e.SourceKind), e.ConversationID, e.TurnID,
			string(e.Role), canonhash.ContentKey(e.ContentText), tsBucket,
		}, "|")
	default:
		return strings.Join([]string{
			"b", string(e.SourceKind), e.SourcePath, e.SourceRecordLocator,
		}, "|")
	}
}

// conflicts reports a strong-signal disagreement between a fallback-tier
// bucket and a joining candidate: a fallback_b cluster whose members carry
// different raw bytes for the same locator, or a fallback_a cluster whose
// members disagree on event type.
func conflicts(b *bucket, candidate *model.Event) bool {
	switch b.strategy {
	case StrategyFallbackB:
		return candidate.RawHash != b.rawHash
	case StrategyFallbackA:
		return candidate.EventType != b.eventType
	default:
		return false
	}
}

func newBucket(event model.Event, strategy Strategy) *bucket {
	return &bucket{
		winner:     event,
		strategy:   strategy,
		eventType:  event.EventType,
		rawHash:    event.RawHash,
		memberIDs:  []string{event.EventID},
		provenance: []model.ProvenanceEntry{provenanceFor(&event)},
	}
}

func addMember(b *bucket, event model.Event) {
	b.memberIDs = append(b.memberIDs, event.EventID)
	b.provenance = append(b.provenance, provenanceFor(&event))
	if prefers(&event, &b.winner) {
		b.winner = event
	}
}

// prefers reports whether candidate should replace current as the cluster
// winner: higher timestamp quality first, then the richness metric, then
// lexical event_id.
func prefers(candidate, current *model.Event) bool {
	cr, wr := model.QualityRank(candidate.TimestampQuality), model.QualityRank(current.TimestampQuality)
	if cr != wr {
		return cr < wr
	}
	cn, wn := candidate.OptionalFieldCount(), current.OptionalFieldCount()
	if cn != wn {
		return cn > wn
	}
	return candidate.EventID < current.EventID
}

func finalize(b *bucket) model.Event {
	winner := b.winner
	if winner.Metadata == nil {
		winner.Metadata = make(map[string]any)
	} else {
		// The winner's metadata map may be shared with the input batch.
		copied := make(map[string]any, len(winner.Metadata)+4)
		for k, v := range winner.Metadata {
			copied[k] = v
		}
		winner.Metadata = copied
	}

	members := append([]string(nil), b.memberIDs...)
	sort.Strings(members)

	winner.Metadata["dedupe_count"] = len(b.memberIDs)
	winner.Metadata["dedupe_strategy"] = string(b.strategy)
	winner.Metadata["dedupe_members"] = members
	winner.Metadata["provenance_entries"] = append([]model.ProvenanceEntry(nil), b.provenance...)
	return winner
}

func provenanceFor(e *model.Event) model.ProvenanceEntry {
	return model.ProvenanceEntry{
		EventID:             e.EventID,
		SourceKind:          e.SourceKind,
		SourcePath:          e.SourcePath,
		SourceRecordLocator: e.SourceRecordLocator,
		RawHash:             e.RawHash,
		AdapterName:         e.AdapterName,
		AdapterVersion:      e.AdapterVersion,
	}
}
