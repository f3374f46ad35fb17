// Package order defines the strict total ordering applied to the post-dedupe
// event set. The trailing event_id key guarantees no two distinct events
// compare equal, which makes output byte-stable across runs.
package order

import (
	"cmp"
	"math"
	"slices"

	"github.com/hejijunhao/sawmill/internal/model"
)

// Compare orders events ascending by timestamp, quality rank, source triple,
// source sequence (absent sorts last), canonical hash, and finally event id.
func Compare(a, b *model.Event) int {
	if c := cmp.Compare(a.TimestampUnixMS, b.TimestampUnixMS); c != 0 {
		return c
	}
	if c := cmp.Compare(model.QualityRank(a.TimestampQuality), model.QualityRank(b.TimestampQuality)); c != 0 {
		return c
	}
	if c := cmp.Compare(a.SourceKind, b.SourceKind); c != 0 {
		return c
	}
	if c := cmp.Compare(a.SourcePath, b.SourcePath); c != 0 {
		return c
	}
	if c := cmp.Compare(a.SourceRecordLocator, b.SourceRecordLocator); c != 0 {
		return c
	}
	if c := cmp.Compare(sequenceSourceKey(a), sequenceSourceKey(b)); c != 0 {
		return c
	}
	if c := cmp.Compare(a.CanonicalHash, b.CanonicalHash); c != 0 {
		return c
	}
	return cmp.Compare(a.EventID, b.EventID)
}

// Sort orders events in place and assigns sequence_global values starting
// from zero. It is applied exactly once, after dedupe.
func Sort(events []model.Event) {
	slices.SortFunc(events, func(a, b model.Event) int {
		return Compare(&a, &b)
	})
	for i := range events {
		events[i].SequenceGlobal = uint64(i)
	}
}

func sequenceSourceKey(e *model.Event) uint64 {
	if e.SequenceSource == nil {
		return math.MaxUint64
	}
	return *e.SequenceSource
}
