package pipeline

import (
	"github.com/hejijunhao/sawmill/internal/engine/dedupe"
	"github.com/hejijunhao/sawmill/internal/model"
)

// Counts summarizes one run numerically.
type Counts struct {
	InputRecords      int `json:"input_records"`
	RecordsEmitted    int `json:"records_emitted"`
	DuplicatesRemoved int `json:"duplicates_removed"`
	Warnings          int `json:"warnings"`
	Errors            int `json:"errors"`
}

// Stats is the run summary written to the stats artifact. Count maps are
// seeded with every vocabulary value so absent categories read as explicit
// zeros.
type Stats struct {
	SchemaVersion          string         `json:"schema_version"`
	Counts                 Counts         `json:"counts"`
	AdapterContributions   map[string]int `json:"adapter_contributions"`
	SourceContributions    map[string]int `json:"source_contributions"`
	RecordFormatCounts     map[string]int `json:"record_format_counts"`
	EventTypeCounts        map[string]int `json:"event_type_counts"`
	TimestampQualityCounts map[string]int `json:"timestamp_quality_counts"`
}

func buildStats(events []model.Event, ds dedupe.Stats, inputRecords, runWarnings, runErrors int) Stats {
	stats := Stats{
		SchemaVersion:          model.SchemaVersion,
		AdapterContributions:   seededCounts(model.Vocabularies()["adapter_name"]),
		SourceContributions:    seededCounts(model.Vocabularies()["source_kind"]),
		RecordFormatCounts:     seededCounts(model.Vocabularies()["record_format"]),
		EventTypeCounts:        seededCounts(model.Vocabularies()["event_type"]),
		TimestampQualityCounts: seededCounts(model.Vocabularies()["timestamp_quality"]),
	}

	warnings := runWarnings
	for i := range events {
		e := &events[i]
		stats.AdapterContributions[string(e.AdapterName)]++
		stats.SourceContributions[string(e.SourceKind)]++
		stats.RecordFormatCounts[string(e.RecordFormat)]++
		stats.EventTypeCounts[string(e.EventType)]++
		stats.TimestampQualityCounts[string(e.TimestampQuality)]++
		warnings += len(e.Warnings)
	}

	// InputRecords covers every record submitted to the run, including ones
	// rejected before dedupe; ds only sees the survivors.
	stats.Counts = Counts{
		InputRecords:      inputRecords,
		RecordsEmitted:    len(events),
		DuplicatesRemoved: ds.DuplicateRecords,
		Warnings:          warnings,
		Errors:            runErrors,
	}
	return stats
}

func seededCounts(keys []string) map[string]int {
	counts := make(map[string]int, len(keys))
	for _, key := range keys {
		counts[key] = 0
	}
	return counts
}
