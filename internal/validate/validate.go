// Package validate re-checks an emitted event stream against the
// agentlog.v1 contract: required fields, vocabulary membership, timestamp
// agreement, and global ordering.
package validate

import (
	"regexp"

	"github.com/hejijunhao/sawmill/internal/engine/timestamp"
	"github.com/hejijunhao/sawmill/internal/model"
)

// Mode selects how hard the validator pushes.
type Mode string

const (
	// Baseline checks the structural contract every consumer relies on.
	Baseline Mode = "baseline"
	// Strict additionally rejects fallback timestamps and any event that
	// carries warnings.
	Strict Mode = "strict"
)

// Finding is one contract violation, pinned to an event.
type Finding struct {
	EventID string `json:"event_id"`
	Field   string `json:"field,omitempty"`
	Code    string `json:"code"`
	Detail  string `json:"detail,omitempty"`
}

// AgentStats summarizes one source kind's share of the stream.
type AgentStats struct {
	Events   int `json:"events"`
	Warnings int `json:"warnings"`
	Findings int `json:"findings"`
}

// Report is the validation artifact. Passed is true when no findings were
// recorded for the selected mode.
type Report struct {
	SchemaVersion string                `json:"schema_version"`
	Mode          Mode                  `json:"mode"`
	Passed        bool                  `json:"passed"`
	EventsChecked int                   `json:"events_checked"`
	Findings      []Finding             `json:"findings"`
	PerAgent      map[string]AgentStats `json:"per_agent"`
}

var hashPattern = regexp.MustCompile(`^[0-9a-f]{64}$`)

// Run validates the event stream in order and builds the report.
func Run(events []model.Event, mode Mode) Report {
	report := Report{
		SchemaVersion: model.SchemaVersion,
		Mode:          mode,
		EventsChecked: len(events),
		Findings:      []Finding{},
		PerAgent:      map[string]AgentStats{},
	}
	for _, kind := range model.SourceKinds() {
		report.PerAgent[string(kind)] = AgentStats{}
	}

	vocabularies := model.Vocabularies()
	seenIDs := make(map[string]struct{}, len(events))

	for i := range events {
		event := &events[i]
		var findings []Finding

		findings = append(findings, checkRequired(event)...)
		findings = append(findings, checkVocabulary(event, vocabularies)...)
		findings = append(findings, checkTimestamp(event)...)
		findings = append(findings, checkHashes(event)...)

		if event.SequenceGlobal != uint64(i) {
			findings = append(findings, Finding{
				EventID: event.EventID,
				Field:   "sequence_global",
				Code:    "sequence_gap",
				Detail:  model.SchemaVersion + " requires dense zero-based global sequence",
			})
		}
		if _, dup := seenIDs[event.EventID]; dup {
			findings = append(findings, Finding{
				EventID: event.EventID,
				Field:   "event_id",
				Code:    "duplicate_event_id",
			})
		}
		seenIDs[event.EventID] = struct{}{}

		if mode == Strict {
			if event.TimestampQuality == model.QualityFallback {
				findings = append(findings, Finding{
					EventID: event.EventID,
					Field:   "timestamp_quality",
					Code:    "fallback_timestamp",
				})
			}
			for _, warning := range event.Warnings {
				findings = append(findings, Finding{
					EventID: event.EventID,
					Code:    "event_warning",
					Detail:  warning,
				})
			}
		}

		stats := report.PerAgent[string(event.SourceKind)]
		stats.Events++
		stats.Warnings += len(event.Warnings)
		stats.Findings += len(findings)
		report.PerAgent[string(event.SourceKind)] = stats

		report.Findings = append(report.Findings, findings...)
	}

	report.Passed = len(report.Findings) == 0
	return report
}

func checkRequired(event *model.Event) []Finding {
	var findings []Finding
	missing := func(field string) {
		findings = append(findings, Finding{
			EventID: event.EventID,
			Field:   field,
			Code:    "missing_required_field",
		})
	}
	if event.SchemaVersion != model.SchemaVersion {
		findings = append(findings, Finding{
			EventID: event.EventID,
			Field:   "schema_version",
			Code:    "schema_version_mismatch",
			Detail:  event.SchemaVersion,
		})
	}
	if event.EventID == "" {
		missing("event_id")
	}
	if event.RunID == "" {
		missing("run_id")
	}
	if event.SourcePath == "" {
		missing("source_path")
	}
	if event.SourceRecordLocator == "" {
		missing("source_record_locator")
	}
	if event.TimestampUTC == "" {
		missing("timestamp_utc")
	}
	return findings
}

func checkVocabulary(event *model.Event, vocabularies map[string][]string) []Finding {
	var findings []Finding
	check := func(field, value string) {
		for _, allowed := range vocabularies[field] {
			if value == allowed {
				return
			}
		}
		findings = append(findings, Finding{
			EventID: event.EventID,
			Field:   field,
			Code:    "vocabulary_violation",
			Detail:  value,
		})
	}
	check("source_kind", string(event.SourceKind))
	check("adapter_name", string(event.AdapterName))
	check("record_format", string(event.RecordFormat))
	check("event_type", string(event.EventType))
	check("role", string(event.Role))
	check("timestamp_quality", string(event.TimestampQuality))
	return findings
}

// checkTimestamp verifies the two timestamp encodings agree: re-rendering
// the millisecond value must reproduce timestamp_utc exactly.
func checkTimestamp(event *model.Event) []Finding {
	rendered := timestamp.FormatUnixMS(event.TimestampUnixMS)
	if rendered == event.TimestampUTC {
		return nil
	}
	return []Finding{{
		EventID: event.EventID,
		Field:   "timestamp_utc",
		Code:    "timestamp_disagreement",
		Detail:  rendered + " != " + event.TimestampUTC,
	}}
}

func checkHashes(event *model.Event) []Finding {
	var findings []Finding
	if !hashPattern.MatchString(event.RawHash) {
		findings = append(findings, Finding{
			EventID: event.EventID,
			Field:   "raw_hash",
			Code:    "malformed_hash",
		})
	}
	if !hashPattern.MatchString(event.CanonicalHash) {
		findings = append(findings, Finding{
			EventID: event.EventID,
			Field:   "canonical_hash",
			Code:    "malformed_hash",
		})
	}
	return findings
}
