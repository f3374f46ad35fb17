// Package timestamp resolves one authoritative UTC instant per record from
// tagged candidate timestamps, with a run-scoped fallback anchor as the
// source of last resort.
package timestamp

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/hejijunhao/sawmill/internal/model"
)

// Epoch magnitude cutoffs for unit inference.
const (
	epochSecondsCutoff = 100_000_000_000         // 1e11
	epochMillisCutoff  = 100_000_000_000_000     // 1e14
	epochMicrosCutoff  = 100_000_000_000_000_000 // 1e17
)

const afterRunWindow = 24 * time.Hour

// classPriority is the fixed candidate walk order.
var classPriority = []model.CandidateClass{
	model.ClassEvent,
	model.ClassMessage,
	model.ClassTool,
	model.ClassSession,
	model.ClassFileMtime,
}

// Input carries the per-record normalization inputs. AnchorUnixMS is the
// run-start instant; SequenceIndex is the stable traversal index used for
// session-derived and fallback offsets.
type Input struct {
	Candidates    []model.TimestampCandidate
	AnchorUnixMS  uint64
	SequenceIndex uint64
}

// Normalized is the resolved instant in both output representations. UTC and
// UnixMS always denote the same instant.
type Normalized struct {
	UTC      string
	UnixMS   uint64
	Quality  model.TimestampQuality
	Class    model.CandidateClass // ClassRunFallback when the run anchor was used
	Warnings []model.Warning
}

// Normalize walks the candidates in fixed class priority order and stops at
// the first one that parses. Session-level candidates receive a derived
// per-record sequence offset. When nothing parses, the run anchor plus the
// sequence offset is used and a timestamp_fallback warning is emitted.
func Normalize(in Input) Normalized {
	for _, class := range classPriority {
		for _, cand := range in.Candidates {
			if cand.Class != class {
				continue
			}
			ms, err := ParseToUnixMS(cand.Value, cand.AssumeUTC)
			if err != nil {
				continue
			}
			if class == model.ClassSession {
				// Session timestamps describe the whole session; spread
				// records by their sequence index to keep ordering stable.
				ms += in.SequenceIndex
			}
			quality := model.QualityDerived
			if class == model.ClassEvent {
				quality = model.QualityExact
			}
			n := Normalized{
				UTC:     FormatUnixMS(ms),
				UnixMS:  ms,
				Quality: quality,
				Class:   class,
			}
			if ms > in.AnchorUnixMS+uint64(afterRunWindow.Milliseconds()) {
				n.Warnings = append(n.Warnings, model.Warning{
					Code:   model.WarnTimestampAfterRun,
					Detail: fmt.Sprintf("timestamp_unix_ms=%d anchor_unix_ms=%d", ms, in.AnchorUnixMS),
				})
			}
			return n
		}
	}

	ms := in.AnchorUnixMS + in.SequenceIndex
	return Normalized{
		UTC:     FormatUnixMS(ms),
		UnixMS:  ms,
		Quality: model.QualityFallback,
		Class:   model.ClassRunFallback,
		Warnings: []model.Warning{{
			Code:   model.WarnTimestampFallback,
			Detail: fmt.Sprintf("sequence_index=%d", in.SequenceIndex),
		}},
	}
}

// offset-less layouts accepted only when the candidate declares AssumeUTC.
var localLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
}

// ParseToUnixMS parses a raw timestamp into floor epoch milliseconds.
// Accepted shapes: RFC3339/ISO-8601 with offset, and epoch integers with the
// unit inferred by magnitude. Pre-1970 instants and offset-less strings
// (unless assumeUTC) are rejected.
func ParseToUnixMS(raw string, assumeUTC bool) (uint64, error) {
	candidate := strings.TrimSpace(raw)
	if candidate == "" {
		return 0, errors.New("timestamp input is empty")
	}

	if epoch, err := strconv.ParseInt(candidate, 10, 64); err == nil {
		return epochToUnixMS(epoch)
	}

	if parsed, err := time.Parse(time.RFC3339Nano, candidate); err == nil {
		return timeToUnixMS(parsed)
	}

	if assumeUTC {
		for _, layout := range localLayouts {
			if parsed, err := time.ParseInLocation(layout, candidate, time.UTC); err == nil {
				return timeToUnixMS(parsed)
			}
		}
	}

	return 0, fmt.Errorf("unsupported timestamp format: %s", candidate)
}

// FormatUnixMS renders epoch milliseconds as a millisecond-precision RFC3339
// UTC string.
func FormatUnixMS(ms uint64) string {
	return time.UnixMilli(int64(ms)).UTC().Format("2006-01-02T15:04:05.000Z")
}

func epochToUnixMS(epoch int64) (uint64, error) {
	if epoch < 0 {
		return 0, errors.New("negative epoch values are not supported")
	}
	switch {
	case epoch < epochSecondsCutoff:
		return uint64(epoch) * 1_000, nil
	case epoch < epochMillisCutoff:
		return uint64(epoch), nil
	case epoch < epochMicrosCutoff:
		return uint64(epoch) / 1_000, nil
	default:
		return uint64(epoch) / 1_000_000, nil
	}
}

func timeToUnixMS(parsed time.Time) (uint64, error) {
	ms := parsed.UnixMilli()
	if ms < 0 {
		return 0, errors.New("timestamps before 1970-01-01T00:00:00Z are not supported")
	}
	return uint64(ms), nil
}
