// Package canonhash computes the two content-addressed digests carried by
// every canonical event: raw_hash (payload identity) and canonical_hash
// (semantic identity). Digests are identity material for dedupe, not
// security material.
package canonhash

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/hejijunhao/sawmill/internal/model"
)

// layoutVersion tags the canonical byte layout; bump it when the hash
// material changes shape.
const layoutVersion = "canon.v1"

// EmptyMarker is the canonical stand-in for empty or missing text. Hash
// material always contains a content field, so absence and emptiness cannot
// drift apart across adapters.
const EmptyMarker = "<empty>"

// Raw hashes the source payload slice exactly as ingested, after line-ending
// normalization only. Lowercase hex SHA-256.
func Raw(payload []byte) string {
	normalized := bytes.ReplaceAll(payload, []byte("\r\n"), []byte("\n"))
	sum := sha256.Sum256(normalized)
	return hex.EncodeToString(sum[:])
}

// Input is the canonical-hash material for one record. Tool fields are
// included only when the record format is tool-shaped. The timestamp bucket
// participates only for exact and derived quality.
type Input struct {
	EventType model.EventType
	Role      model.Role
	Content   string

	RecordFormat      model.RecordFormat
	ToolName          string
	ToolArgumentsJSON string
	ToolResultText    string

	TimestampUnixMS  uint64
	TimestampQuality model.TimestampQuality
}

// Canonical computes the semantic identity digest over a length-framed,
// stable-ordered byte layout. It fails only on unencodable content, which is
// a per-record error, never a pipeline failure.
func Canonical(in Input) (string, error) {
	content, err := NormalizeContent(in.Content)
	if err != nil {
		return "", err
	}
	if content == "" {
		content = EmptyMarker
	}

	h := sha256.New()
	writeField(h, "layout", layoutVersion)
	writeField(h, "event_type", string(in.EventType))
	writeField(h, "role", string(in.Role))
	writeField(h, "content", content)

	if in.RecordFormat == model.FormatToolCall || in.RecordFormat == model.FormatToolResult {
		tool, err := normalizeToolPayload(in)
		if err != nil {
			return "", err
		}
		writeField(h, "tool", tool)
	}

	if in.TimestampQuality == model.QualityExact || in.TimestampQuality == model.QualityDerived {
		writeField(h, "ts_bucket", strconv.FormatUint(in.TimestampUnixMS/1000, 10))
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

// ContentKey hashes normalized content on its own; it is the content
// component of the fallback_a dedupe key.
func ContentKey(content string) string {
	normalized, err := NormalizeContent(content)
	if err != nil {
		normalized = EmptyMarker
	}
	if normalized == "" {
		normalized = EmptyMarker
	}
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}

// NormalizeContent collapses whitespace runs and applies Unicode NFC so that
// incidental formatting differences between adapters do not change identity.
// Invalid UTF-8 is rejected.
func NormalizeContent(content string) (string, error) {
	if content == "" {
		return "", nil
	}
	if !utf8.ValidString(content) {
		return "", fmt.Errorf("content is not valid UTF-8")
	}
	collapsed := strings.Join(strings.Fields(content), " ")
	return norm.NFC.String(collapsed), nil
}

func normalizeToolPayload(in Input) (string, error) {
	for _, part := range []string{in.ToolName, in.ToolArgumentsJSON, in.ToolResultText} {
		if part != "" && !utf8.ValidString(part) {
			return "", fmt.Errorf("tool payload is not valid UTF-8")
		}
	}
	parts := []string{in.ToolName, in.ToolArgumentsJSON}
	result, err := NormalizeContent(in.ToolResultText)
	if err != nil {
		return "", err
	}
	if result == "" {
		result = EmptyMarker
	}
	parts = append(parts, result)
	return frameParts(parts), nil
}

// writeField emits key:len:value\n so that no field boundary can be forged
// by payload bytes.
func writeField(h interface{ Write([]byte) (int, error) }, key, value string) {
	fmt.Fprintf(h, "%s:%d:%s\n", key, len(value), value)
}

func frameParts(parts []string) string {
	var b strings.Builder
	for _, p := range parts {
		b.WriteString(strconv.Itoa(len(p)))
		b.WriteByte(':')
		b.WriteString(p)
		b.WriteByte('\n')
	}
	return b.String()
}
