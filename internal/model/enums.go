package model

// SchemaVersion identifies the canonical event schema emitted by sawmill.
const SchemaVersion = "agentlog.v1"

// SourceKind identifies the agent tool family a source artifact belongs to.
type SourceKind string

const (
	SourceCodex    SourceKind = "codex"
	SourceClaude   SourceKind = "claude"
	SourceGemini   SourceKind = "gemini"
	SourceAmp      SourceKind = "amp"
	SourceOpenCode SourceKind = "opencode"
)

// SourceKinds returns every valid SourceKind in stable order.
func SourceKinds() []SourceKind {
	return []SourceKind{SourceCodex, SourceClaude, SourceGemini, SourceAmp, SourceOpenCode}
}

// RecordFormat is the structural shape of a source record.
type RecordFormat string

const (
	FormatMessage    RecordFormat = "message"
	FormatToolCall   RecordFormat = "tool_call"
	FormatToolResult RecordFormat = "tool_result"
	FormatSystem     RecordFormat = "system"
	FormatDiagnostic RecordFormat = "diagnostic"
)

// RecordFormats returns every valid RecordFormat in stable order.
func RecordFormats() []RecordFormat {
	return []RecordFormat{FormatMessage, FormatToolCall, FormatToolResult, FormatSystem, FormatDiagnostic}
}

// EventType is the semantic classification of a canonical event.
type EventType string

const (
	TypePrompt            EventType = "prompt"
	TypeResponse          EventType = "response"
	TypeSystemNotice      EventType = "system_notice"
	TypeToolInvocation    EventType = "tool_invocation"
	TypeToolOutput        EventType = "tool_output"
	TypeStatusUpdate      EventType = "status_update"
	TypeError             EventType = "error"
	TypeMetric            EventType = "metric"
	TypeArtifactReference EventType = "artifact_reference"
	TypeDebugLog          EventType = "debug_log"
)

// EventTypes returns every valid EventType in stable order.
func EventTypes() []EventType {
	return []EventType{
		TypePrompt, TypeResponse, TypeSystemNotice, TypeToolInvocation,
		TypeToolOutput, TypeStatusUpdate, TypeError, TypeMetric,
		TypeArtifactReference, TypeDebugLog,
	}
}

// Role identifies the actor responsible for an event.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
	RoleTool      Role = "tool"
	RoleRuntime   Role = "runtime"
)

// Roles returns every valid Role in stable order.
func Roles() []Role {
	return []Role{RoleUser, RoleAssistant, RoleSystem, RoleTool, RoleRuntime}
}

// TimestampQuality is the confidence tier of a resolved timestamp.
type TimestampQuality string

const (
	QualityExact    TimestampQuality = "exact"
	QualityDerived  TimestampQuality = "derived"
	QualityFallback TimestampQuality = "fallback"
)

// TimestampQualities returns every valid TimestampQuality in stable order.
func TimestampQualities() []TimestampQuality {
	return []TimestampQuality{QualityExact, QualityDerived, QualityFallback}
}

// QualityRank maps a quality tier to its ordering rank: exact < derived < fallback.
// Unknown values rank after fallback so they can never win a merge.
func QualityRank(q TimestampQuality) int {
	switch q {
	case QualityExact:
		return 0
	case QualityDerived:
		return 1
	case QualityFallback:
		return 2
	default:
		return 3
	}
}
