// Package vocab maps raw adapter classifier strings onto the closed
// agentlog.v1 enumerations. Mapping is pure: the same raw input always
// produces the same canonical value and warning code.
package vocab

import (
	"strings"

	"github.com/hejijunhao/sawmill/internal/model"
)

// Table is an immutable, versioned synonym table. Construct one explicitly
// and pass it into each run; there is no package-level mutable state, so two
// runs with different vocabulary versions cannot interfere.
type Table struct {
	version      string
	recordFormat map[string]model.RecordFormat
	eventType    map[string]model.EventType
	role         map[string]model.Role
	sourceKind   map[string]model.SourceKind
}

// Version reports the synonym table version.
func (t Table) Version() string { return t.version }

// DefaultTable builds the v1 synonym table. Identity mappings for every
// canonical value are included, so a canonical string always maps to itself.
func DefaultTable() Table {
	t := Table{
		version:      "v1",
		recordFormat: make(map[string]model.RecordFormat),
		eventType:    make(map[string]model.EventType),
		role:         make(map[string]model.Role),
		sourceKind:   make(map[string]model.SourceKind),
	}

	for _, f := range model.RecordFormats() {
		t.recordFormat[string(f)] = f
	}
	t.recordFormat["msg"] = model.FormatMessage
	t.recordFormat["chat"] = model.FormatMessage
	t.recordFormat["toolcall"] = model.FormatToolCall
	t.recordFormat["tool_use"] = model.FormatToolCall
	t.recordFormat["toolresult"] = model.FormatToolResult
	t.recordFormat["tool_response"] = model.FormatToolResult
	t.recordFormat["sys"] = model.FormatSystem
	t.recordFormat["meta"] = model.FormatSystem
	t.recordFormat["log"] = model.FormatDiagnostic
	t.recordFormat["debug"] = model.FormatDiagnostic

	for _, e := range model.EventTypes() {
		t.eventType[string(e)] = e
	}
	t.eventType["user_prompt"] = model.TypePrompt
	t.eventType["assistant_response"] = model.TypeResponse
	t.eventType["notice"] = model.TypeSystemNotice
	t.eventType["tool_call"] = model.TypeToolInvocation
	t.eventType["tool_use"] = model.TypeToolInvocation
	t.eventType["tool_result"] = model.TypeToolOutput
	t.eventType["status"] = model.TypeStatusUpdate
	t.eventType["progress"] = model.TypeStatusUpdate
	t.eventType["err"] = model.TypeError
	t.eventType["log"] = model.TypeDebugLog

	for _, r := range model.Roles() {
		t.role[string(r)] = r
	}
	t.role["human"] = model.RoleUser
	t.role["model"] = model.RoleAssistant
	t.role["ai"] = model.RoleAssistant
	t.role["function"] = model.RoleTool
	t.role["env"] = model.RoleRuntime

	for _, k := range model.SourceKinds() {
		t.sourceKind[string(k)] = k
	}
	t.sourceKind["codex_cli"] = model.SourceCodex
	t.sourceKind["claude_code"] = model.SourceClaude
	t.sourceKind["gemini_cli"] = model.SourceGemini
	t.sourceKind["open_code"] = model.SourceOpenCode

	return t
}

func (t Table) normalize(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// MapRecordFormat resolves a raw record format. Unknown values fall back to
// diagnostic with an unknown_record_format warning; the raw value is
// preserved by the caller under metadata.original_record_format.
func (t Table) MapRecordFormat(raw string) (model.RecordFormat, *model.Warning) {
	if f, ok := t.recordFormat[t.normalize(raw)]; ok {
		return f, nil
	}
	return model.FormatDiagnostic, &model.Warning{
		Code:   model.WarnUnknownRecordFormat,
		Detail: "raw=" + raw,
	}
}

// MapEventType resolves a raw event type. Unknown values fall back to
// debug_log when the record is diagnostic-like, else status_update.
func (t Table) MapEventType(raw string, format model.RecordFormat) (model.EventType, *model.Warning) {
	if e, ok := t.eventType[t.normalize(raw)]; ok {
		return e, nil
	}
	fallback := model.TypeStatusUpdate
	if format == model.FormatDiagnostic {
		fallback = model.TypeDebugLog
	}
	return fallback, &model.Warning{
		Code:   model.WarnUnknownEventType,
		Detail: "raw=" + raw,
	}
}

// MapRole resolves a raw role. Unknown values fall back to tool for tool
// call/result records, runtime for diagnostic records, else system.
func (t Table) MapRole(raw string, format model.RecordFormat) (model.Role, *model.Warning) {
	if r, ok := t.role[t.normalize(raw)]; ok {
		return r, nil
	}
	var fallback model.Role
	switch format {
	case model.FormatToolCall, model.FormatToolResult:
		fallback = model.RoleTool
	case model.FormatDiagnostic:
		fallback = model.RoleRuntime
	default:
		fallback = model.RoleSystem
	}
	return fallback, &model.Warning{
		Code:   model.WarnUnknownRole,
		Detail: "raw=" + raw,
	}
}

// MapSourceKind resolves a raw source kind or adapter name. Unknown values
// are never fallback-mapped: the second return is false and the record must
// be rejected. Source identity is not guessed.
func (t Table) MapSourceKind(raw string) (model.SourceKind, bool) {
	k, ok := t.sourceKind[t.normalize(raw)]
	return k, ok
}

// ApplyCrossFieldRules enforces consistency between the mapped fields:
// tool_call records carry tool_invocation, tool_result records carry
// tool_output, and diagnostic records prefer the runtime role over system.
func ApplyCrossFieldRules(format model.RecordFormat, eventType model.EventType, role model.Role) (model.EventType, model.Role) {
	switch format {
	case model.FormatToolCall:
		eventType = model.TypeToolInvocation
	case model.FormatToolResult:
		eventType = model.TypeToolOutput
	case model.FormatDiagnostic:
		if role == model.RoleSystem {
			role = model.RoleRuntime
		}
	}
	return eventType, role
}
