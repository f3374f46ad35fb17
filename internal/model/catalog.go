package model

// FieldSpec describes one field of the agentlog.v1 catalog: its JSON name,
// type, whether emission is required, and the closed vocabulary when the
// field is enum-valued. The catalog is the introspection surface used to
// generate the machine-checkable schema artifact.
type FieldSpec struct {
	Name     string
	Type     string // "string", "integer", "number", "boolean", "array", "object"
	Required bool
	Enum     []string
}

// FieldCatalog returns the agentlog.v1 field catalog in emission order.
func FieldCatalog() []FieldSpec {
	return []FieldSpec{
		{Name: "schema_version", Type: "string", Required: true, Enum: []string{SchemaVersion}},
		{Name: "event_id", Type: "string", Required: true},
		{Name: "run_id", Type: "string", Required: true},
		{Name: "sequence_global", Type: "integer", Required: true},
		{Name: "sequence_source", Type: "integer"},
		{Name: "source_kind", Type: "string", Required: true, Enum: enumStrings(SourceKinds())},
		{Name: "source_path", Type: "string", Required: true},
		{Name: "source_record_locator", Type: "string", Required: true},
		{Name: "source_record_hash", Type: "string"},
		{Name: "adapter_name", Type: "string", Required: true, Enum: enumStrings(SourceKinds())},
		{Name: "adapter_version", Type: "string"},
		{Name: "record_format", Type: "string", Required: true, Enum: enumStrings(RecordFormats())},
		{Name: "event_type", Type: "string", Required: true, Enum: enumStrings(EventTypes())},
		{Name: "role", Type: "string", Required: true, Enum: enumStrings(Roles())},
		{Name: "timestamp_utc", Type: "string", Required: true},
		{Name: "timestamp_unix_ms", Type: "integer", Required: true},
		{Name: "timestamp_quality", Type: "string", Required: true, Enum: enumStrings(TimestampQualities())},
		{Name: "session_id", Type: "string"},
		{Name: "conversation_id", Type: "string"},
		{Name: "turn_id", Type: "string"},
		{Name: "parent_event_id", Type: "string"},
		{Name: "actor_id", Type: "string"},
		{Name: "actor_name", Type: "string"},
		{Name: "provider", Type: "string"},
		{Name: "model", Type: "string"},
		{Name: "content_text", Type: "string"},
		{Name: "content_excerpt", Type: "string"},
		{Name: "content_mime", Type: "string"},
		{Name: "tool_name", Type: "string"},
		{Name: "tool_call_id", Type: "string"},
		{Name: "tool_arguments_json", Type: "string"},
		{Name: "tool_result_text", Type: "string"},
		{Name: "input_tokens", Type: "integer"},
		{Name: "output_tokens", Type: "integer"},
		{Name: "total_tokens", Type: "integer"},
		{Name: "cost_usd", Type: "number"},
		{Name: "tags", Type: "array"},
		{Name: "flags", Type: "array"},
		{Name: "warnings", Type: "array"},
		{Name: "errors", Type: "array"},
		{Name: "raw_hash", Type: "string", Required: true},
		{Name: "canonical_hash", Type: "string", Required: true},
		{Name: "metadata", Type: "object"},
	}
}

// Vocabularies returns the controlled vocabularies keyed by field name.
func Vocabularies() map[string][]string {
	return map[string][]string{
		"source_kind":       enumStrings(SourceKinds()),
		"adapter_name":      enumStrings(SourceKinds()),
		"record_format":     enumStrings(RecordFormats()),
		"event_type":        enumStrings(EventTypes()),
		"role":              enumStrings(Roles()),
		"timestamp_quality": enumStrings(TimestampQualities()),
	}
}

func enumStrings[T ~string](values []T) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}
