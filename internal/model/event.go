package model

// Event is one agentlog.v1 canonical event — sawmill's output type.
//
// JSON encoding rules: snake_case keys, optional scalars omitted when unknown
// (never null), arrays omitted when empty. Metadata holds adapter-specific
// structure that was not promoted to a first-class field.
type Event struct {
	SchemaVersion  string `json:"schema_version"`
	EventID        string `json:"event_id"`
	RunID          string `json:"run_id"`
	SequenceGlobal uint64 `json:"sequence_global"`

	SequenceSource *uint64 `json:"sequence_source,omitempty"`

	SourceKind          SourceKind `json:"source_kind"`
	SourcePath          string     `json:"source_path"`
	SourceRecordLocator string     `json:"source_record_locator"`
	SourceRecordHash    string     `json:"source_record_hash,omitempty"`

	AdapterName    SourceKind `json:"adapter_name"`
	AdapterVersion string     `json:"adapter_version,omitempty"`

	RecordFormat RecordFormat `json:"record_format"`
	EventType    EventType    `json:"event_type"`
	Role         Role         `json:"role"`

	TimestampUTC     string           `json:"timestamp_utc"`
	TimestampUnixMS  uint64           `json:"timestamp_unix_ms"`
	TimestampQuality TimestampQuality `json:"timestamp_quality"`

	SessionID      string `json:"session_id,omitempty"`
	ConversationID string `json:"conversation_id,omitempty"`
	TurnID         string `json:"turn_id,omitempty"`
	ParentEventID  string `json:"parent_event_id,omitempty"`

	ActorID   string `json:"actor_id,omitempty"`
	ActorName string `json:"actor_name,omitempty"`
	Provider  string `json:"provider,omitempty"`
	Model     string `json:"model,omitempty"`

	ContentText    string `json:"content_text,omitempty"`
	ContentExcerpt string `json:"content_excerpt,omitempty"`
	ContentMime    string `json:"content_mime,omitempty"`

	ToolName          string `json:"tool_name,omitempty"`
	ToolCallID        string `json:"tool_call_id,omitempty"`
	ToolArgumentsJSON string `json:"tool_arguments_json,omitempty"`
	ToolResultText    string `json:"tool_result_text,omitempty"`

	InputTokens  *uint64  `json:"input_tokens,omitempty"`
	OutputTokens *uint64  `json:"output_tokens,omitempty"`
	TotalTokens  *uint64  `json:"total_tokens,omitempty"`
	CostUSD      *float64 `json:"cost_usd,omitempty"`

	Tags  []string `json:"tags,omitempty"`
	Flags []string `json:"flags,omitempty"`

	Warnings []string `json:"warnings,omitempty"`
	Errors   []string `json:"errors,omitempty"`

	RawHash       string `json:"raw_hash"`
	CanonicalHash string `json:"canonical_hash"`

	Metadata map[string]any `json:"metadata,omitempty"`
}

// ProvenanceEntry is one source-origin tuple retained after a merge. One entry
// is kept per cluster member, so the entries across all clusters partition the
// input record set.
type ProvenanceEntry struct {
	EventID             string     `json:"event_id"`
	SourceKind          SourceKind `json:"source_kind"`
	SourcePath          string     `json:"source_path"`
	SourceRecordLocator string     `json:"source_record_locator"`
	RawHash             string     `json:"raw_hash"`
	AdapterName         SourceKind `json:"adapter_name"`
	AdapterVersion      string     `json:"adapter_version,omitempty"`
}

// OptionalFieldCount reports how many optional fields carry a value, plus the
// number of metadata keys. It is the "richness" metric used to break merge
// ties: more populated structure wins over less.
func (e *Event) OptionalFieldCount() int {
	n := 0
	for _, s := range []string{
		e.SourceRecordHash, e.AdapterVersion,
		e.SessionID, e.ConversationID, e.TurnID, e.ParentEventID,
		e.ActorID, e.ActorName, e.Provider, e.Model,
		e.ContentText, e.ContentExcerpt, e.ContentMime,
		e.ToolName, e.ToolCallID, e.ToolArgumentsJSON, e.ToolResultText,
	} {
		if s != "" {
			n++
		}
	}
	for _, p := range []*uint64{e.InputTokens, e.OutputTokens, e.TotalTokens} {
		if p != nil {
			n++
		}
	}
	if e.CostUSD != nil {
		n++
	}
	if e.SequenceSource != nil {
		n++
	}
	n += len(e.Tags) + len(e.Flags)
	n += len(e.Metadata)
	return n
}
