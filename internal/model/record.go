package model

// CandidateClass tags where a timestamp candidate came from. Classes are
// walked in priority order; the first candidate that parses wins.
type CandidateClass string

const (
	ClassEvent     CandidateClass = "event"
	ClassMessage   CandidateClass = "message"
	ClassTool      CandidateClass = "tool"
	ClassSession   CandidateClass = "session"
	ClassFileMtime CandidateClass = "file_mtime"

	// ClassRunFallback marks an instant synthesized from the run anchor.
	// Adapters never tag candidates with it; normalization emits it when no
	// candidate parses.
	ClassRunFallback CandidateClass = "run_fallback"
)

// TimestampCandidate is one raw timestamp value tagged by source class.
// AssumeUTC declares that offset-less ISO strings from this candidate are
// UTC; without it such strings are rejected as ambiguous.
type TimestampCandidate struct {
	Class     CandidateClass
	Value     string
	AssumeUTC bool
}

// IntermediateRecord is the adapter output consumed by the normalization
// engine. Classifier fields carry the adapter's raw vocabulary; the engine
// maps them onto the canonical enumerations. A record is owned by the run
// that produced it and is never mutated after the adapter emits it.
type IntermediateRecord struct {
	// Raw classifier strings, mapped by the vocabulary stage.
	RawSourceKind   string
	RawAdapterName  string
	RawRecordFormat string
	RawEventType    string
	RawRole         string

	AdapterVersion string

	// Provenance tuple.
	SourcePath          string
	SourceRecordLocator string
	SourceRecordHash    string

	// Payload slice exactly as ingested; raw_hash material.
	RawPayload []byte

	// Candidate timestamps in adapter emission order.
	Timestamps []TimestampCandidate

	// Per-source record index, when the source format defines one.
	SequenceSource *uint64

	// Relational fields.
	SessionID      string
	ConversationID string
	TurnID         string
	ParentEventID  string

	ActorID   string
	ActorName string
	Provider  string
	Model     string

	// Semantic payload. Empty ContentText means no content; the hash stage
	// substitutes the canonical empty marker.
	ContentText string
	ContentMime string

	ToolName          string
	ToolCallID        string
	ToolArgumentsJSON string
	ToolResultText    string

	InputTokens  *uint64
	OutputTokens *uint64
	TotalTokens  *uint64
	CostUSD      *float64

	Tags  []string
	Flags []string

	// Adapter-specific structure preserved under metadata.*.
	Metadata map[string]any
}
