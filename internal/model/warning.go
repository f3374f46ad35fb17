package model

// Warning codes are stable identifiers: identical input always yields the
// identical code, so downstream validators can assert on them.
const (
	WarnUnknownRecordFormat = "unknown_record_format"
	WarnUnknownEventType    = "unknown_event_type"
	WarnUnknownRole         = "unknown_role"
	WarnUnknownSourceKind   = "unknown_source_kind"
	WarnUnknownAdapterName  = "unknown_adapter_name"
	WarnTimestampFallback   = "timestamp_fallback"
	WarnTimestampAfterRun   = "timestamp_after_run_window"
	WarnMissingContent      = "missing_message_content"
	WarnAmbiguousMerge      = "ambiguous_merge"

	ErrHashMaterialInvalid = "hash_material_invalid"
)

// Warning is a structured, deterministic diagnostic. Detail carries only
// values derived from the input (raw values, locators), never free text alone.
type Warning struct {
	Code   string `json:"code"`
	Detail string `json:"detail,omitempty"`
}

func (w Warning) String() string {
	if w.Detail == "" {
		return w.Code
	}
	return w.Code + ": " + w.Detail
}
