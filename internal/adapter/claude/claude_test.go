package claude

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hejijunhao/sawmill/internal/adapter"
	"github.com/hejijunhao/sawmill/internal/model"
)

var testMtime = model.TimestampCandidate{
	Class: model.ClassFileMtime,
	Value: "2024-03-01T12:00:00Z",
}

func TestMatches(t *testing.T) {
	c := &Claude{}
	assert.True(t, c.Matches("session-abc.jsonl"))
	assert.False(t, c.Matches("logs.json"))
}

func TestParse_SessionEntries(t *testing.T) {
	content := []byte(`{"role":"user","session_id":"s1","project_id":"proj1","content":"add a flag","created_at":"2024-03-01T10:00:00Z"}
{"role":"assistant","session_id":"s1","project_id":"proj1","model":"m-large","message":"done","usage":{"input_tokens":12,"output_tokens":34},"created_at":"2024-03-01T10:00:05Z"}
{"kind":"tool_use","tool_name":"edit_file","tool_use_id":"t1","session_id":"s1","created_at":"2024-03-01T10:00:03Z"}
`)
	result := (&Claude{}).Parse(content, "session.jsonl", testMtime)
	require.Len(t, result.Records, 3)
	assert.Empty(t, result.Warnings)

	user := result.Records[0]
	assert.Equal(t, "claude", user.RawSourceKind)
	assert.Equal(t, "message", user.RawRecordFormat)
	assert.Equal(t, "prompt", user.RawEventType)
	assert.Equal(t, "user", user.RawRole)
	assert.Equal(t, "proj1", user.ConversationID, "project scopes the conversation")
	assert.Equal(t, "add a flag", user.ContentText)

	reply := result.Records[1]
	assert.Equal(t, "response", reply.RawEventType)
	assert.Equal(t, "m-large", reply.Model)
	require.NotNil(t, reply.InputTokens)
	assert.Equal(t, uint64(12), *reply.InputTokens)
	require.NotNil(t, reply.OutputTokens)
	assert.Equal(t, uint64(34), *reply.OutputTokens)

	tool := result.Records[2]
	assert.Equal(t, "tool_call", tool.RawRecordFormat)
	assert.Equal(t, "tool_invocation", tool.RawEventType)
	assert.Equal(t, "edit_file", tool.ToolName)
	assert.Equal(t, "t1", tool.ToolCallID)
}

func TestParse_MessageClassTimestamps(t *testing.T) {
	content := []byte(`{"role":"user","content":"hi","timestamp":"2024-03-01T10:00:00Z"}
`)
	result := (&Claude{}).Parse(content, "session.jsonl", testMtime)
	require.Len(t, result.Records, 1)
	require.Len(t, result.Records[0].Timestamps, 2)
	assert.Equal(t, model.ClassMessage, result.Records[0].Timestamps[0].Class)
	assert.Equal(t, model.ClassFileMtime, result.Records[0].Timestamps[1].Class)
}

func TestParse_SystemAndSummaryEntries(t *testing.T) {
	content := []byte(`{"kind":"summary","content":"compacted earlier turns"}
{"type":"system","content":"session resumed"}
`)
	result := (&Claude{}).Parse(content, "session.jsonl", testMtime)
	require.Len(t, result.Records, 2)
	for _, rec := range result.Records {
		assert.Equal(t, "system", rec.RawRecordFormat)
		assert.Equal(t, "system_notice", rec.RawEventType)
	}
}

func TestParse_ParentSessionMetadata(t *testing.T) {
	content := []byte(`{"role":"user","content":"hi","parent_session_id":"s0"}
`)
	result := (&Claude{}).Parse(content, "session.jsonl", testMtime)
	require.Len(t, result.Records, 1)
	assert.Equal(t, "s0", result.Records[0].Metadata["parent_session_id"])
}

func TestParse_UntypedEntryIsDiagnostic(t *testing.T) {
	content := []byte(`{"payload":"something internal"}
`)
	result := (&Claude{}).Parse(content, "session.jsonl", testMtime)
	require.Len(t, result.Records, 1)
	assert.Equal(t, "diagnostic", result.Records[0].RawRecordFormat)
	assert.Equal(t, "unknown", result.Records[0].RawEventType)
}

func TestParse_MalformedLineWarns(t *testing.T) {
	content := []byte("{bad\n" + `{"role":"user","content":"ok"}` + "\n")
	result := (&Claude{}).Parse(content, "session.jsonl", testMtime)
	assert.Len(t, result.Records, 1)
	require.Len(t, result.Warnings, 1)
	assert.Equal(t, "invalid_json_line", result.Warnings[0].Code)
}

func TestRegistered(t *testing.T) {
	ctor, err := adapter.Get("claude")
	require.NoError(t, err)
	assert.Equal(t, "claude", ctor().Name())
}
