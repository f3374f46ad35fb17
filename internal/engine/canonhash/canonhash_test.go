package canonhash

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hejijunhao/sawmill/internal/model"
)

var hexDigest = regexp.MustCompile(`^[0-9a-f]{64}$`)

func TestRaw_Shape(t *testing.T) {
	digest := Raw([]byte("hello"))
	assert.Regexp(t, hexDigest, digest)
	assert.Equal(t, digest, Raw([]byte("hello")), "raw hash is deterministic")
	assert.NotEqual(t, digest, Raw([]byte("hello!")))
}

func TestRaw_LineEndingNormalization(t *testing.T) {
	assert.Equal(t, Raw([]byte("a\nb\nc")), Raw([]byte("a\r\nb\r\nc")),
		"CRLF and LF payloads share identity")
	assert.NotEqual(t, Raw([]byte("a\nb")), Raw([]byte("a b")),
		"only line endings are normalized, not other whitespace")
}

func baseInput() Input {
	return Input{
		EventType:        model.TypeResponse,
		Role:             model.RoleAssistant,
		Content:          "The fix is in.",
		RecordFormat:     model.FormatMessage,
		TimestampUnixMS:  1_700_000_000_500,
		TimestampQuality: model.QualityExact,
	}
}

func TestCanonical_Deterministic(t *testing.T) {
	first, err := Canonical(baseInput())
	require.NoError(t, err)
	second, err := Canonical(baseInput())
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Regexp(t, hexDigest, first)
}

func TestCanonical_WhitespaceInsensitive(t *testing.T) {
	a := baseInput()
	b := baseInput()
	b.Content = "  The   fix\n\tis in.  "
	hashA, err := Canonical(a)
	require.NoError(t, err)
	hashB, err := Canonical(b)
	require.NoError(t, err)
	assert.Equal(t, hashA, hashB, "whitespace runs collapse before hashing")
}

func TestCanonical_SecondBucket(t *testing.T) {
	a := baseInput()
	b := baseInput()
	b.TimestampUnixMS = a.TimestampUnixMS + 400 // same second
	hashA, _ := Canonical(a)
	hashB, _ := Canonical(b)
	assert.Equal(t, hashA, hashB, "sub-second jitter stays inside the bucket")

	c := baseInput()
	c.TimestampUnixMS = a.TimestampUnixMS + 1_000
	hashC, _ := Canonical(c)
	assert.NotEqual(t, hashA, hashC)
}

func TestCanonical_FallbackOmitsBucket(t *testing.T) {
	a := baseInput()
	a.TimestampQuality = model.QualityFallback
	b := baseInput()
	b.TimestampQuality = model.QualityFallback
	b.TimestampUnixMS = a.TimestampUnixMS + 86_400_000
	hashA, _ := Canonical(a)
	hashB, _ := Canonical(b)
	assert.Equal(t, hashA, hashB, "fallback timestamps carry no identity")
}

func TestCanonical_EmptyContentMarker(t *testing.T) {
	empty := baseInput()
	empty.Content = ""
	whitespace := baseInput()
	whitespace.Content = "   \n\t "
	hashEmpty, err := Canonical(empty)
	require.NoError(t, err)
	hashWS, err := Canonical(whitespace)
	require.NoError(t, err)
	assert.Equal(t, hashEmpty, hashWS, "absent and whitespace-only content share the empty marker")

	marker := baseInput()
	marker.Content = EmptyMarker
	hashMarker, err := Canonical(marker)
	require.NoError(t, err)
	assert.Equal(t, hashEmpty, hashMarker)
}

func TestCanonical_ToolFieldsOnlyForToolShapes(t *testing.T) {
	message := baseInput()
	message.ToolName = "bash"
	plain := baseInput()
	hashMsg, _ := Canonical(message)
	hashPlain, _ := Canonical(plain)
	assert.Equal(t, hashMsg, hashPlain, "tool fields are ignored on non-tool records")

	call := baseInput()
	call.RecordFormat = model.FormatToolCall
	call.EventType = model.TypeToolInvocation
	call.ToolName = "bash"
	other := call
	other.ToolName = "grep"
	hashCall, err := Canonical(call)
	require.NoError(t, err)
	hashOther, err := Canonical(other)
	require.NoError(t, err)
	assert.NotEqual(t, hashCall, hashOther, "tool name participates for tool records")
}

func TestCanonical_FramingResistsBoundaryForgery(t *testing.T) {
	// Field content containing a plausible frame must not collide with the
	// frame itself.
	a := baseInput()
	a.Content = "x"
	a.Role = model.RoleUser
	b := baseInput()
	b.Content = "x\nrole:4:user"
	b.Role = model.RoleUser
	hashA, _ := Canonical(a)
	hashB, _ := Canonical(b)
	assert.NotEqual(t, hashA, hashB)
}

func TestCanonical_InvalidUTF8(t *testing.T) {
	in := baseInput()
	in.Content = string([]byte{0xff, 0xfe})
	_, err := Canonical(in)
	assert.Error(t, err)
}

func TestNormalizeContent_NFC(t *testing.T) {
	// e + combining acute vs precomposed é.
	decomposed := "café"
	precomposed := "café"
	a, err := NormalizeContent(decomposed)
	require.NoError(t, err)
	b, err := NormalizeContent(precomposed)
	require.NoError(t, err)
	assert.Equal(t, b, a)
}

func TestContentKey(t *testing.T) {
	assert.Equal(t, ContentKey("a  b"), ContentKey("a b"))
	assert.Equal(t, ContentKey(""), ContentKey("   "))
	assert.Regexp(t, hexDigest, ContentKey("anything"))
}
