package schema

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hejijunhao/sawmill/internal/model"
)

func TestDocument_CoversCatalog(t *testing.T) {
	doc := Document()
	properties := doc["properties"].(map[string]any)
	required := doc["required"].([]string)

	catalog := model.FieldCatalog()
	assert.Len(t, properties, len(catalog))

	requiredSet := map[string]bool{}
	for _, name := range required {
		requiredSet[name] = true
	}
	for _, field := range catalog {
		spec, ok := properties[field.Name].(map[string]any)
		require.True(t, ok, "missing property %s", field.Name)
		assert.Equal(t, field.Type, spec["type"], field.Name)
		assert.Equal(t, field.Required, requiredSet[field.Name], field.Name)
		if len(field.Enum) > 0 {
			assert.Equal(t, field.Enum, spec["enum"], field.Name)
		}
	}

	assert.Equal(t, false, doc["additionalProperties"])
}

func TestMarshal_StableAndValidJSON(t *testing.T) {
	first, err := Marshal()
	require.NoError(t, err)
	second, err := Marshal()
	require.NoError(t, err)
	assert.Equal(t, first, second, "schema output is byte-stable")

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(first, &decoded))
	assert.Equal(t, "agentlog.v1.schema.json", decoded["$id"])
	assert.Equal(t, byte('\n'), first[len(first)-1], "trailing newline")
}

func TestMarshal_EventValidatesAgainstShape(t *testing.T) {
	// A minimal sanity check that the schema's required list matches what
	// the encoder always emits.
	event := model.Event{SchemaVersion: model.SchemaVersion}
	encoded, err := json.Marshal(event)
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(encoded, &decoded))

	doc := Document()
	for _, name := range doc["required"].([]string) {
		_, ok := decoded[name]
		assert.True(t, ok, "required field %s must always be emitted", name)
	}
}
