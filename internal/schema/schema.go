// Package schema renders the agentlog.v1 field catalog as a JSON Schema
// document so downstream validators do not have to hardcode the contract.
package schema

import (
	"bytes"
	"encoding/json"

	"github.com/hejijunhao/sawmill/internal/model"
)

const (
	draftURI = "https://json-schema.org/draft/2020-12/schema"
	schemaID = "agentlog.v1.schema.json"
)

// Document builds the JSON Schema for one emitted event line.
func Document() map[string]any {
	properties := map[string]any{}
	var required []string

	for _, field := range model.FieldCatalog() {
		spec := map[string]any{"type": field.Type}
		if len(field.Enum) > 0 {
			spec["enum"] = field.Enum
		}
		properties[field.Name] = spec
		if field.Required {
			required = append(required, field.Name)
		}
	}

	return map[string]any{
		"$schema":              draftURI,
		"$id":                  schemaID,
		"title":                model.SchemaVersion + " event",
		"type":                 "object",
		"properties":           properties,
		"required":             required,
		"additionalProperties": false,
	}
}

// Marshal renders the schema document as indented JSON with a trailing
// newline. Key order is the encoder's sorted order, so output is stable
// across runs.
func Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(Document()); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
