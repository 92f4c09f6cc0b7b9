package server

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/dray-ops/ratecon-tracker/internal/entity"
)

// buildSavePayloadSchema returns the JSON-Schema (draft 2020-12 subset)
// for the save endpoint as a generic map.
func buildSavePayloadSchema() map[string]any {
	recordProps := map[string]any{
		"id":          map[string]any{"type": "string"},
		"date_added":  map[string]any{"type": "string"},
		"customer":    map[string]any{"type": "string"},
		"reference":   map[string]any{"type": "string", "minLength": 1},
		"equipment":   map[string]any{"type": "string"},
		"container":   map[string]any{"type": "string"},
		"rate":        map[string]any{"type": "string", "pattern": `^\d+(\.\d{1,2})?$`},
		"source_file": map[string]any{"type": "string", "minLength": 1},
		"status":      map[string]any{"type": "string"},
		"notes":       map[string]any{"type": "string"},
	}
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"required":             []string{"records"},
		"properties": map[string]any{
			"records": map[string]any{
				"type":     "array",
				"minItems": 1,
				"items": map[string]any{
					"type":                 "object",
					"additionalProperties": false,
					"required":             []string{"reference", "rate", "source_file"},
					"properties":           recordProps,
				},
			},
		},
	}
}

var savePayloadSchema = mustCompileSchema(buildSavePayloadSchema())

func mustCompileSchema(schemaMap map[string]any) *jsonschema.Schema {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		panic(fmt.Sprintf("marshal schema: %v", err))
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("save_payload.schema.json", bytes.NewReader(b)); err != nil {
		panic(fmt.Sprintf("add schema: %v", err))
	}
	schema, err := compiler.Compile("save_payload.schema.json")
	if err != nil {
		panic(fmt.Sprintf("compile schema: %v", err))
	}
	return schema
}

type savePayload struct {
	Records []entity.LoadRecord `json:"records"`
}

// decodeSavePayload validates the raw body against the schema before
// binding, so malformed records are rejected with a field-level message
// instead of silently zeroing.
func decodeSavePayload(body []byte) ([]entity.LoadRecord, error) {
	var v any
	if err := json.Unmarshal(body, &v); err != nil {
		return nil, fmt.Errorf("invalid json: %w", err)
	}
	if err := savePayloadSchema.Validate(v); err != nil {
		return nil, fmt.Errorf("payload does not match schema: %w", err)
	}
	var p savePayload
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("decode records: %w", err)
	}
	return p.Records, nil
}
