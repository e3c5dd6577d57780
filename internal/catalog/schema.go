package catalog

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

const documentSchemaURL = "schema://finscholars/catalog.json"

// documentSchema describes a catalog document. Quiz questions follow the
// wire shape used by the back-end: type, question, options, correct_answer,
// explanation, sample_answer and key_points.
var documentSchema = map[string]any{
	"type":     "object",
	"required": []any{"version", "modules"},
	"properties": map[string]any{
		"version": map[string]any{"type": "string", "minLength": 1},
		"modules": map[string]any{
			"type":  "array",
			"items": map[string]any{"$ref": "#/$defs/module"},
		},
	},
	"$defs": map[string]any{
		"module": map[string]any{
			"type":     "object",
			"required": []any{"id", "title"},
			"properties": map[string]any{
				"id":          map[string]any{"type": "string", "minLength": 1},
				"title":       map[string]any{"type": "string", "minLength": 1},
				"description": map[string]any{"type": "string"},
				"difficulty":  map[string]any{"type": "string"},
				"category":    map[string]any{"type": "string"},
				"duration":    map[string]any{"type": "string"},
				"levels": map[string]any{
					"type":  "array",
					"items": map[string]any{"$ref": "#/$defs/level"},
				},
			},
		},
		"level": map[string]any{
			"type":     "object",
			"required": []any{"level"},
			"properties": map[string]any{
				"level": map[string]any{"enum": []any{"basic", "moderate", "advanced"}},
				"sections": map[string]any{
					"type":  "array",
					"items": map[string]any{"$ref": "#/$defs/section"},
				},
				"quiz": map[string]any{"$ref": "#/$defs/quiz"},
			},
		},
		"section": map[string]any{
			"type":     "object",
			"required": []any{"id", "title"},
			"properties": map[string]any{
				"id":      map[string]any{"type": "string"},
				"title":   map[string]any{"type": "string"},
				"content": map[string]any{"type": "string"},
			},
		},
		"quiz": map[string]any{
			"type":     "object",
			"required": []any{"questions"},
			"properties": map[string]any{
				"id":    map[string]any{"type": "string"},
				"title": map[string]any{"type": "string"},
				"questions": map[string]any{
					"type":     "array",
					"minItems": 1,
					"items":    map[string]any{"$ref": "#/$defs/question"},
				},
			},
		},
		"question": map[string]any{
			"type":     "object",
			"required": []any{"id", "type", "question"},
			"properties": map[string]any{
				"id":             map[string]any{"type": "string", "minLength": 1},
				"type":           map[string]any{"enum": []any{"mcq", "free_text"}},
				"question":       map[string]any{"type": "string", "minLength": 1},
				"options":        map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
				"correct_answer": map[string]any{"type": "integer", "minimum": 0},
				"explanation":    map[string]any{"type": "string"},
				"sample_answer":  map[string]any{"type": "string"},
				"key_points": map[string]any{
					"type":  "array",
					"items": map[string]any{"type": "string", "minLength": 1},
				},
			},
			"allOf": []any{
				map[string]any{
					"if":   map[string]any{"properties": map[string]any{"type": map[string]any{"const": "mcq"}}},
					"then": map[string]any{"required": []any{"options", "correct_answer"}, "properties": map[string]any{"options": map[string]any{"minItems": 2}}},
				},
				map[string]any{
					"if":   map[string]any{"properties": map[string]any{"type": map[string]any{"const": "free_text"}}},
					"then": map[string]any{"required": []any{"key_points"}, "properties": map[string]any{"key_points": map[string]any{"minItems": 1}}},
				},
			},
		},
	},
}

var compiledSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	// Round-trip through JSON so the compiler sees plain JSON values.
	raw, err := json.Marshal(documentSchema)
	if err != nil {
		return nil, fmt.Errorf("marshal catalog schema: %w", err)
	}
	var def any
	if err := json.Unmarshal(raw, &def); err != nil {
		return nil, fmt.Errorf("parse catalog schema: %w", err)
	}

	c := jsonschema.NewCompiler()
	if err := c.AddResource(documentSchemaURL, def); err != nil {
		return nil, fmt.Errorf("add catalog schema: %w", err)
	}
	return c.Compile(documentSchemaURL)
})

// validateDocument checks raw JSON against the catalog document schema.
func validateDocument(data []byte) error {
	var parsed any
	if err := json.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("parse catalog: %w", err)
	}
	schema, err := compiledSchema()
	if err != nil {
		return fmt.Errorf("compile catalog schema: %w", err)
	}
	if err := schema.Validate(parsed); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	return nil
}
