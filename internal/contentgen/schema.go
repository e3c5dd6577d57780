package contentgen

import "github.com/finscholars/finscholars/internal/llm"

// Every object lists all of its properties as required and forbids
// extras so the schemas are accepted by OpenAI strict mode.

// ContentSchema is the structured output of module content generation.
var ContentSchema = &llm.Schema{
	Name:        "finance-module-content",
	Description: "Educational finance content for one module level",
	Definition: map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"required":             []any{"title", "description", "sections"},
		"properties": map[string]any{
			"title":       map[string]any{"type": "string", "description": "Module title"},
			"description": map[string]any{"type": "string", "description": "One sentence summary"},
			"sections": map[string]any{
				"type":     "array",
				"minItems": 1,
				"items": map[string]any{
					"type":                 "object",
					"additionalProperties": false,
					"required":             []any{"title", "content"},
					"properties": map[string]any{
						"title":   map[string]any{"type": "string"},
						"content": map[string]any{"type": "string", "description": "Section body as HTML"},
					},
				},
			},
		},
	},
}

// QuizSchema is the structured output of quiz generation. Multiple-choice
// questions leave key_points empty; free-text questions leave options
// empty.
var QuizSchema = &llm.Schema{
	Name:        "finance-level-quiz",
	Description: "Quiz questions for one module level",
	Definition: map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"required":             []any{"questions"},
		"properties": map[string]any{
			"questions": map[string]any{
				"type":     "array",
				"minItems": 1,
				"items": map[string]any{
					"type":                 "object",
					"additionalProperties": false,
					"required": []any{
						"id", "type", "question", "options", "correct_answer",
						"explanation", "sample_answer", "key_points",
					},
					"properties": map[string]any{
						"id":             map[string]any{"type": "string"},
						"type":           map[string]any{"type": "string", "enum": []any{"mcq", "free_text"}},
						"question":       map[string]any{"type": "string"},
						"options":        map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
						"correct_answer": map[string]any{"type": "integer"},
						"explanation":    map[string]any{"type": "string"},
						"sample_answer":  map[string]any{"type": "string"},
						"key_points":     map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
					},
				},
			},
		},
	},
}
