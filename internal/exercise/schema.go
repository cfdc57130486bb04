package exercise

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/mathmaster/mathmaster/internal/topic"
)

const schemaURL = "schema://exercise.json"

// wireSchema describes an exercise as it is sent to clients and stored.
func wireSchema() map[string]any {
	topics := make([]any, 0, len(topic.All()))
	for _, t := range topic.All() {
		topics = append(topics, string(t))
	}
	difficulties := make([]any, 0, 3)
	for _, d := range topic.AllDifficulties() {
		difficulties = append(difficulties, string(d))
	}

	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"title":          map[string]any{"type": "string", "minLength": 1},
			"question":       map[string]any{"type": "string", "minLength": 1},
			"correct_answer": map[string]any{"type": "string", "minLength": 1},
			"options": map[string]any{
				"type":     "array",
				"items":    map[string]any{"type": "string"},
				"minItems": 4,
				"maxItems": 4,
			},
			"explanation": map[string]any{"type": "string"},
			"topic":       map[string]any{"enum": topics},
			"difficulty":  map[string]any{"enum": difficulties},
		},
		"required": []any{"title", "question", "correct_answer", "options", "explanation", "topic", "difficulty"},
	}
}

var (
	compileOnce sync.Once
	compiled    *jsonschema.Schema
	compileErr  error
)

func exerciseSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		raw, err := json.Marshal(wireSchema())
		if err != nil {
			compileErr = fmt.Errorf("marshal schema: %w", err)
			return
		}
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
		if err != nil {
			compileErr = fmt.Errorf("parse schema: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource(schemaURL, doc); err != nil {
			compileErr = fmt.Errorf("add resource: %w", err)
			return
		}
		compiled, compileErr = c.Compile(schemaURL)
	})
	return compiled, compileErr
}

// ValidationError describes why an exercise is not fit to be served.
type ValidationError struct {
	Check   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("exercise %s check: %s", e.Check, e.Message)
}

// Validate checks the wire shape of ex and that its correct answer is
// among the options.
func Validate(ex Exercise) error {
	schema, err := exerciseSchema()
	if err != nil {
		return fmt.Errorf("compile exercise schema: %w", err)
	}

	raw, err := json.Marshal(ex)
	if err != nil {
		return fmt.Errorf("marshal exercise: %w", err)
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("parse exercise: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return &ValidationError{Check: "schema", Message: err.Error()}
	}

	if !slices.Contains(ex.Options, ex.CorrectAnswer) {
		return &ValidationError{
			Check:   "options",
			Message: fmt.Sprintf("correct answer %q missing from %v", ex.CorrectAnswer, ex.Options),
		}
	}
	return nil
}
