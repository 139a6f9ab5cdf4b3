package ai

import (
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

// responseSchema describes the object the reviewer is instructed to return.
const responseSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["overall_score"],
  "properties": {
    "skills_found": {"type": "array", "items": {"type": "string"}},
    "format_quality": {"type": "string"},
    "structure_analysis": {"type": "string"},
    "improvement_suggestions": {"type": "array", "items": {"type": "string"}},
    "overall_score": {"type": "number", "minimum": 0, "maximum": 100},
    "job_match_percentage": {"type": "number", "minimum": 0, "maximum": 100},
    "matching_skills": {"type": "array", "items": {"type": "string"}},
    "missing_skills": {"type": "array", "items": {"type": "string"}},
    "tailoring_suggestions": {"type": "array", "items": {"type": "string"}}
  }
}`

// ValidationError lists every field of a response that broke the schema.
type ValidationError struct {
	Errors []FieldError
}

type FieldError struct {
	Field   string
	Message string
}

func (ve *ValidationError) Error() string {
	var sb strings.Builder
	sb.WriteString("response validation failed:")
	for _, err := range ve.Errors {
		sb.WriteString(fmt.Sprintf(" %s: %s;", err.Field, err.Message))
	}
	return strings.TrimSuffix(sb.String(), ";")
}

var loadSchema = sync.OnceValues(func() (*gojsonschema.Schema, error) {
	return gojsonschema.NewSchema(gojsonschema.NewStringLoader(responseSchema))
})

// ValidateResponse checks a cleaned reviewer response against the response schema.
func ValidateResponse(jsonContent string) error {
	schema, err := loadSchema()
	if err != nil {
		return fmt.Errorf("failed to load response schema: %w", err)
	}

	result, err := schema.Validate(gojsonschema.NewStringLoader(jsonContent))
	if err != nil {
		return fmt.Errorf("response is not valid json: %w", err)
	}
	if result.Valid() {
		return nil
	}

	validationErr := &ValidationError{
		Errors: make([]FieldError, 0, len(result.Errors())),
	}
	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		validationErr.Errors = append(validationErr.Errors, FieldError{
			Field:   field,
			Message: desc.Description(),
		})
	}
	return validationErr
}
