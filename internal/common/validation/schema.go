package validation

import (
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

const rootContext = "(root)"

// MenuRequestSchema describes a complete weekly menu write: all five served
// days, three distinct positive food ids each.
const MenuRequestSchema = `{
	"type": "object",
	"required": ["year", "week", "days"],
	"additionalProperties": false,
	"properties": {
		"year": {"type": "integer", "minimum": 1},
		"week": {"type": "integer", "minimum": 1, "maximum": 53},
		"days": {
			"type": "object",
			"required": ["1", "2", "3", "4", "5"],
			"additionalProperties": false,
			"patternProperties": {
				"^[1-5]$": {
					"type": "array",
					"minItems": 3,
					"maxItems": 3,
					"uniqueItems": true,
					"items": {"type": "string", "pattern": "^[1-9][0-9]*$"}
				}
			}
		}
	}
}`

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// Validator checks documents against one compiled schema.
type Validator struct {
	schema *gojsonschema.Schema
}

func NewValidator(schemaJSON string) (*Validator, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(schemaJSON))
	if err != nil {
		return nil, fmt.Errorf("invalid schema: %w", err)
	}
	return &Validator{schema: schema}, nil
}

var (
	menuValidator     *Validator
	menuValidatorErr  error
	menuValidatorOnce sync.Once
)

// MenuValidator returns the shared validator for MenuRequestSchema.
func MenuValidator() (*Validator, error) {
	menuValidatorOnce.Do(func() {
		menuValidator, menuValidatorErr = NewValidator(MenuRequestSchema)
	})
	return menuValidator, menuValidatorErr
}

// Validate checks doc, which is marshalled with encoding/json first so struct
// tags apply.
func (v *Validator) Validate(doc interface{}) (*ValidationResult, error) {
	result, err := v.schema.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return nil, fmt.Errorf("validation error: %w", err)
	}

	errs := make([]ValidationError, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		errs = append(errs, ValidationError{
			Field:   fieldOf(desc),
			Message: desc.Description(),
			Code:    strings.ToUpper(desc.Type()),
		})
	}

	return &ValidationResult{
		Valid:  result.Valid(),
		Errors: errs,
	}, nil
}

// fieldOf returns the dotted path of the offending value relative to the
// document root, e.g. "days.2" or "days.1.0".
func fieldOf(desc gojsonschema.ResultError) string {
	path := desc.Context().String()
	if path == rootContext {
		return ""
	}
	return strings.TrimPrefix(path, rootContext+".")
}

// GetErrorMessages returns a simple list of error messages
func (vr *ValidationResult) GetErrorMessages() []string {
	messages := make([]string, len(vr.Errors))
	for i, err := range vr.Errors {
		messages[i] = fmt.Sprintf("%s: %s", err.Field, err.Message)
	}
	return messages
}

// HasErrors checks if validation has errors for specific field
func (vr *ValidationResult) HasErrors(field string) bool {
	for _, err := range vr.Errors {
		if err.Field == field {
			return true
		}
	}
	return false
}

// GetErrorsForField returns errors for a field and everything nested under it.
func (vr *ValidationResult) GetErrorsForField(field string) []ValidationError {
	var fieldErrors []ValidationError
	for _, err := range vr.Errors {
		if err.Field == field || strings.HasPrefix(err.Field, field+".") {
			fieldErrors = append(fieldErrors, err)
		}
	}
	return fieldErrors
}
