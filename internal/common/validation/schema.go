package validation

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// Schema is a compiled JSON Schema.
type Schema struct {
	schema *gojsonschema.Schema
}

// Compile accepts a decoded schema document; nil or empty means "anything".
func Compile(doc map[string]interface{}) (*Schema, error) {
	if len(doc) == 0 {
		doc = map[string]interface{}{"type": "object"}
	}
	s, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return &Schema{schema: s}, nil
}

// Validate checks a raw JSON document. Malformed JSON is reported as a
// single INVALID_JSON error rather than a Go error.
func (s *Schema) Validate(document []byte) *ValidationResult {
	if !json.Valid(document) {
		return &ValidationResult{Errors: []ValidationError{{
			Field:   "(root)",
			Message: "document is not valid JSON",
			Code:    "INVALID_JSON",
		}}}
	}

	result, err := s.schema.Validate(gojsonschema.NewBytesLoader(document))
	if err != nil {
		return &ValidationResult{Errors: []ValidationError{{
			Field:   "(root)",
			Message: err.Error(),
			Code:    "INVALID_JSON",
		}}}
	}

	out := &ValidationResult{Valid: result.Valid()}
	for _, e := range result.Errors() {
		out.Errors = append(out.Errors, ValidationError{
			Field:   fieldName(e),
			Message: e.Description(),
			Code:    errorCode(e.Type()),
		})
	}
	return out
}

// ValidateInput validates input against a schema document in one call.
func ValidateInput(input []byte, doc map[string]interface{}) (*ValidationResult, error) {
	s, err := Compile(doc)
	if err != nil {
		return nil, err
	}
	return s.Validate(input), nil
}

func fieldName(e gojsonschema.ResultError) string {
	field := e.Field()
	// "required" errors point at the parent; name the missing property instead.
	if e.Type() == "required" {
		if prop, ok := e.Details()["property"].(string); ok {
			if field == prop || strings.HasSuffix(field, "."+prop) {
				return field
			}
			if field == "(root)" {
				return prop
			}
			return field + "." + prop
		}
	}
	return field
}

var errorCodes = map[string]string{
	"required":        "REQUIRED_FIELD_MISSING",
	"invalid_type":    "INVALID_TYPE",
	"string_gte":      "MIN_LENGTH_VIOLATION",
	"string_lte":      "MAX_LENGTH_VIOLATION",
	"pattern":         "PATTERN_MISMATCH",
	"enum":            "INVALID_ENUM_VALUE",
	"number_gte":      "MINIMUM_VIOLATION",
	"number_lte":      "MAXIMUM_VIOLATION",
	"array_min_items": "MIN_ITEMS_VIOLATION",
	"array_max_items": "MAX_ITEMS_VIOLATION",
}

func errorCode(kind string) string {
	if code, ok := errorCodes[kind]; ok {
		return code
	}
	return strings.ToUpper(kind)
}

var activityNamingPattern = regexp.MustCompile(`^[a-z]+(-[a-z]+)+$`)

// ValidateActivityNaming checks an activity id is a kebab-case verb-noun
// phrase such as "save-survey-response".
func ValidateActivityNaming(activityID string) error {
	if !activityNamingPattern.MatchString(activityID) {
		return fmt.Errorf("activity ID %q must be kebab-case with at least two words (e.g., search-cars)", activityID)
	}
	return nil
}

// GetErrorMessages returns a simple list of error messages
func (vr *ValidationResult) GetErrorMessages() []string {
	messages := make([]string, len(vr.Errors))
	for i, err := range vr.Errors {
		messages[i] = fmt.Sprintf("%s: %s", err.Field, err.Message)
	}
	return messages
}

func (vr *ValidationResult) HasErrors(field string) bool {
	for _, err := range vr.Errors {
		if err.Field == field {
			return true
		}
	}
	return false
}

// GetErrorsForField includes errors on nested fields and array items.
func (vr *ValidationResult) GetErrorsForField(field string) []ValidationError {
	var fieldErrors []ValidationError
	for _, err := range vr.Errors {
		if err.Field == field || strings.HasPrefix(err.Field, field+".") {
			fieldErrors = append(fieldErrors, err)
		}
	}
	return fieldErrors
}
