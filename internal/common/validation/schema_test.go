package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var saveSurveySchema = map[string]interface{}{
	"type":     "object",
	"required": []interface{}{"category", "questions", "answers"},
	"properties": map[string]interface{}{
		"category": map[string]interface{}{"type": "string", "minLength": 1},
		"questions": map[string]interface{}{
			"type":     "array",
			"minItems": 1,
			"items": map[string]interface{}{
				"type":     "object",
				"required": []interface{}{"question", "options"},
			},
		},
		"answers": map[string]interface{}{"type": "object"},
		"userId":  map[string]interface{}{"type": "string"},
	},
}

func TestValidateInput_Valid(t *testing.T) {
	result, err := ValidateInput([]byte(`{
		"category": "Maintenance",
		"questions": [{"question": "Q", "options": ["a", "b"]}],
		"answers": {"0": "a"},
		"processExtra": 42
	}`), saveSurveySchema)
	require.NoError(t, err)
	assert.True(t, result.Valid)
	assert.Empty(t, result.Errors)
}

func TestValidateInput_Errors(t *testing.T) {
	result, err := ValidateInput([]byte(`{"category": "", "questions": [], "userId": 7}`), saveSurveySchema)
	require.NoError(t, err)
	assert.False(t, result.Valid)

	codes := map[string]string{}
	for _, e := range result.Errors {
		codes[e.Code] = e.Field
	}
	assert.Equal(t, "answers", codes["REQUIRED_FIELD_MISSING"])
	assert.Equal(t, "category", codes["MIN_LENGTH_VIOLATION"])
	assert.Equal(t, "questions", codes["MIN_ITEMS_VIOLATION"])
	assert.Equal(t, "userId", codes["INVALID_TYPE"])

	assert.True(t, result.HasErrors("userId"))
	assert.Len(t, result.GetErrorMessages(), len(result.Errors))
}

func TestValidateInput_NestedFields(t *testing.T) {
	result, err := ValidateInput([]byte(`{"category":"c","answers":{},"questions":[{"question":"Q"}]}`), saveSurveySchema)
	require.NoError(t, err)
	require.False(t, result.Valid)

	nested := result.GetErrorsForField("questions")
	require.Len(t, nested, 1)
	assert.Equal(t, "REQUIRED_FIELD_MISSING", nested[0].Code)
	assert.Contains(t, nested[0].Field, "options")
}

func TestValidateInput_MalformedDocument(t *testing.T) {
	result, err := ValidateInput([]byte(`{"category":`), saveSurveySchema)
	require.NoError(t, err)
	assert.False(t, result.Valid)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "INVALID_JSON", result.Errors[0].Code)
}

func TestCompile(t *testing.T) {
	s, err := Compile(nil)
	require.NoError(t, err)
	assert.True(t, s.Validate([]byte(`{"anything":true}`)).Valid)
	assert.False(t, s.Validate([]byte(`[1,2]`)).Valid)

	_, err = Compile(map[string]interface{}{"type": 12})
	assert.Error(t, err)
}

func TestValidateActivityNaming(t *testing.T) {
	for _, id := range []string{"search-cars", "save-survey-response", "await-comparison"} {
		assert.NoError(t, ValidateActivityNaming(id), id)
	}
	for _, id := range []string{"search", "Search-Cars", "search_cars", "user.account.create", "save-"} {
		assert.Error(t, ValidateActivityNaming(id), id)
	}
}
