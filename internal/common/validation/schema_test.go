package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var feedbackSchema = map[string]interface{}{
	"type":     "object",
	"required": []interface{}{"applicationId", "status", "justification"},
	"properties": map[string]interface{}{
		"applicationId": map[string]interface{}{"type": "integer", "minimum": 1},
		"status":        map[string]interface{}{"type": "string", "enum": []interface{}{"APPROVED", "REJECTED"}},
		"justification": map[string]interface{}{"type": "string", "minLength": 1},
	},
}

func TestValidateInput(t *testing.T) {
	tests := []struct {
		name      string
		input     map[string]interface{}
		wantValid bool
		wantField string
		wantCode  string
	}{
		{
			name:      "valid",
			input:     map[string]interface{}{"applicationId": 4, "status": "APPROVED", "justification": "ok"},
			wantValid: true,
		},
		{
			name:      "missing field",
			input:     map[string]interface{}{"applicationId": 4, "status": "APPROVED"},
			wantField: "justification",
			wantCode:  "REQUIRED_FIELD_MISSING",
		},
		{
			name:      "bad enum",
			input:     map[string]interface{}{"applicationId": 4, "status": "MAYBE", "justification": "ok"},
			wantField: "status",
			wantCode:  "INVALID_ENUM_VALUE",
		},
		{
			name:      "wrong type",
			input:     map[string]interface{}{"applicationId": "four", "status": "APPROVED", "justification": "ok"},
			wantField: "applicationId",
			wantCode:  "INVALID_TYPE",
		},
		{
			name:      "empty justification",
			input:     map[string]interface{}{"applicationId": 4, "status": "APPROVED", "justification": ""},
			wantField: "justification",
			wantCode:  "MIN_LENGTH_VIOLATION",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := ValidateInput(tt.input, feedbackSchema)
			require.NoError(t, err)

			assert.Equal(t, tt.wantValid, res.Valid)
			if !tt.wantValid {
				assert.True(t, res.HasErrors(tt.wantField), "errors: %v", res.GetErrorMessages())
				assert.Equal(t, tt.wantCode, res.Errors[0].Code)
			}
		})
	}
}

func TestValidateInput_EmptySchemaAcceptsAnything(t *testing.T) {
	res, err := ValidateInput(map[string]interface{}{"x": 1}, nil)
	require.NoError(t, err)
	assert.True(t, res.Valid)
}

func TestValidateActivityNaming(t *testing.T) {
	assert.NoError(t, ValidateActivityNaming("interview.video.request"))
	assert.Error(t, ValidateActivityNaming("video-request"))
}

func TestValidateURL(t *testing.T) {
	assert.True(t, ValidateURL("https://cdn.example.com/v/1.mp4"))
	assert.False(t, ValidateURL("not a url"))
	assert.False(t, ValidateURL("ftp://files.example.com/v.mp4"))
}
