package interview

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

var videoSchema = gojsonschema.NewStringLoader(`{
	"type": "object",
	"required": ["status"],
	"properties": {
		"status":            {"type": "string", "enum": ["requested", "submitted", "removed"]},
		"requestedAt":       {"type": "string", "format": "date-time"},
		"deadline":          {"type": "string", "format": "date-time"},
		"submittedAt":       {"type": "string", "format": "date-time"},
		"expiresAt":         {"type": "string", "format": "date-time"},
		"removedAt":         {"type": "string", "format": "date-time"},
		"overdueNotifiedAt": {"type": "string", "format": "date-time"},
		"url":               {"type": ["string", "null"]},
		"fileId":            {"type": ["string", "null"]},
		"videoRemoved":      {"type": "boolean"}
	}
}`)

var feedbackSchema = gojsonschema.NewStringLoader(`{
	"type": "object",
	"required": ["status", "sentAt"],
	"properties": {
		"status":        {"type": "string", "enum": ["APPROVED", "REJECTED"]},
		"justification": {"type": "string"},
		"sentAt":        {"type": "string", "format": "date-time"}
	}
}`)

var (
	compiledVideoSchema    = mustCompile(videoSchema)
	compiledFeedbackSchema = mustCompile(feedbackSchema)
)

func mustCompile(loader gojsonschema.JSONLoader) *gojsonschema.Schema {
	s, err := gojsonschema.NewSchema(loader)
	if err != nil {
		panic(fmt.Sprintf("interview: invalid embedded schema: %v", err))
	}
	return s
}

func validateVideoDocument(raw json.RawMessage) error {
	if err := validateAgainst(compiledVideoSchema, raw, keyVideo); err != nil {
		return err
	}

	// time fields each status depends on
	var head struct {
		Status      VideoStatus `json:"status"`
		RequestedAt *string     `json:"requestedAt"`
		Deadline    *string     `json:"deadline"`
		SubmittedAt *string     `json:"submittedAt"`
		ExpiresAt   *string     `json:"expiresAt"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return fmt.Errorf("video: %w", err)
	}
	if head.Deadline == nil {
		return fmt.Errorf("video: deadline is required")
	}
	if head.Status != VideoRequested && (head.SubmittedAt == nil || head.ExpiresAt == nil) {
		return fmt.Errorf("video: status %s requires submittedAt and expiresAt", head.Status)
	}
	return nil
}

func validateFeedbackDocument(raw json.RawMessage) error {
	return validateAgainst(compiledFeedbackSchema, raw, keyFeedback)
}

func validateAgainst(schema *gojsonschema.Schema, raw json.RawMessage, name string) error {
	result, err := schema.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	if result.Valid() {
		return nil
	}

	msgs := make([]string, len(result.Errors()))
	for i, desc := range result.Errors() {
		msgs[i] = desc.String()
	}
	return fmt.Errorf("%s does not match schema: %s", name, strings.Join(msgs, "; "))
}
