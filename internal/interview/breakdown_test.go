package interview

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const scoredBreakdown = `{
	"score": 87,
	"skills": {"go": 9, "sql": 7},
	"summary": "Solid backend profile",
	"video": {
		"status": "submitted",
		"requestedAt": "2025-03-01T10:00:00.000Z",
		"deadline": "2025-03-08T10:00:00.000Z",
		"submittedAt": "2025-03-02T09:00:00.000Z",
		"expiresAt": "2025-03-09T09:00:00.000Z",
		"url": "https://cdn.example.com/v/1.mp4",
		"fileId": "file-1"
	}
}`

func TestDecodeBreakdown_Empty(t *testing.T) {
	for _, raw := range []string{"", "   ", "null", "\n null \n"} {
		b, err := DecodeBreakdown(raw)
		require.NoError(t, err, "input %q", raw)
		assert.Equal(t, PhaseNone, b.Phase())

		out, err := b.Encode()
		require.NoError(t, err)
		assert.Equal(t, "{}", out)
	}
}

func TestDecodeBreakdown_NullSubDocuments(t *testing.T) {
	b, err := DecodeBreakdown(`{"video": null, "feedback": null, "score": 3}`)
	require.NoError(t, err)
	assert.Equal(t, PhaseNone, b.Phase())
}

func TestDecodeBreakdown_Submitted(t *testing.T) {
	b, err := DecodeBreakdown(scoredBreakdown)
	require.NoError(t, err)

	assert.Equal(t, PhaseSubmitted, b.Phase())
	assert.Equal(t, time.Date(2025, 3, 9, 9, 0, 0, 0, time.UTC), b.Video.ExpiresAt.UTC())
	assert.Equal(t, "file-1", *b.Video.FileID)

	score, ok := b.Extra("score")
	require.True(t, ok)
	assert.JSONEq(t, `87`, string(score))
}

func TestBreakdown_PreservesScoringKeysThroughTransitions(t *testing.T) {
	b, err := DecodeBreakdown(scoredBreakdown)
	require.NoError(t, err)

	_, err = b.SubmitFeedback(time.Date(2025, 3, 20, 0, 0, 0, 0, time.UTC), week, "APPROVED", "good")
	require.NoError(t, err)

	out, err := b.Encode()
	require.NoError(t, err)

	var doc map[string]json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.JSONEq(t, `87`, string(doc["score"]))
	assert.JSONEq(t, `{"go": 9, "sql": 7}`, string(doc["skills"]))
	assert.JSONEq(t, `"Solid backend profile"`, string(doc["summary"]))

	var video map[string]interface{}
	require.NoError(t, json.Unmarshal(doc["video"], &video))
	assert.Equal(t, "removed", video["status"])
	assert.Equal(t, true, video["videoRemoved"])
	assert.Nil(t, video["url"])
	assert.Contains(t, video, "url", "purged url is written as null")

	var feedback map[string]interface{}
	require.NoError(t, json.Unmarshal(doc["feedback"], &feedback))
	assert.Equal(t, "APPROVED", feedback["status"])
	assert.Equal(t, "good", feedback["justification"])
	assert.Equal(t, "2025-03-20T00:00:00Z", feedback["sentAt"])
}

func TestBreakdown_RoundTrip(t *testing.T) {
	b, err := DecodeBreakdown(scoredBreakdown)
	require.NoError(t, err)

	out, err := b.Encode()
	require.NoError(t, err)

	again, err := DecodeBreakdown(out)
	require.NoError(t, err)
	assert.Equal(t, b.Video, again.Video)
	require.Len(t, again.extra, len(b.extra))
	for k, v := range b.extra {
		assert.JSONEq(t, string(v), string(again.extra[k]), k)
	}
}

func TestDecodeBreakdown_LegacyRemovedFlag(t *testing.T) {
	b, err := DecodeBreakdown(`{
		"video": {
			"status": "submitted",
			"requestedAt": "2025-03-01T10:00:00Z",
			"deadline": "2025-03-08T10:00:00Z",
			"submittedAt": "2025-03-02T09:00:00Z",
			"expiresAt": "2025-03-09T09:00:00Z",
			"url": null,
			"fileId": null,
			"videoRemoved": true
		}
	}`)
	require.NoError(t, err)

	assert.Equal(t, PhaseExpired, b.Phase())
	assert.False(t, b.Expire(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)))

	out, err := b.Encode()
	require.NoError(t, err)
	assert.Contains(t, out, `"status":"removed"`)
	assert.Contains(t, out, `"videoRemoved":true`)
}

func TestDecodeBreakdown_Corrupt(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"not json", `{"video": {"status": "requested"`},
		{"not an object", `[1, 2, 3]`},
		{"plain string", `"hello"`},
		{"unknown video status", `{"video": {"status": "pending", "deadline": "2025-03-08T10:00:00Z"}}`},
		{"video without deadline", `{"video": {"status": "requested", "requestedAt": "2025-03-01T10:00:00Z"}}`},
		{"submitted without expiry", `{"video": {"status": "submitted", "deadline": "2025-03-08T10:00:00Z", "submittedAt": "2025-03-02T09:00:00Z"}}`},
		{"bad timestamp", `{"video": {"status": "requested", "deadline": "next week"}}`},
		{"video not an object", `{"video": "requested"}`},
		{"feedback bad decision", `{"feedback": {"status": "MAYBE", "justification": "x", "sentAt": "2025-03-02T09:00:00Z"}}`},
		{"feedback without sentAt", `{"feedback": {"status": "APPROVED", "justification": "x"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := DecodeBreakdown(tt.raw)
			assert.Error(t, err)
			assert.Nil(t, b)
		})
	}
}
