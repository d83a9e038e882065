package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/stretchr/testify/assert"
)

func TestStandardError_IsMatchesByCode(t *testing.T) {
	sentAt := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	err := NewAlreadyFeedbackedError(sentAt)
	wrapped := fmt.Errorf("request video: %w", err)

	assert.True(t, stderrors.Is(wrapped, ErrAlreadyFeedbacked))
	assert.False(t, stderrors.Is(wrapped, ErrApplicationNotFound))
	assert.Contains(t, err.Error(), "feedbackSentAt: 2025-03-01T10:00:00Z")
}

func TestStandardError_UnwrapsCause(t *testing.T) {
	cause := stderrors.New("connection reset")
	err := NewQueryExecutionFailedError("load application", cause)

	assert.True(t, stderrors.Is(err, cause))
	assert.True(t, err.Retryable)
}

func TestNormalize(t *testing.T) {
	std := NewValidationError("url is required")
	assert.Same(t, std, Normalize(fmt.Errorf("wrap: %w", std)))

	foreign := Normalize(stderrors.New("boom"))
	assert.Equal(t, ErrCodeInternal, foreign.Code)
	assert.Equal(t, ErrCodeInternal, CodeOf(stderrors.New("boom")))
}

func TestConvertToBPMNError(t *testing.T) {
	tests := []struct {
		name        string
		err         *StandardError
		wantRetries int
	}{
		{"database errors retry", NewQueryExecutionFailedError("x", stderrors.New("y")), 3},
		{"sweep lock contention retries", NewSweepInProgressError("lock:video-expiration"), 2},
		{"business rule never retries", NewAlreadyFeedbackedError(time.Now()), 0},
		{"corrupt breakdown never retries", NewBreakdownCorruptError(1, stderrors.New("bad json")), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.err.WithMetadata("applicationId", 7)
			bpmn := ConvertToBPMNError(tt.err)

			assert.Equal(t, string(tt.err.Code), bpmn.Code)
			assert.Equal(t, tt.wantRetries, bpmn.Retries)

			vars := bpmn.ToErrorVariables()
			assert.Equal(t, string(tt.err.Code), vars["errorCode"])
			assert.Equal(t, 7, vars["applicationId"])
			_, err := time.Parse(time.RFC3339, vars["timestamp"].(string))
			assert.NoError(t, err)
		})
	}
}

func TestRetriesFor_CapsByRemainingJobRetries(t *testing.T) {
	bpmn := &BPMNError{Retries: 3}

	job := entities.Job{ActivatedJob: &pb.ActivatedJob{Retries: 2}}
	assert.Equal(t, int32(1), RetriesFor(job, bpmn))

	job = entities.Job{ActivatedJob: &pb.ActivatedJob{Retries: 10}}
	assert.Equal(t, int32(3), RetriesFor(job, bpmn))
}

func TestGetErrorCategory(t *testing.T) {
	assert.Equal(t, "DATABASE", GetErrorCategory(ErrCodeQueryExecutionFailed))
	assert.Equal(t, "NOTIFICATION", GetErrorCategory(ErrCodeNotificationSendFailed))
	assert.Equal(t, "CONCURRENCY", GetErrorCategory(ErrCodeSweepInProgress))
	assert.Equal(t, "VALIDATION", GetErrorCategory(ErrCodeBreakdownCorrupt))
	assert.Equal(t, "NOT_FOUND", GetErrorCategory(ErrCodeApplicationNotFound))
	assert.Equal(t, "BUSINESS_RULE", GetErrorCategory(ErrCodeVideoDeadlinePassed))
	assert.Equal(t, "BUSINESS_RULE", GetErrorCategory(ErrCodeAlreadyFeedbacked))
}
