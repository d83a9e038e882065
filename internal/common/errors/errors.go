// Package errors provides the standardized error taxonomy used by the
// interview service, the HTTP API and the Zeebe workers.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"
)

// ErrorCode represents standardized internal error codes.
type ErrorCode string

// Business rule errors
const (
	ErrCodeApplicationNotFound   ErrorCode = "APPLICATION_NOT_FOUND"
	ErrCodeAlreadyFeedbacked     ErrorCode = "ALREADY_FEEDBACKED"
	ErrCodeVideoAlreadyRequested ErrorCode = "VIDEO_ALREADY_REQUESTED"
	ErrCodeVideoDeadlinePassed   ErrorCode = "VIDEO_DEADLINE_PASSED"
	ErrCodeInvalidTransition     ErrorCode = "INVALID_TRANSITION"
	ErrCodeInvalidDecision       ErrorCode = "INVALID_DECISION"
	ErrCodeValidationFailed      ErrorCode = "VALIDATION_FAILED"
	ErrCodeBreakdownCorrupt      ErrorCode = "BREAKDOWN_CORRUPT"
)

// Technical errors
const (
	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeQueryExecutionFailed     ErrorCode = "QUERY_EXECUTION_FAILED"
	ErrCodeQueryTimeout             ErrorCode = "QUERY_TIMEOUT"
	ErrCodeNotificationSendFailed   ErrorCode = "NOTIFICATION_SEND_FAILED"
	ErrCodeSweepInProgress          ErrorCode = "SWEEP_IN_PROGRESS"
	ErrCodeLockFailed               ErrorCode = "LOCK_FAILED"
	ErrCodeInternal                 ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	cause     error
}

func (e *StandardError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("StandardError[%s]: %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error {
	return e.cause
}

// Is matches another *StandardError by code so sentinel comparisons work
// with errors.Is.
func (e *StandardError) Is(target error) bool {
	t, ok := target.(*StandardError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// WithMetadata attaches a key/value pair and returns the same error.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = map[string]interface{}{}
	}
	e.Metadata[key] = value
	return e
}

func newError(code ErrorCode, message, details string, retryable bool, cause error) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
		cause:     cause,
	}
}

// Sentinels for errors.Is checks. Constructors below return fresh values
// carrying details; they still match these by code.
var (
	ErrApplicationNotFound   = &StandardError{Code: ErrCodeApplicationNotFound}
	ErrAlreadyFeedbacked     = &StandardError{Code: ErrCodeAlreadyFeedbacked}
	ErrVideoAlreadyRequested = &StandardError{Code: ErrCodeVideoAlreadyRequested}
	ErrVideoDeadlinePassed   = &StandardError{Code: ErrCodeVideoDeadlinePassed}
	ErrInvalidTransition     = &StandardError{Code: ErrCodeInvalidTransition}
	ErrInvalidDecision       = &StandardError{Code: ErrCodeInvalidDecision}
	ErrValidationFailed      = &StandardError{Code: ErrCodeValidationFailed}
	ErrBreakdownCorrupt      = &StandardError{Code: ErrCodeBreakdownCorrupt}
	ErrSweepInProgress       = &StandardError{Code: ErrCodeSweepInProgress}
)

func NewApplicationNotFoundError(details string) *StandardError {
	return newError(ErrCodeApplicationNotFound, "Application not found", details, false, nil)
}

func NewAlreadyFeedbackedError(sentAt time.Time) *StandardError {
	return newError(ErrCodeAlreadyFeedbacked, "Feedback was already given for this application",
		fmt.Sprintf("feedbackSentAt: %s", sentAt.UTC().Format(time.RFC3339)), false, nil)
}

func NewVideoAlreadyRequestedError(details string) *StandardError {
	return newError(ErrCodeVideoAlreadyRequested, "A video interview is already in progress", details, false, nil)
}

func NewVideoDeadlinePassedError(deadline time.Time) *StandardError {
	return newError(ErrCodeVideoDeadlinePassed, "Video submission deadline has passed",
		fmt.Sprintf("deadline: %s", deadline.UTC().Format(time.RFC3339)), false, nil)
}

func NewInvalidTransitionError(from, operation string) *StandardError {
	return newError(ErrCodeInvalidTransition, "Operation not allowed in current state",
		fmt.Sprintf("state: %s, operation: %s", from, operation), false, nil)
}

func NewInvalidDecisionError(decision string) *StandardError {
	return newError(ErrCodeInvalidDecision, "Feedback decision must be APPROVED or REJECTED",
		fmt.Sprintf("decision: %q", decision), false, nil)
}

func NewValidationError(details string) *StandardError {
	return newError(ErrCodeValidationFailed, "Input validation failed", details, false, nil)
}

func NewBreakdownCorruptError(applicationID int64, err error) *StandardError {
	return newError(ErrCodeBreakdownCorrupt, "Stored breakdown document is not valid",
		fmt.Sprintf("applicationId: %d, error: %v", applicationID, err), false, err)
}

func NewDatabaseConnectionFailedError(err error) *StandardError {
	return newError(ErrCodeDatabaseConnectionFailed, "Database connection error", err.Error(), true, err)
}

func NewQueryExecutionFailedError(operation string, err error) *StandardError {
	return newError(ErrCodeQueryExecutionFailed, "Database query execution error",
		fmt.Sprintf("operation: %s, error: %v", operation, err), true, err)
}

func NewQueryTimeoutError(operation string, err error) *StandardError {
	return newError(ErrCodeQueryTimeout, "Database query timeout",
		fmt.Sprintf("operation: %s", operation), true, err)
}

func NewNotificationSendFailedError(notificationType string, err error) *StandardError {
	return newError(ErrCodeNotificationSendFailed, "Notification delivery failed",
		fmt.Sprintf("type: %s, error: %v", notificationType, err), true, err)
}

func NewSweepInProgressError(lockKey string) *StandardError {
	return newError(ErrCodeSweepInProgress, "Another sweep holds the lock",
		fmt.Sprintf("lock: %s", lockKey), true, nil)
}

func NewLockFailedError(lockKey string, err error) *StandardError {
	return newError(ErrCodeLockFailed, "Could not acquire distributed lock",
		fmt.Sprintf("lock: %s, error: %v", lockKey, err), true, err)
}

func NewInternalError(err error) *StandardError {
	return newError(ErrCodeInternal, "Unexpected error", err.Error(), false, err)
}

// ==========================
// BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Zeebe engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

// GetRetryCount returns the recommended retry count for a code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeDatabaseConnectionFailed,
		ErrCodeQueryExecutionFailed,
		ErrCodeNotificationSendFailed,
		ErrCodeLockFailed:
		return 3
	case ErrCodeQueryTimeout, ErrCodeSweepInProgress:
		return 2
	default:
		return 0 // business errors never retry
	}
}

// ConvertToBPMNError converts a StandardError for the workflow engine.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	vars := map[string]interface{}{
		"originalErrorCode": string(stdErr.Code),
		"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
	}
	for k, v := range stdErr.Metadata {
		vars[k] = v
	}

	return &BPMNError{
		Code:           string(stdErr.Code),
		Message:        stdErr.Message,
		Details:        stdErr.Details,
		Retryable:      stdErr.Retryable,
		Retries:        retries,
		ErrorVariables: vars,
	}
}

// Normalize returns err as a *StandardError, wrapping unknown errors as
// INTERNAL_ERROR.
func Normalize(err error) *StandardError {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr
	}
	return NewInternalError(err)
}

// CodeOf extracts the error code, INTERNAL_ERROR for foreign errors.
func CodeOf(err error) ErrorCode {
	return Normalize(err).Code
}

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory groups codes for logging and metrics labels.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "DATABASE") || strings.Contains(codeStr, "QUERY"):
		return "DATABASE"
	case strings.Contains(codeStr, "NOTIFICATION"):
		return "NOTIFICATION"
	case strings.Contains(codeStr, "SWEEP") || strings.Contains(codeStr, "LOCK"):
		return "CONCURRENCY"
	case strings.Contains(codeStr, "INVALID") || strings.Contains(codeStr, "VALIDATION") || strings.Contains(codeStr, "CORRUPT"):
		return "VALIDATION"
	case code == ErrCodeApplicationNotFound:
		return "NOT_FOUND"
	case strings.Contains(codeStr, "VIDEO") || strings.Contains(codeStr, "FEEDBACK"):
		return "BUSINESS_RULE"
	default:
		return "OTHER"
	}
}
