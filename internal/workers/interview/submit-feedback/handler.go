// internal/workers/interview/submit-feedback/handler.go
package submitfeedback

import (
	"context"

	apperrors "interview-workers/internal/common/errors"
	"interview-workers/internal/common/logger"
	"interview-workers/internal/interview"
	"interview-workers/internal/workers/jobs"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "feedback-submit"
)

type FeedbackSubmitter interface {
	SubmitFeedback(ctx context.Context, ref interview.ApplicationRef, decision, justification string) (*interview.FeedbackResult, error)
}

type Handler struct {
	config       *Config
	service      FeedbackSubmitter
	logger       logger.Logger
	errorHandler *apperrors.ErrorHandler
}

func NewHandler(config *Config, service FeedbackSubmitter, log logger.Logger) *Handler {
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		service:      service,
		logger:       l,
		errorHandler: apperrors.NewErrorHandler(l),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	var input Input
	if err := jobs.Decode(TaskType, job.Variables, &input); err != nil {
		jobs.Fail(ctx, client, job, err, h.errorHandler)
		return
	}

	output, err := h.execute(ctx, &input)
	if err != nil {
		jobs.Fail(ctx, client, job, err, h.errorHandler)
		return
	}

	jobs.Complete(ctx, client, job, output, h.logger)
}

// execute leaves decision and justification checks to the state machine so
// the error codes match the HTTP surface.
func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	ref := input.Ref()
	if err := ref.Validate(); err != nil {
		return nil, err
	}

	res, err := h.service.SubmitFeedback(ctx, ref, input.Status, input.Justification)
	if err != nil {
		return nil, err
	}

	h.logger.Info("feedback recorded", map[string]interface{}{
		"applicationId": res.ApplicationID,
		"decision":      string(res.Decision),
		"hasVideo":      res.HasVideo,
		"mediaPurged":   res.MediaPurged,
	})

	out := &Output{
		ApplicationID:  res.ApplicationID,
		FeedbackStatus: string(res.Decision),
		HasVideo:       res.HasVideo,
		MediaPurged:    res.MediaPurged,
		Notified:       res.Notified,
	}
	if res.ExpiresAt != nil {
		out.ExpiresAt = jobs.FormatTime(*res.ExpiresAt)
	}
	return out, nil
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
