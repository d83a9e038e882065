// internal/workers/interview/submit-video/handler.go
package submitvideo

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
	TaskType = "video-submit"
)

type VideoSubmitter interface {
	SubmitVideo(ctx context.Context, ref interview.ApplicationRef, media interview.Media) (*interview.VideoSubmissionResult, error)
}

type Handler struct {
	config       *Config
	service      VideoSubmitter
	logger       logger.Logger
	errorHandler *apperrors.ErrorHandler
}

func NewHandler(config *Config, service VideoSubmitter, log logger.Logger) *Handler {
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

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	ref := input.Ref()
	if err := ref.Validate(); err != nil {
		return nil, err
	}

	res, err := h.service.SubmitVideo(ctx, ref, input.Media())
	if err != nil {
		return nil, err
	}

	return &Output{
		ApplicationID: res.ApplicationID,
		VideoStatus:   string(interview.VideoSubmitted),
		SubmittedAt:   jobs.FormatTime(res.SubmittedAt),
		ExpiresAt:     jobs.FormatTime(res.ExpiresAt),
		Notified:      res.Notified,
	}, nil
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
