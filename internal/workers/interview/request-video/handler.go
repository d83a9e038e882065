// internal/workers/interview/request-video/handler.go
package requestvideo

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
	TaskType = "video-request"
)

type VideoRequester interface {
	RequestVideo(ctx context.Context, ref interview.ApplicationRef) (*interview.VideoRequestResult, error)
}

type Handler struct {
	config       *Config
	service      VideoRequester
	logger       logger.Logger
	errorHandler *apperrors.ErrorHandler
}

func NewHandler(config *Config, service VideoRequester, log logger.Logger) *Handler {
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

	res, err := h.service.RequestVideo(ctx, ref)
	if err != nil {
		return nil, err
	}

	if !res.Notified {
		h.logger.Warn("video requested but candidate was not notified", map[string]interface{}{
			"applicationId": res.ApplicationID,
		})
	}

	return &Output{
		ApplicationID: res.ApplicationID,
		VideoStatus:   string(interview.VideoRequested),
		RequestedAt:   jobs.FormatTime(res.RequestedAt),
		Deadline:      jobs.FormatTime(res.Deadline),
		Notified:      res.Notified,
	}, nil
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
