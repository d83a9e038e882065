// internal/workers/interview/notify-overdue/handler.go
package notifyoverdue

import (
	"context"
	"errors"

	apperrors "interview-workers/internal/common/errors"
	"interview-workers/internal/common/logger"
	"interview-workers/internal/interview"
	"interview-workers/internal/workers/jobs"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "video-overdue-notify"
)

type OverdueNotifier interface {
	NotifyOverdue(ctx context.Context) (*interview.OverdueResult, error)
}

type Handler struct {
	config       *Config
	service      OverdueNotifier
	logger       logger.Logger
	errorHandler *apperrors.ErrorHandler
}

func NewHandler(config *Config, service OverdueNotifier, log logger.Logger) *Handler {
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

func (h *Handler) execute(ctx context.Context, _ *Input) (*Output, error) {
	res, err := h.service.NotifyOverdue(ctx)
	if errors.Is(err, apperrors.ErrSweepInProgress) {
		h.logger.Info("overdue sweep already running elsewhere", nil)
		return &Output{AlreadyRunning: true}, nil
	}
	if err != nil {
		return nil, err
	}

	if res.Failed > 0 {
		h.logger.Warn("some overdue notices were not delivered", map[string]interface{}{
			"failed": res.Failed,
		})
	}

	return &Output{
		Scanned:  res.Scanned,
		Notified: res.Notified,
		Skipped:  res.Skipped,
		Failed:   res.Failed,
	}, nil
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
