// internal/workers/interview/expire-videos/handler.go
package expirevideos

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
	TaskType = "video-expiration-sweep"
)

type Sweeper interface {
	ExpireSweep(ctx context.Context) (*interview.SweepResult, error)
	PurgeReviewedMedia(ctx context.Context) (*interview.SweepResult, error)
}

type Handler struct {
	config       *Config
	service      Sweeper
	logger       logger.Logger
	errorHandler *apperrors.ErrorHandler
}

func NewHandler(config *Config, service Sweeper, log logger.Logger) *Handler {
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

// execute treats a sweep already running elsewhere as done.
func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	res, err := h.service.ExpireSweep(ctx)
	if errors.Is(err, apperrors.ErrSweepInProgress) {
		h.logger.Info("expiration sweep already running elsewhere", nil)
		return &Output{AlreadyRunning: true}, nil
	}
	if err != nil {
		return nil, err
	}

	out := &Output{
		Scanned: res.Scanned,
		Purged:  res.Purged,
		Skipped: res.Skipped,
		Failed:  res.Failed,
	}

	includeReviewed := h.config.IncludeReviewed
	if input.IncludeReviewed != nil {
		includeReviewed = *input.IncludeReviewed
	}
	if !includeReviewed {
		return out, nil
	}

	reviewed, err := h.service.PurgeReviewedMedia(ctx)
	switch {
	case errors.Is(err, apperrors.ErrSweepInProgress):
		h.logger.Info("reviewed purge already running elsewhere", nil)
	case err != nil:
		// expiry work is committed; report it and let the next run retry
		h.logger.Warn("reviewed media purge failed", map[string]interface{}{"error": err})
	default:
		out.ReviewedPurged = reviewed.Purged
		out.Failed += reviewed.Failed
	}

	return out, nil
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
