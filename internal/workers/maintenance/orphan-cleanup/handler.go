// internal/workers/maintenance/orphan-cleanup/handler.go
package orphancleanup

import (
	"context"

	apperrors "interview-workers/internal/common/errors"
	"interview-workers/internal/common/logger"
	"interview-workers/internal/maintenance"
	"interview-workers/internal/workers/jobs"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "orphan-cleanup"
)

type OrphanCleaner interface {
	DeleteOrphans(ctx context.Context, dryRun bool) (*maintenance.OrphanReport, error)
	EnforceCascades(ctx context.Context) (*maintenance.CascadeReport, error)
}

type Handler struct {
	config       *Config
	cleaner      OrphanCleaner
	logger       logger.Logger
	errorHandler *apperrors.ErrorHandler
}

func NewHandler(config *Config, cleaner OrphanCleaner, log logger.Logger) *Handler {
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		cleaner:      cleaner,
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

// execute deletes orphans first; the cascade constraints cannot be added
// while any remain.
func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	report, err := h.cleaner.DeleteOrphans(ctx, input.DryRun)
	if err != nil {
		return nil, err
	}

	out := &Output{
		DryRun: report.DryRun,
		Tables: report.Tables,
		Total:  report.Total,
	}

	if !input.EnforceCascades || input.DryRun {
		return out, nil
	}

	cascades, err := h.cleaner.EnforceCascades(ctx)
	if err != nil {
		return nil, err
	}
	out.CascadesAdded = cascades.Added
	out.CascadesPresent = cascades.Present
	out.KeysReplaced = cascades.Replaced
	return out, nil
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
