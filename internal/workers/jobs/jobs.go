// Package jobs holds the plumbing every task handler shares: variable
// decoding against the activity registry, timeouts and job completion.
package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"interview-workers/internal/common/config"
	apperrors "interview-workers/internal/common/errors"
	"interview-workers/internal/common/logger"
	"interview-workers/internal/common/metrics"
	"interview-workers/internal/common/validation"
	"interview-workers/pkg/registry"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const defaultTimeout = 30 * time.Second

// Decode validates the job variables against the registered input schema
// of taskType, then unmarshals them into v.
func Decode(taskType, variables string, v interface{}) error {
	if strings.TrimSpace(variables) == "" {
		variables = "{}"
	}

	var raw map[string]interface{}
	if err := json.Unmarshal([]byte(variables), &raw); err != nil {
		return apperrors.NewValidationError(fmt.Sprintf("parse variables: %v", err))
	}

	reg, err := registry.Default()
	if err != nil {
		return apperrors.NewInternalError(err)
	}

	res, err := validation.ValidateInput(raw, reg.InputSchemaFor(taskType))
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	if !res.Valid {
		return apperrors.NewValidationError(strings.Join(res.GetErrorMessages(), "; "))
	}

	if err := json.Unmarshal([]byte(variables), v); err != nil {
		return apperrors.NewValidationError(fmt.Sprintf("decode variables: %v", err))
	}
	return nil
}

// Timeout prefers the worker config, then the registry entry.
func Timeout(taskType string, wcfg config.WorkerConfig) time.Duration {
	if wcfg.Timeout > 0 {
		return time.Duration(wcfg.Timeout) * time.Millisecond
	}
	if reg, err := registry.Default(); err == nil {
		if a, ok := reg.ByTaskType(taskType); ok {
			return a.TimeoutDuration(defaultTimeout)
		}
	}
	return defaultTimeout
}

// Complete sends the output as job variables.
func Complete(ctx context.Context, client worker.JobClient, job entities.Job, output interface{}, log logger.Logger) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		log.Error("failed to create complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err,
		})
		return
	}

	if _, err := cmd.Send(ctx); err != nil {
		log.Error("failed to send complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err,
		})
		return
	}

	metrics.WorkerJobsCompleted.WithLabelValues(job.Type).Inc()
	log.Info("job completed", map[string]interface{}{"jobKey": job.Key})
}

// Fail counts the failure and reports it to the broker.
func Fail(ctx context.Context, client worker.JobClient, job entities.Job, err error, handler *apperrors.ErrorHandler) {
	metrics.WorkerJobsFailed.WithLabelValues(job.Type, string(apperrors.CodeOf(err))).Inc()
	handler.HandleJobError(ctx, client, job, err)
}

// FormatTime renders times in job variables.
func FormatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
