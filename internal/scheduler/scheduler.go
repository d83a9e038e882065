// Package scheduler triggers the interview sweeps and the orphan cleanup on
// cron expressions inside the worker-manager process.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	apperrors "interview-workers/internal/common/errors"
	"interview-workers/internal/common/logger"
	"interview-workers/internal/common/observability"

	"github.com/robfig/cron/v3"
)

// Task is one scheduled unit of work. Schedule uses the six-field form
// with seconds first; empty disables the task.
type Task struct {
	Name     string
	Schedule string
	Run      func(ctx context.Context) error
}

type Scheduler struct {
	cron    *cron.Cron
	logger  logger.Logger
	obs     *observability.Observability
	timeout time.Duration

	mu    sync.Mutex
	tasks map[string]Task
}

func New(log logger.Logger, obs *observability.Observability, timeout time.Duration) *Scheduler {
	if timeout <= 0 {
		timeout = 30 * time.Minute
	}
	l := log.WithFields(map[string]interface{}{"component": "scheduler"})
	cl := cronLogger{l}
	return &Scheduler{
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		logger:  l,
		obs:     obs,
		timeout: timeout,
		tasks:   make(map[string]Task),
	}
}

// Add registers a task. Tasks with an empty schedule are kept for RunNow
// but never fire on their own.
func (s *Scheduler) Add(task Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tasks[task.Name]; exists {
		return fmt.Errorf("task %q already registered", task.Name)
	}

	if task.Schedule != "" {
		if _, err := s.cron.AddFunc(task.Schedule, func() { s.run(task) }); err != nil {
			return fmt.Errorf("schedule %q for %s: %w", task.Schedule, task.Name, err)
		}
		s.logger.Info("task scheduled", map[string]interface{}{
			"task":     task.Name,
			"schedule": task.Schedule,
		})
	} else {
		s.logger.Info("task has no schedule", map[string]interface{}{"task": task.Name})
	}

	s.tasks[task.Name] = task
	return nil
}

// Tasks lists registered task names.
func (s *Scheduler) Tasks() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, 0, len(s.tasks))
	for name := range s.tasks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("scheduler started", map[string]interface{}{"entries": len(s.cron.Entries())})
}

// Stop waits for running tasks or ctx, whichever comes first.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		s.logger.Warn("scheduler stop timed out with tasks still running", nil)
	}
	s.logger.Info("scheduler stopped", nil)
}

// RunNow runs a task synchronously, outside its schedule.
func (s *Scheduler) RunNow(name string) error {
	s.mu.Lock()
	task, ok := s.tasks[name]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("unknown task %q", name)
	}
	return s.run(task)
}

func (s *Scheduler) run(task Task) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	start := time.Now()
	err := task.Run(ctx)
	elapsed := time.Since(start)

	status := "completed"
	switch {
	case errors.Is(err, apperrors.ErrSweepInProgress):
		status = "skipped"
		s.logger.Info("task skipped, lock held elsewhere", map[string]interface{}{"task": task.Name})
		err = nil
	case err != nil:
		status = "failed"
		s.logger.Error("scheduled task failed", map[string]interface{}{
			"task":      task.Name,
			"error":     err,
			"errorCode": string(apperrors.CodeOf(err)),
		})
	default:
		s.logger.Info("scheduled task completed", map[string]interface{}{
			"task":     task.Name,
			"duration": elapsed.String(),
		})
	}

	s.obs.RecordJobProcessed(ctx, "cron:"+task.Name, status)
	s.obs.RecordJobDuration(ctx, "cron:"+task.Name, elapsed)
	return err
}

// cronLogger adapts logger.Logger to cron.Logger.
type cronLogger struct {
	l logger.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debug(msg, kv(keysAndValues))
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	fields := kv(keysAndValues)
	fields["error"] = err
	c.l.Error(msg, fields)
}

func kv(keysAndValues []interface{}) map[string]interface{} {
	fields := make(map[string]interface{}, len(keysAndValues)/2+1)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		fields[fmt.Sprint(keysAndValues[i])] = keysAndValues[i+1]
	}
	return fields
}
