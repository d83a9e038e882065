package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	apperrors "interview-workers/internal/common/errors"
	"interview-workers/internal/common/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheduler_AddAndRunNow(t *testing.T) {
	s := New(logger.NewTestLogger(t), nil, time.Second)

	var calls int32
	require.NoError(t, s.Add(Task{
		Name:     "video-expiration",
		Schedule: "0 */15 * * * *",
		Run: func(ctx context.Context) error {
			_, hasDeadline := ctx.Deadline()
			assert.True(t, hasDeadline)
			atomic.AddInt32(&calls, 1)
			return nil
		},
	}))
	require.NoError(t, s.Add(Task{Name: "orphan-cleanup", Run: func(context.Context) error { return nil }}))

	assert.Equal(t, []string{"orphan-cleanup", "video-expiration"}, s.Tasks())
	assert.NoError(t, s.RunNow("video-expiration"))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestScheduler_Add_Errors(t *testing.T) {
	s := New(logger.NewTestLogger(t), nil, time.Second)
	noop := func(context.Context) error { return nil }

	assert.Error(t, s.Add(Task{Name: "bad", Schedule: "every now and then", Run: noop}))

	require.NoError(t, s.Add(Task{Name: "dup", Run: noop}))
	assert.Error(t, s.Add(Task{Name: "dup", Run: noop}))

	assert.Error(t, s.RunNow("missing"))
}

func TestScheduler_RunNow_Outcomes(t *testing.T) {
	s := New(logger.NewTestLogger(t), nil, time.Second)

	require.NoError(t, s.Add(Task{Name: "held", Run: func(context.Context) error {
		return apperrors.NewSweepInProgressError("sweep:video-overdue")
	}}))
	require.NoError(t, s.Add(Task{Name: "broken", Run: func(context.Context) error {
		return errors.New("connection refused")
	}}))

	assert.NoError(t, s.RunNow("held"))
	assert.Error(t, s.RunNow("broken"))
}

func TestScheduler_FiresOnSchedule(t *testing.T) {
	s := New(logger.NewTestLogger(t), nil, time.Second)

	fired := make(chan struct{}, 1)
	require.NoError(t, s.Add(Task{
		Name:     "tick",
		Schedule: "* * * * * *",
		Run: func(context.Context) error {
			select {
			case fired <- struct{}{}:
			default:
			}
			return nil
		},
	}))

	s.Start()
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		s.Stop(ctx)
	}()

	select {
	case <-fired:
	case <-time.After(3 * time.Second):
		t.Fatal("task did not fire")
	}
}
