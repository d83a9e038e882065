// internal/workers/interview/notify-overdue/handler_test.go
package notifyoverdue

import (
	"context"
	"testing"
	"time"

	apperrors "interview-workers/internal/common/errors"
	"interview-workers/internal/common/logger"
	"interview-workers/internal/interview"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type MockOverdueNotifier struct {
	NotifyOverdueFunc func(ctx context.Context) (*interview.OverdueResult, error)
}

func (m *MockOverdueNotifier) NotifyOverdue(ctx context.Context) (*interview.OverdueResult, error) {
	return m.NotifyOverdueFunc(ctx)
}

func createTestConfig() *Config {
	return &Config{Timeout: 5 * time.Second}
}

func TestHandler_Execute(t *testing.T) {
	tests := []struct {
		name     string
		result   *interview.OverdueResult
		err      error
		want     *Output
		wantCode apperrors.ErrorCode
	}{
		{
			name:   "notices sent",
			result: &interview.OverdueResult{Scanned: 6, Notified: 2, Skipped: 3, Failed: 1},
			want:   &Output{Scanned: 6, Notified: 2, Skipped: 3, Failed: 1},
		},
		{
			name: "lock held elsewhere",
			err:  apperrors.NewSweepInProgressError("sweep:video-overdue"),
			want: &Output{AlreadyRunning: true},
		},
		{
			name:     "lock backend down",
			err:      apperrors.NewLockFailedError("sweep:video-overdue", assert.AnError),
			wantCode: apperrors.ErrCodeLockFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &MockOverdueNotifier{
				NotifyOverdueFunc: func(context.Context) (*interview.OverdueResult, error) {
					return tt.result, tt.err
				},
			}
			h := NewHandler(createTestConfig(), svc, logger.NewTestLogger(t))

			out, err := h.Execute(context.Background(), &Input{})

			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, apperrors.CodeOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}
}
