package observability

import (
	"context"
	"strings"
	"testing"
	"time"

	"interview-workers/internal/common/logger"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObservability_ExportsToRegistry(t *testing.T) {
	reg := prom.NewRegistry()
	obs := NewWithRegisterer("interview-workers-test", reg, logger.NewTestLogger(t))
	defer obs.Shutdown(context.Background())

	ctx := context.Background()
	obs.RecordJobProcessed(ctx, "video-request", "completed")
	obs.RecordJobDuration(ctx, "video-request", 120*time.Millisecond)
	obs.RecordRequest(ctx, "POST", "/api/applications/feedback", 200, 15*time.Millisecond)

	families, err := reg.Gather()
	require.NoError(t, err)

	var names []string
	for _, f := range families {
		names = append(names, f.GetName())
	}
	joined := strings.Join(names, ",")
	assert.Contains(t, joined, "jobs_processed")
	assert.Contains(t, joined, "jobs_duration")
	assert.Contains(t, joined, "http_server_duration")
}

func TestObservability_NilIsNoOp(t *testing.T) {
	var obs *Observability
	assert.NotPanics(t, func() {
		obs.RecordJobProcessed(context.Background(), "x", "y")
		obs.RecordRequest(context.Background(), "GET", "/", 200, time.Millisecond)
		assert.NoError(t, obs.Shutdown(context.Background()))
	})
}
