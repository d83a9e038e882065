// internal/workers/interview/expire-videos/config.go
package expirevideos

import (
	"time"

	"interview-workers/internal/common/config"
	"interview-workers/internal/workers/jobs"
)

type Config struct {
	Timeout time.Duration
	// IncludeReviewed also runs the reviewed-media purge after the expiry
	// sweep unless the job variables say otherwise.
	IncludeReviewed bool
}

func LoadConfig(wcfg config.WorkerConfig) *Config {
	return &Config{
		Timeout:         jobs.Timeout(TaskType, wcfg),
		IncludeReviewed: true,
	}
}
