// internal/workers/maintenance/orphan-cleanup/config.go
package orphancleanup

import (
	"time"

	"interview-workers/internal/common/config"
	"interview-workers/internal/workers/jobs"
)

type Config struct {
	Timeout time.Duration
}

func LoadConfig(wcfg config.WorkerConfig) *Config {
	return &Config{
		Timeout: jobs.Timeout(TaskType, wcfg),
	}
}
