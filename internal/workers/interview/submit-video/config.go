// internal/workers/interview/submit-video/config.go
package submitvideo

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
