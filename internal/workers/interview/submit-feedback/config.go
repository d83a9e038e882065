// internal/workers/interview/submit-feedback/config.go
package submitfeedback

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
