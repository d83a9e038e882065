// internal/common/config/config.go
package config

import (
	"fmt"
	"time"
)

// Config is the root configuration for the worker manager, the API and the
// maintenance tools.
type Config struct {
	App           AppConfig               `mapstructure:"app"`
	Camunda       CamundaConfig           `mapstructure:"camunda"`
	Database      DatabaseConfig          `mapstructure:"database"`
	HTTP          HTTPConfig              `mapstructure:"http"`
	Interview     InterviewConfig         `mapstructure:"interview"`
	Scheduler     SchedulerConfig         `mapstructure:"scheduler"`
	Workers       map[string]WorkerConfig `mapstructure:"workers"`
	Logging       LoggingConfig           `mapstructure:"logging"`
	Notifications NotificationConfig      `mapstructure:"notifications"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type CamundaConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	BrokerAddress  string `mapstructure:"broker_address"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
}

type DatabaseConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the lib/pq connection string.
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// HTTPConfig covers the gin API server.
type HTTPConfig struct {
	Address        string   `mapstructure:"address"`
	CronSecret     string   `mapstructure:"cron_secret"`
	Mode           string   `mapstructure:"mode"` // gin mode: debug, release, test
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// InterviewConfig tunes the video/feedback state machine.
type InterviewConfig struct {
	VideoWindowHours int  `mapstructure:"video_window_hours"`
	SweepLockSeconds int  `mapstructure:"sweep_lock_seconds"`
	SweepBatchSize   int  `mapstructure:"sweep_batch_size"`
	PurgeReviewed    bool `mapstructure:"purge_reviewed"`
}

// VideoWindow is both the submission deadline and the media expiry window.
func (i InterviewConfig) VideoWindow() time.Duration {
	return time.Duration(i.VideoWindowHours) * time.Hour
}

func (i InterviewConfig) SweepLockTTL() time.Duration {
	return time.Duration(i.SweepLockSeconds) * time.Second
}

// SchedulerConfig holds cron expressions (seconds field first). Empty
// disables the job.
type SchedulerConfig struct {
	Enabled         bool   `mapstructure:"enabled"`
	VideoExpiration string `mapstructure:"video_expiration"`
	VideoOverdue    string `mapstructure:"video_overdue"`
	ReviewedPurge   string `mapstructure:"reviewed_purge"`
	OrphanCleanup   string `mapstructure:"orphan_cleanup"`
}

// WorkerConfig holds the settings applicable to every Zeebe worker.
type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"` // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"`
}

// NotificationConfig holds mail and SMS delivery settings.
type NotificationConfig struct {
	Email struct {
		Enabled   bool   `mapstructure:"enabled"`
		FromEmail string `mapstructure:"from_email"`
	} `mapstructure:"email"`
	SMS struct {
		Enabled  bool   `mapstructure:"enabled"`
		SenderID string `mapstructure:"sender_id"`
	} `mapstructure:"sms"`
	AWS struct {
		Region string `mapstructure:"region"`
	} `mapstructure:"aws"`
	PortalURL string `mapstructure:"portal_url"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
