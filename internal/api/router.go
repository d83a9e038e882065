// Package api serves the interview transitions, the cron sweep endpoints
// and the health/metrics probes over gin.
package api

import (
	"context"
	"net/http"
	"time"

	"interview-workers/internal/common/logger"
	"interview-workers/internal/common/observability"
	"interview-workers/internal/interview"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// InterviewService is the slice of interview.Service the HTTP layer uses.
type InterviewService interface {
	RequestVideo(ctx context.Context, ref interview.ApplicationRef) (*interview.VideoRequestResult, error)
	SubmitVideo(ctx context.Context, ref interview.ApplicationRef, media interview.Media) (*interview.VideoSubmissionResult, error)
	SubmitFeedback(ctx context.Context, ref interview.ApplicationRef, decision, justification string) (*interview.FeedbackResult, error)
	State(ctx context.Context, ref interview.ApplicationRef) (*interview.StateView, error)
	ExpireSweep(ctx context.Context) (*interview.SweepResult, error)
	PurgeReviewedMedia(ctx context.Context) (*interview.SweepResult, error)
	NotifyOverdue(ctx context.Context) (*interview.OverdueResult, error)
}

// Publisher forwards interview events to the workflow engine. Optional.
type Publisher interface {
	PublishMessage(ctx context.Context, name, correlationKey string, vars map[string]interface{}) error
}

// Check is a named readiness probe.
type Check struct {
	Name string
	Fn   func(ctx context.Context) error
}

type Options struct {
	Mode           string
	CronSecret     string
	AllowedOrigins []string
	RequestTimeout time.Duration
	Checks         []Check
	Publisher      Publisher
}

func NewRouter(svc InterviewService, opts Options, obs *observability.Observability, log logger.Logger) *gin.Engine {
	if opts.Mode != "" {
		gin.SetMode(opts.Mode)
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 30 * time.Second
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger(log, obs))

	if len(opts.AllowedOrigins) > 0 {
		corsCfg := cors.DefaultConfig()
		corsCfg.AllowOrigins = opts.AllowedOrigins
		corsCfg.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
		r.Use(cors.New(corsCfg))
	}

	h := &interviewHandler{
		service:   svc,
		publisher: opts.Publisher,
		timeout:   opts.RequestTimeout,
		logger:    log.WithFields(map[string]interface{}{"component": "api"}),
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", readyHandler(opts.Checks))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	apps := r.Group("/api/applications")
	{
		apps.POST("/video-request", h.requestVideo)
		apps.POST("/video-submission", h.submitVideo)
		apps.POST("/feedback", h.submitFeedback)
		apps.GET("/:id/video", h.videoState)
	}

	cron := r.Group("/api/cron", cronAuth(opts.CronSecret))
	{
		cron.GET("/video-expiration", h.expireVideos)
		cron.POST("/video-expiration", h.expireVideos)
		cron.GET("/video-overdue", h.notifyOverdue)
		cron.POST("/video-overdue", h.notifyOverdue)
	}

	return r
}

func readyHandler(checks []Check) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		failed := gin.H{}
		for _, check := range checks {
			if err := check.Fn(ctx); err != nil {
				failed[check.Name] = err.Error()
			}
		}
		if len(failed) > 0 {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready", "checks": failed})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	}
}
