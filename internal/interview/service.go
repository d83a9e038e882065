package interview

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"interview-workers/internal/common/database"
	apperrors "interview-workers/internal/common/errors"
	"interview-workers/internal/common/logger"
	"interview-workers/internal/common/metrics"
	"interview-workers/internal/models"
	"interview-workers/internal/notify"
)

// Sweep names, also used as lock keys and metric labels.
const (
	SweepVideoExpiration = "video-expiration"
	SweepVideoOverdue    = "video-overdue"
	SweepReviewedPurge   = "reviewed-purge"
)

const humanTime = "Jan 2, 2006 15:04 MST"

// Notifier delivers candidate notifications.
type Notifier interface {
	Notify(ctx context.Context, notificationType string, to notify.Recipient, data map[string]interface{}) ([]models.Notification, error)
}

// Locker grants the single-replica lease a sweep runs under.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (*database.Lock, error)
}

type Config struct {
	VideoWindow   time.Duration
	SweepLockTTL  time.Duration
	BatchSize     int
	PurgeReviewed bool
}

type VideoRequestResult struct {
	ApplicationID int64     `json:"applicationId"`
	RequestedAt   time.Time `json:"requestedAt"`
	Deadline      time.Time `json:"deadline"`
	Notified      bool      `json:"notified"`
}

type VideoSubmissionResult struct {
	ApplicationID int64     `json:"applicationId"`
	SubmittedAt   time.Time `json:"submittedAt"`
	ExpiresAt     time.Time `json:"expiresAt"`
	Notified      bool      `json:"notified"`
}

type FeedbackResult struct {
	ApplicationID int64      `json:"applicationId"`
	Decision      Decision   `json:"decision"`
	HasVideo      bool       `json:"hasVideo"`
	MediaPurged   bool       `json:"mediaPurged"`
	ExpiresAt     *time.Time `json:"expiresAt,omitempty"`
	Notified      bool       `json:"notified"`
}

type SweepResult struct {
	Scanned int `json:"scanned"`
	Purged  int `json:"purged"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

type OverdueResult struct {
	Scanned  int `json:"scanned"`
	Notified int `json:"notified"`
	Skipped  int `json:"skipped"`
	Failed   int `json:"failed"`
}

// StateView is the read-only projection served to the UI.
type StateView struct {
	ApplicationID int64     `json:"applicationId"`
	Phase         Phase     `json:"phase"`
	Video         *Video    `json:"video,omitempty"`
	Feedback      *Feedback `json:"feedback,omitempty"`
}

// Service runs every transition inside one transaction holding the
// application's row lock, so concurrent callers serialize instead of
// overwriting each other.
type Service struct {
	repo     *Repository
	notifier Notifier
	locker   Locker
	logger   logger.Logger
	config   Config
	now      func() time.Time
}

func NewService(repo *Repository, notifier Notifier, locker Locker, config Config, log logger.Logger) *Service {
	if config.VideoWindow <= 0 {
		config.VideoWindow = DefaultVideoWindow
	}
	if config.SweepLockTTL <= 0 {
		config.SweepLockTTL = 5 * time.Minute
	}
	if config.BatchSize <= 0 {
		config.BatchSize = 500
	}
	return &Service{
		repo:     repo,
		notifier: notifier,
		locker:   locker,
		logger:   log.WithFields(map[string]interface{}{"component": "interview"}),
		config:   config,
		now:      time.Now,
	}
}

// WithClock replaces the time source.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Window is the configured deadline and retention window.
func (s *Service) Window() time.Duration {
	return s.config.VideoWindow
}

func (s *Service) RequestVideo(ctx context.Context, ref ApplicationRef) (*VideoRequestResult, error) {
	app, b, err := s.transition(ctx, "requestVideo", ref, func(b *Breakdown, now time.Time) (bool, error) {
		return true, b.RequestVideo(now, s.config.VideoWindow)
	})
	if err != nil {
		return nil, err
	}

	res := &VideoRequestResult{
		ApplicationID: app.ID,
		RequestedAt:   *b.Video.RequestedAt,
		Deadline:      *b.Video.Deadline,
	}
	res.Notified = s.notify(ctx, notify.TypeVideoRequest, app, map[string]interface{}{
		"deadline": res.Deadline.Format(humanTime),
	})
	return res, nil
}

func (s *Service) SubmitVideo(ctx context.Context, ref ApplicationRef, media Media) (*VideoSubmissionResult, error) {
	app, b, err := s.transition(ctx, "submitVideo", ref, func(b *Breakdown, now time.Time) (bool, error) {
		return true, b.SubmitVideo(now, s.config.VideoWindow, media)
	})
	if err != nil {
		return nil, err
	}

	res := &VideoSubmissionResult{
		ApplicationID: app.ID,
		SubmittedAt:   *b.Video.SubmittedAt,
		ExpiresAt:     *b.Video.ExpiresAt,
	}
	res.Notified = s.notify(ctx, notify.TypeVideoReceived, app, map[string]interface{}{
		"expiresAt": res.ExpiresAt.Format(humanTime),
	})
	return res, nil
}

func (s *Service) SubmitFeedback(ctx context.Context, ref ApplicationRef, decision, justification string) (*FeedbackResult, error) {
	var outcome FeedbackOutcome
	app, b, err := s.transition(ctx, "submitFeedback", ref, func(b *Breakdown, now time.Time) (bool, error) {
		var err error
		outcome, err = b.SubmitFeedback(now, s.config.VideoWindow, decision, justification)
		return true, err
	})
	if err != nil {
		return nil, err
	}

	res := &FeedbackResult{
		ApplicationID: app.ID,
		Decision:      b.Feedback.Status,
		HasVideo:      outcome.HasVideo,
		MediaPurged:   outcome.MediaPurged,
		ExpiresAt:     outcome.ExpiresAt,
	}

	notificationType := notify.TypeFeedbackRejected
	if res.Decision == DecisionApproved {
		notificationType = notify.TypeFeedbackApproved
	}
	res.Notified = s.notify(ctx, notificationType, app, map[string]interface{}{
		"justification": b.Feedback.Justification,
	})
	return res, nil
}

// State returns the current phase without locking.
func (s *Service) State(ctx context.Context, ref ApplicationRef) (*StateView, error) {
	if err := ref.Validate(); err != nil {
		return nil, err
	}
	app, err := s.repo.Get(ctx, ref)
	if err != nil {
		return nil, err
	}
	b, err := DecodeBreakdown(app.Breakdown)
	if err != nil {
		return nil, apperrors.NewBreakdownCorruptError(app.ID, err)
	}
	return &StateView{
		ApplicationID: app.ID,
		Phase:         b.Phase(),
		Video:         b.Video,
		Feedback:      b.Feedback,
	}, nil
}

// ExpireSweep purges the media of every unreviewed submission past its
// expiry. Per-row failures are counted and the sweep moves on.
func (s *Service) ExpireSweep(ctx context.Context) (*SweepResult, error) {
	c, err := s.sweep(ctx, SweepVideoExpiration,
		[]string{`%"video"%`, `%"submitted"%`}, []string{`%"feedback"%`},
		func(b *Breakdown, now time.Time) bool { return b.Expire(now) }, nil)
	if err != nil {
		return nil, err
	}
	return &SweepResult{Scanned: c.scanned, Purged: c.changed, Skipped: c.skipped, Failed: c.failed}, nil
}

// PurgeReviewedMedia drops media of reviewed applications whose review
// window is over. It does nothing unless enabled in config.
func (s *Service) PurgeReviewedMedia(ctx context.Context) (*SweepResult, error) {
	if !s.config.PurgeReviewed {
		s.logger.Debug("reviewed media purge disabled", nil)
		return &SweepResult{}, nil
	}
	c, err := s.sweep(ctx, SweepReviewedPurge,
		[]string{`%"submitted"%`, `%"feedback"%`}, nil,
		func(b *Breakdown, now time.Time) bool { return b.PurgeReviewed(now) }, nil)
	if err != nil {
		return nil, err
	}
	return &SweepResult{Scanned: c.scanned, Purged: c.changed, Skipped: c.skipped, Failed: c.failed}, nil
}

// NotifyOverdue tells candidates whose request deadline passed without a
// submission. Each request is notified at most once.
func (s *Service) NotifyOverdue(ctx context.Context) (*OverdueResult, error) {
	c, err := s.sweep(ctx, SweepVideoOverdue,
		[]string{`%"requested"%`}, []string{`%"feedback"%`, `%"overdueNotifiedAt"%`},
		func(b *Breakdown, now time.Time) bool {
			if b.Feedback != nil || !b.Overdue(now) || b.OverdueNotified() {
				return false
			}
			b.MarkOverdueNotified(now)
			return true
		},
		func(ctx context.Context, app *models.Application, b *Breakdown) bool {
			return s.notify(ctx, notify.TypeVideoOverdue, app, map[string]interface{}{
				"deadline": b.Video.Deadline.Format(humanTime),
			})
		})
	if err != nil {
		return nil, err
	}
	return &OverdueResult{Scanned: c.scanned, Notified: c.changed - c.afterFailed, Skipped: c.skipped, Failed: c.failed + c.afterFailed}, nil
}

type sweepCounts struct {
	scanned     int
	changed     int
	skipped     int
	failed      int
	afterFailed int
}

func (s *Service) sweep(
	ctx context.Context,
	name string,
	patterns, exclude []string,
	apply func(b *Breakdown, now time.Time) bool,
	afterCommit func(ctx context.Context, app *models.Application, b *Breakdown) bool,
) (*sweepCounts, error) {
	lock, err := s.locker.TryLock(ctx, "sweep:"+name, s.config.SweepLockTTL)
	if errors.Is(err, database.ErrLockHeld) {
		return nil, apperrors.NewSweepInProgressError(name)
	}
	if err != nil {
		return nil, apperrors.NewLockFailedError(name, err)
	}
	defer func() {
		if err := lock.Release(context.WithoutCancel(ctx)); err != nil {
			s.logger.Warn("failed to release sweep lock", map[string]interface{}{"sweep": name, "error": err})
		}
	}()

	start := time.Now()
	defer func() {
		metrics.SweepDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
	}()

	counts := &sweepCounts{}
	var afterID int64
	for {
		ids, err := s.repo.ListCandidates(ctx, patterns, exclude, afterID, s.config.BatchSize)
		if err != nil {
			return nil, err
		}

		for _, id := range ids {
			if err := ctx.Err(); err != nil {
				return nil, apperrors.NewQueryTimeoutError(name, err)
			}
			counts.scanned++

			var changed bool
			app, b, err := s.transition(ctx, name, ApplicationRef{ID: id}, func(b *Breakdown, now time.Time) (bool, error) {
				changed = apply(b, now)
				return changed, nil
			})
			switch {
			case err != nil:
				counts.failed++
				metrics.SweepRows.WithLabelValues(name, "failed").Inc()
				s.logger.Error("sweep row failed", map[string]interface{}{
					"sweep":         name,
					"applicationId": id,
					"error":         err,
				})
			case changed:
				counts.changed++
				metrics.SweepRows.WithLabelValues(name, "changed").Inc()
				if afterCommit != nil && !afterCommit(ctx, app, b) {
					counts.afterFailed++
				}
			default:
				counts.skipped++
				metrics.SweepRows.WithLabelValues(name, "skipped").Inc()
			}
		}

		if len(ids) < s.config.BatchSize {
			break
		}
		afterID = ids[len(ids)-1]
	}

	s.logger.Info("sweep finished", map[string]interface{}{
		"sweep":   name,
		"scanned": counts.scanned,
		"changed": counts.changed,
		"skipped": counts.skipped,
		"failed":  counts.failed,
	})
	return counts, nil
}

// transition loads and locks the row, applies fn and persists the result
// when fn reports a change, all in one transaction.
func (s *Service) transition(
	ctx context.Context,
	op string,
	ref ApplicationRef,
	fn func(b *Breakdown, now time.Time) (bool, error),
) (*models.Application, *Breakdown, error) {
	if err := ref.Validate(); err != nil {
		metrics.InterviewTransitions.WithLabelValues(op, string(apperrors.ErrCodeValidationFailed)).Inc()
		return nil, nil, err
	}

	var (
		app *models.Application
		b   *Breakdown
	)
	err := database.InTx(ctx, s.repo.DB(), nil, func(tx *sql.Tx) error {
		locked, err := s.repo.Lock(ctx, tx, ref)
		if err != nil {
			return err
		}
		app = locked

		decoded, err := DecodeBreakdown(locked.Breakdown)
		if err != nil {
			return apperrors.NewBreakdownCorruptError(locked.ID, err)
		}

		now := s.now()
		changed, err := fn(decoded, now)
		if err != nil {
			return err
		}
		b = decoded
		if !changed {
			return nil
		}

		encoded, err := decoded.Encode()
		if err != nil {
			return apperrors.NewInternalError(err)
		}
		return s.repo.SaveBreakdown(ctx, tx, locked.ID, encoded, now.UTC())
	})
	if err != nil {
		stdErr := apperrors.Normalize(err)
		if app != nil {
			stdErr.WithMetadata("applicationId", app.ID)
		}
		metrics.InterviewTransitions.WithLabelValues(op, string(stdErr.Code)).Inc()
		return nil, nil, stdErr
	}

	metrics.InterviewTransitions.WithLabelValues(op, "ok").Inc()
	return app, b, nil
}

func (s *Service) notify(ctx context.Context, notificationType string, app *models.Application, data map[string]interface{}) bool {
	if s.notifier == nil {
		return false
	}

	data["vacancyTitle"] = app.Vacancy.Title
	data["companyName"] = app.Vacancy.CompanyName
	data["applicationId"] = app.ID

	to := notify.Recipient{
		Name:  app.Candidate.Name,
		Email: app.Candidate.Email,
		Phone: app.Candidate.Phone,
	}
	records, err := s.notifier.Notify(ctx, notificationType, to, data)
	if err != nil {
		s.logger.Warn("notification failed, state change kept", map[string]interface{}{
			"applicationId": app.ID,
			"type":          notificationType,
			"error":         err,
		})
		return false
	}

	// Only a delivered message counts; disabled channels leave records too.
	for _, r := range records {
		if r.Status == notify.StatusSent {
			return true
		}
	}
	s.logger.Debug("no notification channel delivered", map[string]interface{}{
		"applicationId": app.ID,
		"type":          notificationType,
	})
	return false
}
