// Package interview owns the per-application video interview and feedback
// lifecycle stored in the breakdown column of vaga_avaliacao.
package interview

import (
	"strings"
	"time"

	apperrors "interview-workers/internal/common/errors"
	"interview-workers/internal/common/validation"
)

// DefaultVideoWindow is used for both the submission deadline and the
// media retention window.
const DefaultVideoWindow = 7 * 24 * time.Hour

// Phase is the state derived from the video and feedback sub-documents.
type Phase string

const (
	PhaseNone            Phase = "NONE"
	PhaseRequested       Phase = "REQUESTED"
	PhaseSubmitted       Phase = "SUBMITTED"
	PhaseExpired         Phase = "EXPIRED"
	PhaseReviewedKept    Phase = "REVIEWED_KEPT"
	PhaseReviewedPurged  Phase = "REVIEWED_PURGED"
	PhaseReviewedNoMedia Phase = "REVIEWED_NO_MEDIA"
)

// Media is the uploaded video reference.
type Media struct {
	URL    string
	FileID string
}

// FeedbackOutcome describes what SubmitFeedback did to the media.
type FeedbackOutcome struct {
	HasVideo    bool
	MediaPurged bool
	ExpiresAt   *time.Time
}

// Phase derives the current phase.
func (b *Breakdown) Phase() Phase {
	if b.Feedback != nil {
		if b.Video == nil {
			return PhaseReviewedNoMedia
		}
		switch b.Video.Status {
		case VideoSubmitted:
			return PhaseReviewedKept
		case VideoRemoved:
			return PhaseReviewedPurged
		default:
			return PhaseReviewedNoMedia
		}
	}

	if b.Video == nil {
		return PhaseNone
	}
	switch b.Video.Status {
	case VideoRequested:
		return PhaseRequested
	case VideoSubmitted:
		return PhaseSubmitted
	case VideoRemoved:
		return PhaseExpired
	}
	return PhaseNone
}

// RequestVideo opens a new submission window. A request whose deadline has
// already passed may be reissued.
func (b *Breakdown) RequestVideo(now time.Time, window time.Duration) error {
	if b.Feedback != nil {
		return apperrors.NewAlreadyFeedbackedError(b.Feedback.SentAt)
	}

	now = stamp(now)
	switch b.Phase() {
	case PhaseNone:
	case PhaseRequested:
		if !now.After(*b.Video.Deadline) {
			return apperrors.NewVideoAlreadyRequestedError("deadline: " + b.Video.Deadline.Format(time.RFC3339))
		}
	default:
		return apperrors.NewVideoAlreadyRequestedError("state: " + string(b.Phase()))
	}

	deadline := now.Add(window)
	b.Video = &Video{
		Status:      VideoRequested,
		RequestedAt: &now,
		Deadline:    &deadline,
	}
	return nil
}

// SubmitVideo records the candidate's upload.
func (b *Breakdown) SubmitVideo(now time.Time, window time.Duration, media Media) error {
	if b.Feedback != nil {
		return apperrors.NewAlreadyFeedbackedError(b.Feedback.SentAt)
	}
	if phase := b.Phase(); phase != PhaseRequested {
		return apperrors.NewInvalidTransitionError(string(phase), "submitVideo")
	}

	now = stamp(now)
	if now.After(*b.Video.Deadline) {
		return apperrors.NewVideoDeadlinePassedError(*b.Video.Deadline)
	}

	url := strings.TrimSpace(media.URL)
	if url == "" {
		return apperrors.NewValidationError("url is required")
	}
	if !validation.ValidateURL(url) {
		return apperrors.NewValidationError("url must be an http(s) URL")
	}

	expiresAt := now.Add(window)
	b.Video.Status = VideoSubmitted
	b.Video.SubmittedAt = &now
	b.Video.ExpiresAt = &expiresAt
	b.Video.URL = &url
	if fileID := strings.TrimSpace(media.FileID); fileID != "" {
		b.Video.FileID = &fileID
	}
	b.Video.OverdueNotifiedAt = nil
	return nil
}

// Expire purges the media of an unreviewed submission past its expiry.
// It reports whether anything changed; calling it again is a no-op.
func (b *Breakdown) Expire(now time.Time) bool {
	if b.Phase() != PhaseSubmitted {
		return false
	}
	now = stamp(now)
	if !now.After(*b.Video.ExpiresAt) {
		return false
	}
	b.purge(now)
	return true
}

// SubmitFeedback records the company's decision. A submission still inside
// its window gets a fresh window for review, an expired one is purged.
func (b *Breakdown) SubmitFeedback(now time.Time, window time.Duration, decision, justification string) (FeedbackOutcome, error) {
	d, ok := ParseDecision(decision)
	if !ok {
		return FeedbackOutcome{}, apperrors.NewInvalidDecisionError(decision)
	}
	justification = strings.TrimSpace(justification)
	if justification == "" {
		return FeedbackOutcome{}, apperrors.NewValidationError("justification is required")
	}
	if b.Feedback != nil {
		return FeedbackOutcome{}, apperrors.NewAlreadyFeedbackedError(b.Feedback.SentAt)
	}

	now = stamp(now)
	var out FeedbackOutcome
	switch b.Phase() {
	case PhaseSubmitted:
		out.HasVideo = true
		if now.After(*b.Video.ExpiresAt) {
			b.purge(now)
			out.MediaPurged = true
		} else {
			extended := now.Add(window)
			b.Video.ExpiresAt = &extended
			out.ExpiresAt = &extended
		}
	case PhaseExpired:
		out.HasVideo = true
		out.MediaPurged = true
	}

	b.Feedback = &Feedback{
		Status:        d,
		Justification: justification,
		SentAt:        now,
	}
	return out, nil
}

// Overdue reports a request whose deadline passed without a submission.
func (b *Breakdown) Overdue(now time.Time) bool {
	return b.Phase() == PhaseRequested && now.After(*b.Video.Deadline)
}

// OverdueNotified reports whether the overdue notice already went out for
// the current request.
func (b *Breakdown) OverdueNotified() bool {
	return b.Video != nil && b.Video.OverdueNotifiedAt != nil
}

// MarkOverdueNotified stamps the current request so the overdue notice is
// sent once.
func (b *Breakdown) MarkOverdueNotified(now time.Time) {
	if b.Phase() != PhaseRequested {
		return
	}
	now = stamp(now)
	b.Video.OverdueNotifiedAt = &now
}

// PurgeReviewed drops the media of a reviewed submission once its review
// window is over.
func (b *Breakdown) PurgeReviewed(now time.Time) bool {
	if b.Phase() != PhaseReviewedKept {
		return false
	}
	now = stamp(now)
	if !now.After(*b.Video.ExpiresAt) {
		return false
	}
	b.purge(now)
	return true
}

func (b *Breakdown) purge(now time.Time) {
	b.Video.Status = VideoRemoved
	b.Video.URL = nil
	b.Video.FileID = nil
	b.Video.VideoRemoved = true
	b.Video.RemovedAt = &now
}

// stamp normalizes times to what survives a round trip through the column.
func stamp(t time.Time) time.Time {
	return t.UTC().Truncate(time.Millisecond)
}
