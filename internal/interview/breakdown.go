package interview

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const (
	keyVideo    = "video"
	keyFeedback = "feedback"
)

// VideoStatus is the persisted value of video.status.
type VideoStatus string

const (
	VideoRequested VideoStatus = "requested"
	VideoSubmitted VideoStatus = "submitted"
	// VideoRemoved means the candidate submitted but the media reference has
	// been purged. Older rows encode this as submitted + videoRemoved.
	VideoRemoved VideoStatus = "removed"
)

// Decision is the company's verdict on an application.
type Decision string

const (
	DecisionApproved Decision = "APPROVED"
	DecisionRejected Decision = "REJECTED"
)

// ParseDecision accepts the decision case-insensitively.
func ParseDecision(s string) (Decision, bool) {
	switch Decision(strings.ToUpper(strings.TrimSpace(s))) {
	case DecisionApproved:
		return DecisionApproved, true
	case DecisionRejected:
		return DecisionRejected, true
	}
	return "", false
}

// Video is the video sub-document of a breakdown.
type Video struct {
	Status            VideoStatus `json:"status"`
	RequestedAt       *time.Time  `json:"requestedAt,omitempty"`
	Deadline          *time.Time  `json:"deadline,omitempty"`
	SubmittedAt       *time.Time  `json:"submittedAt,omitempty"`
	ExpiresAt         *time.Time  `json:"expiresAt,omitempty"`
	URL               *string     `json:"url"`
	FileID            *string     `json:"fileId"`
	VideoRemoved      bool        `json:"videoRemoved,omitempty"`
	RemovedAt         *time.Time  `json:"removedAt,omitempty"`
	OverdueNotifiedAt *time.Time  `json:"overdueNotifiedAt,omitempty"`
}

// Feedback is the feedback sub-document of a breakdown.
type Feedback struct {
	Status        Decision  `json:"status"`
	Justification string    `json:"justification"`
	SentAt        time.Time `json:"sentAt"`
}

// Breakdown is the decoded breakdown column. Keys other than video and
// feedback (AI scoring output) are carried through untouched.
type Breakdown struct {
	Video    *Video
	Feedback *Feedback
	extra    map[string]json.RawMessage
}

// Extra returns the raw value of a non state-machine key.
func (b *Breakdown) Extra(key string) (json.RawMessage, bool) {
	raw, ok := b.extra[key]
	return raw, ok
}

// DecodeBreakdown parses the column. Blank or JSON null yields an empty
// document; anything malformed is an error so callers never overwrite a
// document they could not read.
func DecodeBreakdown(raw string) (*Breakdown, error) {
	b := &Breakdown{extra: map[string]json.RawMessage{}}

	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || trimmed == "null" {
		return b, nil
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal([]byte(trimmed), &doc); err != nil {
		return nil, fmt.Errorf("breakdown is not a JSON object: %w", err)
	}

	for key, value := range doc {
		switch key {
		case keyVideo:
			if isNull(value) {
				continue
			}
			v, err := decodeVideo(value)
			if err != nil {
				return nil, err
			}
			b.Video = v
		case keyFeedback:
			if isNull(value) {
				continue
			}
			f, err := decodeFeedback(value)
			if err != nil {
				return nil, err
			}
			b.Feedback = f
		default:
			b.extra[key] = value
		}
	}
	return b, nil
}

func decodeVideo(raw json.RawMessage) (*Video, error) {
	if err := validateVideoDocument(raw); err != nil {
		return nil, err
	}
	var v Video
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("decode video: %w", err)
	}
	if v.Status == VideoSubmitted && v.VideoRemoved {
		v.Status = VideoRemoved
	}
	if v.Status == VideoRemoved {
		v.VideoRemoved = true
	}
	return &v, nil
}

func decodeFeedback(raw json.RawMessage) (*Feedback, error) {
	if err := validateFeedbackDocument(raw); err != nil {
		return nil, err
	}
	var f Feedback
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("decode feedback: %w", err)
	}
	return &f, nil
}

// Encode serializes the document back to the column format.
func (b *Breakdown) Encode() (string, error) {
	doc := make(map[string]interface{}, len(b.extra)+2)
	for k, v := range b.extra {
		doc[k] = v
	}
	if b.Video != nil {
		doc[keyVideo] = b.Video
	}
	if b.Feedback != nil {
		doc[keyFeedback] = b.Feedback
	}

	out, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("encode breakdown: %w", err)
	}
	return string(out), nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
