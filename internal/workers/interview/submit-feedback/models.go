// internal/workers/interview/submit-feedback/models.go
package submitfeedback

import "interview-workers/internal/interview"

type Input struct {
	ApplicationID int64  `json:"applicationId,omitempty"`
	CandidateID   int64  `json:"candidateId,omitempty"`
	VacancyUUID   string `json:"vacancyUuid,omitempty"`
	Status        string `json:"status"` // APPROVED or REJECTED, any case
	Justification string `json:"justification"`
}

func (i *Input) Ref() interview.ApplicationRef {
	return interview.ApplicationRef{ID: i.ApplicationID, CandidateID: i.CandidateID, VacancyUUID: i.VacancyUUID}
}

type Output struct {
	ApplicationID  int64  `json:"applicationId"`
	FeedbackStatus string `json:"feedbackStatus"`
	HasVideo       bool   `json:"hasVideo"`
	MediaPurged    bool   `json:"mediaPurged"`
	ExpiresAt      string `json:"expiresAt,omitempty"`
	Notified       bool   `json:"notified"`
}
