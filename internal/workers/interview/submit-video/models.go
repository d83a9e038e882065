// internal/workers/interview/submit-video/models.go
package submitvideo

import (
	"strings"

	"interview-workers/internal/interview"
)

type Input struct {
	ApplicationID int64  `json:"applicationId,omitempty"`
	CandidateID   int64  `json:"candidateId,omitempty"`
	VacancyUUID   string `json:"vacancyUuid,omitempty"`
	URL           string `json:"url"`
	FileID        string `json:"fileId,omitempty"`
}

func (i *Input) Ref() interview.ApplicationRef {
	return interview.ApplicationRef{ID: i.ApplicationID, CandidateID: i.CandidateID, VacancyUUID: i.VacancyUUID}
}

func (i *Input) Media() interview.Media {
	return interview.Media{URL: strings.TrimSpace(i.URL), FileID: strings.TrimSpace(i.FileID)}
}

type Output struct {
	ApplicationID int64  `json:"applicationId"`
	VideoStatus   string `json:"videoStatus"`
	SubmittedAt   string `json:"submittedAt"`
	ExpiresAt     string `json:"expiresAt"`
	Notified      bool   `json:"notified"`
}
