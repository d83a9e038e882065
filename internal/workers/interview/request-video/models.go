// internal/workers/interview/request-video/models.go
package requestvideo

import "interview-workers/internal/interview"

type Input struct {
	ApplicationID int64  `json:"applicationId,omitempty"`
	CandidateID   int64  `json:"candidateId,omitempty"`
	VacancyUUID   string `json:"vacancyUuid,omitempty"`
}

func (i *Input) Ref() interview.ApplicationRef {
	return interview.ApplicationRef{ID: i.ApplicationID, CandidateID: i.CandidateID, VacancyUUID: i.VacancyUUID}
}

type Output struct {
	ApplicationID int64  `json:"applicationId"`
	VideoStatus   string `json:"videoStatus"`
	RequestedAt   string `json:"requestedAt"` // ISO 8601
	Deadline      string `json:"deadline"`    // ISO 8601
	Notified      bool   `json:"notified"`
}
