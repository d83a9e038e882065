// internal/models/application.go
package models

import "time"

// Application is a vaga_avaliacao row joined with the candidate and the
// vacancy it belongs to.
type Application struct {
	ID          int64     `json:"id"`
	VacancyID   int64     `json:"vacancyId"`
	CandidateID int64     `json:"candidateId"`
	Breakdown   string    `json:"-"`
	UpdatedAt   time.Time `json:"updatedAt"`
	Candidate   Candidate `json:"candidate"`
	Vacancy     Vacancy   `json:"vacancy"`
}

type Candidate struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
}

type Vacancy struct {
	ID          int64  `json:"id"`
	UUID        string `json:"uuid"`
	Title       string `json:"title"`
	CompanyName string `json:"companyName,omitempty"`
}
