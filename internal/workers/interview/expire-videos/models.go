// internal/workers/interview/expire-videos/models.go
package expirevideos

type Input struct {
	IncludeReviewed *bool `json:"includeReviewed,omitempty"`
}

type Output struct {
	Scanned        int  `json:"scanned"`
	Purged         int  `json:"purged"`
	Skipped        int  `json:"skipped"`
	Failed         int  `json:"failed"`
	ReviewedPurged int  `json:"reviewedPurged"`
	AlreadyRunning bool `json:"alreadyRunning"`
}
