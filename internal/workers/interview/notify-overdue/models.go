// internal/workers/interview/notify-overdue/models.go
package notifyoverdue

type Input struct{}

type Output struct {
	Scanned        int  `json:"scanned"`
	Notified       int  `json:"notified"`
	Skipped        int  `json:"skipped"`
	Failed         int  `json:"failed"`
	AlreadyRunning bool `json:"alreadyRunning"`
}
