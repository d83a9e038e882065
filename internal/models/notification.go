// internal/models/notification.go
package models

type Notification struct {
	ID        string `json:"id"`
	Type      string `json:"type"`    // "video_request", "feedback_approved", ...
	Channel   string `json:"channel"` // "email", "sms"
	Recipient string `json:"recipient"`
	Status    string `json:"status"` // "sent", "failed", "disabled"
	SentAt    string `json:"sentAt"`
}

type NotificationTemplate struct {
	Type    string `json:"type"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
	SMS     string `json:"sms,omitempty"`
}
