package notify

import (
	"fmt"
	"regexp"

	"interview-workers/internal/models"
)

// Notification types
const (
	TypeVideoRequest     = "video_request"
	TypeVideoReceived    = "video_received"
	TypeFeedbackApproved = "feedback_approved"
	TypeFeedbackRejected = "feedback_rejected"
	TypeVideoOverdue     = "video_overdue"
)

func defaultTemplates() map[string]models.NotificationTemplate {
	return map[string]models.NotificationTemplate{
		TypeVideoRequest: {
			Type:    TypeVideoRequest,
			Subject: "Video interview requested: {{vacancyTitle}}",
			Body: "Hello {{candidateName}},\n\n" +
				"{{companyName}} would like to get to know you better for the position {{vacancyTitle}}. " +
				"Please record and upload a short presentation video before {{deadline}}.\n\n" +
				"Upload it here: {{portalUrl}}",
			SMS: "{{companyName}} requested a video for {{vacancyTitle}}. Deadline: {{deadline}}. {{portalUrl}}",
		},
		TypeVideoReceived: {
			Type:    TypeVideoReceived,
			Subject: "We received your video for {{vacancyTitle}}",
			Body: "Hello {{candidateName}},\n\n" +
				"Your video for {{vacancyTitle}} was received and will be reviewed by {{companyName}}. " +
				"It stays available until {{expiresAt}}.",
		},
		TypeFeedbackApproved: {
			Type:    TypeFeedbackApproved,
			Subject: "Good news about {{vacancyTitle}}",
			Body: "Hello {{candidateName}},\n\n" +
				"{{companyName}} approved your application for {{vacancyTitle}}.\n\n" +
				"Comments: {{justification}}",
		},
		TypeFeedbackRejected: {
			Type:    TypeFeedbackRejected,
			Subject: "Update on your application for {{vacancyTitle}}",
			Body: "Hello {{candidateName}},\n\n" +
				"{{companyName}} decided not to move forward with your application for {{vacancyTitle}}.\n\n" +
				"Comments: {{justification}}",
		},
		TypeVideoOverdue: {
			Type:    TypeVideoOverdue,
			Subject: "Your video for {{vacancyTitle}} was not submitted",
			Body: "Hello {{candidateName}},\n\n" +
				"The deadline to send your video for {{vacancyTitle}} ended on {{deadline}} and we did not receive it. " +
				"Contact {{companyName}} if you are still interested.",
		},
	}
}

var placeholderPattern = regexp.MustCompile(`\{\{(\w+)\}\}`)

// renderTemplate substitutes {{key}} placeholders in a single pass over the
// template; unknown keys render empty. Substituted values are not rescanned.
func renderTemplate(tmpl string, data map[string]interface{}) string {
	return placeholderPattern.ReplaceAllStringFunc(tmpl, func(match string) string {
		key := match[2 : len(match)-2]
		switch v := data[key].(type) {
		case nil:
			return ""
		case string:
			return v
		default:
			return fmt.Sprintf("%v", v)
		}
	})
}
