// Package notify delivers candidate notifications by email (SES) and,
// optionally, SMS (SNS).
package notify

import (
	"context"
	"fmt"
	"time"

	apperrors "interview-workers/internal/common/errors"
	"interview-workers/internal/common/logger"
	"interview-workers/internal/common/metrics"
	"interview-workers/internal/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	snstypes "github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/google/uuid"
)

// Statuses
const (
	StatusSent     = "sent"
	StatusFailed   = "failed"
	StatusDisabled = "disabled"
)

// Define interfaces for mocking
type SESService interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

type SNSService interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

type Config struct {
	EmailEnabled bool
	SMSEnabled   bool
	FromEmail    string
	SenderID     string
	PortalURL    string
	Timeout      time.Duration
}

// Recipient is who a notification goes to.
type Recipient struct {
	Name  string
	Email string
	Phone string
}

type Dispatcher struct {
	config    Config
	sesClient SESService
	snsClient SNSService
	logger    logger.Logger
	templates map[string]models.NotificationTemplate
}

func NewDispatcher(config Config, sesClient SESService, snsClient SNSService, log logger.Logger) *Dispatcher {
	if config.Timeout <= 0 {
		config.Timeout = 10 * time.Second
	}
	return &Dispatcher{
		config:    config,
		sesClient: sesClient,
		snsClient: snsClient,
		logger:    log.WithFields(map[string]interface{}{"component": "notify"}),
		templates: defaultTemplates(),
	}
}

// Send delivers a plain email and reports whether SES accepted it. It never
// returns an error: delivery problems are logged.
func (d *Dispatcher) Send(ctx context.Context, to, subject, body string) bool {
	if !d.config.EmailEnabled || d.sesClient == nil {
		d.logger.Debug("email disabled, skipping", map[string]interface{}{"to": to})
		return false
	}
	if to == "" {
		return false
	}

	ctx, cancel := context.WithTimeout(ctx, d.config.Timeout)
	defer cancel()

	_, err := d.sesClient.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject)},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(body)},
			},
		},
		Source: aws.String(d.config.FromEmail),
	})
	if err != nil {
		d.logger.Error("email send failed", map[string]interface{}{
			"error": err,
			"to":    to,
		})
		return false
	}
	return true
}

// SendSMS publishes a text message. Same contract as Send.
func (d *Dispatcher) SendSMS(ctx context.Context, to, message string) bool {
	if !d.config.SMSEnabled || d.snsClient == nil || to == "" {
		return false
	}

	ctx, cancel := context.WithTimeout(ctx, d.config.Timeout)
	defer cancel()

	input := &sns.PublishInput{
		PhoneNumber: aws.String(to),
		Message:     aws.String(message),
	}
	if d.config.SenderID != "" {
		input.MessageAttributes = map[string]snstypes.MessageAttributeValue{
			"AWS.SNS.SMS.SenderID": {
				DataType:    aws.String("String"),
				StringValue: aws.String(d.config.SenderID),
			},
		}
	}

	if _, err := d.snsClient.Publish(ctx, input); err != nil {
		d.logger.Error("SMS send failed", map[string]interface{}{
			"error": err,
			"phone": to,
		})
		return false
	}
	return true
}

// Notify renders the template for notificationType and sends it over every
// enabled channel. The returned error is NOTIFICATION_SEND_FAILED when the
// email could not be delivered; a disabled channel is not an error.
func (d *Dispatcher) Notify(ctx context.Context, notificationType string, to Recipient, data map[string]interface{}) ([]models.Notification, error) {
	tmpl, ok := d.templates[notificationType]
	if !ok {
		return nil, apperrors.NewNotificationSendFailedError(notificationType,
			fmt.Errorf("template not found for type: %s", notificationType))
	}

	vars := map[string]interface{}{
		"candidateName": to.Name,
		"portalUrl":     d.config.PortalURL,
	}
	for k, v := range data {
		vars[k] = v
	}

	sentAt := time.Now().UTC().Format(time.RFC3339)
	var sent []models.Notification

	email := models.Notification{
		ID:        uuid.New().String(),
		Type:      notificationType,
		Channel:   "email",
		Recipient: to.Email,
		Status:    StatusDisabled,
		SentAt:    sentAt,
	}
	var sendErr error
	if d.config.EmailEnabled {
		if d.Send(ctx, to.Email, renderTemplate(tmpl.Subject, vars), renderTemplate(tmpl.Body, vars)) {
			email.Status = StatusSent
		} else {
			email.Status = StatusFailed
			metrics.NotificationsFailed.WithLabelValues(notificationType, "email").Inc()
			sendErr = apperrors.NewNotificationSendFailedError(notificationType,
				fmt.Errorf("email to %q was not accepted", to.Email))
		}
	}
	sent = append(sent, email)

	if tmpl.SMS != "" && d.config.SMSEnabled && to.Phone != "" {
		sms := models.Notification{
			ID:        uuid.New().String(),
			Type:      notificationType,
			Channel:   "sms",
			Recipient: to.Phone,
			Status:    StatusSent,
			SentAt:    sentAt,
		}
		if !d.SendSMS(ctx, to.Phone, renderTemplate(tmpl.SMS, vars)) {
			sms.Status = StatusFailed
			metrics.NotificationsFailed.WithLabelValues(notificationType, "sms").Inc()
		}
		sent = append(sent, sms)
	}

	for _, n := range sent {
		metrics.NotificationsSent.WithLabelValues(n.Type, n.Channel, n.Status).Inc()
	}
	return sent, sendErr
}
