package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	apperrors "interview-workers/internal/common/errors"
	"interview-workers/internal/common/logger"

	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Mock Implementations
// ==========================

type MockSESService struct {
	SendEmailFunc func(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
	calls         []*ses.SendEmailInput
}

func (m *MockSESService) SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	m.calls = append(m.calls, params)
	if m.SendEmailFunc == nil {
		return &ses.SendEmailOutput{}, nil
	}
	return m.SendEmailFunc(ctx, params, optFns...)
}

type MockSNSService struct {
	PublishFunc func(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
	calls       []*sns.PublishInput
}

func (m *MockSNSService) Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
	m.calls = append(m.calls, params)
	if m.PublishFunc == nil {
		return &sns.PublishOutput{}, nil
	}
	return m.PublishFunc(ctx, params, optFns...)
}

// ==========================
// Test Helper Functions
// ==========================

func createTestConfig() Config {
	return Config{
		EmailEnabled: true,
		SMSEnabled:   true,
		FromEmail:    "vagas@example.com",
		SenderID:     "VAGAS",
		PortalURL:    "https://portal.example.com",
		Timeout:      5 * time.Second,
	}
}

func testRecipient() Recipient {
	return Recipient{Name: "Maria Silva", Email: "maria@example.com", Phone: "+5511999990000"}
}

func testData() map[string]interface{} {
	return map[string]interface{}{
		"vacancyTitle": "Backend Engineer",
		"companyName":  "Acme",
		"deadline":     "2025-03-08T10:00:00Z",
	}
}

// ==========================
// Core Functionality Tests
// ==========================

func TestDispatcher_Send(t *testing.T) {
	sesMock := &MockSESService{}
	d := NewDispatcher(createTestConfig(), sesMock, nil, logger.NewTestLogger(t))

	ok := d.Send(context.Background(), "maria@example.com", "subject", "body")

	assert.True(t, ok)
	require.Len(t, sesMock.calls, 1)
	assert.Equal(t, []string{"maria@example.com"}, sesMock.calls[0].Destination.ToAddresses)
	assert.Equal(t, "vagas@example.com", *sesMock.calls[0].Source)
	assert.Equal(t, "subject", *sesMock.calls[0].Message.Subject.Data)
}

func TestDispatcher_Send_ReportsFailureAsFalse(t *testing.T) {
	sesMock := &MockSESService{
		SendEmailFunc: func(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
			return nil, errors.New("throttled")
		},
	}
	d := NewDispatcher(createTestConfig(), sesMock, nil, logger.NewTestLogger(t))

	assert.False(t, d.Send(context.Background(), "maria@example.com", "subject", "body"))
}

func TestDispatcher_Send_Disabled(t *testing.T) {
	cfg := createTestConfig()
	cfg.EmailEnabled = false
	sesMock := &MockSESService{}
	d := NewDispatcher(cfg, sesMock, nil, logger.NewTestLogger(t))

	assert.False(t, d.Send(context.Background(), "maria@example.com", "subject", "body"))
	assert.Empty(t, sesMock.calls)
}

func TestDispatcher_Notify(t *testing.T) {
	tests := []struct {
		name         string
		notifyType   string
		smsEnabled   bool
		sesErr       error
		wantChannels []string
		wantStatus   string
		wantErr      bool
	}{
		{
			name:         "video request goes by email and sms",
			notifyType:   TypeVideoRequest,
			smsEnabled:   true,
			wantChannels: []string{"email", "sms"},
			wantStatus:   StatusSent,
		},
		{
			name:         "sms disabled",
			notifyType:   TypeVideoRequest,
			wantChannels: []string{"email"},
			wantStatus:   StatusSent,
		},
		{
			name:         "feedback has no sms template",
			notifyType:   TypeFeedbackApproved,
			smsEnabled:   true,
			wantChannels: []string{"email"},
			wantStatus:   StatusSent,
		},
		{
			name:         "email failure is reported",
			notifyType:   TypeFeedbackRejected,
			sesErr:       errors.New("message rejected"),
			wantChannels: []string{"email"},
			wantStatus:   StatusFailed,
			wantErr:      true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := createTestConfig()
			cfg.SMSEnabled = tt.smsEnabled
			sesMock := &MockSESService{
				SendEmailFunc: func(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
					return &ses.SendEmailOutput{}, tt.sesErr
				},
			}
			snsMock := &MockSNSService{}
			d := NewDispatcher(cfg, sesMock, snsMock, logger.NewTestLogger(t))

			sent, err := d.Notify(context.Background(), tt.notifyType, testRecipient(), testData())

			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, apperrors.NewNotificationSendFailedError("", nil))
			} else {
				require.NoError(t, err)
			}
			channels := make([]string, len(sent))
			for i, n := range sent {
				channels[i] = n.Channel
				assert.NotEmpty(t, n.ID)
			}
			assert.Equal(t, tt.wantChannels, channels)
			assert.Equal(t, tt.wantStatus, sent[0].Status)
		})
	}
}

func TestDispatcher_Notify_RendersTemplate(t *testing.T) {
	sesMock := &MockSESService{}
	snsMock := &MockSNSService{}
	d := NewDispatcher(createTestConfig(), sesMock, snsMock, logger.NewTestLogger(t))

	_, err := d.Notify(context.Background(), TypeVideoRequest, testRecipient(), testData())
	require.NoError(t, err)

	require.Len(t, sesMock.calls, 1)
	assert.Equal(t, "Video interview requested: Backend Engineer", *sesMock.calls[0].Message.Subject.Data)
	body := *sesMock.calls[0].Message.Body.Text.Data
	assert.Contains(t, body, "Hello Maria Silva")
	assert.Contains(t, body, "before 2025-03-08T10:00:00Z")
	assert.Contains(t, body, "https://portal.example.com")

	require.Len(t, snsMock.calls, 1)
	assert.Equal(t, "+5511999990000", *snsMock.calls[0].PhoneNumber)
	assert.Equal(t, "VAGAS", *snsMock.calls[0].MessageAttributes["AWS.SNS.SMS.SenderID"].StringValue)
}

func TestDispatcher_Notify_JustificationKeptVerbatim(t *testing.T) {
	justification := "Please use {{ }} braces, {{candidateName}} and a { brace }"

	for i := 0; i < 50; i++ {
		sesMock := &MockSESService{}
		d := NewDispatcher(createTestConfig(), sesMock, nil, logger.NewTestLogger(t))

		data := testData()
		data["justification"] = justification
		_, err := d.Notify(context.Background(), TypeFeedbackRejected, testRecipient(), data)
		require.NoError(t, err)

		require.Len(t, sesMock.calls, 1)
		assert.Contains(t, *sesMock.calls[0].Message.Body.Text.Data, "Comments: "+justification)
	}
}

func TestDispatcher_Notify_UnknownTemplate(t *testing.T) {
	d := NewDispatcher(createTestConfig(), &MockSESService{}, nil, logger.NewTestLogger(t))

	_, err := d.Notify(context.Background(), "unknown", testRecipient(), nil)
	assert.Equal(t, apperrors.ErrCodeNotificationSendFailed, apperrors.CodeOf(err))
}

func TestRenderTemplate(t *testing.T) {
	tests := []struct {
		name string
		tmpl string
		data map[string]interface{}
		want string
	}{
		{"string value", "Hi {{name}}", map[string]interface{}{"name": "Ana"}, "Hi Ana"},
		{"numeric value", "id {{id}}", map[string]interface{}{"id": int64(42)}, "id 42"},
		{"missing placeholder removed", "Hi {{name}}!", nil, "Hi !"},
		{"nil value", "[{{x}}]", map[string]interface{}{"x": nil}, "[]"},
		{"unterminated left as is", "Hi {{name", nil, "Hi {{name"},
		{"values are not rescanned", "{{a}} {{b}}", map[string]interface{}{"a": "{{b}}", "b": "x"}, "{{b}} x"},
		{"non placeholder braces kept", "{{ }} and {x}", nil, "{{ }} and {x}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, renderTemplate(tt.tmpl, tt.data))
		})
	}
}
