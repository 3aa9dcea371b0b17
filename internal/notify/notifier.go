// internal/notify/notifier.go

// Package notify delivers extraction-failure alerts over SES email and SNS
// SMS. Delivery is best-effort: alert failures are logged, never propagated
// into the job lifecycle.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	sestypes "github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/cenkalti/backoff/v4"

	"msme-insights/internal/common/config"
	apperrors "msme-insights/internal/common/errors"
	"msme-insights/internal/models"
)

// EmailSender matches the SES wrapper.
type EmailSender interface {
	SendEmail(ctx context.Context, input *ses.SendEmailInput) (*ses.SendEmailOutput, error)
}

// TopicPublisher matches the SNS wrapper.
type TopicPublisher interface {
	Publish(ctx context.Context, input *sns.PublishInput) (*sns.PublishOutput, error)
}

// Logger interface definition
type Logger interface {
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

type Notifier struct {
	cfg    config.NotificationConfig
	email  EmailSender
	sms    TopicPublisher
	logger Logger
}

func NewNotifier(cfg config.NotificationConfig, email EmailSender, sms TopicPublisher, log Logger) *Notifier {
	return &Notifier{
		cfg:    cfg,
		email:  email,
		sms:    sms,
		logger: log,
	}
}

// NotifyJobFailure fans the failure out to every enabled channel. Each
// channel retries transient send errors with exponential backoff before
// giving up.
func (n *Notifier) NotifyJobFailure(ctx context.Context, job *models.ExtractionJob, stdErr *apperrors.StandardError) {
	if n.cfg.Email.Enabled && n.email != nil {
		if err := n.sendWithRetry(ctx, func() error {
			return n.sendEmail(ctx, job, stdErr)
		}); err != nil {
			n.logger.Error("failure email not delivered", map[string]interface{}{
				"jobId": job.ID,
				"error": err.Error(),
			})
		}
	}

	if n.cfg.SMS.Enabled && n.sms != nil {
		if err := n.sendWithRetry(ctx, func() error {
			return n.sendSMS(ctx, job, stdErr)
		}); err != nil {
			n.logger.Error("failure SMS not delivered", map[string]interface{}{
				"jobId": job.ID,
				"error": err.Error(),
			})
		}
	}
}

func (n *Notifier) sendWithRetry(ctx context.Context, send func() error) error {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 200 * time.Millisecond
	policy.MaxElapsedTime = 10 * time.Second
	return backoff.Retry(send, backoff.WithContext(policy, ctx))
}

func (n *Notifier) sendEmail(ctx context.Context, job *models.ExtractionJob, stdErr *apperrors.StandardError) error {
	details, _ := json.MarshalIndent(stdErr, "", "  ")
	body := fmt.Sprintf(
		"Extraction job %s for conversation %s failed.\n\nError:\n%s\n",
		job.ID, job.ConversationID, string(details),
	)
	subject := fmt.Sprintf("[msme-insights] extraction job failed: %s", stdErr.Code)

	_, err := n.email.SendEmail(ctx, &ses.SendEmailInput{
		Source: aws.String(n.cfg.Email.FromEmail),
		Destination: &sestypes.Destination{
			ToAddresses: n.cfg.Email.To,
		},
		Message: &sestypes.Message{
			Subject: &sestypes.Content{Data: aws.String(subject)},
			Body: &sestypes.Body{
				Text: &sestypes.Content{Data: aws.String(body)},
			},
		},
	})
	if err != nil {
		return apperrors.NewNotificationSendFailedError("email", err)
	}
	return nil
}

func (n *Notifier) sendSMS(ctx context.Context, job *models.ExtractionJob, stdErr *apperrors.StandardError) error {
	message := fmt.Sprintf("Extraction job %s failed: %s (%s)", job.ID, stdErr.Code, stdErr.Message)

	_, err := n.sms.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(n.cfg.SMS.TopicARN),
		Message:  aws.String(message),
	})
	if err != nil {
		return apperrors.NewNotificationSendFailedError("sms", err)
	}
	return nil
}
