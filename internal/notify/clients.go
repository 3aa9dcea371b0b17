// internal/notify/clients.go
package notify

import (
	"context"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
)

// The SDK clients take variadic option parameters, so they cannot satisfy
// EmailSender / TopicPublisher directly; these adapters pin the call shape
// the notifier needs.

type sesSender struct {
	client *ses.Client
}

func (s sesSender) SendEmail(ctx context.Context, input *ses.SendEmailInput) (*ses.SendEmailOutput, error) {
	return s.client.SendEmail(ctx, input)
}

// NewEmailSender builds the SES-backed alert channel for the given region,
// using the default AWS credential chain.
func NewEmailSender(ctx context.Context, region string) (EmailSender, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, err
	}
	return sesSender{client: ses.NewFromConfig(cfg)}, nil
}

type snsPublisher struct {
	client *sns.Client
}

func (s snsPublisher) Publish(ctx context.Context, input *sns.PublishInput) (*sns.PublishOutput, error) {
	return s.client.Publish(ctx, input)
}

// NewTopicPublisher builds the SNS-backed alert channel for the given region.
func NewTopicPublisher(ctx context.Context, region string) (TopicPublisher, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, err
	}
	return snsPublisher{client: sns.NewFromConfig(cfg)}, nil
}
