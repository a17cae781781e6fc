// Package sns publishes notification text to SNS topics and phone numbers.
package sns

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"

	"github.com/Alijeyrad/medtrack_backend/config"
	"github.com/Alijeyrad/medtrack_backend/pkg/awsx"
)

var ErrNoTarget = errors.New("sns: topic arn or phone number required")

// API is the subset of the SNS client the publisher uses.
type API interface {
	Publish(ctx context.Context, in *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

type Publisher struct {
	api API
}

func New(ctx context.Context, awsConf config.AWSConfig) (*Publisher, error) {
	cfg, err := awsx.LoadConfig(ctx, awsConf)
	if err != nil {
		return nil, fmt.Errorf("sns: %w", err)
	}
	cli := sns.NewFromConfig(cfg, func(o *sns.Options) {
		o.BaseEndpoint = awsx.Endpoint(awsConf.Endpoint)
	})
	return &Publisher{api: cli}, nil
}

// NewWithAPI wraps an existing client; tests pass a fake.
func NewWithAPI(api API) *Publisher {
	return &Publisher{api: api}
}

// Target selects where a message goes. TopicARN wins when both are set.
type Target struct {
	TopicARN string
	Phone    string
}

// Publish sends subject and body and returns the SNS message id.
func (p *Publisher) Publish(ctx context.Context, to Target, subject, body string, attrs map[string]string) (string, error) {
	in := &sns.PublishInput{Message: aws.String(body)}

	switch {
	case to.TopicARN != "":
		in.TopicArn = aws.String(to.TopicARN)
		if subject != "" {
			in.Subject = aws.String(subject)
		}
	case to.Phone != "":
		in.PhoneNumber = aws.String(to.Phone)
	default:
		return "", ErrNoTarget
	}

	if len(attrs) > 0 {
		in.MessageAttributes = make(map[string]types.MessageAttributeValue, len(attrs))
		for k, v := range attrs {
			in.MessageAttributes[k] = types.MessageAttributeValue{
				DataType:    aws.String("String"),
				StringValue: aws.String(v),
			}
		}
	}

	out, err := p.api.Publish(ctx, in)
	if err != nil {
		return "", fmt.Errorf("sns publish: %w", err)
	}
	return aws.ToString(out.MessageId), nil
}
