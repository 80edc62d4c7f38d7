package queue

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
)

// Client enqueues booking follow-ups.
type Client interface {
	Send(ctx context.Context, msg Message) error
}

type sendAPI interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// SQSClient sends follow-up messages to AWS SQS.
type SQSClient struct {
	client   sendAPI
	queueURL string
}

// NewSQSClient constructs an SQS-backed queue client.
func NewSQSClient(ctx context.Context, queueURL, region string) (*SQSClient, error) {
	queueURL = strings.TrimSpace(queueURL)
	if queueURL == "" {
		return nil, fmt.Errorf("SQS_QUEUE_URL is required")
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return &SQSClient{
		client:   sqs.NewFromConfig(cfg),
		queueURL: queueURL,
	}, nil
}

// Send delivers msg with its schema version as a message attribute, so consumers
// can route by version without decoding the body.
func (s *SQSClient) Send(ctx context.Context, msg Message) error {
	if msg.Version == 0 {
		msg.Version = MessageVersion
	}
	payload, err := EncodeMessage(msg)
	if err != nil {
		return fmt.Errorf("encode sqs message: %w", err)
	}

	_, err = s.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(s.queueURL),
		MessageBody: aws.String(string(payload)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"version": {
				DataType:    aws.String("Number"),
				StringValue: aws.String(strconv.Itoa(msg.Version)),
			},
			"bookingId": {
				DataType:    aws.String("String"),
				StringValue: aws.String(msg.BookingID),
			},
		},
	})
	if err != nil {
		return fmt.Errorf("sqs send message booking=%s: %w", msg.BookingID, err)
	}
	return nil
}

var _ Client = (*SQSClient)(nil)
