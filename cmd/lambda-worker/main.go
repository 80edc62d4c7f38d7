package main

// Build the Lambda handler binary:
//   GOOS=linux GOARCH=amd64 CGO_ENABLED=0 go build -o bootstrap ./cmd/lambda-worker

import (
	"context"
	"sync"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	"mindspace-backend/internal/bootstrap"
	"mindspace-backend/internal/followup"
	"mindspace-backend/internal/shared/config"
	"mindspace-backend/internal/shared/metrics"
	"mindspace-backend/internal/shared/telemetry"
)

var (
	initOnce sync.Once
	initErr  error
	notifier followup.Notifier
)

func initApp() {
	cfg := config.Load()
	built, err := bootstrap.Build(cfg)
	if err != nil {
		initErr = err
		return
	}
	notifier = built.BookingsService
}

func handler(ctx context.Context, event events.SQSEvent) (events.SQSEventResponse, error) {
	initOnce.Do(initApp)
	if initErr != nil {
		telemetry.Error("lambda_worker.bootstrap.failed", map[string]any{"error": initErr})
		failures := make([]events.SQSBatchItemFailure, 0, len(event.Records))
		for _, record := range event.Records {
			failures = append(failures, events.SQSBatchItemFailure{ItemIdentifier: record.MessageId})
		}
		return events.SQSEventResponse{BatchItemFailures: failures}, initErr
	}
	return processBatch(ctx, notifier, event), nil
}

// processBatch reports only retryable failures; unrecoverable messages are dropped.
func processBatch(ctx context.Context, n followup.Notifier, event events.SQSEvent) events.SQSEventResponse {
	failures := make([]events.SQSBatchItemFailure, 0)
	for _, record := range event.Records {
		err := followup.HandleMessage(ctx, n, record.Body)
		switch {
		case err == nil:
			metrics.IncFollowupProcessed()
		case followup.Unrecoverable(err):
			telemetry.Error("lambda_worker.followup.discarded", map[string]any{
				"sqs_message_id": record.MessageId,
				"error":          err,
			})
			metrics.IncFollowupDiscarded()
		default:
			telemetry.Error("lambda_worker.followup.failed", map[string]any{
				"sqs_message_id": record.MessageId,
				"error":          err,
			})
			metrics.IncFollowupFailed()
			failures = append(failures, events.SQSBatchItemFailure{ItemIdentifier: record.MessageId})
		}
	}
	return events.SQSEventResponse{BatchItemFailures: failures}
}

func main() {
	defer telemetry.Sync()
	lambda.Start(handler)
}
