package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"mindspace-backend/internal/bootstrap"
	"mindspace-backend/internal/followup"
	"mindspace-backend/internal/shared/config"
	"mindspace-backend/internal/shared/metrics"
	"mindspace-backend/internal/shared/telemetry"
)

func main() {
	defer telemetry.Sync()

	cfg := config.Load()
	queueURL := strings.TrimSpace(cfg.QueueURL)
	if queueURL == "" {
		fatal("worker.config.invalid", map[string]any{"error": "SQS_QUEUE_URL is required"})
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	visibilitySeconds := cfg.Worker.VisibilityTimeoutSecs
	concurrency := max(1, cfg.Worker.Concurrency)
	shutdownTimeout := time.Duration(cfg.Worker.ShutdownTimeoutSeconds) * time.Second

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
	if err != nil {
		fatal("worker.aws_config.failed", map[string]any{"error": err})
	}
	var sqsClient sqsAPI = sqs.NewFromConfig(awsCfg)

	app, err := bootstrap.Build(cfg)
	if err != nil {
		fatal("worker.bootstrap.failed", map[string]any{"error": err})
	}

	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup

	telemetry.Info("worker.start", map[string]any{
		"queue_url":          queueURL,
		"concurrency":        concurrency,
		"visibility_seconds": visibilitySeconds,
	})

pollLoop:
	for {
		select {
		case <-ctx.Done():
			break pollLoop
		default:
		}

		resp, err := sqsClient.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
			QueueUrl:            aws.String(queueURL),
			MaxNumberOfMessages: 10,
			WaitTimeSeconds:     20,
			VisibilityTimeout:   int32(visibilitySeconds),
			AttributeNames:      []sqstypes.QueueAttributeName{sqstypes.QueueAttributeName("ApproximateReceiveCount")},
		})
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
				break pollLoop
			}
			telemetry.Error("worker.receive_failed", map[string]any{"error": err})
			continue
		}

		for _, msg := range resp.Messages {
			select {
			case <-ctx.Done():
				break pollLoop
			case sem <- struct{}{}:
			}
			wg.Add(1)
			go func(m sqstypes.Message) {
				defer wg.Done()
				defer func() { <-sem }()
				handleMessage(ctx, sqsClient, queueURL, app.BookingsService, m)
			}(msg)
		}
	}

	telemetry.Info("worker.shutdown", map[string]any{"timeout": shutdownTimeout.String()})
	waitDone := make(chan struct{})
	go func() {
		wg.Wait()
		close(waitDone)
	}()
	select {
	case <-waitDone:
	case <-time.After(shutdownTimeout):
		telemetry.Warn("worker.shutdown.timeout", nil)
	}
}

func fatal(event string, fields map[string]any) {
	telemetry.Error(event, fields)
	telemetry.Sync()
	os.Exit(1)
}

type sqsAPI interface {
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

// handleMessage deletes the message once it is processed or known to be unprocessable.
// Transient failures leave it on the queue for redelivery.
func handleMessage(ctx context.Context, client sqsAPI, queueURL string, notifier followup.Notifier, msg sqstypes.Message) {
	body := aws.ToString(msg.Body)

	decoded, meta, err := followup.ParseMessage(body)
	if err != nil {
		fields := baseFields(msg, decoded.BookingID, decoded.RequestID)
		fields["body_len"] = meta.BodyLen
		if meta.BodySHA != "" {
			fields["body_sha256"] = meta.BodySHA
		}
		fields["error"] = err.Error()
		telemetry.Error("worker.followup.invalid_message", fields)
		if deleteMessage(ctx, client, queueURL, msg, decoded.BookingID, decoded.RequestID) {
			metrics.IncFollowupDiscarded()
		}
		return
	}

	telemetry.Info("worker.followup.received", baseFields(msg, decoded.BookingID, decoded.RequestID))

	if err := followup.Process(ctx, notifier, decoded); err != nil {
		fields := baseFields(msg, decoded.BookingID, decoded.RequestID)
		fields["error"] = err.Error()
		if followup.Unrecoverable(err) {
			telemetry.Error("worker.followup.discarded", fields)
			if deleteMessage(ctx, client, queueURL, msg, decoded.BookingID, decoded.RequestID) {
				metrics.IncFollowupDiscarded()
			}
			return
		}
		telemetry.Error("worker.followup.failed", fields)
		metrics.IncFollowupFailed()
		return
	}

	if deleteMessage(ctx, client, queueURL, msg, decoded.BookingID, decoded.RequestID) {
		telemetry.Info("worker.followup.completed", baseFields(msg, decoded.BookingID, decoded.RequestID))
		metrics.IncFollowupProcessed()
	}
}

func deleteMessage(ctx context.Context, client sqsAPI, queueURL string, msg sqstypes.Message, bookingID, requestID string) bool {
	receipt := aws.ToString(msg.ReceiptHandle)
	if receipt == "" {
		fields := baseFields(msg, bookingID, requestID)
		fields["error"] = "missing receipt handle"
		telemetry.Error("worker.followup.delete_failed", fields)
		return false
	}
	if _, err := client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(queueURL),
		ReceiptHandle: aws.String(receipt),
	}); err != nil {
		fields := baseFields(msg, bookingID, requestID)
		fields["error"] = err.Error()
		telemetry.Error("worker.followup.delete_failed", fields)
		return false
	}
	return true
}

func baseFields(msg sqstypes.Message, bookingID, requestID string) map[string]any {
	fields := map[string]any{
		"booking_id":     bookingID,
		"sqs_message_id": aws.ToString(msg.MessageId),
		"receive_count":  receiveCount(msg),
	}
	if strings.TrimSpace(requestID) != "" {
		fields["request_id"] = requestID
	}
	return fields
}

func receiveCount(msg sqstypes.Message) int {
	raw := msg.Attributes["ApproximateReceiveCount"]
	if raw == "" {
		return 0
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return parsed
}
