package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"mindspace-backend/internal/bookings"
	"mindspace-backend/internal/queue"
)

type fakeSQS struct {
	deleted []string
	err     error
}

func (f *fakeSQS) ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error) {
	return &sqs.ReceiveMessageOutput{}, nil
}

func (f *fakeSQS) DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.deleted = append(f.deleted, aws.ToString(params.ReceiptHandle))
	return &sqs.DeleteMessageOutput{}, nil
}

type fakeNotifier struct {
	err   error
	calls []string
}

func (f *fakeNotifier) NotifyFollowup(ctx context.Context, bookingID string) error {
	f.calls = append(f.calls, bookingID)
	return f.err
}

func followupMessage(t *testing.T, id, receipt string) sqstypes.Message {
	t.Helper()
	body, err := queue.EncodeMessage(queue.NewFollowupMessage("booking-"+id, "req-"+id, time.Date(2026, 3, 3, 10, 0, 0, 0, time.UTC)))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	return sqstypes.Message{
		MessageId:     aws.String("m-" + id),
		ReceiptHandle: aws.String(receipt),
		Body:          aws.String(string(body)),
		Attributes:    map[string]string{"ApproximateReceiveCount": "1"},
	}
}

func TestWorkerDeletesMessageOnSuccess(t *testing.T) {
	client := &fakeSQS{}
	notifier := &fakeNotifier{}

	handleMessage(context.Background(), client, "queue", notifier, followupMessage(t, "1", "r1"))

	if len(client.deleted) != 1 || client.deleted[0] != "r1" {
		t.Fatalf("expected r1 deleted, got %v", client.deleted)
	}
	if len(notifier.calls) != 1 || notifier.calls[0] != "booking-1" {
		t.Fatalf("unexpected notifier calls %v", notifier.calls)
	}
}

func TestWorkerKeepsMessageOnTransientFailure(t *testing.T) {
	client := &fakeSQS{}
	notifier := &fakeNotifier{err: errors.New("db down")}

	handleMessage(context.Background(), client, "queue", notifier, followupMessage(t, "2", "r2"))

	if len(client.deleted) != 0 {
		t.Fatalf("expected no delete, got %v", client.deleted)
	}
}

func TestWorkerDiscardsUnknownBooking(t *testing.T) {
	client := &fakeSQS{}
	notifier := &fakeNotifier{err: bookings.ErrNotFound}

	handleMessage(context.Background(), client, "queue", notifier, followupMessage(t, "3", "r3"))

	if len(client.deleted) != 1 {
		t.Fatalf("expected unknown booking to be deleted, got %v", client.deleted)
	}
}

func TestWorkerDeletesInvalidMessages(t *testing.T) {
	cases := map[string]string{
		"invalid_json": "{bad-json",
		"empty_body":   "   ",
		"missing_id":   `{"requestId":"req-4","version":1}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			client := &fakeSQS{}
			notifier := &fakeNotifier{}
			msg := sqstypes.Message{
				MessageId:     aws.String("m-" + name),
				ReceiptHandle: aws.String("r-" + name),
				Body:          aws.String(body),
			}

			handleMessage(context.Background(), client, "queue", notifier, msg)

			if len(client.deleted) != 1 {
				t.Fatalf("expected delete, got %v", client.deleted)
			}
			if len(notifier.calls) != 0 {
				t.Fatalf("notifier must not run for invalid messages")
			}
		})
	}
}

func TestWorkerSkipsDeleteWithoutReceipt(t *testing.T) {
	client := &fakeSQS{}
	msg := followupMessage(t, "5", "")

	handleMessage(context.Background(), client, "queue", &fakeNotifier{}, msg)

	if len(client.deleted) != 0 {
		t.Fatalf("expected no delete without receipt handle")
	}
}

func TestReceiveCount(t *testing.T) {
	if got := receiveCount(sqstypes.Message{}); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
	msg := sqstypes.Message{Attributes: map[string]string{"ApproximateReceiveCount": "3"}}
	if got := receiveCount(msg); got != 3 {
		t.Fatalf("expected 3, got %d", got)
	}
}
