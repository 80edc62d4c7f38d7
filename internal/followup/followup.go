// Package followup turns queued booking messages into completed follow-ups. It is
// shared by the long-polling worker and the SQS-triggered Lambda.
package followup

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"

	"mindspace-backend/internal/bookings"
	"mindspace-backend/internal/queue"
)

// Notifier performs the follow-up of one booking.
type Notifier interface {
	NotifyFollowup(ctx context.Context, bookingID string) error
}

// MessageMeta captures details useful for logging and diagnostics.
type MessageMeta struct {
	BodyLen int
	BodySHA string
}

// ComputeMeta returns the body length and SHA-256 hash.
func ComputeMeta(body string) MessageMeta {
	if body == "" {
		return MessageMeta{}
	}
	sum := sha256.Sum256([]byte(body))
	return MessageMeta{BodyLen: len(body), BodySHA: hex.EncodeToString(sum[:])}
}

// ErrEmptyBody indicates an empty queue payload.
type ErrEmptyBody struct {
	Meta MessageMeta
}

func (e ErrEmptyBody) Error() string { return "empty message body" }

// ErrDecode indicates a JSON decode failure.
type ErrDecode struct {
	Meta MessageMeta
	Err  error
}

func (e ErrDecode) Error() string {
	if e.Err == nil {
		return "decode message"
	}
	return "decode message: " + e.Err.Error()
}

func (e ErrDecode) Unwrap() error { return e.Err }

// ErrMissingBookingID indicates a message without a booking id.
type ErrMissingBookingID struct {
	Meta      MessageMeta
	RequestID string
}

func (e ErrMissingBookingID) Error() string { return "missing booking id" }

// ErrUnknownBooking indicates a message for a booking that does not exist.
type ErrUnknownBooking struct {
	BookingID string
	RequestID string
}

func (e ErrUnknownBooking) Error() string { return "unknown booking " + e.BookingID }

// ErrProcess indicates processing failed after successful parsing.
type ErrProcess struct {
	BookingID string
	RequestID string
	Err       error
}

func (e ErrProcess) Error() string {
	if e.Err == nil {
		return "process follow-up"
	}
	return "process follow-up: " + e.Err.Error()
}

func (e ErrProcess) Unwrap() error { return e.Err }

// ParseMessage validates and decodes the queue payload.
func ParseMessage(body string) (queue.Message, MessageMeta, error) {
	meta := ComputeMeta(body)
	if strings.TrimSpace(body) == "" {
		return queue.Message{}, meta, ErrEmptyBody{Meta: meta}
	}

	msg, err := queue.DecodeMessage([]byte(body))
	if err != nil {
		return queue.Message{}, meta, ErrDecode{Meta: meta, Err: err}
	}
	if strings.TrimSpace(msg.BookingID) == "" {
		return msg, meta, ErrMissingBookingID{Meta: meta, RequestID: msg.RequestID}
	}
	return msg, meta, nil
}

// Unrecoverable reports whether redelivering the message can never succeed.
func Unrecoverable(err error) bool {
	var (
		empty   ErrEmptyBody
		decode  ErrDecode
		missing ErrMissingBookingID
		unknown ErrUnknownBooking
	)
	return errors.As(err, &empty) || errors.As(err, &decode) || errors.As(err, &missing) || errors.As(err, &unknown)
}

// Process runs the follow-up of an already parsed message.
func Process(ctx context.Context, notifier Notifier, msg queue.Message) error {
	if notifier == nil {
		return errors.New("follow-up notifier not configured")
	}
	ctx = bookings.WithRequestID(ctx, msg.RequestID)
	if err := notifier.NotifyFollowup(ctx, msg.BookingID); err != nil {
		if errors.Is(err, bookings.ErrNotFound) {
			return ErrUnknownBooking{BookingID: msg.BookingID, RequestID: msg.RequestID}
		}
		return ErrProcess{BookingID: msg.BookingID, RequestID: msg.RequestID, Err: err}
	}
	return nil
}

// HandleMessage parses, validates, and processes a message payload.
func HandleMessage(ctx context.Context, notifier Notifier, body string) error {
	msg, _, err := ParseMessage(body)
	if err != nil {
		return err
	}
	return Process(ctx, notifier, msg)
}
