package queue

import (
	"encoding/json"
	"time"
)

// MessageVersion is the current payload version of follow-up messages.
const MessageVersion = 1

// Message asks a follow-up consumer to process a booking request.
type Message struct {
	BookingID  string `json:"bookingId"`
	RequestID  string `json:"requestId"`
	EnqueuedAt string `json:"enqueuedAt"`
	Version    int    `json:"version"`
}

// NewFollowupMessage builds the message for a freshly stored booking.
func NewFollowupMessage(bookingID, requestID string, now time.Time) Message {
	return Message{
		BookingID:  bookingID,
		RequestID:  requestID,
		EnqueuedAt: now.UTC().Format(time.RFC3339),
		Version:    MessageVersion,
	}
}

// EncodeMessage returns the JSON representation of a message.
func EncodeMessage(msg Message) ([]byte, error) {
	return json.Marshal(msg)
}

// DecodeMessage parses a JSON payload into a Message.
func DecodeMessage(payload []byte) (Message, error) {
	var msg Message
	if err := json.Unmarshal(payload, &msg); err != nil {
		return Message{}, err
	}
	return msg, nil
}
