package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
)

// Message is one work-queue delivery. Exactly one of Ack, Release or Drop is
// called per handled message.
type Message interface {
	// Body returns the raw message payload.
	Body() []byte
	// Ack deletes the message from the queue. Called only after the record
	// stamp succeeded.
	Ack() error
	// Release returns the message to the queue for redelivery.
	Release() error
	// Drop removes the message without processing it. Used for payloads
	// that can never succeed; they are not redelivered.
	Drop() error
}

// WorkQueue is the at-least-once queue the dispatcher drains.
type WorkQueue interface {
	// Receive returns up to max messages from a single receive call.
	// An empty slice means the queue had nothing to deliver.
	Receive(ctx context.Context, max int) ([]Message, error)
}

// ObjectCreatedEvent is the notification published when a new object lands
// in the upload bucket.
type ObjectCreatedEvent struct {
	Bucket string `json:"bucket"`
	Key    string `json:"key"`
}

// DecodeEvent parses an object-created notification payload.
func DecodeEvent(body []byte) (*ObjectCreatedEvent, error) {
	var evt ObjectCreatedEvent
	if err := json.Unmarshal(body, &evt); err != nil {
		return nil, fmt.Errorf("decode upload event: %w", err)
	}
	if evt.Bucket == "" || evt.Key == "" {
		return nil, fmt.Errorf("upload event missing bucket or key")
	}
	return &evt, nil
}
