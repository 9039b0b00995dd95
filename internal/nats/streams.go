package nats

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"
)

// SetupJetStream creates the upload-notification stream and the document
// record KV bucket.
func SetupJetStream(ctx context.Context, js jetstream.JetStream) error {
	// One work-queue stream for all upload notifications: a message is
	// removed only once a consumer acks it, which is the queue's
	// delete-message operation.
	_, err := js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:      StreamName,
		Subjects:  []string{UploadsAllSubject()},
		Storage:   jetstream.FileStorage,
		Retention: jetstream.WorkQueuePolicy,
		Discard:   jetstream.DiscardOld,
	})
	if err != nil {
		return fmt.Errorf("creating stream %s: %w", StreamName, err)
	}

	if _, err := js.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:  BucketRecords,
		Storage: jetstream.FileStorage,
	}); err != nil {
		return fmt.Errorf("creating KV bucket %s: %w", BucketRecords, err)
	}

	return nil
}

// EnsureDispatchConsumer creates or updates the dispatcher's pull consumer.
func EnsureDispatchConsumer(ctx context.Context, js jetstream.JetStream) (jetstream.Consumer, error) {
	consumer, err := js.CreateOrUpdateConsumer(ctx, StreamName, jetstream.ConsumerConfig{
		Durable:       DispatchConsumer,
		FilterSubject: UploadsAllSubject(),
		AckPolicy:     jetstream.AckExplicitPolicy,
		AckWait:       30 * time.Second,
		// Unacked messages must come back: a message is deleted only after
		// the record stamp succeeds, so redelivery is the retry mechanism.
		MaxDeliver:    -1,
		DeliverPolicy: jetstream.DeliverAllPolicy,
	})
	if err != nil {
		return nil, fmt.Errorf("creating consumer %s: %w", DispatchConsumer, err)
	}
	return consumer, nil
}
