package nats

import (
	"context"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/docuflow/docstate/internal/dispatch"
)

// UploadQueue drains the upload-notification stream through a durable pull
// consumer. Fetch is the queue's receive-batch; Ack deletes a message, Nak
// returns it for redelivery, Term discards it permanently.
type UploadQueue struct {
	consumer jetstream.Consumer
}

// NewUploadQueue opens the dispatcher's pull consumer.
func NewUploadQueue(ctx context.Context, js jetstream.JetStream) (*UploadQueue, error) {
	consumer, err := EnsureDispatchConsumer(ctx, js)
	if err != nil {
		return nil, err
	}
	return &UploadQueue{consumer: consumer}, nil
}

// Receive pulls up to max messages in a single fetch.
func (q *UploadQueue) Receive(ctx context.Context, max int) ([]dispatch.Message, error) {
	batch, err := q.consumer.Fetch(max, jetstream.FetchMaxWait(500*time.Millisecond))
	if err != nil {
		// Timeout or no messages is not an error
		return nil, nil
	}

	var msgs []dispatch.Message
	for msg := range batch.Messages() {
		msgs = append(msgs, &queueMessage{msg: msg})
	}
	return msgs, nil
}

type queueMessage struct {
	msg jetstream.Msg
}

func (m *queueMessage) Body() []byte   { return m.msg.Data() }
func (m *queueMessage) Ack() error     { return m.msg.Ack() }
func (m *queueMessage) Release() error { return m.msg.Nak() }
func (m *queueMessage) Drop() error    { return m.msg.Term() }

// PublishUploadEvent publishes an object-created notification. The upload
// path owns this in production; it is exported for provisioning and tests.
func PublishUploadEvent(ctx context.Context, js jetstream.JetStream, bucket string, payload []byte) error {
	_, err := js.Publish(ctx, UploadEventSubject(bucket), payload)
	return err
}
