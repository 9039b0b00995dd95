// Package dispatch converts upload notifications into scheduled OCR jobs.
//
// Each queue message becomes one scheduler job and one record transition to
// 'processing'. The message is deleted only after the record stamp succeeds,
// so at-least-once delivery degrades to "may submit duplicate jobs on
// redelivery, never loses a message". Submitting the job and stamping the
// record are deliberately not transactional: if the stamp fails after a
// successful submission, the orphaned job is resubmitted on redelivery and
// the reconciler only ever inspects whatever job reference ends up stamped.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/docuflow/docstate/internal/batch"
	"github.com/docuflow/docstate/internal/core"
	"github.com/docuflow/docstate/internal/metrics"
)

// Scheduler submits compute jobs. *batch.Client satisfies it.
type Scheduler interface {
	SubmitJob(ctx context.Context, input batch.SubmitJobInput) (string, error)
}

// RecordStore stamps document records. *store.DocumentStore satisfies it.
type RecordStore interface {
	MarkProcessing(ctx context.Context, documentID, jobReference string, now time.Time) (*core.DocumentRecord, error)
}

// Config carries the scheduler and store coordinates the dispatcher stamps
// into each submitted job.
type Config struct {
	JobQueue      string
	JobDefinition string
	RecordsBucket string
	BatchSize     int
}

// Dispatcher drains the upload queue.
type Dispatcher struct {
	queue     WorkQueue
	scheduler Scheduler
	store     RecordStore
	cfg       Config
	logger    *slog.Logger
	now       func() time.Time
}

// New constructs a Dispatcher. Dependencies are injected explicitly and live
// for the life of the process.
func New(queue WorkQueue, scheduler Scheduler, store RecordStore, cfg Config, logger *slog.Logger) *Dispatcher {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 10
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		queue:     queue,
		scheduler: scheduler,
		store:     store,
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
	}
}

// Outcome classifies how one message was handled.
type Outcome string

const (
	OutcomeDispatched Outcome = "dispatched"
	OutcomeDropped    Outcome = "dropped"
	OutcomeError      Outcome = "error"
)

// ItemResult records the handling of one message.
type ItemResult struct {
	ObjectKey    string
	DocumentID   string
	JobReference string
	Outcome      Outcome
	Err          error
}

// Summary aggregates one batch. A batch never fails as a whole because one
// message failed.
type Summary struct {
	Dispatched int
	Dropped    int
	Errors     int
	Details    []ItemResult
}

// HandleBatch receives one batch of messages and handles each independently:
// filter, extract the document ID, submit a scheduler job, stamp the record,
// then delete the message.
func (d *Dispatcher) HandleBatch(ctx context.Context) (Summary, error) {
	msgs, err := d.queue.Receive(ctx, d.cfg.BatchSize)
	if err != nil {
		return Summary{}, fmt.Errorf("receive batch: %w", err)
	}

	var summary Summary
	for _, msg := range msgs {
		res := d.handleMessage(ctx, msg)
		summary.Details = append(summary.Details, res)
		switch res.Outcome {
		case OutcomeDispatched:
			summary.Dispatched++
		case OutcomeDropped:
			summary.Dropped++
		case OutcomeError:
			summary.Errors++
		}
		metrics.DispatchMessages.WithLabelValues(string(res.Outcome)).Inc()
	}
	return summary, nil
}

func (d *Dispatcher) handleMessage(ctx context.Context, msg Message) ItemResult {
	evt, err := DecodeEvent(msg.Body())
	if err != nil {
		// An undecodable payload can never succeed.
		d.logger.Warn("dropping undecodable upload event", "error", err)
		d.drop(msg)
		return ItemResult{Outcome: OutcomeDropped, Err: err}
	}

	documentID, err := ParseUploadKey(evt.Key)
	if err != nil {
		if errors.Is(err, ErrNotUploadKey) {
			d.logger.Debug("dropping non-upload notification", "object_key", evt.Key)
		} else {
			d.logger.Warn("dropping malformed upload key", "object_key", evt.Key, "error", err)
		}
		d.drop(msg)
		return ItemResult{ObjectKey: evt.Key, Outcome: OutcomeDropped, Err: err}
	}

	now := d.now()

	// The job name carries the document ID plus a fine-grained timestamp so
	// duplicate submissions under redelivery are distinguishable to operators.
	jobName := fmt.Sprintf("ocr-%s-%d", documentID, now.UnixNano())
	jobReference, err := d.scheduler.SubmitJob(ctx, batch.SubmitJobInput{
		Name:       jobName,
		Queue:      d.cfg.JobQueue,
		Definition: d.cfg.JobDefinition,
		Environment: map[string]string{
			"SOURCE_BUCKET":  evt.Bucket,
			"SOURCE_KEY":     evt.Key,
			"DOCUMENT_ID":    documentID,
			"RECORDS_BUCKET": d.cfg.RecordsBucket,
		},
	})
	if err != nil {
		d.logger.Error("job submission failed, leaving message for redelivery",
			"document_id", documentID, "error", err)
		d.release(msg)
		return ItemResult{ObjectKey: evt.Key, DocumentID: documentID, Outcome: OutcomeError, Err: err}
	}

	// Stamp the record: resolves the composite key by document ID (the
	// upload path wrote the record before this message existed) and sets
	// status, job reference and start time in one conditional write.
	if _, err := d.store.MarkProcessing(ctx, documentID, jobReference, now); err != nil {
		d.logger.Error("record stamp failed, leaving message for redelivery",
			"document_id", documentID, "job_reference", jobReference, "error", err)
		d.release(msg)
		return ItemResult{ObjectKey: evt.Key, DocumentID: documentID, JobReference: jobReference, Outcome: OutcomeError, Err: err}
	}

	if err := msg.Ack(); err != nil {
		// The stamp landed; the redelivered duplicate will resubmit a
		// harmless second job and re-stamp.
		d.logger.Warn("ack failed after successful stamp", "document_id", documentID, "error", err)
		return ItemResult{ObjectKey: evt.Key, DocumentID: documentID, JobReference: jobReference, Outcome: OutcomeError, Err: err}
	}

	d.logger.Info("dispatched document",
		"document_id", documentID,
		"job_reference", jobReference,
		"job_name", jobName,
		"source_bucket", evt.Bucket,
	)
	return ItemResult{ObjectKey: evt.Key, DocumentID: documentID, JobReference: jobReference, Outcome: OutcomeDispatched}
}

func (d *Dispatcher) drop(msg Message) {
	if err := msg.Drop(); err != nil {
		d.logger.Warn("dropping message failed", "error", err)
	}
}

func (d *Dispatcher) release(msg Message) {
	if err := msg.Release(); err != nil {
		d.logger.Warn("releasing message failed", "error", err)
	}
}
