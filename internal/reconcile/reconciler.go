// Package reconcile repairs document records whose worker or completion
// callback was lost. It is the system's self-healing backstop: a periodic
// scan finds records stuck in 'processing' past a threshold, asks the batch
// scheduler for each job's real status, and moves the record to a terminal
// state — or leaves it alone when the job is legitimately still running.
//
// Running concurrently with itself or with a late worker completion is safe:
// terminal records are no longer selected by the scan, and every repair is
// a conditional single-record update that fails closed on interference.
package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/docuflow/docstate/internal/batch"
	"github.com/docuflow/docstate/internal/core"
	"github.com/docuflow/docstate/internal/metrics"
	"github.com/docuflow/docstate/internal/store"
)

// DefaultMaxProcessing is the staleness threshold when none is configured.
const DefaultMaxProcessing = 2 * time.Hour

// Scheduler reports authoritative job status. *batch.Client satisfies it.
type Scheduler interface {
	DescribeJobs(ctx context.Context, ids []string) ([]batch.JobDetail, error)
}

// RecordStore is the slice of the document store the reconciler uses.
// *store.DocumentStore satisfies it.
type RecordStore interface {
	ScanStale(ctx context.Context, cutoff time.Time) ([]store.StaleRecord, error)
	MarkProcessed(ctx context.Context, rec *core.DocumentRecord, revision uint64, schedulerStatus core.SchedulerStatus, now time.Time) error
	MarkFailed(ctx context.Context, rec *core.DocumentRecord, revision uint64, reason string, schedulerStatus core.SchedulerStatus, now time.Time) error
}

// Reconciler is the dead-job detector.
type Reconciler struct {
	store         RecordStore
	scheduler     Scheduler
	maxProcessing time.Duration
	parallelism   int
	logger        *slog.Logger
	now           func() time.Time
}

// New constructs a Reconciler with the given staleness threshold.
func New(store RecordStore, scheduler Scheduler, maxProcessing time.Duration, logger *slog.Logger) *Reconciler {
	if maxProcessing <= 0 {
		maxProcessing = DefaultMaxProcessing
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{
		store:         store,
		scheduler:     scheduler,
		maxProcessing: maxProcessing,
		parallelism:   4,
		logger:        logger,
		now:           time.Now,
	}
}

// Outcome classifies what happened to one stuck record.
type Outcome string

const (
	OutcomeProcessed Outcome = "processed"
	OutcomeFailed    Outcome = "failed"
	OutcomeUnchanged Outcome = "unchanged"
	OutcomeError     Outcome = "error"
)

// RecordResult records the reconciliation of one stuck record.
type RecordResult struct {
	DocumentID      string
	JobReference    string
	SchedulerStatus core.SchedulerStatus
	Outcome         Outcome
	Reason          string
	Err             error
}

// Summary tallies one reconciliation pass.
type Summary struct {
	Processed int
	Failed    int
	Unchanged int
	Errors    int
	Details   []RecordResult
}

// RunOnce performs one full reconciliation pass. Individual record failures
// are converted into error results; only a failed scan aborts the pass.
// Records are independent, so they are repaired with bounded parallelism.
func (r *Reconciler) RunOnce(ctx context.Context) (Summary, error) {
	start := r.now()
	defer func() {
		metrics.ReconcileRunSeconds.Observe(time.Since(start).Seconds())
	}()

	cutoff := start.Add(-r.maxProcessing)
	stale, err := r.store.ScanStale(ctx, cutoff)
	if err != nil {
		return Summary{}, fmt.Errorf("scan stale records: %w", err)
	}

	if len(stale) == 0 {
		return Summary{}, nil
	}
	r.logger.Info("reconciling stale records", "count", len(stale), "cutoff", core.FormatTime(cutoff))

	var (
		mu      sync.Mutex
		summary Summary
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.parallelism)

	for _, item := range stale {
		item := item
		g.Go(func() error {
			res := r.reconcileRecord(gctx, item)

			mu.Lock()
			summary.Details = append(summary.Details, res)
			switch res.Outcome {
			case OutcomeProcessed:
				summary.Processed++
			case OutcomeFailed:
				summary.Failed++
			case OutcomeUnchanged:
				summary.Unchanged++
			case OutcomeError:
				summary.Errors++
			}
			mu.Unlock()

			metrics.ReconcileRecords.WithLabelValues(string(res.Outcome)).Inc()
			return nil
		})
	}
	// Goroutines never return errors; failures land in the summary.
	_ = g.Wait()

	return summary, nil
}

// reconcileRecord applies the repair state machine to one stuck record:
//
//	no job reference              -> failed ("no batch job ID found")
//	scheduler query error         -> failed (fail-closed, not left hanging)
//	job not found at scheduler    -> failed ("job not found")
//	SUCCEEDED                     -> processed
//	FAILED | CANCELLED            -> failed (scheduler's status reason)
//	still submitted..running      -> unchanged
//	unrecognized status           -> unchanged (fail-open, logged)
func (r *Reconciler) reconcileRecord(ctx context.Context, item store.StaleRecord) RecordResult {
	rec := item.Record
	now := r.now()

	res := RecordResult{DocumentID: rec.DocumentID, JobReference: rec.JobReference}

	if rec.JobReference == "" {
		return r.fail(ctx, item, res, "no batch job ID found", "")
	}

	details, err := r.scheduler.DescribeJobs(ctx, []string{rec.JobReference})
	if err != nil {
		// An unreachable scheduler marks the record failed rather than
		// leaving it stuck forever.
		return r.fail(ctx, item, res, fmt.Sprintf("scheduler status query failed: %v", err), "")
	}
	if len(details) == 0 {
		return r.fail(ctx, item, res, fmt.Sprintf("job %s not found", rec.JobReference), "")
	}

	detail := details[0]
	res.SchedulerStatus = detail.Status

	switch {
	case !detail.Status.IsKnown():
		r.logger.Warn("unrecognized scheduler status, leaving record unchanged",
			"document_id", rec.DocumentID, "job_reference", rec.JobReference, "status", string(detail.Status))
		res.Outcome = OutcomeUnchanged
		return res

	case detail.Status.IsActive():
		res.Outcome = OutcomeUnchanged
		return res

	case detail.Status == core.SchedSucceeded:
		if err := r.store.MarkProcessed(ctx, rec, item.Revision, detail.Status, now); err != nil {
			res.Outcome = OutcomeError
			res.Err = err
			return res
		}
		r.logger.Info("repaired record to processed",
			"document_id", rec.DocumentID, "job_reference", rec.JobReference)
		res.Outcome = OutcomeProcessed
		return res

	default: // FAILED or CANCELLED
		reason := detail.StatusReason
		if reason == "" {
			reason = fmt.Sprintf("job ended with status %s", detail.Status)
		}
		return r.fail(ctx, item, res, reason, detail.Status)
	}
}

func (r *Reconciler) fail(ctx context.Context, item store.StaleRecord, res RecordResult, reason string, schedulerStatus core.SchedulerStatus) RecordResult {
	res.Reason = reason
	res.SchedulerStatus = schedulerStatus
	if err := r.store.MarkFailed(ctx, item.Record, item.Revision, reason, schedulerStatus, r.now()); err != nil {
		res.Outcome = OutcomeError
		res.Err = err
		return res
	}
	r.logger.Info("repaired record to failed",
		"document_id", item.Record.DocumentID,
		"job_reference", item.Record.JobReference,
		"reason", reason,
	)
	res.Outcome = OutcomeFailed
	return res
}
