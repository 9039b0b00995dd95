package store

import (
	"context"
	"strings"
	"time"

	"github.com/docuflow/docstate/internal/core"
	"github.com/docuflow/docstate/internal/kv"
)

// KV is the slice of the key-value store the document store needs.
// *kv.Store satisfies it.
type KV interface {
	GetJSON(ctx context.Context, key string, v any) (uint64, error)
	CreateJSON(ctx context.Context, key string, v any) (uint64, error)
	UpdateJSON(ctx context.Context, key string, v any, revision uint64) (uint64, error)
	Keys(ctx context.Context) ([]string, error)
}

// DocumentStore provides record access on top of the KV bucket. All
// mutations are single-key conditional updates: the revision read alongside
// the record must still match at write time, so a record deleted between
// read and write fails closed instead of being recreated.
type DocumentStore struct {
	kv KV
}

// NewDocumentStore wraps a KV bucket holding document records.
func NewDocumentStore(kv KV) *DocumentStore {
	return &DocumentStore{kv: kv}
}

// StaleRecord pairs a scanned record with the revision it was read at.
type StaleRecord struct {
	Record   *core.DocumentRecord
	Revision uint64
}

// Create inserts a new record. Fails if the composite key already exists.
// This is the upload path's entry point; records start in 'uploaded'.
func (s *DocumentStore) Create(ctx context.Context, rec *core.DocumentRecord) error {
	if rec.Status == "" {
		rec.Status = core.StatusUploaded
	}
	rec.LastUpdated = time.Now().Unix()
	if _, err := s.kv.CreateJSON(ctx, rec.Key(), rec); err != nil {
		return core.NewStoreError("create", err)
	}
	return nil
}

// Get retrieves a record by its composite key.
func (s *DocumentStore) Get(ctx context.Context, documentID, uploadTimestamp string) (*core.DocumentRecord, uint64, error) {
	return s.load(ctx, core.RecordKey(documentID, uploadTimestamp))
}

// Latest resolves a record by partition key alone, returning the
// most-recently-inserted one when multiple uploads share a document ID.
// Callers that only know the document ID (the dispatch path) use this to
// recover the full composite key.
func (s *DocumentStore) Latest(ctx context.Context, documentID string) (*core.DocumentRecord, uint64, error) {
	keys, err := s.kv.Keys(ctx)
	if err != nil {
		return nil, 0, core.NewStoreError("list keys", err)
	}

	prefix := documentID + "."
	var newest string
	for _, key := range keys {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		// Upload timestamps are lexically sortable, so the max key wins.
		if key > newest {
			newest = key
		}
	}
	if newest == "" {
		return nil, 0, core.NewRecordNotFoundError(documentID)
	}

	return s.load(ctx, newest)
}

// MarkProcessing stamps the latest record for a document with the scheduler
// job reference and moves it to 'processing'. The job reference, start time
// and status are set in one conditional write. Redelivered messages may
// re-stamp a record already in 'processing'; the last writer's job
// reference wins. Terminal records are never revived.
func (s *DocumentStore) MarkProcessing(ctx context.Context, documentID, jobReference string, now time.Time) (*core.DocumentRecord, error) {
	rec, rev, err := s.Latest(ctx, documentID)
	if err != nil {
		return nil, err
	}

	if rec.Status.IsTerminal() {
		return nil, core.NewConflictError(
			"cannot mark a terminal record as processing",
			map[string]any{"document_id": documentID, "current_status": string(rec.Status)},
		)
	}

	rec.Status = core.StatusProcessing
	rec.JobReference = jobReference
	rec.ProcessingStarted = now.Unix()
	rec.LastUpdated = now.Unix()

	if _, err := s.kv.UpdateJSON(ctx, rec.Key(), rec, rev); err != nil {
		return nil, core.NewStoreError("mark processing", err)
	}
	return rec, nil
}

// MarkProcessed moves a record to the 'processed' terminal state.
func (s *DocumentStore) MarkProcessed(ctx context.Context, rec *core.DocumentRecord, revision uint64, schedulerStatus core.SchedulerStatus, now time.Time) error {
	if rec.Status.IsTerminal() {
		return core.NewConflictError(
			"record already in a terminal state",
			map[string]any{"document_id": rec.DocumentID, "current_status": string(rec.Status)},
		)
	}

	rec.Status = core.StatusProcessed
	rec.ProcessingCompleted = now.Unix()
	rec.LastUpdated = now.Unix()
	rec.FinalSchedulerStatus = schedulerStatus
	rec.ErrorMessage = ""

	if _, err := s.kv.UpdateJSON(ctx, rec.Key(), rec, revision); err != nil {
		return core.NewStoreError("mark processed", err)
	}
	return nil
}

// MarkFailed moves a record to the 'failed' terminal state with a
// human-readable cause.
func (s *DocumentStore) MarkFailed(ctx context.Context, rec *core.DocumentRecord, revision uint64, reason string, schedulerStatus core.SchedulerStatus, now time.Time) error {
	if rec.Status.IsTerminal() {
		return core.NewConflictError(
			"record already in a terminal state",
			map[string]any{"document_id": rec.DocumentID, "current_status": string(rec.Status)},
		)
	}

	rec.Status = core.StatusFailed
	rec.FailedAt = now.Unix()
	rec.LastUpdated = now.Unix()
	rec.ErrorMessage = reason
	rec.FinalSchedulerStatus = schedulerStatus

	if _, err := s.kv.UpdateJSON(ctx, rec.Key(), rec, revision); err != nil {
		return core.NewStoreError("mark failed", err)
	}
	return nil
}

// ScanStale returns all records still in 'processing' whose processing
// start predates the cutoff. Records moved to a terminal state by the
// worker in the meantime are simply not selected.
func (s *DocumentStore) ScanStale(ctx context.Context, cutoff time.Time) ([]StaleRecord, error) {
	keys, err := s.kv.Keys(ctx)
	if err != nil {
		return nil, core.NewStoreError("list keys", err)
	}

	var stale []StaleRecord
	for _, key := range keys {
		rec, rev, err := s.load(ctx, key)
		if err != nil {
			continue
		}
		if rec.Status != core.StatusProcessing {
			continue
		}
		if rec.ProcessingStarted >= cutoff.Unix() {
			continue
		}
		stale = append(stale, StaleRecord{Record: rec, Revision: rev})
	}
	return stale, nil
}

func (s *DocumentStore) load(ctx context.Context, key string) (*core.DocumentRecord, uint64, error) {
	var rec core.DocumentRecord
	rev, err := s.kv.GetJSON(ctx, key, &rec)
	if err != nil {
		if kv.IsNotFound(err) {
			documentID, _, _ := strings.Cut(key, ".")
			return nil, 0, core.NewRecordNotFoundError(documentID)
		}
		return nil, 0, core.NewStoreError("get", err)
	}
	// Reject raw status strings outside the closed enum at the decode
	// boundary instead of letting them flow through reconciliation.
	if _, err := core.ParseDocumentStatus(string(rec.Status)); err != nil {
		return nil, 0, err
	}
	return &rec, rev, nil
}
