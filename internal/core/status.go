package core

// DocumentStatus is the processing state persisted for each document.
// It only ever moves forward: uploaded -> processing -> processed|failed.
type DocumentStatus string

const (
	StatusUploaded   DocumentStatus = "uploaded"
	StatusProcessing DocumentStatus = "processing"
	StatusProcessed  DocumentStatus = "processed"
	StatusFailed     DocumentStatus = "failed"
)

// ParseDocumentStatus decodes a status read from the record store.
// Raw strings from the store are never propagated past this point.
func ParseDocumentStatus(s string) (DocumentStatus, error) {
	switch DocumentStatus(s) {
	case StatusUploaded, StatusProcessing, StatusProcessed, StatusFailed:
		return DocumentStatus(s), nil
	}
	return "", NewUnknownStatusError(s)
}

// IsTerminal reports whether no further automatic transition applies.
func (s DocumentStatus) IsTerminal() bool {
	return s == StatusProcessed || s == StatusFailed
}

// SchedulerStatus is the batch scheduler's job status vocabulary.
type SchedulerStatus string

const (
	SchedSubmitted SchedulerStatus = "SUBMITTED"
	SchedPending   SchedulerStatus = "PENDING"
	SchedRunnable  SchedulerStatus = "RUNNABLE"
	SchedStarting  SchedulerStatus = "STARTING"
	SchedRunning   SchedulerStatus = "RUNNING"
	SchedSucceeded SchedulerStatus = "SUCCEEDED"
	SchedFailed    SchedulerStatus = "FAILED"
	SchedCancelled SchedulerStatus = "CANCELLED"
)

// IsActive reports whether the scheduler still considers the job in flight.
func (s SchedulerStatus) IsActive() bool {
	switch s {
	case SchedSubmitted, SchedPending, SchedRunnable, SchedStarting, SchedRunning:
		return true
	}
	return false
}

// IsKnown reports whether the status belongs to the scheduler's vocabulary.
// Unknown statuses are left untouched by the reconciler rather than guessed at.
func (s SchedulerStatus) IsKnown() bool {
	switch s {
	case SchedSubmitted, SchedPending, SchedRunnable, SchedStarting, SchedRunning,
		SchedSucceeded, SchedFailed, SchedCancelled:
		return true
	}
	return false
}
