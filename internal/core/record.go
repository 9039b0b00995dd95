package core

// DocumentRecord is the per-document processing state held in the record
// store. DocumentID is the partition key; UploadTimestamp is the sort key.
// Together they form the composite primary key used for all point updates.
type DocumentRecord struct {
	DocumentID      string         `json:"document_id"`
	UploadTimestamp string         `json:"upload_timestamp"`
	Status          DocumentStatus `json:"processing_status"`

	// JobReference is the scheduler's job identifier. Empty until the
	// dispatcher submits a job; empty at reconciliation time is itself a
	// terminal failure signal.
	JobReference string `json:"job_reference,omitempty"`

	SourceBucket string `json:"source_bucket,omitempty"`
	SourceKey    string `json:"source_key,omitempty"`

	ProcessingStarted   int64 `json:"processing_started,omitempty"`
	ProcessingCompleted int64 `json:"processing_completed,omitempty"`
	FailedAt            int64 `json:"failed_at,omitempty"`
	LastUpdated         int64 `json:"last_updated,omitempty"`

	ErrorMessage string `json:"error_message,omitempty"`

	// FinalSchedulerStatus mirrors the last observed scheduler-reported
	// status, kept for audit.
	FinalSchedulerStatus SchedulerStatus `json:"final_scheduler_status,omitempty"`
}

// Key returns the composite record store key for this record.
func (r *DocumentRecord) Key() string {
	return RecordKey(r.DocumentID, r.UploadTimestamp)
}

// RecordKey builds the composite key from its parts. The first '.' separates
// the partition key from the sort key; document IDs must not contain '.'.
func RecordKey(documentID, uploadTimestamp string) string {
	return documentID + "." + uploadTimestamp
}
