package nats

import "fmt"

// Subject hierarchy for the upload-event flow.
//
//	docstate.uploads.{bucket}   -- "object created" notifications per bucket
const (
	// StreamName is the JetStream stream carrying upload notifications.
	StreamName    = "DOCSTATE-UPLOADS"
	SubjectPrefix = "docstate"

	// BucketRecords is the KV bucket holding per-document status records.
	BucketRecords = "docstate-records"

	// DispatchConsumer is the durable pull consumer drained by the dispatcher.
	DispatchConsumer = "docstate-dispatcher"
)

// UploadEventSubject returns the subject notifications for an object-store
// bucket are published to.
// Example: docstate.uploads.ocr-inbox
func UploadEventSubject(bucket string) string {
	return fmt.Sprintf("%s.uploads.%s", SubjectPrefix, bucket)
}

// UploadsAllSubject returns the wildcard subject for all upload
// notifications. Used for the stream subject filter.
func UploadsAllSubject() string {
	return fmt.Sprintf("%s.uploads.>", SubjectPrefix)
}
