package core

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestFormatTime(t *testing.T) {
	ts := time.Date(2024, 6, 15, 12, 30, 45, 123000000, time.UTC)
	got := FormatTime(ts)
	want := "2024-06-15T12:30:45.123Z"
	if got != want {
		t.Errorf("FormatTime() = %q, want %q", got, want)
	}
}

func TestFormatTime_NonUTC(t *testing.T) {
	loc := time.FixedZone("EST", -5*3600)
	ts := time.Date(2024, 6, 15, 12, 0, 0, 0, loc)
	got := FormatTime(ts)
	// Should be converted to UTC: 17:00
	want := "2024-06-15T17:00:00.000Z"
	if got != want {
		t.Errorf("FormatTime(non-UTC) = %q, want %q", got, want)
	}
}

func TestFormatUploadTime_Sortable(t *testing.T) {
	earlier := FormatUploadTime(time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC))
	later := FormatUploadTime(time.Date(2024, 6, 15, 12, 0, 0, 1000, time.UTC))
	if !(earlier < later) {
		t.Errorf("upload timestamps not lexically sortable: %q >= %q", earlier, later)
	}
}

func TestRecordKey(t *testing.T) {
	got := RecordKey("doc-1", "20240615T120000_000000")
	want := "doc-1.20240615T120000_000000"
	if got != want {
		t.Errorf("RecordKey() = %q, want %q", got, want)
	}
}

func TestParseDocumentStatus(t *testing.T) {
	for _, s := range []string{"uploaded", "processing", "processed", "failed"} {
		if _, err := ParseDocumentStatus(s); err != nil {
			t.Errorf("ParseDocumentStatus(%q) error = %v", s, err)
		}
	}

	_, err := ParseDocumentStatus("archived")
	if err == nil {
		t.Fatal("ParseDocumentStatus(archived) expected error")
	}
	var coreErr *Error
	if !errors.As(err, &coreErr) || coreErr.Code != ErrCodeUnknownStatus {
		t.Errorf("ParseDocumentStatus(archived) error = %v, want code %q", err, ErrCodeUnknownStatus)
	}
}

func TestDocumentStatus_IsTerminal(t *testing.T) {
	cases := map[DocumentStatus]bool{
		StatusUploaded:   false,
		StatusProcessing: false,
		StatusProcessed:  true,
		StatusFailed:     true,
	}
	for status, want := range cases {
		if got := status.IsTerminal(); got != want {
			t.Errorf("%s.IsTerminal() = %v, want %v", status, got, want)
		}
	}
}

func TestSchedulerStatus_IsActive(t *testing.T) {
	active := []SchedulerStatus{SchedSubmitted, SchedPending, SchedRunnable, SchedStarting, SchedRunning}
	for _, s := range active {
		if !s.IsActive() {
			t.Errorf("%s.IsActive() = false, want true", s)
		}
	}
	terminal := []SchedulerStatus{SchedSucceeded, SchedFailed, SchedCancelled}
	for _, s := range terminal {
		if s.IsActive() {
			t.Errorf("%s.IsActive() = true, want false", s)
		}
	}
	if SchedulerStatus("FROZEN").IsKnown() {
		t.Error(`SchedulerStatus("FROZEN").IsKnown() = true, want false`)
	}
}

func TestDocumentRecordMarshalJSON_OmitsEmptyFields(t *testing.T) {
	rec := DocumentRecord{
		DocumentID:      "doc-1",
		UploadTimestamp: "20240615T120000_000000",
		Status:          StatusUploaded,
	}

	data, err := json.Marshal(&rec)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("Unmarshal output error = %v", err)
	}

	for _, field := range []string{"job_reference", "processing_started", "processing_completed", "failed_at", "error_message", "final_scheduler_status"} {
		if _, exists := m[field]; exists {
			t.Errorf("field %q should be omitted when empty", field)
		}
	}
}
