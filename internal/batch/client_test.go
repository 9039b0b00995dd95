package batch

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/docuflow/docstate/internal/core"
)

func TestClient_SubmitJob(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody SubmitJobInput

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if r.Header.Get("X-Request-Id") == "" {
			t.Error("missing X-Request-Id header")
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"jobId": "job-42"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "secret-key", nil)
	jobID, err := c.SubmitJob(context.Background(), SubmitJobInput{
		Name:        "ocr-doc-1-1718452800",
		Queue:       "ocr-queue",
		Definition:  "ocr-job:3",
		Environment: map[string]string{"DOCUMENT_ID": "doc-1"},
	})
	if err != nil {
		t.Fatalf("SubmitJob() error = %v", err)
	}
	if jobID != "job-42" {
		t.Errorf("SubmitJob() = %q, want %q", jobID, "job-42")
	}
	if gotPath != "/v1/jobs" {
		t.Errorf("path = %q, want %q", gotPath, "/v1/jobs")
	}
	if gotAuth != "Bearer secret-key" {
		t.Errorf("Authorization = %q, want bearer token", gotAuth)
	}
	if gotBody.Queue != "ocr-queue" || gotBody.Environment["DOCUMENT_ID"] != "doc-1" {
		t.Errorf("request body = %+v", gotBody)
	}
}

func TestClient_SubmitJob_MissingJobID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", nil)
	_, err := c.SubmitJob(context.Background(), SubmitJobInput{Name: "ocr-doc-1"})
	var coreErr *core.Error
	if !errors.As(err, &coreErr) || coreErr.Code != core.ErrCodeSchedulerError {
		t.Errorf("SubmitJob() error = %v, want code %q", err, core.ErrCodeSchedulerError)
	}
}

func TestClient_DescribeJobs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/jobs/describe" {
			t.Errorf("path = %q, want %q", r.URL.Path, "/v1/jobs/describe")
		}
		var req struct {
			JobIDs []string `json:"jobIds"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		// The scheduler omits unknown IDs rather than erroring.
		_ = json.NewEncoder(w).Encode(map[string]any{
			"jobs": []JobDetail{{ID: "job-1", Status: core.SchedFailed, StatusReason: "out of memory"}},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", nil)
	details, err := c.DescribeJobs(context.Background(), []string{"job-1", "job-gone"})
	if err != nil {
		t.Fatalf("DescribeJobs() error = %v", err)
	}
	if len(details) != 1 {
		t.Fatalf("DescribeJobs() returned %d jobs, want 1", len(details))
	}
	if details[0].Status != core.SchedFailed || details[0].StatusReason != "out of memory" {
		t.Errorf("detail = %+v", details[0])
	}
}

func TestClient_Non2xxIsSchedulerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream unavailable", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", nil)
	_, err := c.DescribeJobs(context.Background(), []string{"job-1"})
	var coreErr *core.Error
	if !errors.As(err, &coreErr) || coreErr.Code != core.ErrCodeSchedulerError {
		t.Fatalf("DescribeJobs() error = %v, want code %q", err, core.ErrCodeSchedulerError)
	}
	if !coreErr.Retryable {
		t.Error("scheduler errors must be retryable")
	}
}
