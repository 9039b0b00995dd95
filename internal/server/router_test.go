package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/docuflow/docstate/internal/core"
)

type fakeReader struct {
	records map[string]*core.DocumentRecord
	err     error
}

func (r *fakeReader) Latest(_ context.Context, documentID string) (*core.DocumentRecord, uint64, error) {
	if r.err != nil {
		return nil, 0, r.err
	}
	rec, ok := r.records[documentID]
	if !ok {
		return nil, 0, core.NewRecordNotFoundError(documentID)
	}
	return rec, 1, nil
}

func TestRouter_Healthz(t *testing.T) {
	router := NewRouter(&fakeReader{})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("GET /healthz status = %d, want %d", rr.Code, http.StatusOK)
	}
	if rr.Header().Get("X-Request-Id") == "" {
		t.Error("missing X-Request-Id header")
	}
}

func TestRouter_GetDocument(t *testing.T) {
	reader := &fakeReader{records: map[string]*core.DocumentRecord{
		"doc-1": {
			DocumentID:      "doc-1",
			UploadTimestamp: "20240615T120000_000000",
			Status:          core.StatusProcessing,
			JobReference:    "job-abc",
		},
	}}
	router := NewRouter(reader)

	req := httptest.NewRequest(http.MethodGet, "/v1/documents/doc-1", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("GET /v1/documents/doc-1 status = %d, want %d", rr.Code, http.StatusOK)
	}

	var rec core.DocumentRecord
	if err := json.NewDecoder(rr.Body).Decode(&rec); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if rec.Status != core.StatusProcessing {
		t.Errorf("Status = %q, want %q", rec.Status, core.StatusProcessing)
	}
	if rec.JobReference != "job-abc" {
		t.Errorf("JobReference = %q, want %q", rec.JobReference, "job-abc")
	}
}

func TestRouter_GetDocument_NotFound(t *testing.T) {
	router := NewRouter(&fakeReader{})

	req := httptest.NewRequest(http.MethodGet, "/v1/documents/doc-missing", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusNotFound)
	}

	var body map[string]any
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body["code"] != string(core.ErrCodeRecordNotFound) {
		t.Errorf("code = %v, want %q", body["code"], core.ErrCodeRecordNotFound)
	}
}

func TestRouter_GetDocument_StoreError(t *testing.T) {
	router := NewRouter(&fakeReader{err: core.NewStoreError("get", errors.New("kv unavailable"))})

	req := httptest.NewRequest(http.MethodGet, "/v1/documents/doc-1", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusInternalServerError)
	}
}
