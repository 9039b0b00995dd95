// Package batch is the HTTP client for the external batch-compute
// scheduler. The scheduler is the authoritative source of truth for whether
// a job is still running; this client only submits and describes jobs.
package batch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/docuflow/docstate/internal/core"
)

// SubmitJobInput describes one job submission.
type SubmitJobInput struct {
	Name        string            `json:"name"`
	Queue       string            `json:"queue"`
	Definition  string            `json:"jobDefinition"`
	Parameters  map[string]string `json:"parameters,omitempty"`
	Environment map[string]string `json:"environment,omitempty"`
}

// JobDetail is the scheduler's view of one job.
type JobDetail struct {
	ID           string               `json:"jobId"`
	Status       core.SchedulerStatus `json:"status"`
	StatusReason string               `json:"statusReason,omitempty"`
}

// Client talks to the scheduler's JSON API.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	logger  *slog.Logger
}

// NewClient builds a scheduler client. A nil logger falls back to the
// default slog logger.
func NewClient(baseURL, apiKey string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 30 * time.Second},
		logger:  logger,
	}
}

// SubmitJob submits one job and returns the scheduler's job identifier.
func (c *Client) SubmitJob(ctx context.Context, input SubmitJobInput) (string, error) {
	var resp struct {
		JobID string `json:"jobId"`
	}
	if err := c.postJSON(ctx, "/v1/jobs", input, &resp); err != nil {
		return "", core.NewSchedulerError("submit-job", err)
	}
	if resp.JobID == "" {
		return "", core.NewSchedulerError("submit-job", fmt.Errorf("response missing jobId"))
	}
	return resp.JobID, nil
}

// DescribeJobs returns the scheduler's status for each known job ID.
// Unknown IDs are simply absent from the result.
func (c *Client) DescribeJobs(ctx context.Context, ids []string) ([]JobDetail, error) {
	req := struct {
		JobIDs []string `json:"jobIds"`
	}{JobIDs: ids}

	var resp struct {
		Jobs []JobDetail `json:"jobs"`
	}
	if err := c.postJSON(ctx, "/v1/jobs/describe", req, &resp); err != nil {
		return nil, core.NewSchedulerError("describe-jobs", err)
	}
	return resp.Jobs, nil
}

func (c *Client) postJSON(ctx context.Context, path string, body, out any) error {
	reqID := uuid.New().String()
	start := time.Now()

	bs, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode json: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(bs))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-Id", reqID)
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Error("scheduler.http.send_error", "req_id", reqID, "path", path, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds())
		return err
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)

	c.logger.Info("scheduler.http.response",
		"req_id", reqID,
		"path", path,
		"status", resp.StatusCode,
		"bytes", len(raw),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("non-2xx status: %d", resp.StatusCode)
	}
	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
