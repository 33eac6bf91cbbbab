package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/devboardhq/devboard/internal/models"
)

// Pipeline run states reported by the provider. Anything not terminal counts
// as "in flight" for the manual-run conflict check.
var nonTerminalStatuses = map[string]bool{
	"created":              true,
	"waiting_for_resource": true,
	"preparing":            true,
	"pending":              true,
	"running":              true,
}

// IsTerminalStatus reports whether a pipeline status is final.
func IsTerminalStatus(status string) bool {
	return status != "" && !nonTerminalStatuses[status]
}

// PipelineRun is a single CI pipeline execution.
type PipelineRun struct {
	ID         string     `json:"id"`
	Status     string     `json:"status"`
	Ref        string     `json:"ref"`
	WebURL     string     `json:"web_url"`
	CreatedAt  time.Time  `json:"created_at"`
	FinishedAt *time.Time `json:"finished_at"`
}

// Passed reports whether the run completed successfully.
func (r *PipelineRun) Passed() bool { return r.Status == "success" }

// Failed reports whether the run completed unsuccessfully.
func (r *PipelineRun) Failed() bool { return r.Status == "failed" }

// PipelineClient talks to a GitLab-compatible pipeline API using each
// application's trigger configuration.
type PipelineClient struct {
	httpClient *http.Client
}

func NewPipelineClient() *PipelineClient {
	return &PipelineClient{
		httpClient: &http.Client{Timeout: 20 * time.Second},
	}
}

// pipelinePayload matches the provider's pipeline JSON.
type pipelinePayload struct {
	ID         json.Number `json:"id"`
	Status     string      `json:"status"`
	Ref        string      `json:"ref"`
	WebURL     string      `json:"web_url"`
	CreatedAt  time.Time   `json:"created_at"`
	FinishedAt *time.Time  `json:"finished_at"`
}

func (p *pipelinePayload) toRun() PipelineRun {
	return PipelineRun{
		ID:         p.ID.String(),
		Status:     p.Status,
		Ref:        p.Ref,
		WebURL:     p.WebURL,
		CreatedAt:  p.CreatedAt,
		FinishedAt: p.FinishedAt,
	}
}

// Trigger starts a new pipeline via the provider's trigger endpoint.
func (c *PipelineClient) Trigger(ctx context.Context, cfg *models.TriggerConfig) (*PipelineRun, error) {
	endpoint := fmt.Sprintf("%s/api/v4/projects/%s/trigger/pipeline", cfg.BaseURL, url.PathEscape(cfg.ProjectID))

	form := url.Values{}
	form.Set("token", cfg.Token)
	form.Set("ref", cfg.Ref)

	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.URL.RawQuery = form.Encode()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("pipeline trigger failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("pipeline trigger returned %d: %s", resp.StatusCode, string(body))
	}

	var payload pipelinePayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode trigger response: %w", err)
	}
	run := payload.toRun()
	return &run, nil
}

// GetRun fetches the current state of a single pipeline.
func (c *PipelineClient) GetRun(ctx context.Context, cfg *models.TriggerConfig, pipelineID string) (*PipelineRun, error) {
	endpoint := fmt.Sprintf("%s/api/v4/projects/%s/pipelines/%s",
		cfg.BaseURL, url.PathEscape(cfg.ProjectID), url.PathEscape(pipelineID))

	var payload pipelinePayload
	if err := c.get(ctx, cfg, endpoint, &payload); err != nil {
		return nil, err
	}
	run := payload.toRun()
	return &run, nil
}

// ListRuns fetches pipelines updated within the given calendar day.
func (c *PipelineClient) ListRuns(ctx context.Context, cfg *models.TriggerConfig, day time.Time) ([]PipelineRun, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	end := start.Add(24 * time.Hour)

	params := url.Values{}
	params.Set("updated_after", start.Format(time.RFC3339))
	params.Set("updated_before", end.Format(time.RFC3339))
	params.Set("ref", cfg.Ref)
	params.Set("per_page", strconv.Itoa(100))

	endpoint := fmt.Sprintf("%s/api/v4/projects/%s/pipelines?%s",
		cfg.BaseURL, url.PathEscape(cfg.ProjectID), params.Encode())

	var payloads []pipelinePayload
	if err := c.get(ctx, cfg, endpoint, &payloads); err != nil {
		return nil, err
	}

	runs := make([]PipelineRun, 0, len(payloads))
	for i := range payloads {
		runs = append(runs, payloads[i].toRun())
	}
	return runs, nil
}

func (c *PipelineClient) get(ctx context.Context, cfg *models.TriggerConfig, endpoint string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return err
	}
	if cfg.Token != "" {
		req.Header.Set("PRIVATE-TOKEN", cfg.Token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("pipeline request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("pipeline api returned %d: %s", resp.StatusCode, string(body))
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
