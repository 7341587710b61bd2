package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"finsweep/pkg/api"
)

// SweepClient handles API calls to the finsweep scheduler.
type SweepClient struct {
	BaseURL    string
	Secret     string
	HTTPClient *http.Client
}

// NewSweepClient creates a new client with the given base URL and secret.
func NewSweepClient(baseURL, secret string) *SweepClient {
	return &SweepClient{
		BaseURL: baseURL,
		Secret:  secret,
		HTTPClient: &http.Client{
			// Sweeps run synchronously inside the trigger request.
			Timeout: 5 * time.Minute,
		},
	}
}

// APIError represents an error response from the API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error (%d): %s", e.StatusCode, e.Message)
}

func (c *SweepClient) do(method, path string, authed bool, out interface{}) error {
	httpReq, err := http.NewRequest(method, c.BaseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if authed {
		httpReq.Header.Add("Authorization", fmt.Sprintf("Bearer %s", c.Secret))
	}
	httpReq.Header.Add("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return &APIError{StatusCode: resp.StatusCode, Message: string(respBody)}
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

// TriggerSweep sends POST /internal/sweep to run one sweep pass.
func (c *SweepClient) TriggerSweep() (*api.SweepResponse, error) {
	var result api.SweepResponse
	if err := c.do(http.MethodPost, "/internal/sweep", true, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetStatus sends GET /status to retrieve the scheduler snapshot.
func (c *SweepClient) GetStatus() (*api.StatusResponse, error) {
	var result api.StatusResponse
	if err := c.do(http.MethodGet, "/status", false, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetExecution sends GET /executions/{id} to retrieve one sweep execution.
func (c *SweepClient) GetExecution(executionID string) (*api.ExecutionResponse, error) {
	var result api.ExecutionResponse
	if err := c.do(http.MethodGet, "/executions/"+executionID, false, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetHistory sends GET /history to retrieve finalized sweep executions.
func (c *SweepClient) GetHistory(limit int) ([]api.ExecutionResponse, error) {
	var result api.HistoryResponse
	path := "/history"
	if limit > 0 {
		path = fmt.Sprintf("/history?limit=%d", limit)
	}
	if err := c.do(http.MethodGet, path, false, &result); err != nil {
		return nil, err
	}
	return result.Executions, nil
}

// ListDueRules sends GET /rules/due to retrieve the due backlog.
func (c *SweepClient) ListDueRules() (*api.DueRulesResponse, error) {
	var result api.DueRulesResponse
	if err := c.do(http.MethodGet, "/rules/due", false, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
