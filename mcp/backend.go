package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	pagetoll "github.com/pagetoll/pagetoll"
)

// BackendClient talks to the owning process's HTTP surface.
type BackendClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewBackendClient creates a client for the owning process at baseURL.
// A nil httpClient gets a 30s-timeout default.
func NewBackendClient(baseURL string, httpClient *http.Client) *BackendClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &BackendClient{baseURL: baseURL, httpClient: httpClient}
}

// ListCapabilities fetches the current capability list.
func (c *BackendClient) ListCapabilities(ctx context.Context) ([]pagetoll.CapabilitySummary, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"/capabilities", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create capabilities request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("could not connect to backend at %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read capabilities response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("backend capabilities returned %d: %s", resp.StatusCode, string(body))
	}

	var list []pagetoll.CapabilitySummary
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, fmt.Errorf("failed to decode capabilities response: %w", err)
	}
	return list, nil
}

// GetCapability fetches the full record for name. The second return value
// is false when the backend reports the name as unknown.
func (c *BackendClient) GetCapability(ctx context.Context, name string) (pagetoll.CapabilityRecord, bool, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"/capabilities/"+name, nil)
	if err != nil {
		return pagetoll.CapabilityRecord{}, false, fmt.Errorf("failed to create capability request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return pagetoll.CapabilityRecord{}, false, fmt.Errorf("could not connect to backend at %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return pagetoll.CapabilityRecord{}, false, fmt.Errorf("failed to read capability response: %w", err)
	}
	if resp.StatusCode == http.StatusNotFound {
		return pagetoll.CapabilityRecord{}, false, nil
	}
	if resp.StatusCode != http.StatusOK {
		return pagetoll.CapabilityRecord{}, false, fmt.Errorf("backend capability returned %d: %s", resp.StatusCode, string(body))
	}

	var record pagetoll.CapabilityRecord
	if err := json.Unmarshal(body, &record); err != nil {
		return pagetoll.CapabilityRecord{}, false, fmt.Errorf("failed to decode capability response: %w", err)
	}
	return record, true, nil
}

type executeRequest struct {
	ToolName   string                 `json:"toolName"`
	Parameters map[string]interface{} `json:"parameters"`
}

type executeResponse struct {
	Content string `json:"content"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

// Execute forwards an execution request and returns the rendered result.
func (c *BackendClient) Execute(ctx context.Context, name string, params map[string]interface{}) (string, error) {
	body, err := json.Marshal(executeRequest{ToolName: name, Parameters: params})
	if err != nil {
		return "", fmt.Errorf("failed to marshal execute request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/capabilities/execute", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create execute request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("could not connect to backend at %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()

	responseBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read execute response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("backend execute returned %d: %s", resp.StatusCode, string(responseBody))
	}

	var result executeResponse
	if err := json.Unmarshal(responseBody, &result); err != nil {
		return "", fmt.Errorf("failed to decode execute response: %w", err)
	}
	switch {
	case result.Content != "":
		return result.Content, nil
	case result.Message != "":
		return result.Message, nil
	default:
		return string(responseBody), nil
	}
}
