package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/ipfs/go-cid"

	pagetoll "github.com/pagetoll/pagetoll"
)

// LighthouseClient uploads text to a lighthouse-compatible pinning service
// and reads pinned content back through its public gateway.
// Implements pagetoll.Pinner.
type LighthouseClient struct {
	url        string
	gatewayURL string
	apiKey     string
	httpClient *http.Client
}

// PinClientConfig configures the pinning client.
type PinClientConfig struct {
	// URL is the upload API base, e.g. https://node.lighthouse.storage
	URL string

	// GatewayURL serves pinned content, e.g. https://gateway.lighthouse.storage
	GatewayURL string

	// APIKey authenticates uploads.
	APIKey string

	// HTTPClient overrides the default client (optional).
	HTTPClient *http.Client

	// Timeout for requests (optional, defaults to 30s). Ignored when
	// HTTPClient is set.
	Timeout time.Duration
}

// NewLighthouseClient creates a pinning client.
func NewLighthouseClient(config *PinClientConfig) *LighthouseClient {
	if config == nil {
		config = &PinClientConfig{}
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		timeout := config.Timeout
		if timeout == 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	return &LighthouseClient{
		url:        config.URL,
		gatewayURL: config.GatewayURL,
		apiKey:     config.APIKey,
		httpClient: httpClient,
	}
}

// uploadResponse is the pinning service's add response.
type uploadResponse struct {
	Name string `json:"Name"`
	Hash string `json:"Hash"`
	Size string `json:"Size"`
}

// PinText uploads content and returns its content address. The returned
// hash is validated as a CID so a malformed upstream response can never
// leak into the ledger.
func (c *LighthouseClient) PinText(ctx context.Context, content, tag string) (string, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", tag)
	if err != nil {
		return "", fmt.Errorf("failed to build upload body: %w", err)
	}
	if _, err := part.Write([]byte(content)); err != nil {
		return "", fmt.Errorf("failed to build upload body: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to build upload body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.url+"/api/v0/add", &body)
	if err != nil {
		return "", fmt.Errorf("failed to create upload request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", pagetoll.NewError(pagetoll.KindUploadFailed,
			fmt.Sprintf("upload request failed: %v", err), nil)
	}
	defer resp.Body.Close()

	responseBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read upload response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", pagetoll.NewError(pagetoll.KindUploadFailed,
			fmt.Sprintf("pinning service returned %d: %s", resp.StatusCode, string(responseBody)), nil)
	}

	var upload uploadResponse
	if err := json.Unmarshal(responseBody, &upload); err != nil {
		return "", fmt.Errorf("failed to decode upload response: %w", err)
	}
	if _, err := cid.Decode(upload.Hash); err != nil {
		return "", pagetoll.NewError(pagetoll.KindUploadFailed,
			fmt.Sprintf("pinning service returned invalid CID %q", upload.Hash), nil)
	}

	return upload.Hash, nil
}

// FetchText reads pinned content back through the gateway.
func (c *LighthouseClient) FetchText(ctx context.Context, cidStr string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", c.gatewayURL+"/ipfs/"+cidStr, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create gateway request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", pagetoll.NewError(pagetoll.KindUpstreamUnavailable,
			fmt.Sprintf("gateway request failed: %v", err), nil)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", pagetoll.NewError(pagetoll.KindUpstreamUnavailable,
			fmt.Sprintf("gateway returned %d for %s", resp.StatusCode, cidStr), nil)
	}

	text, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read gateway response: %w", err)
	}
	return string(text), nil
}

var _ pagetoll.Pinner = (*LighthouseClient)(nil)
