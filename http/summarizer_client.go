package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	pagetoll "github.com/pagetoll/pagetoll"
)

// GeminiClient derives capability names and descriptions from content text
// through a generateContent-style API. Implements pagetoll.Summarizer.
//
// Any failure here is recoverable by design: the ingest pipeline falls back
// to a placeholder name, so this client only ever reports errors, never
// blocks registration.
type GeminiClient struct {
	url        string
	apiKey     string
	model      string
	httpClient *http.Client
}

// SummarizerClientConfig configures the summarizer client.
type SummarizerClientConfig struct {
	// URL is the API base, e.g. https://generativelanguage.googleapis.com/v1beta
	URL string

	// APIKey authenticates requests.
	APIKey string

	// Model selects the generation model (optional, defaults to
	// gemini-1.5-flash).
	Model string

	// HTTPClient overrides the default client (optional).
	HTTPClient *http.Client

	// Timeout for requests (optional, defaults to 30s). Ignored when
	// HTTPClient is set.
	Timeout time.Duration
}

const summarizePrompt = `Analyze the following text and generate two things. Provide your response as a single, valid JSON object with two keys: "toolName" (a single, descriptive, kebab-case word for a command-line tool) and "summary" (a concise one-sentence summary of the text).

Text: """
%s
"""`

// NewGeminiClient creates a summarizer client.
func NewGeminiClient(config *SummarizerClientConfig) *GeminiClient {
	if config == nil {
		config = &SummarizerClientConfig{}
	}

	model := config.Model
	if model == "" {
		model = "gemini-1.5-flash"
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		timeout := config.Timeout
		if timeout == 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	return &GeminiClient{
		url:        config.URL,
		apiKey:     config.APIKey,
		model:      model,
		httpClient: httpClient,
	}
}

type generatePart struct {
	Text string `json:"text"`
}

type generateContent struct {
	Parts []generatePart `json:"parts"`
}

type generateRequest struct {
	Contents []generateContent `json:"contents"`
}

type generateResponse struct {
	Candidates []struct {
		Content generateContent `json:"content"`
	} `json:"candidates"`
}

// jsonObjectPattern extracts the first JSON object from a model response
// that may be wrapped in prose or code fences.
var jsonObjectPattern = regexp.MustCompile(`(?s)\{.*\}`)

// Summarize asks the model for a name and description.
func (c *GeminiClient) Summarize(ctx context.Context, text string) (pagetoll.Summary, error) {
	reqBody := generateRequest{
		Contents: []generateContent{
			{Parts: []generatePart{{Text: fmt.Sprintf(summarizePrompt, text)}}},
		},
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return pagetoll.Summary{}, fmt.Errorf("failed to marshal generate request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.url, c.model, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, bytes.NewReader(body))
	if err != nil {
		return pagetoll.Summary{}, fmt.Errorf("failed to create generate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return pagetoll.Summary{}, pagetoll.NewError(pagetoll.KindUpstreamUnavailable,
			fmt.Sprintf("summarizer request failed: %v", err), nil)
	}
	defer resp.Body.Close()

	responseBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return pagetoll.Summary{}, fmt.Errorf("failed to read summarizer response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return pagetoll.Summary{}, pagetoll.NewError(pagetoll.KindUpstreamUnavailable,
			fmt.Sprintf("summarizer returned %d: %s", resp.StatusCode, string(responseBody)), nil)
	}

	var generated generateResponse
	if err := json.Unmarshal(responseBody, &generated); err != nil {
		return pagetoll.Summary{}, fmt.Errorf("failed to decode summarizer response: %w", err)
	}
	if len(generated.Candidates) == 0 || len(generated.Candidates[0].Content.Parts) == 0 {
		return pagetoll.Summary{}, fmt.Errorf("summarizer returned no candidates")
	}

	raw := jsonObjectPattern.FindString(generated.Candidates[0].Content.Parts[0].Text)
	if raw == "" {
		return pagetoll.Summary{}, fmt.Errorf("summarizer did not return a JSON object")
	}

	var summary pagetoll.Summary
	if err := json.Unmarshal([]byte(raw), &summary); err != nil {
		return pagetoll.Summary{}, fmt.Errorf("failed to parse summarizer JSON: %w", err)
	}
	summary.Name = KebabCase(summary.Name)
	if summary.Name == "" {
		return pagetoll.Summary{}, fmt.Errorf("summarizer returned an empty tool name")
	}
	return summary, nil
}

// kebabInvalid matches every run of characters that may not appear in a
// capability name.
var kebabInvalid = regexp.MustCompile(`[^a-z0-9]+`)

// KebabCase normalizes a model-suggested name into a machine-friendly
// token: lowercase, digits and single dashes only.
func KebabCase(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	name = kebabInvalid.ReplaceAllString(name, "-")
	return strings.Trim(name, "-")
}

var _ pagetoll.Summarizer = (*GeminiClient)(nil)
