package http

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"time"

	pagetoll "github.com/pagetoll/pagetoll"
)

// FilfoxClient looks up Filecoin messages through a Filfox-compatible block
// explorer API. Implements pagetoll.TxLookup.
type FilfoxClient struct {
	url        string
	httpClient *http.Client
}

// ExplorerClientConfig configures the explorer client.
type ExplorerClientConfig struct {
	// URL is the API base, e.g. https://filfox.info/api/v1
	URL string

	// HTTPClient overrides the default client (optional).
	HTTPClient *http.Client

	// Timeout for requests (optional, defaults to 15s). Ignored when
	// HTTPClient is set.
	Timeout time.Duration
}

// DefaultExplorerURL is the public Filfox API.
const DefaultExplorerURL = "https://filfox.info/api/v1"

// lookupRetries is the number of attempts for message lookups that hit the
// explorer's rate limit.
const lookupRetries = 3

// lookupRetryBaseDelay is the base delay for exponential backoff on retries.
const lookupRetryBaseDelay = 500 * time.Millisecond

// NewFilfoxClient creates an explorer client.
func NewFilfoxClient(config *ExplorerClientConfig) *FilfoxClient {
	if config == nil {
		config = &ExplorerClientConfig{}
	}

	url := config.URL
	if url == "" {
		url = DefaultExplorerURL
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		timeout := config.Timeout
		if timeout == 0 {
			timeout = 15 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	return &FilfoxClient{url: url, httpClient: httpClient}
}

// messageResponse is the subset of the explorer's message document we read.
type messageResponse struct {
	To    string `json:"to"`
	Value string `json:"value"` // attoFIL
}

// LookupMessage fetches the recipient and transferred value for a message
// CID. Retries with exponential backoff when the explorer rate-limits.
func (c *FilfoxClient) LookupMessage(ctx context.Context, txRef string) (pagetoll.MessageInfo, error) {
	var lastErr error

	for attempt := range lookupRetries {
		req, err := http.NewRequestWithContext(ctx, "GET", c.url+"/message/"+txRef, nil)
		if err != nil {
			return pagetoll.MessageInfo{}, fmt.Errorf("failed to create message lookup request: %w", err)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return pagetoll.MessageInfo{}, pagetoll.NewError(pagetoll.KindUpstreamUnavailable,
				fmt.Sprintf("explorer request failed: %v", err), nil)
		}

		responseBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return pagetoll.MessageInfo{}, fmt.Errorf("failed to read explorer response: %w", err)
		}

		switch {
		case resp.StatusCode == http.StatusOK:
			var message messageResponse
			if err := json.Unmarshal(responseBody, &message); err != nil {
				return pagetoll.MessageInfo{}, fmt.Errorf("failed to decode explorer response: %w", err)
			}
			value, ok := new(big.Int).SetString(message.Value, 10)
			if !ok {
				return pagetoll.MessageInfo{}, fmt.Errorf("explorer returned unparseable value %q", message.Value)
			}
			return pagetoll.MessageInfo{Recipient: message.To, Value: value}, nil

		case resp.StatusCode == http.StatusNotFound:
			// An unknown message is a failed proof, not an outage: the
			// caller may retry with a real transaction.
			return pagetoll.MessageInfo{}, pagetoll.Errorf(pagetoll.KindVerificationFailed,
				"message %s not found on chain", txRef)

		case resp.StatusCode == http.StatusTooManyRequests && attempt < lookupRetries-1:
			lastErr = fmt.Errorf("explorer rate limited (%d)", resp.StatusCode)
			delay := lookupRetryBaseDelay * time.Duration(1<<uint(attempt))
			select {
			case <-time.After(delay):
				continue
			case <-ctx.Done():
				return pagetoll.MessageInfo{}, ctx.Err()
			}

		default:
			return pagetoll.MessageInfo{}, pagetoll.NewError(pagetoll.KindUpstreamUnavailable,
				fmt.Sprintf("explorer returned %d: %s", resp.StatusCode, string(responseBody)), nil)
		}
	}

	return pagetoll.MessageInfo{}, pagetoll.NewError(pagetoll.KindUpstreamUnavailable,
		fmt.Sprintf("explorer lookup failed after %d attempts: %v", lookupRetries, lastErr), nil)
}

var _ pagetoll.TxLookup = (*FilfoxClient)(nil)
