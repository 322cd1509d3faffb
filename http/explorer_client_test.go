package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	pagetoll "github.com/pagetoll/pagetoll"
)

func TestFilfoxClient_LookupMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/message/bafkqaaa" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"to":"f1recipient","value":"1000000000000000","from":"f1payer"}`))
	}))
	defer server.Close()

	client := NewFilfoxClient(&ExplorerClientConfig{URL: server.URL})
	info, err := client.LookupMessage(context.Background(), "bafkqaaa")
	if err != nil {
		t.Fatalf("LookupMessage: %v", err)
	}
	if info.Recipient != "f1recipient" {
		t.Errorf("recipient = %q", info.Recipient)
	}
	if info.Value.String() != "1000000000000000" {
		t.Errorf("value = %s", info.Value)
	}
}

func TestFilfoxClient_MessageNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	client := NewFilfoxClient(&ExplorerClientConfig{URL: server.URL})
	_, err := client.LookupMessage(context.Background(), "bafkqaaa")
	if !pagetoll.IsKind(err, pagetoll.KindVerificationFailed) {
		t.Errorf("expected verification_failed for unknown message, got %v", err)
	}
}

func TestFilfoxClient_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewFilfoxClient(&ExplorerClientConfig{URL: server.URL})
	_, err := client.LookupMessage(context.Background(), "bafkqaaa")
	if !pagetoll.IsKind(err, pagetoll.KindUpstreamUnavailable) {
		t.Errorf("expected upstream_unavailable, got %v", err)
	}
}

func TestFilfoxClient_RetriesOnRateLimit(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"to":"f1recipient","value":"5"}`))
	}))
	defer server.Close()

	client := NewFilfoxClient(&ExplorerClientConfig{URL: server.URL})
	info, err := client.LookupMessage(context.Background(), "bafkqaaa")
	if err != nil {
		t.Fatalf("LookupMessage: %v", err)
	}
	if attempts != 2 {
		t.Errorf("attempts = %d, want 2", attempts)
	}
	if info.Value.Int64() != 5 {
		t.Errorf("value = %s", info.Value)
	}
}

func TestFilfoxClient_TransportError(t *testing.T) {
	client := NewFilfoxClient(&ExplorerClientConfig{URL: "http://127.0.0.1:0"})
	_, err := client.LookupMessage(context.Background(), "bafkqaaa")
	if !pagetoll.IsKind(err, pagetoll.KindUpstreamUnavailable) {
		t.Errorf("expected upstream_unavailable, got %v", err)
	}
}
