package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	pagetoll "github.com/pagetoll/pagetoll"
	"github.com/pagetoll/pagetoll/ratelimit"
)

const (
	testRecipient = "f1recipient"
	testTxRef     = "bafkqaaa"
)

type stubLookup struct {
	info pagetoll.MessageInfo
	err  error
}

func (s *stubLookup) LookupMessage(ctx context.Context, txRef string) (pagetoll.MessageInfo, error) {
	return s.info, s.err
}

type stubPinner struct {
	cid    string
	pinErr error
}

func (s *stubPinner) PinText(ctx context.Context, text, owner string) (string, error) {
	if s.pinErr != nil {
		return "", s.pinErr
	}
	return s.cid, nil
}

func (s *stubPinner) FetchText(ctx context.Context, cid string) (string, error) {
	return "", errors.New("no gateway in tests")
}

type stubSummarizer struct {
	summary pagetoll.Summary
}

func (s *stubSummarizer) Summarize(ctx context.Context, text string) (pagetoll.Summary, error) {
	return s.summary, nil
}

type serviceFixture struct {
	service  *Service
	lookup   *stubLookup
	contents pagetoll.ContentStore
}

func newServiceFixture(t *testing.T, limiter *ratelimit.Keyed) *serviceFixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	contents := pagetoll.NewInMemoryContentStore()
	sessions := pagetoll.NewInMemorySessionStore(time.Minute)
	capabilities := pagetoll.NewInMemoryCapabilityStore()

	lookup := &stubLookup{}
	verifier := pagetoll.NewVerifier(lookup, testRecipient, pagetoll.WithVerifierLogger(logger))
	registry := pagetoll.NewRegistry(capabilities, logger)
	gateway := pagetoll.NewGateway(contents, sessions, verifier, testRecipient, logger)
	ingestor := pagetoll.NewIngestor(
		&stubPinner{cid: "bafkqaaa"},
		&stubSummarizer{summary: pagetoll.Summary{Name: "filecoin-guide", Description: "a guide"}},
		contents, registry, "0.001", logger)

	service := NewService(ServiceConfig{
		Gateway:        gateway,
		Registry:       registry,
		Ingestor:       ingestor,
		SessionLimiter: limiter,
		Logger:         logger,
	})
	return &serviceFixture{service: service, lookup: lookup, contents: contents}
}

func (f *serviceFixture) do(t *testing.T, method, target string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		reader = bytes.NewReader(encoded)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	f.service.Handler().ServeHTTP(w, req)

	decoded := map[string]interface{}{}
	if w.Body.Len() > 0 && strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") &&
		strings.HasPrefix(strings.TrimSpace(w.Body.String()), "{") {
		if err := json.Unmarshal(w.Body.Bytes(), &decoded); err != nil {
			t.Fatalf("decode response %q: %v", w.Body.String(), err)
		}
	}
	return w, decoded
}

func ingestBody() map[string]string {
	return map[string]string{
		"content":        "How to store data on Filecoin.",
		"title":          "Filecoin Guide",
		"wallet_address": "f1owner",
		"url":            "https://site/filecoin-guide",
	}
}

func TestService_Ingest(t *testing.T) {
	f := newServiceFixture(t, nil)

	w, body := f.do(t, "POST", "/ingest", ingestBody())
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	if body["toolName"] != "filecoin-guide" || body["lighthouseHash"] != "bafkqaaa" {
		t.Errorf("body = %v", body)
	}

	if _, ok := f.contents.Get("https://site/filecoin-guide"); !ok {
		t.Error("expected content to be monetized")
	}
}

func TestService_Ingest_MissingField(t *testing.T) {
	f := newServiceFixture(t, nil)

	req := ingestBody()
	delete(req, "wallet_address")
	w, body := f.do(t, "POST", "/ingest", req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	if body["kind"] != pagetoll.KindValidation {
		t.Errorf("kind = %v", body["kind"])
	}
}

func TestService_Capabilities(t *testing.T) {
	f := newServiceFixture(t, nil)
	f.do(t, "POST", "/ingest", ingestBody())

	w, _ := f.do(t, "GET", "/capabilities", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var list []pagetoll.CapabilitySummary
	if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(list) != 1 || list[0].Name != "filecoin-guide" {
		t.Errorf("list = %+v", list)
	}

	w, body := f.do(t, "GET", "/capabilities/filecoin-guide", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("info status = %d", w.Code)
	}
	if body["name"] != "filecoin-guide" {
		t.Errorf("info body = %v", body)
	}

	w, body = f.do(t, "GET", "/capabilities/nope", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("miss status = %d", w.Code)
	}
	if _, ok := body["available"]; !ok {
		t.Errorf("expected available list on miss, got %v", body)
	}
}

func TestService_Execute(t *testing.T) {
	f := newServiceFixture(t, nil)
	f.do(t, "POST", "/ingest", ingestBody())

	w, body := f.do(t, "POST", "/capabilities/execute", map[string]interface{}{
		"toolName":   "filecoin-guide",
		"parameters": map[string]interface{}{"query": "what is a deal?"},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	content, _ := body["content"].(string)
	if !strings.Contains(content, "filecoin-guide") || !strings.Contains(content, "Query: what is a deal?") {
		t.Errorf("content = %q", content)
	}

	w, _ = f.do(t, "POST", "/capabilities/execute", map[string]interface{}{"toolName": "nope"})
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown tool status = %d", w.Code)
	}

	w, _ = f.do(t, "POST", "/capabilities/execute", map[string]interface{}{})
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing toolName status = %d", w.Code)
	}
}

func TestService_PaymentSession(t *testing.T) {
	f := newServiceFixture(t, nil)
	f.do(t, "POST", "/ingest", ingestBody())

	w, body := f.do(t, "GET", "/payment-session?url=https://site/filecoin-guide", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	if body["paymentId"] == "" || body["recipientAddress"] != testRecipient {
		t.Errorf("body = %v", body)
	}
	if body["amount"] != "0.001" || body["currency"] != "FIL" {
		t.Errorf("terms = %v %v", body["amount"], body["currency"])
	}

	w, _ = f.do(t, "GET", "/payment-session?url=https://site/unknown", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown url status = %d", w.Code)
	}

	w, _ = f.do(t, "GET", "/payment-session", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing url status = %d", w.Code)
	}
}

func TestService_PaymentSession_RateLimited(t *testing.T) {
	f := newServiceFixture(t, ratelimit.New(1, 1, time.Minute))
	f.do(t, "POST", "/ingest", ingestBody())

	w, _ := f.do(t, "GET", "/payment-session?url=https://site/filecoin-guide", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("first request status = %d", w.Code)
	}
	w, _ = f.do(t, "GET", "/payment-session?url=https://site/filecoin-guide", nil)
	if w.Code != http.StatusTooManyRequests {
		t.Errorf("second request status = %d, want 429", w.Code)
	}
}

func TestService_AccessFlow(t *testing.T) {
	f := newServiceFixture(t, nil)
	f.do(t, "POST", "/ingest", ingestBody())

	_, session := f.do(t, "GET", "/payment-session?url=https://site/filecoin-guide", nil)
	paymentID, _ := session["paymentId"].(string)
	if paymentID == "" {
		t.Fatal("no paymentId issued")
	}

	// Underpayment: 402 and the session survives.
	f.lookup.info = pagetoll.MessageInfo{Recipient: testRecipient, Value: big.NewInt(1)}
	w, _ := f.do(t, "GET", "/access?session="+paymentID+"&proof="+testTxRef, nil)
	if w.Code != http.StatusPaymentRequired {
		t.Fatalf("underpay status = %d, body %s", w.Code, w.Body.String())
	}

	// Sufficient payment releases the content.
	f.lookup.info = pagetoll.MessageInfo{Recipient: testRecipient, Value: big.NewInt(2_000_000_000_000_000)}
	w, body := f.do(t, "GET", "/access?session="+paymentID+"&proof="+testTxRef, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("paid status = %d, body %s", w.Code, w.Body.String())
	}
	data, _ := body["data"].(map[string]interface{})
	if data["ipfsHash"] != "bafkqaaa" || data["requestedUrl"] != "https://site/filecoin-guide" {
		t.Errorf("data = %v", data)
	}

	// The session is single use.
	w, _ = f.do(t, "GET", "/access?session="+paymentID+"&proof="+testTxRef, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("replay status = %d, want 404", w.Code)
	}
}

func TestService_Access_ExplorerDown(t *testing.T) {
	f := newServiceFixture(t, nil)
	f.do(t, "POST", "/ingest", ingestBody())
	_, session := f.do(t, "GET", "/payment-session?url=https://site/filecoin-guide", nil)
	paymentID, _ := session["paymentId"].(string)

	f.lookup.err = pagetoll.Errorf(pagetoll.KindUpstreamUnavailable, "explorer timeout")
	w, _ := f.do(t, "GET", "/access?session="+paymentID+"&proof="+testTxRef, nil)
	if w.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", w.Code)
	}
}

func TestService_Access_MissingParams(t *testing.T) {
	f := newServiceFixture(t, nil)

	w, _ := f.do(t, "GET", "/access?session=abc", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestService_Healthz(t *testing.T) {
	f := newServiceFixture(t, nil)
	w, body := f.do(t, "GET", "/healthz", nil)
	if w.Code != http.StatusOK || body["status"] != "ok" {
		t.Errorf("healthz = %d %v", w.Code, body)
	}
}
