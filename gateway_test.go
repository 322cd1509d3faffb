package pagetoll

import (
	"context"
	"errors"
	"testing"
	"time"
)

func newTestGateway(t *testing.T, lookup TxLookup) (*Gateway, ContentStore) {
	t.Helper()
	contents := NewInMemoryContentStore()
	sessions := NewInMemorySessionStore(time.Minute)
	verifier := NewVerifier(lookup, testRecipient, WithVerifierLogger(testLogger()))
	return NewGateway(contents, sessions, verifier, testRecipient, testLogger()), contents
}

func TestGateway_RequestPayment(t *testing.T) {
	gw, contents := newTestGateway(t, &fakeLookup{})
	contents.Put("https://site/a", ContentRecord{URL: "https://site/a", PriceFIL: "0.001"})

	details, err := gw.RequestPayment(context.Background(), "https://site/a")
	if err != nil {
		t.Fatalf("RequestPayment: %v", err)
	}
	if details.SessionToken == "" {
		t.Error("expected a session token")
	}
	if details.Recipient != testRecipient {
		t.Errorf("recipient = %q, want %q", details.Recipient, testRecipient)
	}
	if details.Amount != "0.001" || details.Currency != Currency {
		t.Errorf("terms = %s %s, want 0.001 %s", details.Amount, details.Currency, Currency)
	}
}

func TestGateway_RequestPayment_UnknownURL(t *testing.T) {
	gw, _ := newTestGateway(t, &fakeLookup{})

	_, err := gw.RequestPayment(context.Background(), "https://site/unknown")
	if !IsKind(err, KindNotFound) {
		t.Errorf("expected not_found, got %v", err)
	}
}

func TestGateway_RequestPayment_FreshSessionEachCall(t *testing.T) {
	gw, contents := newTestGateway(t, &fakeLookup{})
	contents.Put("https://site/a", ContentRecord{URL: "https://site/a", PriceFIL: "0.001"})

	first, _ := gw.RequestPayment(context.Background(), "https://site/a")
	second, _ := gw.RequestPayment(context.Background(), "https://site/a")
	if first.SessionToken == second.SessionToken {
		t.Error("expected independent sessions per request")
	}
}

// Exercises the whole protocol: monetized content, session issuance, and an
// overpaying proof to the correct recipient releasing the content.
func TestGateway_FullProtocol_OverpaymentGranted(t *testing.T) {
	lookup := &fakeLookup{info: MessageInfo{Recipient: testRecipient, Value: atto("0.002")}}
	gw, contents := newTestGateway(t, lookup)
	contents.Put("https://site/a", ContentRecord{
		URL: "https://site/a", CID: "bafkqaaa", Title: "Guide", PriceFIL: "0.001",
	})

	details, err := gw.RequestPayment(context.Background(), "https://site/a")
	if err != nil {
		t.Fatalf("RequestPayment: %v", err)
	}

	result, err := gw.GetContent(context.Background(), details.SessionToken, testTxRef)
	if err != nil {
		t.Fatalf("GetContent: %v", err)
	}
	if !result.Granted() {
		t.Fatalf("expected access granted, got %+v", result)
	}
	if result.Record == nil || result.Record.CID != "bafkqaaa" || result.Record.URL != "https://site/a" {
		t.Errorf("granted record = %+v", result.Record)
	}

	// The session was spent; the same proof cannot release it twice.
	again, err := gw.GetContent(context.Background(), details.SessionToken, testTxRef)
	if err != nil {
		t.Fatalf("GetContent second call: %v", err)
	}
	if again.Granted() || again.Reason != ReasonSessionInvalid {
		t.Errorf("expected session_invalid after spend, got %+v", again)
	}
}

func TestGateway_GetContent_UnknownSession(t *testing.T) {
	gw, _ := newTestGateway(t, &fakeLookup{})

	result, err := gw.GetContent(context.Background(), "no-such-token", testTxRef)
	if err != nil {
		t.Fatalf("GetContent: %v", err)
	}
	if result.Granted() || result.Reason != ReasonSessionInvalid {
		t.Errorf("expected session_invalid, got %+v", result)
	}
}

func TestGateway_GetContent_UnderpaymentKeepsSessionOpen(t *testing.T) {
	lookup := &fakeLookup{info: MessageInfo{Recipient: testRecipient, Value: atto("0.0001")}}
	gw, contents := newTestGateway(t, lookup)
	contents.Put("https://site/a", ContentRecord{URL: "https://site/a", PriceFIL: "0.001"})

	details, _ := gw.RequestPayment(context.Background(), "https://site/a")

	result, err := gw.GetContent(context.Background(), details.SessionToken, testTxRef)
	if err != nil {
		t.Fatalf("GetContent: %v", err)
	}
	if result.Granted() || result.Reason != ReasonPaymentNotVerified {
		t.Errorf("expected payment_not_verified, got %+v", result)
	}

	// A corrected proof against the same session still works.
	lookup.info.Value = atto("0.001")
	retry, err := gw.GetContent(context.Background(), details.SessionToken, testTxRef)
	if err != nil {
		t.Fatalf("GetContent retry: %v", err)
	}
	if !retry.Granted() {
		t.Errorf("expected retry with valid proof to be granted, got %+v", retry)
	}
}

func TestGateway_GetContent_ExplorerOutageSurfaces(t *testing.T) {
	gw, contents := newTestGateway(t, &fakeLookup{err: errors.New("timeout")})
	contents.Put("https://site/a", ContentRecord{URL: "https://site/a", PriceFIL: "0.001"})

	details, _ := gw.RequestPayment(context.Background(), "https://site/a")

	_, err := gw.GetContent(context.Background(), details.SessionToken, testTxRef)
	if !IsKind(err, KindVerificationUnavailable) {
		t.Errorf("expected verification_unavailable, got %v", err)
	}

	// An outage must not spend the session.
	lookupOK := &fakeLookup{info: MessageInfo{Recipient: testRecipient, Value: atto("0.001")}}
	gw.verifier = NewVerifier(lookupOK, testRecipient, WithVerifierLogger(testLogger()))
	result, err := gw.GetContent(context.Background(), details.SessionToken, testTxRef)
	if err != nil {
		t.Fatalf("GetContent after recovery: %v", err)
	}
	if !result.Granted() {
		t.Errorf("expected grant after explorer recovery, got %+v", result)
	}
}
