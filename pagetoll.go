package pagetoll

import (
	"encoding/json"
	"time"
)

// Currency is the unit all prices are quoted in.
const Currency = "FIL"

// ContentRecord is the ledger entry for one monetized content URL.
// The URL is the unique key; re-ingesting the same URL replaces the
// record unconditionally (last write wins, no versioning).
type ContentRecord struct {
	URL         string    `json:"requestedUrl,omitempty"`
	CID         string    `json:"ipfsHash"`
	OwnerWallet string    `json:"ownerWallet"`
	Title       string    `json:"title"`
	PriceFIL    string    `json:"priceFIL"`
	CreatedAt   time.Time `json:"uploadTimestamp"`
}

// PaymentSession is a single-use credential binding a content URL to the
// price quoted at issuance. It is destroyed exactly once, at the moment
// access is granted; failed verifications leave it open for retry.
type PaymentSession struct {
	Token      string    `json:"paymentId"`
	ContentURL string    `json:"contentUrl"`
	PriceFIL   string    `json:"priceFIL"`
	IssuedAt   time.Time `json:"issuedAt"`
}

// PaymentDetails is returned by the request-payment step and tells the
// caller exactly what to pay, to whom, before committing funds.
type PaymentDetails struct {
	SessionToken string `json:"paymentId"`
	Recipient    string `json:"recipientAddress"`
	Amount       string `json:"amount"`
	Currency     string `json:"currency"`
}

// CapabilityRecord is a named, agent-invokable unit backed by content.
// The name is the unique key; registering an existing name replaces the
// prior entry.
type CapabilityRecord struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Content     string          `json:"content"`
	InputSchema json.RawMessage `json:"inputSchema,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// CapabilitySummary is the discovery view of a capability.
type CapabilitySummary struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Summary is the output of the naming/summarization collaborator.
type Summary struct {
	Name        string `json:"toolName"`
	Description string `json:"summary"`
}

// AccessDecision is the terminal state of a get-content attempt.
type AccessDecision string

const (
	DecisionGranted AccessDecision = "granted"
	DecisionDenied  AccessDecision = "denied"
)

// Deny reasons for AccessResult.
const (
	ReasonSessionInvalid     = "session_invalid"
	ReasonPaymentNotVerified = "payment_not_verified"
	ReasonAlreadyConsumed    = "already_consumed"
)

// AccessResult is the structured outcome of the get-content protocol step.
// Record is populated only when Decision is DecisionGranted.
type AccessResult struct {
	Decision AccessDecision `json:"decision"`
	Reason   string         `json:"reason,omitempty"`
	Record   *ContentRecord `json:"record,omitempty"`
}

// Granted reports whether the access attempt released the content.
func (r AccessResult) Granted() bool {
	return r.Decision == DecisionGranted
}
