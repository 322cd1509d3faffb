package pagetoll

import (
	"context"
	"math/big"
)

// ContentStore holds one record per monetized content URL.
// Put replaces unconditionally; no merge, no conflict detection, no delete.
// Implementations must be safe for concurrent use.
type ContentStore interface {
	Put(url string, record ContentRecord)
	Get(url string) (ContentRecord, bool)
}

// SessionStore issues and consumes single-use payment session tokens.
//
// Consume must be a single atomic check-and-remove: two concurrent Consume
// calls racing on the same token must result in exactly one success. A
// read-then-delete implementation would allow double release.
type SessionStore interface {
	// Open generates a fresh unique token and stores the session.
	Open(contentURL, priceFIL string) PaymentSession

	// Peek returns the session without consuming it.
	Peek(token string) (PaymentSession, bool)

	// Consume atomically removes and returns the session. Returns false if
	// the token was never issued, already consumed, or expired.
	Consume(token string) (PaymentSession, bool)
}

// CapabilityStore holds one entry per dynamically created capability.
// Register replaces silently on name collision (last write wins).
type CapabilityStore interface {
	Register(record CapabilityRecord)
	List() []CapabilitySummary
	Lookup(name string) (CapabilityRecord, bool)
}

// MessageInfo is the explorer's view of an on-chain payment message.
// Value is denominated in attoFIL (1 FIL = 10^18 attoFIL).
type MessageInfo struct {
	Recipient string
	Value     *big.Int
}

// TxLookup fetches the recorded recipient and transferred amount for a
// claimed transaction reference. Implementations talk to an external chain
// explorer and must bound their calls with the context.
type TxLookup interface {
	LookupMessage(ctx context.Context, txRef string) (MessageInfo, error)
}

// Pinner uploads text to a content-addressed store and reads it back
// through a public gateway.
type Pinner interface {
	PinText(ctx context.Context, content, tag string) (string, error)
	FetchText(ctx context.Context, cidStr string) (string, error)
}

// Summarizer derives a machine-friendly capability name and a one-sentence
// description from raw text.
type Summarizer interface {
	Summarize(ctx context.Context, text string) (Summary, error)
}
