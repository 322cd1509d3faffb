// Package pagetoll implements pay-per-content access for AI agents.
//
// Content owners ingest page content through the HTTP surface; the content
// is pinned to a content-addressed store, summarized into a named capability,
// and recorded in a ledger with a price. Agents discover capabilities through
// the MCP proxy and pay for content through a two-step handshake:
//
//  1. Request payment: the gateway opens a single-use payment session and
//     returns the price and recipient address.
//  2. Get content: the agent presents an on-chain transaction reference as
//     proof of payment. The verifier checks recipient and amount against a
//     chain explorer; on success the session is consumed (at most once,
//     regardless of concurrent retries) and the content record is released.
//
// All state lives in memory behind the ContentStore, SessionStore and
// CapabilityStore interfaces so a persistent backend can be substituted
// without touching protocol logic.
package pagetoll
