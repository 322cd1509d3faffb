package pagetoll

import (
	"context"
	"log/slog"
)

// Gateway orchestrates the request-payment / get-content protocol.
//
// The protocol has one irreversible step: consuming the session. It happens
// only after verification succeeds, so a session survives any number of
// failed proofs and a legitimate retry with a corrected proof can still
// release the content. Two racing requests carrying two valid proofs for
// the same session serialize on the store's atomic consume and exactly one
// is granted.
type Gateway struct {
	contents  ContentStore
	sessions  SessionStore
	verifier  *Verifier
	recipient string
	logger    *slog.Logger
}

// NewGateway wires the access gateway. recipient is the deployment's
// payout address, returned verbatim in payment details.
func NewGateway(contents ContentStore, sessions SessionStore, verifier *Verifier, recipient string, logger *slog.Logger) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{
		contents:  contents,
		sessions:  sessions,
		verifier:  verifier,
		recipient: recipient,
		logger:    logger,
	}
}

// RequestPayment opens a fresh payment session for the content at
// contentURL and returns the terms the caller must pay. Repeated calls open
// independent sessions; an existing open session is never reused, so the
// caller always sees the price current at issuance.
func (g *Gateway) RequestPayment(ctx context.Context, contentURL string) (PaymentDetails, error) {
	record, ok := g.contents.Get(contentURL)
	if !ok {
		return PaymentDetails{}, Errorf(KindNotFound, "no monetized content for URL %q", contentURL)
	}

	session := g.sessions.Open(contentURL, record.PriceFIL)
	g.logger.Info("payment session opened",
		"url", contentURL, "paymentId", session.Token, "priceFIL", session.PriceFIL)

	return PaymentDetails{
		SessionToken: session.Token,
		Recipient:    g.recipient,
		Amount:       session.PriceFIL,
		Currency:     Currency,
	}, nil
}

// GetContent attempts to release content for an open session given a
// payment proof. The returned error is non-nil only for conditions outside
// the protocol itself (malformed proof, explorer unreachable); protocol
// outcomes are reported through AccessResult.
func (g *Gateway) GetContent(ctx context.Context, sessionToken, txRef string) (AccessResult, error) {
	session, ok := g.sessions.Peek(sessionToken)
	if !ok {
		return AccessResult{Decision: DecisionDenied, Reason: ReasonSessionInvalid}, nil
	}

	if err := g.verifier.Verify(ctx, txRef, session.PriceFIL); err != nil {
		if IsKind(err, KindVerificationFailed) {
			// Session stays open so a corrected proof can retry.
			return AccessResult{Decision: DecisionDenied, Reason: ReasonPaymentNotVerified}, nil
		}
		return AccessResult{}, err
	}

	// Verification passed; consuming the session is the single irreversible
	// step. Losing this race means another request already spent the proof's
	// session, so deny even though the proof itself was valid.
	consumed, ok := g.sessions.Consume(sessionToken)
	if !ok {
		g.logger.Warn("session consumed concurrently after successful verification",
			"paymentId", sessionToken)
		return AccessResult{Decision: DecisionDenied, Reason: ReasonAlreadyConsumed}, nil
	}

	record, ok := g.contents.Get(consumed.ContentURL)
	if !ok {
		// The ledger never deletes, so this only happens if the process was
		// rewired underneath an open session.
		return AccessResult{}, Errorf(KindNotFound, "content for %q disappeared", consumed.ContentURL)
	}
	record.URL = consumed.ContentURL

	g.logger.Info("access granted", "paymentId", sessionToken, "url", consumed.ContentURL)
	return AccessResult{Decision: DecisionGranted, Record: &record}, nil
}
