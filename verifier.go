package pagetoll

import (
	"context"
	"log/slog"

	"github.com/ipfs/go-cid"
)

// Verifier confirms that a claimed on-chain payment matches the expected
// recipient and amount. It delegates the lookup to a chain explorer and
// compares in attoFIL base units: the recipient must match exactly and the
// transferred amount must be greater than or equal to the expected amount.
// Overpayment is accepted, underpayment is rejected.
type Verifier struct {
	lookup    TxLookup
	recipient string
	bypass    bool
	logger    *slog.Logger
}

// VerifierOption configures the verifier at construction time.
type VerifierOption func(*Verifier)

// WithInsecureBypass disables real verification and accepts every proof.
// Development-only: the caller is responsible for never wiring this option
// in a production configuration (config.Load refuses the combination).
func WithInsecureBypass() VerifierOption {
	return func(v *Verifier) {
		v.bypass = true
	}
}

// WithVerifierLogger sets the logger used for verification outcomes.
func WithVerifierLogger(logger *slog.Logger) VerifierOption {
	return func(v *Verifier) {
		v.logger = logger
	}
}

// NewVerifier creates a verifier that expects payments to recipient.
func NewVerifier(lookup TxLookup, recipient string, opts ...VerifierOption) *Verifier {
	v := &Verifier{
		lookup:    lookup,
		recipient: recipient,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(v)
	}
	if v.bypass {
		v.logger.Warn("payment verification BYPASSED: all proofs will be accepted; never run this configuration in production")
	}
	return v
}

// Verify checks the transaction reference against the expected amount.
// Returns nil when the payment is valid. Failure kinds:
//   - KindValidation: txRef is not a well-formed message CID
//   - KindVerificationFailed: recipient or amount did not match
//   - KindVerificationUnavailable: the explorer could not be reached
func (v *Verifier) Verify(ctx context.Context, txRef, expectedFIL string) error {
	if v.bypass {
		v.logger.Warn("skipping real payment verification (bypass enabled)",
			"txRef", txRef, "expectedFIL", expectedFIL)
		return nil
	}

	if _, err := cid.Decode(txRef); err != nil {
		return Errorf(KindValidation, "invalid transaction reference %q: not a message CID", txRef)
	}

	expected, err := FILToAtto(expectedFIL)
	if err != nil {
		return err
	}

	info, err := v.lookup.LookupMessage(ctx, txRef)
	if err != nil {
		if IsKind(err, KindVerificationFailed) {
			return err
		}
		return NewError(KindVerificationUnavailable,
			"transaction lookup failed: "+err.Error(), nil)
	}

	if info.Recipient != v.recipient {
		v.logger.Info("payment rejected: recipient mismatch",
			"txRef", txRef, "expected", v.recipient, "actual", info.Recipient)
		return Errorf(KindVerificationFailed,
			"payment went to %s, expected %s", info.Recipient, v.recipient)
	}
	if info.Value == nil || info.Value.Cmp(expected) < 0 {
		v.logger.Info("payment rejected: amount below expected",
			"txRef", txRef, "expectedFIL", expectedFIL, "actualFIL", AttoToFIL(info.Value))
		return Errorf(KindVerificationFailed,
			"payment of %s FIL is below the expected %s FIL", AttoToFIL(info.Value), expectedFIL)
	}

	v.logger.Info("payment verified", "txRef", txRef, "amountFIL", AttoToFIL(info.Value))
	return nil
}
