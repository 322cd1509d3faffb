package pagetoll

import (
	"math/big"
)

// filDecimals is the number of decimal places between FIL and attoFIL.
const filDecimals = 18

// ParseFIL parses a decimal FIL amount such as "0.001".
func ParseFIL(amount string) (*big.Float, error) {
	f, ok := new(big.Float).SetPrec(256).SetString(amount)
	if !ok {
		return nil, Errorf(KindValidation, "invalid FIL amount %q", amount)
	}
	if f.Sign() < 0 {
		return nil, Errorf(KindValidation, "negative FIL amount %q", amount)
	}
	return f, nil
}

// FILToAtto converts a decimal FIL string into attoFIL base units.
// Comparisons against on-chain values happen in attoFIL so the decimal
// amount never goes through lossy float arithmetic.
func FILToAtto(amount string) (*big.Int, error) {
	f, err := ParseFIL(amount)
	if err != nil {
		return nil, err
	}
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(filDecimals), nil)
	scaled := new(big.Float).SetPrec(256).Mul(f, new(big.Float).SetPrec(256).SetInt(scale))
	res, _ := scaled.Int(nil)
	return res, nil
}

// AttoToFIL renders an attoFIL value as a decimal FIL string for logs and
// error messages.
func AttoToFIL(value *big.Int) string {
	if value == nil {
		return "0"
	}
	scale := new(big.Float).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(filDecimals), nil))
	f := new(big.Float).SetPrec(256).Quo(new(big.Float).SetPrec(256).SetInt(value), scale)
	return f.Text('f', -1)
}
