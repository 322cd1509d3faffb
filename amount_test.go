package pagetoll

import (
	"math/big"
	"testing"
)

func TestFILToAtto(t *testing.T) {
	tests := []struct {
		amount string
		want   string
	}{
		{"0.001", "1000000000000000"},
		{"0.002", "2000000000000000"},
		{"1", "1000000000000000000"},
		{"0", "0"},
		{"2.5", "2500000000000000000"},
	}
	for _, tt := range tests {
		got, err := FILToAtto(tt.amount)
		if err != nil {
			t.Errorf("FILToAtto(%q) unexpected error: %v", tt.amount, err)
			continue
		}
		if got.String() != tt.want {
			t.Errorf("FILToAtto(%q) = %s, want %s", tt.amount, got, tt.want)
		}
	}
}

func TestFILToAtto_Invalid(t *testing.T) {
	for _, amount := range []string{"", "abc", "-0.001", "1.2.3"} {
		if _, err := FILToAtto(amount); err == nil {
			t.Errorf("FILToAtto(%q) expected error", amount)
		}
		if _, err := FILToAtto(amount); err != nil && !IsKind(err, KindValidation) {
			t.Errorf("FILToAtto(%q) expected validation kind, got %v", amount, err)
		}
	}
}

func TestAttoToFIL(t *testing.T) {
	value := new(big.Int)
	value.SetString("1000000000000000", 10)
	if got := AttoToFIL(value); got != "0.001" {
		t.Errorf("AttoToFIL = %q, want 0.001", got)
	}
	if got := AttoToFIL(nil); got != "0" {
		t.Errorf("AttoToFIL(nil) = %q, want 0", got)
	}
}
