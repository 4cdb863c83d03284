package ledger

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestRateForInitialDeposit(t *testing.T) {
	tests := []struct {
		amount string
		want   string
	}{
		{"0.01", "0.02"},
		{"999.99", "0.02"},
		{"1000", "0.03"},
		{"1000.00", "0.03"},
		{"4999.99", "0.03"},
		{"5000", "0.04"},
		{"9999.99", "0.04"},
		{"10000", "0.05"},
		{"1000000", "0.05"},
	}
	for _, tt := range tests {
		t.Run(tt.amount, func(t *testing.T) {
			got := RateForInitialDeposit(decimal.RequireFromString(tt.amount))
			if !got.Equal(decimal.RequireFromString(tt.want)) {
				t.Errorf("RateForInitialDeposit(%s) = %s, want %s", tt.amount, got, tt.want)
			}
		})
	}
}

func TestSnowflakeNumbers(t *testing.T) {
	gen, err := NewSnowflakeNumbers(3)
	if err != nil {
		t.Fatal(err)
	}
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		n := gen.Generate()
		if len(n) != 19 {
			t.Fatalf("expected 19 digits, got %q", n)
		}
		if seen[n] {
			t.Fatalf("duplicate account number %s", n)
		}
		seen[n] = true
	}

	if _, err := NewSnowflakeNumbers(5000); err == nil {
		t.Errorf("expected an out of range node to be rejected")
	}
}
