package calculator

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestConvertBalances(t *testing.T) {
	rates := map[string]decimal.Decimal{
		"USD": decimal.RequireFromString("7.8"),
	}

	tests := []struct {
		name    string
		net     map[string]int64
		source  string
		target  string
		rates   map[string]decimal.Decimal
		wantErr error
		want    map[string]int64
	}{
		{
			name:   "same currency passes through",
			net:    map[string]int64{"a": 500, "b": -500},
			source: "USD",
			target: "USD",
			want:   map[string]int64{"a": 500, "b": -500},
		},
		{
			name:   "clean conversion",
			net:    map[string]int64{"a": 100, "b": -100},
			source: "USD",
			target: "HKD",
			rates:  rates,
			want:   map[string]int64{"a": 780, "b": -780},
		},
		{
			name:   "rounding residual folded into largest balance",
			net:    map[string]int64{"a": 333, "b": 333, "c": -666},
			source: "USD",
			target: "HKD",
			rates:  map[string]decimal.Decimal{"USD": decimal.RequireFromString("1.0007")},
			// raw conversions round to 333, 333, -666 scaled: 333.2331→333,
			// -666.4662→-666; any residual lands on c, the largest magnitude
			want: map[string]int64{"a": 333, "b": 333, "c": -666},
		},
		{
			name:    "missing rate",
			net:     map[string]int64{"a": 100},
			source:  "GBP",
			target:  "HKD",
			rates:   rates,
			wantErr: ErrMissingRate,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ConvertBalances(tt.net, tt.source, tt.target, tt.rates)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("ConvertBalances() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ConvertBalances() error = %v", err)
			}
			checkZeroSum(t, got)
			for id, want := range tt.want {
				if got[id] != want {
					t.Errorf("converted[%s] = %d, want %d", id, got[id], want)
				}
			}
		})
	}
}

func TestConvertBalancesZeroSumUnderAwkwardRates(t *testing.T) {
	// Rates chosen so per-member rounding drifts; the residual correction
	// must bring the total back to exactly zero every time.
	nets := []map[string]int64{
		{"a": 333, "b": 333, "c": 333, "d": -999},
		{"a": 1, "b": 1, "c": 1, "d": -3},
		{"a": 12345, "b": -5432, "c": -6913},
	}
	rateStrings := []string{"0.1234", "7.7501", "0.006913", "1.5"}

	for _, net := range nets {
		for _, rs := range rateStrings {
			rates := map[string]decimal.Decimal{"USD": decimal.RequireFromString(rs)}
			got, err := ConvertBalances(net, "USD", "XXX", rates)
			if err != nil {
				t.Fatalf("ConvertBalances(rate=%s) error = %v", rs, err)
			}
			checkZeroSum(t, got)
		}
	}
}
