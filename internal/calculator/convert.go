package calculator

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ConvertBalances converts per-member net balances, denominated in
// sourceCurrency, into target-currency minor units. rates maps a source
// currency to its multiplier into the target; a missing entry for a currency
// other than the target itself fails with ErrMissingRate.
//
// Per-member rounding can leave the converted set a few units off zero, so
// the residual is folded into the member with the largest absolute balance
// (lowest member ID on ties, to stay deterministic). The result therefore
// sums to zero whenever the input did.
func ConvertBalances(net map[string]int64, sourceCurrency, target string, rates map[string]decimal.Decimal) (map[string]int64, error) {
	out := make(map[string]int64, len(net))
	var residual int64
	carrier := ""
	for id, balance := range net {
		converted, err := convertAmount(balance, sourceCurrency, target, rates)
		if err != nil {
			return nil, fmt.Errorf("member %s: %w", id, err)
		}
		out[id] = converted
		residual += converted
		if carrier == "" || abs(converted) > abs(out[carrier]) ||
			(abs(converted) == abs(out[carrier]) && id < carrier) {
			carrier = id
		}
	}
	if residual != 0 && carrier != "" {
		out[carrier] -= residual
	}
	return out, nil
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
