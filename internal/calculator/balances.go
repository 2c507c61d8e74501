package calculator

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/ferd/tripsplit/internal/models"
)

// ComputeNetBalances folds expenses and settlements into one signed net
// position per member, in trip-currency minor units. Positive means the
// member is owed money, negative means they owe.
//
// For each expense the payer is credited the full amount and every split
// member is debited their share. For each settlement the payer is credited
// and the receiver debited, moving the pair toward zero.
//
// rates maps a foreign currency to its multiplier into the trip currency;
// records already denominated in the trip currency need no entry. Shares are
// computed in the expense's own currency, where split conservation is
// defined, then converted individually; the payer is credited with the sum of
// the converted shares, never an independently rounded total, so the balances
// sum to exactly zero by construction.
func ComputeNetBalances(expenses []models.Expense, settlements []models.Settlement, tripCurrency string, rates map[string]decimal.Decimal) (map[string]int64, error) {
	net := make(map[string]int64)

	for _, e := range expenses {
		shares, err := SplitShares(e.SplitMethod, e.Amount, e.Splits)
		if err != nil {
			return nil, fmt.Errorf("expense %s: %w", e.ID, err)
		}
		currency := e.Currency
		if currency == "" {
			currency = tripCurrency
		}

		var paid int64
		for _, share := range shares {
			owed, err := convertAmount(share.Amount, currency, tripCurrency, rates)
			if err != nil {
				return nil, fmt.Errorf("expense %s: %w", e.ID, err)
			}
			net[share.MemberID] -= owed
			paid += owed
		}
		net[e.PaidByID] += paid
	}

	for _, s := range settlements {
		currency := s.Currency
		if currency == "" {
			currency = tripCurrency
		}
		amount, err := convertAmount(s.Amount, currency, tripCurrency, rates)
		if err != nil {
			return nil, fmt.Errorf("settlement %s: %w", s.ID, err)
		}
		net[s.FromMemberID] += amount
		net[s.ToMemberID] -= amount
	}

	return net, nil
}

// convertAmount converts minor units from one currency into another using the
// given source→destination rate map, rounding half away from zero. Identical
// currencies pass through untouched.
func convertAmount(amount int64, from, to string, rates map[string]decimal.Decimal) (int64, error) {
	if from == to {
		return amount, nil
	}
	rate, ok := rates[from]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrMissingRate, from)
	}
	return decimal.NewFromInt(amount).Mul(rate).Round(0).IntPart(), nil
}
