// Package calculator implements the pure balance-computation core: expense
// splitting, net-balance folding, settled-by resolution, currency conversion,
// and greedy debt simplification. Every function here is a pure function of
// its inputs with no I/O, safe to call concurrently across trips.
package calculator

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/ferd/tripsplit/internal/models"
)

var hundred = decimal.NewFromInt(100)

// MemberShare is one member's owed portion of an expense, in minor units of
// the expense's own currency.
type MemberShare struct {
	MemberID string
	Amount   int64
}

// SplitShares computes each split member's owed share of amount according to
// the split method. Shares always sum to amount exactly: fractional methods
// floor each share and hand the remainder out one unit at a time to the first
// members in split order, so the result is deterministic for a given split
// order. SplitShares is also the boundary validator for incoming expenses.
func SplitShares(method models.SplitMethod, amount int64, splits []models.ExpenseMember) ([]MemberShare, error) {
	if len(splits) == 0 {
		return nil, ErrNoSplits
	}
	switch method {
	case models.SplitEqual:
		return equalShares(amount, splits), nil
	case models.SplitExact:
		return exactShares(amount, splits)
	case models.SplitPercentage:
		return percentageShares(amount, splits)
	case models.SplitShares:
		return countedShares(amount, splits)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownSplitMethod, method)
	}
}

func equalShares(amount int64, splits []models.ExpenseMember) []MemberShare {
	n := int64(len(splits))
	base := amount / n
	rem := amount - base*n
	shares := make([]MemberShare, len(splits))
	for i, s := range splits {
		share := base
		if int64(i) < rem {
			share++
		}
		shares[i] = MemberShare{MemberID: s.MemberID, Amount: share}
	}
	return shares
}

func exactShares(amount int64, splits []models.ExpenseMember) ([]MemberShare, error) {
	shares := make([]MemberShare, len(splits))
	var sum int64
	for i, s := range splits {
		if !s.SplitValue.Valid || !s.SplitValue.Decimal.IsInteger() {
			return nil, fmt.Errorf("%w: member %s needs a whole minor-unit value", ErrSplitMismatch, s.MemberID)
		}
		v := s.SplitValue.Decimal.IntPart()
		shares[i] = MemberShare{MemberID: s.MemberID, Amount: v}
		sum += v
	}
	if sum != amount {
		return nil, fmt.Errorf("%w: values sum to %d, expense amount is %d", ErrSplitMismatch, sum, amount)
	}
	return shares, nil
}

func percentageShares(amount int64, splits []models.ExpenseMember) ([]MemberShare, error) {
	total := decimal.Zero
	for _, s := range splits {
		if !s.SplitValue.Valid || s.SplitValue.Decimal.IsNegative() {
			return nil, fmt.Errorf("%w: member %s has no valid percentage", ErrBadPercentage, s.MemberID)
		}
		total = total.Add(s.SplitValue.Decimal)
	}
	if !total.Equal(hundred) {
		return nil, fmt.Errorf("%w: got %s", ErrBadPercentage, total)
	}

	amt := decimal.NewFromInt(amount)
	shares := make([]MemberShare, len(splits))
	for i, s := range splits {
		shares[i] = MemberShare{
			MemberID: s.MemberID,
			Amount:   amt.Mul(s.SplitValue.Decimal).Div(hundred).Floor().IntPart(),
		}
	}
	distributeRemainder(shares, amount)
	return shares, nil
}

func countedShares(amount int64, splits []models.ExpenseMember) ([]MemberShare, error) {
	var totalShares int64
	for _, s := range splits {
		if !s.SplitValue.Valid || !s.SplitValue.Decimal.IsInteger() || !s.SplitValue.Decimal.IsPositive() {
			return nil, fmt.Errorf("%w: member %s", ErrBadShares, s.MemberID)
		}
		totalShares += s.SplitValue.Decimal.IntPart()
	}

	amt := decimal.NewFromInt(amount)
	div := decimal.NewFromInt(totalShares)
	shares := make([]MemberShare, len(splits))
	for i, s := range splits {
		shares[i] = MemberShare{
			MemberID: s.MemberID,
			Amount:   amt.Mul(s.SplitValue.Decimal).Div(div).Floor().IntPart(),
		}
	}
	distributeRemainder(shares, amount)
	return shares, nil
}

// distributeRemainder tops shares up one unit at a time, first member first,
// until they sum to amount. Flooring leaves less than one unit per member, so
// this terminates within a single pass.
func distributeRemainder(shares []MemberShare, amount int64) {
	var sum int64
	for _, s := range shares {
		sum += s.Amount
	}
	for i := 0; sum < amount; i = (i + 1) % len(shares) {
		shares[i].Amount++
		sum++
	}
}
