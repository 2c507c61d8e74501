package calculator

import "errors"

var (
	// ErrNoSplits rejects an expense with an empty split list.
	ErrNoSplits = errors.New("expense has no split members")
	// ErrSplitMismatch rejects exact splits whose values do not sum to the
	// expense amount, or carry non-integral minor units.
	ErrSplitMismatch = errors.New("exact split values inconsistent with expense amount")
	// ErrBadPercentage rejects percentage splits that do not sum to 100.
	ErrBadPercentage = errors.New("percentage split values must sum to 100")
	// ErrBadShares rejects share splits with missing or non-positive counts.
	ErrBadShares = errors.New("share counts must be positive integers")
	// ErrUnknownSplitMethod rejects an unrecognized split method tag.
	ErrUnknownSplitMethod = errors.New("unknown split method")
	// ErrCycleDetected means a settled-by chain loops back on itself.
	ErrCycleDetected = errors.New("settled-by chain contains a cycle")
	// ErrMissingRate means a currency conversion was requested with no
	// resolvable rate for the source currency.
	ErrMissingRate = errors.New("no exchange rate for currency")
	// ErrBalanceMismatch flags a violated zero-sum invariant. It is a defect
	// indicator, not a request failure: computations log it and continue.
	ErrBalanceMismatch = errors.New("net balances do not sum to zero")
)
