package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// SplitMethod selects how an expense is divided among its split members.
type SplitMethod string

const (
	// SplitEqual divides the amount evenly, remainder to the first members.
	SplitEqual SplitMethod = "equal"
	// SplitExact assigns each member the exact minor-unit amount in SplitValue.
	SplitExact SplitMethod = "exact"
	// SplitPercentage assigns each member SplitValue percent of the amount.
	SplitPercentage SplitMethod = "percentage"
	// SplitShares divides the amount proportionally to SplitValue share counts.
	SplitShares SplitMethod = "shares"
)

// Valid reports whether m is a known split method.
func (m SplitMethod) Valid() bool {
	switch m {
	case SplitEqual, SplitExact, SplitPercentage, SplitShares:
		return true
	}
	return false
}

// Expense is a single cost paid by one member on behalf of several.
type Expense struct {
	// ID is the unique identifier for the expense (UUID format).
	ID string `json:"id"`

	// TripID is the trip this expense belongs to.
	TripID string `json:"tripId"`

	// Description is the human-readable label ("Dinner at Ichiran").
	Description string `json:"description"`

	// Amount is the expense total in minor units of Currency.
	Amount int64 `json:"amount"`

	// Currency is the ISO 4217 code the expense was paid in. Empty means the
	// trip currency.
	Currency string `json:"currency,omitempty"`

	// PaidByID is the member who paid the full amount up front.
	PaidByID string `json:"paidById"`

	// Date is the day the expense occurred.
	Date time.Time `json:"date"`

	// SplitMethod selects how Splits are interpreted.
	SplitMethod SplitMethod `json:"splitMethod"`

	// Splits lists who owes a share and, depending on the method, how much.
	// Order is the split creation order and is load-bearing: remainder units
	// from integer division go to the first members.
	Splits []ExpenseMember `json:"splits"`

	// CreatedAt is the Unix timestamp when the expense was recorded.
	CreatedAt int64 `json:"createdAt"`
}

// ExpenseMember is one member's entry in an expense split.
type ExpenseMember struct {
	// ExpenseID is the expense this split entry belongs to.
	ExpenseID string `json:"expenseId,omitempty"`

	// MemberID is the member owing this share.
	MemberID string `json:"memberId"`

	// SplitValue carries the per-method split parameter: unset for equal
	// splits, exact minor units for exact, percentage points for percentage,
	// a positive integer share count for shares.
	SplitValue decimal.NullDecimal `json:"splitValue,omitempty"`
}
