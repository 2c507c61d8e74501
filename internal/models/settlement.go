package models

import "time"

// Settlement is a recorded payment between two members that pays down debt.
type Settlement struct {
	// ID is the unique identifier for the settlement (UUID format).
	ID string `json:"id"`

	// TripID is the trip this settlement belongs to.
	TripID string `json:"tripId"`

	// FromMemberID is the member who paid (debtor settling up).
	FromMemberID string `json:"fromMemberId"`

	// ToMemberID is the member who received the payment.
	ToMemberID string `json:"toMemberId"`

	// Amount is the payment in minor units of Currency.
	Amount int64 `json:"amount"`

	// Currency is the ISO 4217 code of the payment. Empty means the trip
	// currency.
	Currency string `json:"currency,omitempty"`

	// Date is the day the payment was made.
	Date time.Time `json:"date"`

	// CreatedAt is the Unix timestamp when the settlement was recorded.
	CreatedAt int64 `json:"createdAt"`
}
