package models

// Member is one participant of a trip.
type Member struct {
	// ID is the unique identifier for the member (UUID format).
	ID string `json:"id"`

	// TripID is the trip this member belongs to.
	TripID string `json:"tripId"`

	// Name is the member's display name.
	Name string `json:"name"`

	// SettledByID, when set, redirects this member's debts and credits to
	// another member of the same trip for settlement purposes (a couple
	// settling through one partner, for example). It is a lookup relation,
	// not ownership: the member keeps their own expenses and balances, only
	// the final transfers are routed. Chains are allowed, cycles are not.
	SettledByID string `json:"settledById,omitempty"`

	// SettlementCurrency is the member's preferred currency for informational
	// conversion of transfers they receive (ISO 4217 code).
	SettlementCurrency string `json:"settlementCurrency,omitempty"`

	// CreatedAt is the Unix timestamp when the member was added. Creation
	// order breaks ties in debt simplification, so it must be stable.
	CreatedAt int64 `json:"createdAt"`
}
