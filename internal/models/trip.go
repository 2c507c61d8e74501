package models

// Trip represents one shared trip whose expenses are split among members.
type Trip struct {
	// ID is the unique identifier for the trip (UUID format).
	ID string `json:"id"`

	// AccessToken is the capability token that grants access to the trip.
	// Anyone holding it can view the trip and record expenses.
	AccessToken string `json:"accessToken,omitempty"`

	// CreatorTokenHash is the bcrypt hash of the creator token. The plain
	// token is returned once at creation and required for destructive
	// operations (deleting expenses, editing members).
	CreatorTokenHash string `json:"-"`

	// Name is the display name of the trip.
	Name string `json:"name"`

	// Currency is the trip's default currency (ISO 4217 code). Expenses and
	// settlements without an explicit currency are denominated in it.
	Currency string `json:"currency"`

	// SettlementCurrency, when set, enables consolidated mode: all balances
	// are converted into this currency before debts are simplified.
	SettlementCurrency string `json:"settlementCurrency,omitempty"`

	// CreatedAt is the Unix timestamp when the trip was created.
	CreatedAt int64 `json:"createdAt"`

	// UpdatedAt is the Unix timestamp of the last modification.
	UpdatedAt int64 `json:"updatedAt"`
}
