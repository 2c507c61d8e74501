package models

// Transfer is one settling payment in the simplified debt set.
type Transfer struct {
	// From is the member who owes, To the member who is owed.
	From string `json:"from"`
	To   string `json:"to"`

	// Amount is always positive, in minor units of Currency.
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`

	// OriginalAmount/OriginalCurrency give the equivalent in the trip
	// currency when the transfer was consolidated into another one. Display
	// is a formatted informational rendering. None of these feed back into
	// balance math.
	OriginalAmount   int64  `json:"originalAmount,omitempty"`
	OriginalCurrency string `json:"originalCurrency,omitempty"`
	Display          string `json:"display,omitempty"`
}

// BalanceReport is the full balances response for one trip. All fields are
// structurally present on every response; ConsolidatedBalances and
// ExchangeRates are nil when not applicable so the contract stays stable.
type BalanceReport struct {
	// NetBalances maps member ID to net position in trip-currency minor
	// units: positive is owed money, negative owes money. Sums to zero.
	NetBalances map[string]int64 `json:"netBalances"`

	// Debts is the minimal transfer set that settles all balances.
	Debts []Transfer `json:"debts"`

	// SettledByMap maps each member to the member their debts settle
	// through (themselves when no redirection is configured).
	SettledByMap map[string]string `json:"settledByMap"`

	// ConsolidatedBalances are the net balances converted into the trip's
	// settlement currency; nil outside consolidated mode.
	ConsolidatedBalances map[string]int64 `json:"consolidatedBalances"`

	// ExchangeRates is the rate sheet used for conversion or display
	// annotation; nil when no rates were needed or resolvable.
	ExchangeRates *RateSheet `json:"exchangeRates"`
}
