package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// RateDateFormat is the wire and storage layout for exchange-rate dates.
const RateDateFormat = "2006-01-02"

// ExchangeRate is one cached daily conversion rate. Rate is the multiplier
// that converts one base-currency unit into target-currency units. A row is
// unique per (date, base, target) and is never overwritten: once a day's rate
// is recorded it stays fixed, modeling a daily snapshot rather than a live
// feed.
type ExchangeRate struct {
	Date           time.Time       `json:"date"`
	BaseCurrency   string          `json:"baseCurrency"`
	TargetCurrency string          `json:"targetCurrency"`
	Rate           decimal.Decimal `json:"rate"`
	FetchedAt      time.Time       `json:"fetchedAt"`
}

// RateSheet is a resolved set of conversion rates into one target currency,
// as of a single date. Rates maps a source currency to its multiplier into
// Target; the target currency itself carries an implicit rate of 1 and has
// no entry.
type RateSheet struct {
	Target string                     `json:"target"`
	Rates  map[string]decimal.Decimal `json:"rates"`
	Date   string                     `json:"date"`
}
