package exchange

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ferd/tripsplit/internal/models"
)

// ErrRatesUnavailable means neither the provider nor the cache could produce
// a rate for a requested currency.
var ErrRatesUnavailable = errors.New("exchange rates unavailable")

// ratePrecision is the decimal-place precision rates are stored at.
const ratePrecision = 8

// RateStore is the persisted daily rate cache.
type RateStore interface {
	// Rate returns the cached base→target rate for the given date, with a
	// found flag.
	Rate(ctx context.Context, date time.Time, base, target string) (decimal.Decimal, bool, error)

	// PutRate persists a rate, ignoring the write when a row already exists
	// for the same (date, base, target) key. Concurrent writers race freely;
	// exactly one row wins and stays.
	PutRate(ctx context.Context, rate *models.ExchangeRate) error

	// LatestRate returns the most recently dated cached base→target rate,
	// or nil when none was ever recorded.
	LatestRate(ctx context.Context, base, target string) (*models.ExchangeRate, error)
}

// Resolver resolves conversion rates into a target currency, caching one
// snapshot per day.
type Resolver struct {
	store    RateStore
	provider Provider
	now      func() time.Time
}

// NewResolver creates a resolver over the given cache and provider.
func NewResolver(store RateStore, provider Provider) *Resolver {
	return &Resolver{store: store, provider: provider, now: time.Now}
}

// RatesFor returns source→target multipliers for every requested currency,
// along with the as-of date of the sheet. The target currency itself never
// needs (or gets) an entry.
//
// Lookup order: today's cached snapshot first; the gap is fetched from the
// provider in a single attempt and persisted; on provider failure each still
// missing currency falls back to its most recent previously cached date. Only
// when a currency has no historical rate at all does the call fail, with
// ErrRatesUnavailable. The returned date is today unless a fallback was used,
// in which case it is the oldest cached date involved, so the caller never
// sees a date fresher than the stalest rate.
func (r *Resolver) RatesFor(ctx context.Context, target string, currencies []string) (map[string]decimal.Decimal, time.Time, error) {
	today := dateOnly(r.now().UTC())
	rates := make(map[string]decimal.Decimal)

	var missing []string
	for _, currency := range dedupe(currencies) {
		if currency == target {
			continue
		}
		rate, found, err := r.store.Rate(ctx, today, currency, target)
		if err != nil {
			return nil, time.Time{}, fmt.Errorf("failed to read rate cache: %w", err)
		}
		if found {
			cacheHits.Inc()
			rates[currency] = rate
			continue
		}
		missing = append(missing, currency)
	}

	asOf := today
	if len(missing) == 0 {
		return rates, asOf, nil
	}

	fetched, err := r.provider.Fetch(ctx, target, missing)
	if err != nil {
		fetchFailures.Inc()
		slog.Warn("rate provider unavailable, falling back to cached rates",
			"target", target, "currencies", missing, "error", err)
		for _, currency := range missing {
			last, lerr := r.store.LatestRate(ctx, currency, target)
			if lerr != nil {
				return nil, time.Time{}, fmt.Errorf("failed to read rate cache: %w", lerr)
			}
			if last == nil {
				return nil, time.Time{}, fmt.Errorf("%w: no cached rate for %s to %s", ErrRatesUnavailable, currency, target)
			}
			fallbacks.Inc()
			rates[currency] = last.Rate
			if last.Date.Before(asOf) {
				asOf = last.Date
			}
		}
		return rates, asOf, nil
	}

	fetches.Inc()
	for _, currency := range missing {
		quote, ok := fetched[currency]
		if !ok || quote.IsZero() {
			return nil, time.Time{}, fmt.Errorf("%w: provider returned no rate for %s", ErrRatesUnavailable, currency)
		}
		// The provider quotes target→currency; invert to the stored
		// currency→target direction.
		rate := decimal.NewFromInt(1).DivRound(quote, ratePrecision)

		record := &models.ExchangeRate{
			Date:           today,
			BaseCurrency:   currency,
			TargetCurrency: target,
			Rate:           rate,
			FetchedAt:      r.now().UTC(),
		}
		if err := r.store.PutRate(ctx, record); err != nil {
			return nil, time.Time{}, fmt.Errorf("failed to persist rate: %w", err)
		}
		// Read back so concurrent fetchers for the same key all observe the
		// single row that won the insert.
		stored, found, err := r.store.Rate(ctx, today, currency, target)
		if err == nil && found {
			rate = stored
		}
		rates[currency] = rate
	}
	return rates, asOf, nil
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func dedupe(currencies []string) []string {
	seen := make(map[string]struct{}, len(currencies))
	out := make([]string, 0, len(currencies))
	for _, c := range currencies {
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}
