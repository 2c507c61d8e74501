package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/ferd/tripsplit/internal/calculator"
	"github.com/ferd/tripsplit/internal/exchange"
	"github.com/ferd/tripsplit/internal/models"
	"github.com/ferd/tripsplit/internal/storage"
)

// BalanceService computes balance reports: net positions, simplified debts,
// and optional consolidation into a trip-wide settlement currency.
type BalanceService struct {
	store storage.Store
	rates *exchange.Resolver
}

// NewBalanceService creates a BalanceService over the given store and rate
// resolver.
func NewBalanceService(store storage.Store, rates *exchange.Resolver) *BalanceService {
	return &BalanceService{store: store, rates: rates}
}

// Report builds the full balance report for a trip.
func (s *BalanceService) Report(ctx context.Context, trip *models.Trip) (*models.BalanceReport, error) {
	members, err := s.store.ListMembers(ctx, trip.ID)
	if err != nil {
		return nil, err
	}
	expenses, err := s.store.ListExpenses(ctx, trip.ID)
	if err != nil {
		return nil, err
	}
	settlements, err := s.store.ListSettlements(ctx, trip.ID)
	if err != nil {
		return nil, err
	}
	return s.buildReport(ctx, trip, members, expenses, settlements)
}

func (s *BalanceService) buildReport(ctx context.Context, trip *models.Trip, members []models.Member, expenses []models.Expense, settlements []models.Settlement) (*models.BalanceReport, error) {
	// Records in a foreign currency must be converted before summation;
	// balances are always computed in the trip currency first.
	foreign := foreignCurrencies(trip, expenses, settlements)
	var tripRates map[string]decimal.Decimal
	if len(foreign) > 0 {
		var err error
		tripRates, _, err = s.rates.RatesFor(ctx, trip.Currency, foreign)
		if err != nil {
			return nil, fmt.Errorf("converting foreign-currency records: %w", err)
		}
	}

	net, err := calculator.ComputeNetBalances(expenses, settlements, trip.Currency, tripRates)
	if err != nil {
		return nil, err
	}
	settledBy, err := calculator.SettledByMap(members)
	if err != nil {
		return nil, err
	}

	isConsolidated := trip.SettlementCurrency != ""
	ratesTarget := trip.SettlementCurrency
	if ratesTarget == "" && anyPreference(members) {
		ratesTarget = trip.Currency
	}

	var sheet *models.RateSheet
	if ratesTarget != "" {
		wanted := append(append([]string{trip.Currency}, foreign...), preferences(members)...)
		rates, asOf, err := s.rates.RatesFor(ctx, ratesTarget, wanted)
		if err != nil {
			if isConsolidated {
				return nil, fmt.Errorf("consolidating into %s: %w", trip.SettlementCurrency, err)
			}
			// Per-currency mode: rates are display enrichment only, degrade
			// by omitting them.
			slog.Warn("exchange rates unavailable, returning trip-currency balances only",
				"trip_id", trip.ID, "target", ratesTarget, "error", err)
		} else {
			sheet = &models.RateSheet{
				Target: ratesTarget,
				Rates:  rates,
				Date:   asOf.Format(models.RateDateFormat),
			}
		}
	}

	report := &models.BalanceReport{
		NetBalances:  net,
		SettledByMap: settledBy,
	}

	if isConsolidated && sheet != nil {
		consolidated, err := calculator.ConvertBalances(net, trip.Currency, trip.SettlementCurrency, sheet.Rates)
		if err != nil {
			return nil, err
		}
		report.ConsolidatedBalances = consolidated
		report.Debts = calculator.SimplifyDebts(consolidated, settledBy, members, trip.SettlementCurrency)
		annotateOriginals(report.Debts, trip.Currency, trip.SettlementCurrency, sheet.Rates)
	} else {
		report.Debts = calculator.SimplifyDebts(net, settledBy, members, trip.Currency)
		if sheet != nil {
			annotatePreferred(report.Debts, members, trip.Currency, sheet.Rates)
		}
	}
	report.ExchangeRates = sheet
	return report, nil
}

// Rates resolves the exchange-rate sheet for an explicit target currency,
// covering every currency the trip touches. When only the target itself is in
// play the sheet is empty and dated empty, no fetch needed.
func (s *BalanceService) Rates(ctx context.Context, trip *models.Trip, target string) (*models.RateSheet, error) {
	if !models.ValidCurrency(target) {
		return nil, fmt.Errorf("%w: unknown currency %q", ErrValidation, target)
	}
	members, err := s.store.ListMembers(ctx, trip.ID)
	if err != nil {
		return nil, err
	}
	expenses, err := s.store.ListExpenses(ctx, trip.ID)
	if err != nil {
		return nil, err
	}
	settlements, err := s.store.ListSettlements(ctx, trip.ID)
	if err != nil {
		return nil, err
	}

	used := map[string]struct{}{}
	for _, e := range expenses {
		used[valueOr(e.Currency, trip.Currency)] = struct{}{}
	}
	for _, st := range settlements {
		used[valueOr(st.Currency, trip.Currency)] = struct{}{}
	}
	for _, m := range members {
		if m.SettlementCurrency != "" {
			used[m.SettlementCurrency] = struct{}{}
		}
	}
	delete(used, target)
	if len(used) == 0 {
		return &models.RateSheet{Target: target, Rates: map[string]decimal.Decimal{}}, nil
	}

	currencies := make([]string, 0, len(used))
	for c := range used {
		currencies = append(currencies, c)
	}
	rates, asOf, err := s.rates.RatesFor(ctx, target, currencies)
	if err != nil {
		return nil, err
	}
	return &models.RateSheet{Target: target, Rates: rates, Date: asOf.Format(models.RateDateFormat)}, nil
}

// annotateOriginals attaches the trip-currency equivalent to each
// consolidated transfer, converting back through the trip currency's rate
// into the settlement currency.
func annotateOriginals(transfers []models.Transfer, tripCurrency, target string, rates map[string]decimal.Decimal) {
	if tripCurrency == target {
		return
	}
	rate, ok := rates[tripCurrency]
	if !ok || rate.IsZero() {
		return
	}
	for i := range transfers {
		original := decimal.NewFromInt(transfers[i].Amount).DivRound(rate, 0).IntPart()
		transfers[i].OriginalAmount = original
		transfers[i].OriginalCurrency = tripCurrency
		transfers[i].Display = models.FormatAmount(original, tripCurrency)
	}
}

// annotatePreferred attaches, to each transfer, its equivalent in the
// recipient's preferred settlement currency when one is configured and a rate
// is available.
func annotatePreferred(transfers []models.Transfer, members []models.Member, tripCurrency string, rates map[string]decimal.Decimal) {
	prefs := make(map[string]string, len(members))
	for _, m := range members {
		if m.SettlementCurrency != "" {
			prefs[m.ID] = m.SettlementCurrency
		}
	}
	for i := range transfers {
		pref, ok := prefs[transfers[i].To]
		if !ok || pref == tripCurrency {
			continue
		}
		// rates carry pref→trip; invert for trip→pref.
		rate, ok := rates[pref]
		if !ok || rate.IsZero() {
			continue
		}
		equivalent := decimal.NewFromInt(transfers[i].Amount).DivRound(rate, 0).IntPart()
		transfers[i].Display = models.FormatAmount(equivalent, pref)
	}
}

func foreignCurrencies(trip *models.Trip, expenses []models.Expense, settlements []models.Settlement) []string {
	seen := map[string]struct{}{}
	for _, e := range expenses {
		if e.Currency != "" && e.Currency != trip.Currency {
			seen[e.Currency] = struct{}{}
		}
	}
	for _, st := range settlements {
		if st.Currency != "" && st.Currency != trip.Currency {
			seen[st.Currency] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}
	return out
}

func anyPreference(members []models.Member) bool {
	for _, m := range members {
		if m.SettlementCurrency != "" {
			return true
		}
	}
	return false
}

func preferences(members []models.Member) []string {
	var out []string
	for _, m := range members {
		if m.SettlementCurrency != "" {
			out = append(out, m.SettlementCurrency)
		}
	}
	return out
}

func valueOr(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
