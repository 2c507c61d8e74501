package exchange

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ferd/tripsplit/internal/models"
)

// memStore is an in-memory RateStore with insert-or-ignore semantics,
// mirroring the sqlite unique-key behavior.
type memStore struct {
	mu    sync.Mutex
	rates map[string]*models.ExchangeRate // key: date|base|target
	puts  int
}

func newMemStore() *memStore {
	return &memStore{rates: make(map[string]*models.ExchangeRate)}
}

func key(date time.Time, base, target string) string {
	return date.Format(models.RateDateFormat) + "|" + base + "|" + target
}

func (s *memStore) Rate(_ context.Context, date time.Time, base, target string) (decimal.Decimal, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.rates[key(date, base, target)]; ok {
		return r.Rate, true, nil
	}
	return decimal.Decimal{}, false, nil
}

func (s *memStore) PutRate(_ context.Context, rate *models.ExchangeRate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.puts++
	k := key(rate.Date, rate.BaseCurrency, rate.TargetCurrency)
	if _, exists := s.rates[k]; exists {
		return nil // conflict-ignore: first writer wins
	}
	s.rates[k] = rate
	return nil
}

func (s *memStore) LatestRate(_ context.Context, base, target string) (*models.ExchangeRate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var latest *models.ExchangeRate
	for _, r := range s.rates {
		if r.BaseCurrency != base || r.TargetCurrency != target {
			continue
		}
		if latest == nil || r.Date.After(latest.Date) {
			latest = r
		}
	}
	return latest, nil
}

// fakeProvider returns canned quotes or a canned error, counting calls.
type fakeProvider struct {
	mu     sync.Mutex
	quotes map[string]decimal.Decimal
	err    error
	calls  int
}

func (p *fakeProvider) Fetch(_ context.Context, base string, symbols []string) (map[string]decimal.Decimal, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	out := make(map[string]decimal.Decimal, len(symbols))
	for _, s := range symbols {
		if q, ok := p.quotes[s]; ok {
			out[s] = q
		}
	}
	return out, nil
}

func testResolver(store RateStore, provider Provider, now time.Time) *Resolver {
	r := NewResolver(store, provider)
	r.now = func() time.Time { return now }
	return r
}

var testNow = time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC)

func TestRatesForFetchesAndInverts(t *testing.T) {
	store := newMemStore()
	// Provider quotes USD→JPY at 150: stored JPY→USD must be 1/150.
	provider := &fakeProvider{quotes: map[string]decimal.Decimal{
		"JPY": decimal.NewFromInt(150),
	}}
	r := testResolver(store, provider, testNow)

	rates, asOf, err := r.RatesFor(context.Background(), "USD", []string{"JPY", "USD"})
	if err != nil {
		t.Fatalf("RatesFor() error = %v", err)
	}
	want := decimal.NewFromInt(1).DivRound(decimal.NewFromInt(150), ratePrecision)
	if !rates["JPY"].Equal(want) {
		t.Errorf("JPY rate = %s, want %s", rates["JPY"], want)
	}
	if _, ok := rates["USD"]; ok {
		t.Error("target currency must not get a rate entry")
	}
	if got := asOf.Format(models.RateDateFormat); got != "2026-03-14" {
		t.Errorf("asOf = %s, want today", got)
	}
	if provider.calls != 1 {
		t.Errorf("provider called %d times, want 1", provider.calls)
	}
}

func TestRatesForUsesDailyCache(t *testing.T) {
	store := newMemStore()
	provider := &fakeProvider{quotes: map[string]decimal.Decimal{
		"JPY": decimal.NewFromInt(150),
		"EUR": decimal.RequireFromString("0.92"),
	}}
	r := testResolver(store, provider, testNow)

	first, _, err := r.RatesFor(context.Background(), "USD", []string{"JPY", "EUR"})
	if err != nil {
		t.Fatal(err)
	}
	second, _, err := r.RatesFor(context.Background(), "USD", []string{"JPY", "EUR"})
	if err != nil {
		t.Fatal(err)
	}
	if provider.calls != 1 {
		t.Errorf("provider called %d times, want 1 (second call should hit cache)", provider.calls)
	}
	for cur := range first {
		if !first[cur].Equal(second[cur]) {
			t.Errorf("cached %s rate %s differs from fetched %s", cur, second[cur], first[cur])
		}
	}
}

func TestRatesForFetchesOnlyTheGap(t *testing.T) {
	store := newMemStore()
	cached := decimal.RequireFromString("0.00667")
	store.rates[key(dateOnly(testNow), "JPY", "USD")] = &models.ExchangeRate{
		Date: dateOnly(testNow), BaseCurrency: "JPY", TargetCurrency: "USD", Rate: cached,
	}
	provider := &fakeProvider{quotes: map[string]decimal.Decimal{
		"EUR": decimal.RequireFromString("0.92"),
		"JPY": decimal.NewFromInt(999), // must not be consulted
	}}
	r := testResolver(store, provider, testNow)

	rates, _, err := r.RatesFor(context.Background(), "USD", []string{"JPY", "EUR"})
	if err != nil {
		t.Fatal(err)
	}
	if !rates["JPY"].Equal(cached) {
		t.Errorf("JPY rate = %s, want cached %s", rates["JPY"], cached)
	}
	if _, ok := rates["EUR"]; !ok {
		t.Error("EUR rate missing after gap fetch")
	}
}

func TestRatesForFallsBackToLatestCachedDate(t *testing.T) {
	store := newMemStore()
	older := dateOnly(testNow).AddDate(0, 0, -3)
	newer := dateOnly(testNow).AddDate(0, 0, -1)
	store.rates[key(older, "EUR", "USD")] = &models.ExchangeRate{
		Date: older, BaseCurrency: "EUR", TargetCurrency: "USD", Rate: decimal.RequireFromString("1.05"),
	}
	store.rates[key(newer, "JPY", "USD")] = &models.ExchangeRate{
		Date: newer, BaseCurrency: "JPY", TargetCurrency: "USD", Rate: decimal.RequireFromString("0.0066"),
	}
	provider := &fakeProvider{err: errors.New("connection refused")}
	r := testResolver(store, provider, testNow)

	rates, asOf, err := r.RatesFor(context.Background(), "USD", []string{"EUR", "JPY"})
	if err != nil {
		t.Fatalf("RatesFor() error = %v, want fallback to cached dates", err)
	}
	if !rates["EUR"].Equal(decimal.RequireFromString("1.05")) {
		t.Errorf("EUR rate = %s, want cached 1.05", rates["EUR"])
	}
	if !asOf.Equal(older) {
		t.Errorf("asOf = %s, want the oldest fallback date %s", asOf, older)
	}
}

func TestRatesForFailsWhenNothingCached(t *testing.T) {
	store := newMemStore()
	provider := &fakeProvider{err: errors.New("timeout")}
	r := testResolver(store, provider, testNow)

	_, _, err := r.RatesFor(context.Background(), "USD", []string{"EUR"})
	if !errors.Is(err, ErrRatesUnavailable) {
		t.Fatalf("RatesFor() error = %v, want ErrRatesUnavailable", err)
	}
}

func TestRatesForIncompleteProviderResponse(t *testing.T) {
	store := newMemStore()
	provider := &fakeProvider{quotes: map[string]decimal.Decimal{"EUR": decimal.RequireFromString("0.9")}}
	r := testResolver(store, provider, testNow)

	_, _, err := r.RatesFor(context.Background(), "USD", []string{"EUR", "CHF"})
	if !errors.Is(err, ErrRatesUnavailable) {
		t.Fatalf("RatesFor() error = %v, want ErrRatesUnavailable for the missing symbol", err)
	}
}

func TestRatesForConcurrentCallersConverge(t *testing.T) {
	store := newMemStore()
	provider := &fakeProvider{quotes: map[string]decimal.Decimal{
		"JPY": decimal.NewFromInt(150),
	}}
	r := testResolver(store, provider, testNow)

	const callers = 8
	results := make([]decimal.Decimal, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rates, _, err := r.RatesFor(context.Background(), "USD", []string{"JPY"})
			if err != nil {
				t.Errorf("caller %d: %v", i, err)
				return
			}
			results[i] = rates["JPY"]
		}(i)
	}
	wg.Wait()

	store.mu.Lock()
	rows := len(store.rates)
	store.mu.Unlock()
	if rows != 1 {
		t.Fatalf("cache holds %d rows for one key, want 1", rows)
	}
	for i := 1; i < callers; i++ {
		if !results[i].Equal(results[0]) {
			t.Fatalf("caller %d observed %s, caller 0 observed %s", i, results[i], results[0])
		}
	}
}
