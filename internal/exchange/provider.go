// Package exchange resolves currency conversion rates as daily snapshots:
// fetched lazily from an external provider, persisted once per (date, base,
// target) triple, and reused for the rest of the day. It owns all of the
// network and cache-coherency complexity so the calculator packages can treat
// rates as plain data.
package exchange

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Provider fetches the latest exchange rates from an external source.
type Provider interface {
	// Fetch returns base→symbol multipliers for each requested symbol: one
	// unit of base equals rates[symbol] units of that symbol.
	Fetch(ctx context.Context, base string, symbols []string) (map[string]decimal.Decimal, error)
}

// HTTPProvider fetches rates from a frankfurter-style JSON endpoint
// (GET {base}/latest?base=EUR&symbols=USD,JPY).
type HTTPProvider struct {
	baseURL string
	client  *http.Client
}

// NewHTTPProvider creates a provider against the given API base URL. The
// timeout bounds each fetch; on expiry the resolver falls back to cached
// rates instead of blocking the request.
func NewHTTPProvider(baseURL string, timeout time.Duration) *HTTPProvider {
	return &HTTPProvider{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

func (p *HTTPProvider) Fetch(ctx context.Context, base string, symbols []string) (map[string]decimal.Decimal, error) {
	q := url.Values{}
	q.Set("base", base)
	q.Set("symbols", strings.Join(symbols, ","))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/latest?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build rate request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rate fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("rate provider returned %s", resp.Status)
	}

	var body struct {
		Base  string                     `json:"base"`
		Date  string                     `json:"date"`
		Rates map[string]decimal.Decimal `json:"rates"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode rate response: %w", err)
	}
	return body.Rates, nil
}
