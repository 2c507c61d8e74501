package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ferd/tripsplit/internal/models"
)

// Rate returns the cached base→target rate for the given date.
func (s *SQLiteStore) Rate(ctx context.Context, date time.Time, base, target string) (decimal.Decimal, bool, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		"SELECT rate FROM exchange_rates WHERE date = ? AND base_currency = ? AND target_currency = ?",
		date.Format(models.RateDateFormat), base, target,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return decimal.Decimal{}, false, nil
	}
	if err != nil {
		return decimal.Decimal{}, false, fmt.Errorf("failed to get rate: %w", err)
	}

	rate, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Decimal{}, false, fmt.Errorf("failed to parse stored rate: %w", err)
	}
	return rate, true, nil
}

// PutRate persists a rate. The primary key on (date, base, target) plus
// ON CONFLICT DO NOTHING makes concurrent writes for the same day race
// harmlessly: one insert wins, the rest are ignored, and the table never
// holds two rates for one key.
func (s *SQLiteStore) PutRate(ctx context.Context, rate *models.ExchangeRate) error {
	fetchedAt := rate.FetchedAt
	if fetchedAt.IsZero() {
		fetchedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO exchange_rates (date, base_currency, target_currency, rate, fetched_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(date, base_currency, target_currency) DO NOTHING`,
		rate.Date.Format(models.RateDateFormat), rate.BaseCurrency, rate.TargetCurrency,
		rate.Rate.String(), fetchedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert rate: %w", err)
	}
	return nil
}

// LatestRate returns the most recently dated cached base→target rate, or nil
// when the pair was never recorded.
func (s *SQLiteStore) LatestRate(ctx context.Context, base, target string) (*models.ExchangeRate, error) {
	var raw, date string
	var fetchedAt int64
	err := s.db.QueryRowContext(ctx,
		`SELECT date, rate, fetched_at FROM exchange_rates
		 WHERE base_currency = ? AND target_currency = ?
		 ORDER BY date DESC LIMIT 1`,
		base, target,
	).Scan(&date, &raw, &fetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest rate: %w", err)
	}

	parsedDate, err := time.Parse(models.RateDateFormat, date)
	if err != nil {
		return nil, fmt.Errorf("failed to parse stored rate date: %w", err)
	}
	rate, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to parse stored rate: %w", err)
	}
	return &models.ExchangeRate{
		Date:           parsedDate,
		BaseCurrency:   base,
		TargetCurrency: target,
		Rate:           rate,
		FetchedAt:      time.Unix(fetchedAt, 0).UTC(),
	}, nil
}
