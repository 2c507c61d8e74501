package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ferd/tripsplit/internal/models"
	"github.com/ferd/tripsplit/internal/storage"
)

// CreateSettlement persists a new settlement.
func (s *SQLiteStore) CreateSettlement(ctx context.Context, settlement *models.Settlement) error {
	if settlement.ID == "" {
		settlement.ID = uuid.New().String()
	}
	if settlement.CreatedAt == 0 {
		settlement.CreatedAt = time.Now().Unix()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO settlements (id, trip_id, from_member_id, to_member_id, amount, currency, date, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		settlement.ID, settlement.TripID, settlement.FromMemberID, settlement.ToMemberID,
		settlement.Amount, nullable(settlement.Currency),
		settlement.Date.Format(models.RateDateFormat), settlement.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert settlement: %w", err)
	}
	return nil
}

// ListSettlements returns a trip's settlements in creation order.
func (s *SQLiteStore) ListSettlements(ctx context.Context, tripID string) ([]models.Settlement, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, trip_id, from_member_id, to_member_id, amount, currency, date, created_at
		 FROM settlements WHERE trip_id = ? ORDER BY created_at, rowid`,
		tripID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list settlements: %w", err)
	}
	defer rows.Close()

	var settlements []models.Settlement
	for rows.Next() {
		var st models.Settlement
		var currency sql.NullString
		var date string
		if err := rows.Scan(&st.ID, &st.TripID, &st.FromMemberID, &st.ToMemberID,
			&st.Amount, &currency, &date, &st.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan settlement: %w", err)
		}
		if currency.Valid {
			st.Currency = currency.String
		}
		st.Date, err = time.Parse(models.RateDateFormat, date)
		if err != nil {
			return nil, fmt.Errorf("failed to parse settlement date: %w", err)
		}
		settlements = append(settlements, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate settlements: %w", err)
	}
	return settlements, nil
}

// DeleteSettlement removes a settlement from a trip.
func (s *SQLiteStore) DeleteSettlement(ctx context.Context, tripID, settlementID string) error {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM settlements WHERE trip_id = ? AND id = ?", tripID, settlementID)
	if err != nil {
		return fmt.Errorf("failed to delete settlement: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete settlement: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("settlement %s: %w", settlementID, storage.ErrNotFound)
	}
	return nil
}
