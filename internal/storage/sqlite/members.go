package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ferd/tripsplit/internal/models"
	"github.com/ferd/tripsplit/internal/storage"
)

const memberColumns = "id, trip_id, name, settled_by_id, settlement_currency, created_at"

// AddMember persists a new trip member.
func (s *SQLiteStore) AddMember(ctx context.Context, member *models.Member) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := insertMember(ctx, tx, member); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func insertMember(ctx context.Context, tx *sql.Tx, member *models.Member) error {
	if member.ID == "" {
		member.ID = uuid.New().String()
	}
	if member.CreatedAt == 0 {
		member.CreatedAt = time.Now().Unix()
	}

	_, err := tx.ExecContext(ctx,
		`INSERT INTO members (id, trip_id, name, settled_by_id, settlement_currency, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		member.ID, member.TripID, member.Name,
		nullable(member.SettledByID), nullable(member.SettlementCurrency), member.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert member: %w", err)
	}
	return nil
}

// GetMember retrieves one member of a trip.
func (s *SQLiteStore) GetMember(ctx context.Context, tripID, memberID string) (*models.Member, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+memberColumns+" FROM members WHERE trip_id = ? AND id = ?",
		tripID, memberID,
	)
	member, err := scanMember(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("member %s: %w", memberID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get member: %w", err)
	}
	return member, nil
}

// UpdateMember updates a member's name, settled-by reference, and settlement
// currency preference.
func (s *SQLiteStore) UpdateMember(ctx context.Context, member *models.Member) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE members SET name = ?, settled_by_id = ?, settlement_currency = ?
		 WHERE trip_id = ? AND id = ?`,
		member.Name, nullable(member.SettledByID), nullable(member.SettlementCurrency),
		member.TripID, member.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update member: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update member: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("member %s: %w", member.ID, storage.ErrNotFound)
	}
	return nil
}

// ListMembers returns a trip's members in creation order.
func (s *SQLiteStore) ListMembers(ctx context.Context, tripID string) ([]models.Member, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+memberColumns+" FROM members WHERE trip_id = ? ORDER BY created_at, rowid",
		tripID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	defer rows.Close()

	var members []models.Member
	for rows.Next() {
		member, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		members = append(members, *member)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate members: %w", err)
	}
	return members, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMember(row rowScanner) (*models.Member, error) {
	member := &models.Member{}
	var settledBy, settlementCurrency sql.NullString
	if err := row.Scan(&member.ID, &member.TripID, &member.Name,
		&settledBy, &settlementCurrency, &member.CreatedAt); err != nil {
		return nil, err
	}
	if settledBy.Valid {
		member.SettledByID = settledBy.String
	}
	if settlementCurrency.Valid {
		member.SettlementCurrency = settlementCurrency.String
	}
	return member, nil
}
