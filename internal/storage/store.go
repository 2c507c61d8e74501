// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/ferd/tripsplit/internal/exchange"
	"github.com/ferd/tripsplit/internal/models"
)

// ErrNotFound is wrapped by store implementations when a requested record
// does not exist.
var ErrNotFound = errors.New("not found")

// Store defines the persistence operations for trips and the exchange-rate
// cache. The abstraction allows swapping storage backends (SQLite,
// PostgreSQL, ...) without changing the service layer.
type Store interface {
	// CreateTrip persists a new trip together with its initial members.
	// Missing IDs and timestamps are populated by the store.
	CreateTrip(ctx context.Context, trip *models.Trip, members []*models.Member) error

	// GetTripByToken retrieves a trip by its access token.
	GetTripByToken(ctx context.Context, accessToken string) (*models.Trip, error)

	// ListMembers returns a trip's members in creation order.
	ListMembers(ctx context.Context, tripID string) ([]models.Member, error)

	// GetMember retrieves one member of a trip.
	GetMember(ctx context.Context, tripID, memberID string) (*models.Member, error)

	// AddMember persists a new trip member.
	AddMember(ctx context.Context, member *models.Member) error

	// UpdateMember updates a member's name, settled-by reference, and
	// settlement-currency preference.
	UpdateMember(ctx context.Context, member *models.Member) error

	// CreateExpense persists an expense and its splits atomically.
	CreateExpense(ctx context.Context, expense *models.Expense) error

	// ListExpenses returns a trip's expenses in creation order, with splits
	// in split order.
	ListExpenses(ctx context.Context, tripID string) ([]models.Expense, error)

	// DeleteExpense removes an expense (and its splits) from a trip.
	DeleteExpense(ctx context.Context, tripID, expenseID string) error

	// CreateSettlement persists a settlement.
	CreateSettlement(ctx context.Context, settlement *models.Settlement) error

	// ListSettlements returns a trip's settlements in creation order.
	ListSettlements(ctx context.Context, tripID string) ([]models.Settlement, error)

	// DeleteSettlement removes a settlement from a trip.
	DeleteSettlement(ctx context.Context, tripID, settlementID string) error

	// RateStore is the persisted daily exchange-rate cache.
	exchange.RateStore

	// Close releases any resources held by the store.
	Close() error
}
