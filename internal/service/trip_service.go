// Package service holds the application services wiring storage, the rate
// resolver, and the pure calculator together.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ferd/tripsplit/internal/auth"
	"github.com/ferd/tripsplit/internal/calculator"
	"github.com/ferd/tripsplit/internal/models"
	"github.com/ferd/tripsplit/internal/storage"
)

// ErrValidation wraps every boundary-validation failure so the transport
// layer can map the whole class to a 400.
var ErrValidation = errors.New("validation failed")

// TripService implements trip, member, expense, and settlement operations.
type TripService struct {
	store storage.Store
}

// NewTripService creates a TripService with the given storage backend.
func NewTripService(store storage.Store) *TripService {
	return &TripService{store: store}
}

// CreateTrip creates a trip with its initial members and returns the trip,
// its members, and the plain creator token (shown exactly once).
func (s *TripService) CreateTrip(ctx context.Context, name, currency, settlementCurrency string, memberNames []string) (*models.Trip, []models.Member, string, error) {
	if name == "" {
		return nil, nil, "", fmt.Errorf("%w: trip name is required", ErrValidation)
	}
	if currency == "" {
		currency = "USD"
	}
	if !models.ValidCurrency(currency) {
		return nil, nil, "", fmt.Errorf("%w: unknown currency %q", ErrValidation, currency)
	}
	if settlementCurrency != "" && !models.ValidCurrency(settlementCurrency) {
		return nil, nil, "", fmt.Errorf("%w: unknown settlement currency %q", ErrValidation, settlementCurrency)
	}

	accessToken, err := auth.NewAccessToken()
	if err != nil {
		return nil, nil, "", err
	}
	creatorToken, err := auth.NewCreatorToken()
	if err != nil {
		return nil, nil, "", err
	}
	creatorHash, err := auth.HashToken(creatorToken)
	if err != nil {
		return nil, nil, "", err
	}

	trip := &models.Trip{
		AccessToken:        accessToken,
		CreatorTokenHash:   creatorHash,
		Name:               name,
		Currency:           currency,
		SettlementCurrency: settlementCurrency,
	}
	members := make([]*models.Member, len(memberNames))
	now := time.Now().Unix()
	for i, memberName := range memberNames {
		if memberName == "" {
			return nil, nil, "", fmt.Errorf("%w: member name is required", ErrValidation)
		}
		// Stagger nothing: identical timestamps are fine, the store keeps
		// insertion order.
		members[i] = &models.Member{Name: memberName, CreatedAt: now}
	}

	if err := s.store.CreateTrip(ctx, trip, members); err != nil {
		return nil, nil, "", fmt.Errorf("failed to create trip: %w", err)
	}
	slog.Info("trip created", "trip_id", trip.ID, "currency", currency, "members", len(members))

	listed, err := s.store.ListMembers(ctx, trip.ID)
	if err != nil {
		return nil, nil, "", err
	}
	return trip, listed, creatorToken, nil
}

// GetTrip retrieves a trip by its access token.
func (s *TripService) GetTrip(ctx context.Context, accessToken string) (*models.Trip, error) {
	return s.store.GetTripByToken(ctx, accessToken)
}

// Authorize verifies the creator token for destructive operations.
func (s *TripService) Authorize(trip *models.Trip, creatorToken string) error {
	return auth.VerifyToken(trip.CreatorTokenHash, creatorToken)
}

// Members lists a trip's members in creation order.
func (s *TripService) Members(ctx context.Context, trip *models.Trip) ([]models.Member, error) {
	return s.store.ListMembers(ctx, trip.ID)
}

// AddMember adds a member to a trip.
func (s *TripService) AddMember(ctx context.Context, trip *models.Trip, name, settledByID, settlementCurrency string) (*models.Member, error) {
	member := &models.Member{
		TripID:             trip.ID,
		Name:               name,
		SettledByID:        settledByID,
		SettlementCurrency: settlementCurrency,
	}
	if err := s.validateMember(ctx, trip, member); err != nil {
		return nil, err
	}
	if err := s.store.AddMember(ctx, member); err != nil {
		return nil, fmt.Errorf("failed to add member: %w", err)
	}
	return member, nil
}

// UpdateMember updates a member's name, settled-by redirection, and currency
// preference.
func (s *TripService) UpdateMember(ctx context.Context, trip *models.Trip, memberID string, name, settledByID, settlementCurrency *string) (*models.Member, error) {
	member, err := s.store.GetMember(ctx, trip.ID, memberID)
	if err != nil {
		return nil, err
	}
	if name != nil {
		member.Name = *name
	}
	if settledByID != nil {
		member.SettledByID = *settledByID
	}
	if settlementCurrency != nil {
		member.SettlementCurrency = *settlementCurrency
	}
	if err := s.validateMember(ctx, trip, member); err != nil {
		return nil, err
	}

	// A settled-by edit must not introduce a cycle; resolving the whole map
	// with the edit applied catches chains of any length.
	if member.SettledByID != "" {
		members, err := s.store.ListMembers(ctx, trip.ID)
		if err != nil {
			return nil, err
		}
		for i := range members {
			if members[i].ID == member.ID {
				members[i] = *member
			}
		}
		if _, err := calculator.SettledByMap(members); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrValidation, err)
		}
	}

	if err := s.store.UpdateMember(ctx, member); err != nil {
		return nil, fmt.Errorf("failed to update member: %w", err)
	}
	return member, nil
}

func (s *TripService) validateMember(ctx context.Context, trip *models.Trip, member *models.Member) error {
	if member.Name == "" {
		return fmt.Errorf("%w: member name is required", ErrValidation)
	}
	if member.SettlementCurrency != "" && !models.ValidCurrency(member.SettlementCurrency) {
		return fmt.Errorf("%w: unknown currency %q", ErrValidation, member.SettlementCurrency)
	}
	if member.SettledByID != "" {
		if member.SettledByID == member.ID {
			return fmt.Errorf("%w: member cannot be settled by themselves", ErrValidation)
		}
		if _, err := s.store.GetMember(ctx, trip.ID, member.SettledByID); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return fmt.Errorf("%w: settled-by member %s is not in this trip", ErrValidation, member.SettledByID)
			}
			return err
		}
	}
	return nil
}

// AddExpense validates and persists an expense with its splits.
func (s *TripService) AddExpense(ctx context.Context, trip *models.Trip, expense *models.Expense) error {
	if expense.Amount <= 0 {
		return fmt.Errorf("%w: expense amount must be positive", ErrValidation)
	}
	if expense.Description == "" {
		return fmt.Errorf("%w: expense description is required", ErrValidation)
	}
	if expense.Currency != "" && !models.ValidCurrency(expense.Currency) {
		return fmt.Errorf("%w: unknown currency %q", ErrValidation, expense.Currency)
	}
	if expense.Date.IsZero() {
		expense.Date = time.Now().UTC()
	}

	memberIDs, err := s.memberIDSet(ctx, trip)
	if err != nil {
		return err
	}
	if _, ok := memberIDs[expense.PaidByID]; !ok {
		return fmt.Errorf("%w: payer %s is not a trip member", ErrValidation, expense.PaidByID)
	}
	seen := make(map[string]struct{}, len(expense.Splits))
	for _, split := range expense.Splits {
		if _, ok := memberIDs[split.MemberID]; !ok {
			return fmt.Errorf("%w: split member %s is not a trip member", ErrValidation, split.MemberID)
		}
		if _, dup := seen[split.MemberID]; dup {
			return fmt.Errorf("%w: member %s appears twice in the split", ErrValidation, split.MemberID)
		}
		seen[split.MemberID] = struct{}{}
	}

	// The share computation is the authoritative split validator.
	if _, err := calculator.SplitShares(expense.SplitMethod, expense.Amount, expense.Splits); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}

	expense.TripID = trip.ID
	if err := s.store.CreateExpense(ctx, expense); err != nil {
		return fmt.Errorf("failed to create expense: %w", err)
	}
	return nil
}

// Expenses lists a trip's expenses.
func (s *TripService) Expenses(ctx context.Context, trip *models.Trip) ([]models.Expense, error) {
	return s.store.ListExpenses(ctx, trip.ID)
}

// DeleteExpense removes an expense.
func (s *TripService) DeleteExpense(ctx context.Context, trip *models.Trip, expenseID string) error {
	return s.store.DeleteExpense(ctx, trip.ID, expenseID)
}

// AddSettlement validates and persists a settlement.
func (s *TripService) AddSettlement(ctx context.Context, trip *models.Trip, settlement *models.Settlement) error {
	if settlement.Amount <= 0 {
		return fmt.Errorf("%w: settlement amount must be positive", ErrValidation)
	}
	if settlement.FromMemberID == settlement.ToMemberID {
		return fmt.Errorf("%w: settlement cannot pay a member back to themselves", ErrValidation)
	}
	if settlement.Currency != "" && !models.ValidCurrency(settlement.Currency) {
		return fmt.Errorf("%w: unknown currency %q", ErrValidation, settlement.Currency)
	}
	if settlement.Date.IsZero() {
		settlement.Date = time.Now().UTC()
	}

	memberIDs, err := s.memberIDSet(ctx, trip)
	if err != nil {
		return err
	}
	for _, id := range []string{settlement.FromMemberID, settlement.ToMemberID} {
		if _, ok := memberIDs[id]; !ok {
			return fmt.Errorf("%w: member %s is not a trip member", ErrValidation, id)
		}
	}

	settlement.TripID = trip.ID
	if err := s.store.CreateSettlement(ctx, settlement); err != nil {
		return fmt.Errorf("failed to create settlement: %w", err)
	}
	return nil
}

// Settlements lists a trip's settlements.
func (s *TripService) Settlements(ctx context.Context, trip *models.Trip) ([]models.Settlement, error) {
	return s.store.ListSettlements(ctx, trip.ID)
}

// DeleteSettlement removes a settlement.
func (s *TripService) DeleteSettlement(ctx context.Context, trip *models.Trip, settlementID string) error {
	return s.store.DeleteSettlement(ctx, trip.ID, settlementID)
}

func (s *TripService) memberIDSet(ctx context.Context, trip *models.Trip) (map[string]struct{}, error) {
	members, err := s.store.ListMembers(ctx, trip.ID)
	if err != nil {
		return nil, err
	}
	ids := make(map[string]struct{}, len(members))
	for _, m := range members {
		ids[m.ID] = struct{}{}
	}
	return ids, nil
}
