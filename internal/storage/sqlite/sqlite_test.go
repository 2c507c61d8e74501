package sqlite

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ferd/tripsplit/internal/models"
	"github.com/ferd/tripsplit/internal/storage"
)

// setupTestStore creates a store backed by a temp database file.
func setupTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	tmpFile, err := os.CreateTemp("", "tripsplit-test-*.db")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	tmpFile.Close()

	store, err := New(tmpFile.Name())
	if err != nil {
		os.Remove(tmpFile.Name())
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
		os.Remove(tmpFile.Name())
	})
	return store
}

func createTestTrip(t *testing.T, store *SQLiteStore, memberNames ...string) (*models.Trip, []models.Member) {
	t.Helper()
	ctx := context.Background()

	trip := &models.Trip{
		AccessToken:      "token-" + t.Name(),
		CreatorTokenHash: "hash",
		Name:             "Tokyo 2026",
		Currency:         "USD",
	}
	members := make([]*models.Member, len(memberNames))
	for i, name := range memberNames {
		members[i] = &models.Member{Name: name, CreatedAt: int64(1000 + i)}
	}
	if err := store.CreateTrip(ctx, trip, members); err != nil {
		t.Fatalf("CreateTrip() error = %v", err)
	}

	listed, err := store.ListMembers(ctx, trip.ID)
	if err != nil {
		t.Fatalf("ListMembers() error = %v", err)
	}
	return trip, listed
}

func TestTripRoundtrip(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	trip, members := createTestTrip(t, store, "Alice", "Bob", "Carol")

	got, err := store.GetTripByToken(ctx, trip.AccessToken)
	if err != nil {
		t.Fatalf("GetTripByToken() error = %v", err)
	}
	if got.ID != trip.ID || got.Name != "Tokyo 2026" || got.Currency != "USD" {
		t.Errorf("got trip %+v", got)
	}
	if got.SettlementCurrency != "" {
		t.Errorf("settlement currency = %q, want empty", got.SettlementCurrency)
	}

	if len(members) != 3 {
		t.Fatalf("got %d members, want 3", len(members))
	}
	// Creation order must be stable: it drives simplification tie-breaks.
	for i, want := range []string{"Alice", "Bob", "Carol"} {
		if members[i].Name != want {
			t.Errorf("member[%d] = %s, want %s", i, members[i].Name, want)
		}
	}

	if _, err := store.GetTripByToken(ctx, "no-such-token"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("missing trip error = %v, want ErrNotFound", err)
	}
}

func TestMemberUpdate(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	trip, members := createTestTrip(t, store, "Alice", "Bob")

	bob := members[1]
	bob.SettledByID = members[0].ID
	bob.SettlementCurrency = "EUR"
	if err := store.UpdateMember(ctx, &bob); err != nil {
		t.Fatalf("UpdateMember() error = %v", err)
	}

	got, err := store.GetMember(ctx, trip.ID, bob.ID)
	if err != nil {
		t.Fatalf("GetMember() error = %v", err)
	}
	if got.SettledByID != members[0].ID || got.SettlementCurrency != "EUR" {
		t.Errorf("got member %+v", got)
	}

	missing := models.Member{ID: "nope", TripID: trip.ID, Name: "X"}
	if err := store.UpdateMember(ctx, &missing); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("update of missing member error = %v, want ErrNotFound", err)
	}
}

func TestExpenseRoundtrip(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	trip, members := createTestTrip(t, store, "Alice", "Bob", "Carol")

	expense := &models.Expense{
		TripID:      trip.ID,
		Description: "Ramen",
		Amount:      4500,
		Currency:    "JPY",
		PaidByID:    members[0].ID,
		Date:        time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC),
		SplitMethod: models.SplitShares,
		Splits: []models.ExpenseMember{
			{MemberID: members[2].ID, SplitValue: decimal.NewNullDecimal(decimal.NewFromInt(2))},
			{MemberID: members[0].ID, SplitValue: decimal.NewNullDecimal(decimal.NewFromInt(1))},
			{MemberID: members[1].ID, SplitValue: decimal.NewNullDecimal(decimal.NewFromInt(1))},
		},
	}
	if err := store.CreateExpense(ctx, expense); err != nil {
		t.Fatalf("CreateExpense() error = %v", err)
	}

	expenses, err := store.ListExpenses(ctx, trip.ID)
	if err != nil {
		t.Fatalf("ListExpenses() error = %v", err)
	}
	if len(expenses) != 1 {
		t.Fatalf("got %d expenses, want 1", len(expenses))
	}

	got := expenses[0]
	if got.Amount != 4500 || got.Currency != "JPY" || got.SplitMethod != models.SplitShares {
		t.Errorf("got expense %+v", got)
	}
	if !got.Date.Equal(expense.Date) {
		t.Errorf("date = %v, want %v", got.Date, expense.Date)
	}

	// Splits must come back in insertion order, not member order.
	wantOrder := []string{members[2].ID, members[0].ID, members[1].ID}
	if len(got.Splits) != 3 {
		t.Fatalf("got %d splits, want 3", len(got.Splits))
	}
	for i, split := range got.Splits {
		if split.MemberID != wantOrder[i] {
			t.Errorf("split[%d] = %s, want %s", i, split.MemberID, wantOrder[i])
		}
		if !split.SplitValue.Valid {
			t.Errorf("split[%d] lost its value", i)
		}
	}

	if err := store.DeleteExpense(ctx, trip.ID, got.ID); err != nil {
		t.Fatalf("DeleteExpense() error = %v", err)
	}
	if err := store.DeleteExpense(ctx, trip.ID, got.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("second delete error = %v, want ErrNotFound", err)
	}
	expenses, err = store.ListExpenses(ctx, trip.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(expenses) != 0 {
		t.Errorf("got %d expenses after delete, want 0", len(expenses))
	}
}

func TestSettlementRoundtrip(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	trip, members := createTestTrip(t, store, "Alice", "Bob")

	settlement := &models.Settlement{
		TripID:       trip.ID,
		FromMemberID: members[1].ID,
		ToMemberID:   members[0].ID,
		Amount:       1200,
		Date:         time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC),
	}
	if err := store.CreateSettlement(ctx, settlement); err != nil {
		t.Fatalf("CreateSettlement() error = %v", err)
	}

	settlements, err := store.ListSettlements(ctx, trip.ID)
	if err != nil {
		t.Fatalf("ListSettlements() error = %v", err)
	}
	if len(settlements) != 1 {
		t.Fatalf("got %d settlements, want 1", len(settlements))
	}
	got := settlements[0]
	if got.FromMemberID != members[1].ID || got.ToMemberID != members[0].ID || got.Amount != 1200 {
		t.Errorf("got settlement %+v", got)
	}
	if got.Currency != "" {
		t.Errorf("currency = %q, want empty (trip default)", got.Currency)
	}

	if err := store.DeleteSettlement(ctx, trip.ID, got.ID); err != nil {
		t.Fatalf("DeleteSettlement() error = %v", err)
	}
	if err := store.DeleteSettlement(ctx, trip.ID, got.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("second delete error = %v, want ErrNotFound", err)
	}
}
