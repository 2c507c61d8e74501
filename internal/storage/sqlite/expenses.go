package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ferd/tripsplit/internal/models"
	"github.com/ferd/tripsplit/internal/storage"
)

// CreateExpense persists an expense and its splits atomically. Split order is
// stored explicitly because remainder distribution depends on it.
func (s *SQLiteStore) CreateExpense(ctx context.Context, expense *models.Expense) error {
	if expense.ID == "" {
		expense.ID = uuid.New().String()
	}
	if expense.CreatedAt == 0 {
		expense.CreatedAt = time.Now().Unix()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO expenses (id, trip_id, description, amount, currency, paid_by_id, date, split_method, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		expense.ID, expense.TripID, expense.Description, expense.Amount,
		nullable(expense.Currency), expense.PaidByID,
		expense.Date.Format(models.RateDateFormat), string(expense.SplitMethod), expense.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert expense: %w", err)
	}

	for i := range expense.Splits {
		split := &expense.Splits[i]
		split.ExpenseID = expense.ID

		var value interface{}
		if split.SplitValue.Valid {
			value = split.SplitValue.Decimal.String()
		}
		_, err = tx.ExecContext(ctx,
			"INSERT INTO expense_members (expense_id, member_id, split_value, position) VALUES (?, ?, ?, ?)",
			split.ExpenseID, split.MemberID, value, i,
		)
		if err != nil {
			return fmt.Errorf("failed to insert expense split: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// ListExpenses returns a trip's expenses in creation order, each with its
// splits in split order.
func (s *SQLiteStore) ListExpenses(ctx context.Context, tripID string) ([]models.Expense, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, trip_id, description, amount, currency, paid_by_id, date, split_method, created_at
		 FROM expenses WHERE trip_id = ? ORDER BY created_at, rowid`,
		tripID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	defer rows.Close()

	var expenses []models.Expense
	for rows.Next() {
		var e models.Expense
		var currency sql.NullString
		var date, method string
		if err := rows.Scan(&e.ID, &e.TripID, &e.Description, &e.Amount,
			&currency, &e.PaidByID, &date, &method, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		if currency.Valid {
			e.Currency = currency.String
		}
		e.SplitMethod = models.SplitMethod(method)
		e.Date, err = time.Parse(models.RateDateFormat, date)
		if err != nil {
			return nil, fmt.Errorf("failed to parse expense date: %w", err)
		}
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expenses: %w", err)
	}

	for i := range expenses {
		splits, err := s.listSplits(ctx, expenses[i].ID)
		if err != nil {
			return nil, err
		}
		expenses[i].Splits = splits
	}
	return expenses, nil
}

func (s *SQLiteStore) listSplits(ctx context.Context, expenseID string) ([]models.ExpenseMember, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT expense_id, member_id, split_value FROM expense_members WHERE expense_id = ? ORDER BY position",
		expenseID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list expense splits: %w", err)
	}
	defer rows.Close()

	var splits []models.ExpenseMember
	for rows.Next() {
		var split models.ExpenseMember
		var value sql.NullString
		if err := rows.Scan(&split.ExpenseID, &split.MemberID, &value); err != nil {
			return nil, fmt.Errorf("failed to scan expense split: %w", err)
		}
		if value.Valid {
			d, err := decimal.NewFromString(value.String)
			if err != nil {
				return nil, fmt.Errorf("failed to parse split value: %w", err)
			}
			split.SplitValue = decimal.NewNullDecimal(d)
		}
		splits = append(splits, split)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expense splits: %w", err)
	}
	return splits, nil
}

// DeleteExpense removes an expense and its splits from a trip.
func (s *SQLiteStore) DeleteExpense(ctx context.Context, tripID, expenseID string) error {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM expenses WHERE trip_id = ? AND id = ?", tripID, expenseID)
	if err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("expense %s: %w", expenseID, storage.ErrNotFound)
	}
	return nil
}
