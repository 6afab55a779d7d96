package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tallyup/tallyup/internal/errs"
	"github.com/tallyup/tallyup/internal/models"
	"github.com/tallyup/tallyup/internal/storage"
)

// CreateExpenseGroup persists an expense group and its membership.
func (s *SQLiteStore) CreateExpenseGroup(ctx context.Context, group *models.ExpenseGroup) error {
	return s.InTx(ctx, func(tx storage.Store) error {
		st := tx.(*SQLiteStore)
		if _, err := st.q.ExecContext(ctx,
			`INSERT INTO expense_groups (id, owner_id, name, created_at) VALUES (?, ?, ?, ?)`,
			group.ID.String(), group.OwnerID.String(), group.Name, group.CreatedAt.Unix(),
		); err != nil {
			return fmt.Errorf("failed to insert expense group: %w", err)
		}
		return st.replaceGroupMembers(ctx, "expense_group_members", group.ID, group.MemberContactIDs)
	})
}

// GetExpenseGroup retrieves an expense group with its membership.
func (s *SQLiteStore) GetExpenseGroup(ctx context.Context, ownerID, id uuid.UUID) (*models.ExpenseGroup, error) {
	var (
		group     models.ExpenseGroup
		createdAt int64
	)
	err := s.q.QueryRowContext(ctx,
		`SELECT name, created_at FROM expense_groups WHERE id = ? AND owner_id = ?`,
		id.String(), ownerID.String(),
	).Scan(&group.Name, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errs.NotFound("expense group", id.String())
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get expense group: %w", err)
	}
	group.ID = id
	group.OwnerID = ownerID
	group.CreatedAt = time.Unix(createdAt, 0).UTC()

	group.MemberContactIDs, err = s.groupMembers(ctx, "expense_group_members", id)
	return &group, err
}

// UpdateExpenseGroupMembers rewrites the group's membership.
func (s *SQLiteStore) UpdateExpenseGroupMembers(ctx context.Context, group *models.ExpenseGroup) error {
	return s.InTx(ctx, func(tx storage.Store) error {
		st := tx.(*SQLiteStore)
		if _, err := st.q.ExecContext(ctx,
			`DELETE FROM expense_group_members WHERE group_id = ?`, group.ID.String(),
		); err != nil {
			return fmt.Errorf("failed to clear expense group members: %w", err)
		}
		return st.replaceGroupMembers(ctx, "expense_group_members", group.ID, group.MemberContactIDs)
	})
}

// ListExpenseGroups retrieves all of the owner's expense groups.
func (s *SQLiteStore) ListExpenseGroups(ctx context.Context, ownerID uuid.UUID) ([]*models.ExpenseGroup, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT id, name, created_at FROM expense_groups WHERE owner_id = ? ORDER BY name, id`,
		ownerID.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list expense groups: %w", err)
	}
	defer rows.Close()

	var groups []*models.ExpenseGroup
	for rows.Next() {
		var (
			group     models.ExpenseGroup
			id        string
			createdAt int64
		)
		if err := rows.Scan(&id, &group.Name, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan expense group: %w", err)
		}
		if group.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("corrupt group id %q: %w", id, err)
		}
		group.OwnerID = ownerID
		group.CreatedAt = time.Unix(createdAt, 0).UTC()
		groups = append(groups, &group)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expense groups: %w", err)
	}

	for _, g := range groups {
		if g.MemberContactIDs, err = s.groupMembers(ctx, "expense_group_members", g.ID); err != nil {
			return nil, err
		}
	}
	return groups, nil
}

// CreateExpense persists an expense and all of its splits atomically.
func (s *SQLiteStore) CreateExpense(ctx context.Context, expense *models.GroupExpense) error {
	return s.InTx(ctx, func(tx storage.Store) error {
		st := tx.(*SQLiteStore)
		if _, err := st.q.ExecContext(ctx,
			`INSERT INTO group_expenses (id, owner_id, group_id, description, amount, currency,
			 paid_by, expense_date, method, cancelled, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			expense.ID.String(), expense.OwnerID.String(), expense.GroupID.String(), expense.Description,
			amountString(expense.TotalAmount), expense.TotalAmount.Currency(),
			expense.PaidByID.String(), expense.Date.Unix(), string(expense.Method),
			boolInt(expense.Cancelled), expense.CreatedAt.Unix(),
		); err != nil {
			return fmt.Errorf("failed to insert expense: %w", err)
		}
		for i := range expense.Splits {
			sp := &expense.Splits[i]
			if _, err := st.q.ExecContext(ctx,
				`INSERT INTO expense_splits (id, expense_id, owner_id, participant_id,
				 share_amount, settled_amount, currency, version)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				sp.ID.String(), expense.ID.String(), expense.OwnerID.String(), sp.ParticipantID.String(),
				amountString(sp.ShareAmount), amountString(sp.SettledAmount),
				sp.ShareAmount.Currency(), sp.Version,
			); err != nil {
				return fmt.Errorf("failed to insert expense split: %w", err)
			}
		}
		return nil
	})
}

// GetExpense retrieves an expense with its splits.
func (s *SQLiteStore) GetExpense(ctx context.Context, ownerID, id uuid.UUID) (*models.GroupExpense, error) {
	row := s.q.QueryRowContext(ctx,
		`SELECT id, owner_id, group_id, description, amount, currency, paid_by,
		 expense_date, method, cancelled, created_at
		 FROM group_expenses WHERE id = ? AND owner_id = ?`,
		id.String(), ownerID.String(),
	)
	expense, err := scanExpense(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errs.NotFound("expense", id.String())
	}
	if err != nil {
		return nil, err
	}
	if expense.Splits, err = s.expenseSplits(ctx, expense.ID); err != nil {
		return nil, err
	}
	return expense, nil
}

// ListExpensesByGroup retrieves all expenses of a group, splits included.
func (s *SQLiteStore) ListExpensesByGroup(ctx context.Context, ownerID, groupID uuid.UUID) ([]*models.GroupExpense, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT id, owner_id, group_id, description, amount, currency, paid_by,
		 expense_date, method, cancelled, created_at
		 FROM group_expenses WHERE owner_id = ? AND group_id = ?
		 ORDER BY expense_date DESC, id`,
		ownerID.String(), groupID.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	defer rows.Close()

	var expenses []*models.GroupExpense
	for rows.Next() {
		expense, err := scanExpense(rows.Scan)
		if err != nil {
			return nil, err
		}
		expenses = append(expenses, expense)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expenses: %w", err)
	}

	for _, e := range expenses {
		if e.Splits, err = s.expenseSplits(ctx, e.ID); err != nil {
			return nil, err
		}
	}
	return expenses, nil
}

// MarkExpenseCancelled flips the expense's cancelled flag on.
func (s *SQLiteStore) MarkExpenseCancelled(ctx context.Context, expense *models.GroupExpense) error {
	res, err := s.q.ExecContext(ctx,
		`UPDATE group_expenses SET cancelled = 1 WHERE id = ? AND owner_id = ?`,
		expense.ID.String(), expense.OwnerID.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to cancel expense: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check expense cancel: %w", err)
	}
	if n == 0 {
		return errs.NotFound("expense", expense.ID.String())
	}
	return nil
}

// GetSplit retrieves a single split within the owner's namespace.
func (s *SQLiteStore) GetSplit(ctx context.Context, ownerID, id uuid.UUID) (*models.ExpenseSplit, error) {
	row := s.q.QueryRowContext(ctx,
		`SELECT id, expense_id, participant_id, share_amount, settled_amount, currency, version
		 FROM expense_splits WHERE id = ? AND owner_id = ?`,
		id.String(), ownerID.String(),
	)
	split, err := scanSplit(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errs.NotFound("expense split", id.String())
	}
	return split, err
}

// UpdateSplit writes the split's settled amount, guarded by the optimistic
// version check. On success the in-memory version is bumped to match.
func (s *SQLiteStore) UpdateSplit(ctx context.Context, ownerID uuid.UUID, split *models.ExpenseSplit) error {
	res, err := s.q.ExecContext(ctx,
		`UPDATE expense_splits SET settled_amount = ?, version = version + 1
		 WHERE id = ? AND owner_id = ? AND version = ?`,
		amountString(split.SettledAmount), split.ID.String(), ownerID.String(), split.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to update expense split: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check expense split update: %w", err)
	}
	if n == 0 {
		if _, getErr := s.GetSplit(ctx, ownerID, split.ID); getErr != nil {
			return getErr
		}
		return errs.ConcurrentModification("expense split", split.ID.String())
	}
	split.Version++
	return nil
}

// HasUnsettledSplits reports whether the contact still owes anything on a
// non-cancelled expense in the group.
func (s *SQLiteStore) HasUnsettledSplits(ctx context.Context, ownerID, groupID, contactID uuid.UUID) (bool, error) {
	var n int
	err := s.q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM expense_splits sp
		 JOIN group_expenses e ON e.id = sp.expense_id
		 WHERE e.owner_id = ? AND e.group_id = ? AND e.cancelled = 0
		   AND sp.participant_id = ? AND sp.settled_amount != sp.share_amount`,
		ownerID.String(), groupID.String(), contactID.String(),
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to count unsettled splits: %w", err)
	}
	return n > 0, nil
}

func (s *SQLiteStore) expenseSplits(ctx context.Context, expenseID uuid.UUID) ([]models.ExpenseSplit, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT id, expense_id, participant_id, share_amount, settled_amount, currency, version
		 FROM expense_splits WHERE expense_id = ? ORDER BY participant_id`,
		expenseID.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list expense splits: %w", err)
	}
	defer rows.Close()

	var splits []models.ExpenseSplit
	for rows.Next() {
		split, err := scanSplit(rows.Scan)
		if err != nil {
			return nil, err
		}
		splits = append(splits, *split)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expense splits: %w", err)
	}
	return splits, nil
}

func scanExpense(scan func(...any) error) (*models.GroupExpense, error) {
	var (
		expense            models.GroupExpense
		id, owner, group   string
		amount, cur, payer string
		method             string
		date, createdAt    int64
		cancelled          int
	)
	if err := scan(&id, &owner, &group, &expense.Description, &amount, &cur, &payer,
		&date, &method, &cancelled, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan expense: %w", err)
	}
	var err error
	if expense.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("corrupt expense id %q: %w", id, err)
	}
	if expense.OwnerID, err = uuid.Parse(owner); err != nil {
		return nil, fmt.Errorf("corrupt owner id %q: %w", owner, err)
	}
	if expense.GroupID, err = uuid.Parse(group); err != nil {
		return nil, fmt.Errorf("corrupt group id %q: %w", group, err)
	}
	if expense.PaidByID, err = uuid.Parse(payer); err != nil {
		return nil, fmt.Errorf("corrupt payer id %q: %w", payer, err)
	}
	if expense.TotalAmount, err = scanMoney(amount, cur); err != nil {
		return nil, err
	}
	expense.Date = time.Unix(date, 0).UTC()
	expense.Method = models.SplitMethod(method)
	expense.Cancelled = cancelled != 0
	expense.CreatedAt = time.Unix(createdAt, 0).UTC()
	return &expense, nil
}

func scanSplit(scan func(...any) error) (*models.ExpenseSplit, error) {
	var (
		split               models.ExpenseSplit
		id, expense, part   string
		share, settled, cur string
	)
	if err := scan(&id, &expense, &part, &share, &settled, &cur, &split.Version); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan expense split: %w", err)
	}
	var err error
	if split.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("corrupt split id %q: %w", id, err)
	}
	if split.ExpenseID, err = uuid.Parse(expense); err != nil {
		return nil, fmt.Errorf("corrupt expense id %q: %w", expense, err)
	}
	if split.ParticipantID, err = uuid.Parse(part); err != nil {
		return nil, fmt.Errorf("corrupt participant id %q: %w", part, err)
	}
	if split.ShareAmount, err = scanMoney(share, cur); err != nil {
		return nil, err
	}
	if split.SettledAmount, err = scanMoney(settled, cur); err != nil {
		return nil, err
	}
	return &split, nil
}
