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
)

const debtColumns = `id, owner_id, contact_id, direction, amount, settled_amount, currency,
	cancelled, reason, due_date, linked_transaction_id, created_at, version`

// CreateDebt persists a new peer debt.
func (s *SQLiteStore) CreateDebt(ctx context.Context, debt *models.PeerDebt) error {
	_, err := s.q.ExecContext(ctx,
		`INSERT INTO peer_debts (`+debtColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		debt.ID.String(), debt.OwnerID.String(), debt.ContactID.String(), string(debt.Direction),
		amountString(debt.OriginalAmount), amountString(debt.SettledAmount), debt.OriginalAmount.Currency(),
		boolInt(debt.Cancelled), debt.Reason, nullTime(debt.DueDate),
		nullUUID(debt.LinkedTransactionID), debt.CreatedAt.Unix(), debt.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to insert peer debt: %w", err)
	}
	return nil
}

// GetDebt retrieves a peer debt within the owner's namespace.
func (s *SQLiteStore) GetDebt(ctx context.Context, ownerID, id uuid.UUID) (*models.PeerDebt, error) {
	row := s.q.QueryRowContext(ctx,
		`SELECT `+debtColumns+` FROM peer_debts WHERE id = ? AND owner_id = ?`,
		id.String(), ownerID.String(),
	)
	debt, err := scanDebt(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errs.NotFound("peer debt", id.String())
	}
	return debt, err
}

// UpdateDebt writes the debt's settled amount and cancelled flag, guarded by
// the optimistic version check. On success the in-memory version is bumped
// to match the stored row.
func (s *SQLiteStore) UpdateDebt(ctx context.Context, debt *models.PeerDebt) error {
	res, err := s.q.ExecContext(ctx,
		`UPDATE peer_debts SET settled_amount = ?, cancelled = ?, version = version + 1
		 WHERE id = ? AND owner_id = ? AND version = ?`,
		amountString(debt.SettledAmount), boolInt(debt.Cancelled),
		debt.ID.String(), debt.OwnerID.String(), debt.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to update peer debt: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check peer debt update: %w", err)
	}
	if n == 0 {
		// Either the row is gone or someone else won the version race.
		if _, getErr := s.GetDebt(ctx, debt.OwnerID, debt.ID); getErr != nil {
			return getErr
		}
		return errs.ConcurrentModification("peer debt", debt.ID.String())
	}
	debt.Version++
	return nil
}

// ListDebts retrieves all of the owner's peer debts.
func (s *SQLiteStore) ListDebts(ctx context.Context, ownerID uuid.UUID) ([]*models.PeerDebt, error) {
	return s.listDebts(ctx,
		`SELECT `+debtColumns+` FROM peer_debts WHERE owner_id = ? ORDER BY created_at DESC, id`,
		ownerID.String())
}

// ListDebtsByContact retrieves all peer debts between the owner and one contact.
func (s *SQLiteStore) ListDebtsByContact(ctx context.Context, ownerID, contactID uuid.UUID) ([]*models.PeerDebt, error) {
	return s.listDebts(ctx,
		`SELECT `+debtColumns+` FROM peer_debts WHERE owner_id = ? AND contact_id = ? ORDER BY created_at DESC, id`,
		ownerID.String(), contactID.String())
}

func (s *SQLiteStore) listDebts(ctx context.Context, query string, args ...any) ([]*models.PeerDebt, error) {
	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list peer debts: %w", err)
	}
	defer rows.Close()

	var debts []*models.PeerDebt
	for rows.Next() {
		debt, err := scanDebt(rows.Scan)
		if err != nil {
			return nil, err
		}
		debts = append(debts, debt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate peer debts: %w", err)
	}
	return debts, nil
}

func scanDebt(scan func(...any) error) (*models.PeerDebt, error) {
	var (
		debt                 models.PeerDebt
		id, owner, contact   string
		direction            string
		amount, settled, cur string
		cancelled            int
		dueDate              sql.NullInt64
		linkedTx             sql.NullString
		createdAt            int64
	)
	if err := scan(&id, &owner, &contact, &direction, &amount, &settled, &cur,
		&cancelled, &debt.Reason, &dueDate, &linkedTx, &createdAt, &debt.Version); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan peer debt: %w", err)
	}
	var err error
	if debt.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("corrupt debt id %q: %w", id, err)
	}
	if debt.OwnerID, err = uuid.Parse(owner); err != nil {
		return nil, fmt.Errorf("corrupt owner id %q: %w", owner, err)
	}
	if debt.ContactID, err = uuid.Parse(contact); err != nil {
		return nil, fmt.Errorf("corrupt contact id %q: %w", contact, err)
	}
	debt.Direction = models.DebtDirection(direction)
	if debt.OriginalAmount, err = scanMoney(amount, cur); err != nil {
		return nil, err
	}
	if debt.SettledAmount, err = scanMoney(settled, cur); err != nil {
		return nil, err
	}
	debt.Cancelled = cancelled != 0
	debt.DueDate = scanNullTime(dueDate)
	if debt.LinkedTransactionID, err = scanNullUUID(linkedTx); err != nil {
		return nil, err
	}
	debt.CreatedAt = time.Unix(createdAt, 0).UTC()
	return &debt, nil
}
