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

// CreateSettlement persists a settlement and its targets atomically.
func (s *SQLiteStore) CreateSettlement(ctx context.Context, settlement *models.Settlement) error {
	return s.InTx(ctx, func(tx storage.Store) error {
		st := tx.(*SQLiteStore)
		if _, err := st.q.ExecContext(ctx,
			`INSERT INTO settlements (id, owner_id, from_id, to_id, amount, currency,
			 method, settlement_date, notes, reversal_of, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			settlement.ID.String(), settlement.OwnerID.String(),
			settlement.FromID.String(), settlement.ToID.String(),
			amountString(settlement.Amount), settlement.Amount.Currency(),
			string(settlement.Method), settlement.Date.Unix(), settlement.Notes,
			nullUUID(settlement.ReversalOfID), settlement.CreatedAt.Unix(),
		); err != nil {
			return fmt.Errorf("failed to insert settlement: %w", err)
		}
		for _, t := range settlement.Targets {
			if _, err := st.q.ExecContext(ctx,
				`INSERT INTO settlement_targets (settlement_id, kind, target_id, applied)
				 VALUES (?, ?, ?, ?)`,
				settlement.ID.String(), string(t.Kind), t.TargetID.String(), amountString(t.Applied),
			); err != nil {
				return fmt.Errorf("failed to insert settlement target: %w", err)
			}
		}
		return nil
	})
}

// GetSettlement retrieves a settlement with its targets.
func (s *SQLiteStore) GetSettlement(ctx context.Context, ownerID, id uuid.UUID) (*models.Settlement, error) {
	row := s.q.QueryRowContext(ctx,
		`SELECT id, owner_id, from_id, to_id, amount, currency, method,
		 settlement_date, notes, reversal_of, created_at
		 FROM settlements WHERE id = ? AND owner_id = ?`,
		id.String(), ownerID.String(),
	)
	settlement, err := scanSettlement(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errs.NotFound("settlement", id.String())
	}
	if err != nil {
		return nil, err
	}
	if settlement.Targets, err = s.settlementTargets(ctx, settlement.ID, settlement.Amount.Currency()); err != nil {
		return nil, err
	}
	return settlement, nil
}

// ListSettlements retrieves all of the owner's settlements, newest first.
func (s *SQLiteStore) ListSettlements(ctx context.Context, ownerID uuid.UUID) ([]*models.Settlement, error) {
	return s.listSettlements(ctx,
		`SELECT id, owner_id, from_id, to_id, amount, currency, method,
		 settlement_date, notes, reversal_of, created_at
		 FROM settlements WHERE owner_id = ? ORDER BY settlement_date DESC, id`,
		ownerID.String())
}

// ListSettlementsByContact retrieves settlements where the contact is payer
// or receiver.
func (s *SQLiteStore) ListSettlementsByContact(ctx context.Context, ownerID, contactID uuid.UUID) ([]*models.Settlement, error) {
	return s.listSettlements(ctx,
		`SELECT id, owner_id, from_id, to_id, amount, currency, method,
		 settlement_date, notes, reversal_of, created_at
		 FROM settlements WHERE owner_id = ? AND (from_id = ? OR to_id = ?)
		 ORDER BY settlement_date DESC, id`,
		ownerID.String(), contactID.String(), contactID.String())
}

func (s *SQLiteStore) listSettlements(ctx context.Context, query string, args ...any) ([]*models.Settlement, error) {
	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list settlements: %w", err)
	}
	defer rows.Close()

	var settlements []*models.Settlement
	for rows.Next() {
		settlement, err := scanSettlement(rows.Scan)
		if err != nil {
			return nil, err
		}
		settlements = append(settlements, settlement)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate settlements: %w", err)
	}

	for _, st := range settlements {
		if st.Targets, err = s.settlementTargets(ctx, st.ID, st.Amount.Currency()); err != nil {
			return nil, err
		}
	}
	return settlements, nil
}

func (s *SQLiteStore) settlementTargets(ctx context.Context, settlementID uuid.UUID, currency string) ([]models.SettlementTarget, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT kind, target_id, applied FROM settlement_targets
		 WHERE settlement_id = ? ORDER BY target_id`,
		settlementID.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list settlement targets: %w", err)
	}
	defer rows.Close()

	var targets []models.SettlementTarget
	for rows.Next() {
		var (
			target   models.SettlementTarget
			kind, id string
			applied  string
		)
		if err := rows.Scan(&kind, &id, &applied); err != nil {
			return nil, fmt.Errorf("failed to scan settlement target: %w", err)
		}
		target.Kind = models.TargetKind(kind)
		if target.TargetID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("corrupt target id %q: %w", id, err)
		}
		if target.Applied, err = scanMoney(applied, currency); err != nil {
			return nil, err
		}
		targets = append(targets, target)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate settlement targets: %w", err)
	}
	return targets, nil
}

func scanSettlement(scan func(...any) error) (*models.Settlement, error) {
	var (
		settlement      models.Settlement
		id, owner       string
		from, to        string
		amount, cur     string
		method          string
		date, createdAt int64
		reversalOf      sql.NullString
	)
	if err := scan(&id, &owner, &from, &to, &amount, &cur, &method,
		&date, &settlement.Notes, &reversalOf, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan settlement: %w", err)
	}
	var err error
	if settlement.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("corrupt settlement id %q: %w", id, err)
	}
	if settlement.OwnerID, err = uuid.Parse(owner); err != nil {
		return nil, fmt.Errorf("corrupt owner id %q: %w", owner, err)
	}
	if settlement.FromID, err = uuid.Parse(from); err != nil {
		return nil, fmt.Errorf("corrupt payer id %q: %w", from, err)
	}
	if settlement.ToID, err = uuid.Parse(to); err != nil {
		return nil, fmt.Errorf("corrupt receiver id %q: %w", to, err)
	}
	if settlement.Amount, err = scanMoney(amount, cur); err != nil {
		return nil, err
	}
	settlement.Method = models.SettlementMethod(method)
	settlement.Date = time.Unix(date, 0).UTC()
	if settlement.ReversalOfID, err = scanNullUUID(reversalOf); err != nil {
		return nil, err
	}
	settlement.CreatedAt = time.Unix(createdAt, 0).UTC()
	return &settlement, nil
}
