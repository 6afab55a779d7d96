package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/tallyup/tallyup/internal/errs"
	"github.com/tallyup/tallyup/internal/metrics"
	"github.com/tallyup/tallyup/internal/models"
	"github.com/tallyup/tallyup/internal/money"
	"github.com/tallyup/tallyup/internal/storage"
)

// RecordSettlementInput is the fully-validated command to record money that
// moved, applied against outstanding debts and splits.
type RecordSettlementInput struct {
	// FromID pays ToID; models.OwnerParticipant stands for the owner.
	FromID uuid.UUID
	ToID   uuid.UUID

	Amount  money.Money
	Targets []models.SettlementTarget
	Method  models.SettlementMethod
	Date    time.Time
	Notes   string
}

// SettlementService manages the settlement ledger. Application is atomic:
// either every target accepts its applied amount and the settlement row is
// written, or nothing changes.
type SettlementService struct {
	store   storage.Store
	clock   storage.Clock
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewSettlementService creates a new SettlementService.
func NewSettlementService(store storage.Store, clock storage.Clock, logger *slog.Logger, m *metrics.Metrics) *SettlementService {
	return &SettlementService{store: store, clock: clock, logger: logger, metrics: m}
}

// RecordSettlement validates and applies a settlement in one transaction.
// Each target must exist, not be cancelled, and have enough remaining
// balance; concurrent writers to the same target lose on the version check
// and must re-read and retry.
func (s *SettlementService) RecordSettlement(ctx context.Context, ownerID uuid.UUID, in RecordSettlementInput) (*models.Settlement, error) {
	settlement, err := models.NewSettlement(
		ownerID, in.FromID, in.ToID, in.Amount, in.Targets,
		in.Method, in.Date, in.Notes, s.clock.Now(),
	)
	if err != nil {
		return nil, err
	}

	// Payer and receiver must be the owner or one of the owner's contacts.
	for _, party := range []uuid.UUID{in.FromID, in.ToID} {
		if party == models.OwnerParticipant {
			continue
		}
		if _, err := s.store.GetContact(ctx, ownerID, party); err != nil {
			return nil, err
		}
	}

	err = s.store.InTx(ctx, func(tx storage.Store) error {
		for _, t := range settlement.Targets {
			if err := s.applyTarget(ctx, tx, ownerID, t); err != nil {
				return err
			}
		}
		return tx.CreateSettlement(ctx, settlement)
	})
	if err != nil {
		if errs.IsKind(err, errs.KindConcurrentModification) {
			s.metrics.VersionConflicts.Inc()
		}
		s.logger.Warn("settlement rejected", "owner_id", ownerID, "error", err)
		return nil, err
	}

	s.metrics.SettlementsRecorded.Inc()
	s.logger.Info("settlement recorded",
		"owner_id", ownerID,
		"settlement_id", settlement.ID,
		"amount", settlement.Amount,
		"targets", len(settlement.Targets),
	)
	return settlement, nil
}

func (s *SettlementService) applyTarget(ctx context.Context, tx storage.Store, ownerID uuid.UUID, t models.SettlementTarget) error {
	switch t.Kind {
	case models.TargetPeerDebt:
		debt, err := tx.GetDebt(ctx, ownerID, t.TargetID)
		if err != nil {
			return err
		}
		if err := debt.ApplySettlement(t.Applied); err != nil {
			return err
		}
		return tx.UpdateDebt(ctx, debt)

	case models.TargetExpenseSplit:
		split, err := tx.GetSplit(ctx, ownerID, t.TargetID)
		if err != nil {
			return err
		}
		expense, err := tx.GetExpense(ctx, ownerID, split.ExpenseID)
		if err != nil {
			return err
		}
		if expense.Cancelled {
			return errs.Conflict("expense %s is cancelled and its splits cannot be settled", expense.ID)
		}
		if err := split.ApplySettlement(t.Applied); err != nil {
			return err
		}
		return tx.UpdateSplit(ctx, ownerID, split)
	}
	return errs.Validation("unknown settlement target kind %q", t.Kind)
}

// ReverseSettlement undoes an earlier settlement by recording a new,
// sign-opposite settlement referencing the original. The original is never
// edited. Reversals themselves cannot be reversed.
func (s *SettlementService) ReverseSettlement(ctx context.Context, ownerID, settlementID uuid.UUID, notes string) (*models.Settlement, error) {
	original, err := s.store.GetSettlement(ctx, ownerID, settlementID)
	if err != nil {
		return nil, err
	}
	if original.ReversalOfID != nil {
		return nil, errs.Conflict("settlement %s is itself a reversal", settlementID)
	}

	reversal := original.Reversal(notes, s.clock.Now())
	err = s.store.InTx(ctx, func(tx storage.Store) error {
		for _, t := range reversal.Targets {
			if err := s.unapplyTarget(ctx, tx, ownerID, t); err != nil {
				return err
			}
		}
		return tx.CreateSettlement(ctx, reversal)
	})
	if err != nil {
		if errs.IsKind(err, errs.KindConcurrentModification) {
			s.metrics.VersionConflicts.Inc()
		}
		s.logger.Warn("settlement reversal rejected", "owner_id", ownerID, "settlement_id", settlementID, "error", err)
		return nil, err
	}

	s.metrics.SettlementReversals.Inc()
	s.logger.Info("settlement reversed",
		"owner_id", ownerID,
		"settlement_id", settlementID,
		"reversal_id", reversal.ID,
	)
	return reversal, nil
}

func (s *SettlementService) unapplyTarget(ctx context.Context, tx storage.Store, ownerID uuid.UUID, t models.SettlementTarget) error {
	switch t.Kind {
	case models.TargetPeerDebt:
		debt, err := tx.GetDebt(ctx, ownerID, t.TargetID)
		if err != nil {
			return err
		}
		if err := debt.Unapply(t.Applied); err != nil {
			return err
		}
		return tx.UpdateDebt(ctx, debt)

	case models.TargetExpenseSplit:
		split, err := tx.GetSplit(ctx, ownerID, t.TargetID)
		if err != nil {
			return err
		}
		if err := split.Unapply(t.Applied); err != nil {
			return err
		}
		return tx.UpdateSplit(ctx, ownerID, split)
	}
	return errs.Validation("unknown settlement target kind %q", t.Kind)
}

// GetSettlement retrieves one settlement.
func (s *SettlementService) GetSettlement(ctx context.Context, ownerID, settlementID uuid.UUID) (*models.Settlement, error) {
	return s.store.GetSettlement(ctx, ownerID, settlementID)
}

// ListSettlements retrieves all of the owner's settlements.
func (s *SettlementService) ListSettlements(ctx context.Context, ownerID uuid.UUID) ([]*models.Settlement, error) {
	return s.store.ListSettlements(ctx, ownerID)
}

// ListSettlementsByContact retrieves settlements involving one contact.
func (s *SettlementService) ListSettlementsByContact(ctx context.Context, ownerID, contactID uuid.UUID) ([]*models.Settlement, error) {
	return s.store.ListSettlementsByContact(ctx, ownerID, contactID)
}
