package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/tallyup/tallyup/internal/calculator"
	"github.com/tallyup/tallyup/internal/metrics"
	"github.com/tallyup/tallyup/internal/models"
	"github.com/tallyup/tallyup/internal/money"
	"github.com/tallyup/tallyup/internal/storage"
)

// RecordPeerDebtInput is the fully-validated command to record a lent or
// borrowed amount against one contact.
type RecordPeerDebtInput struct {
	ContactID           uuid.UUID
	Direction           models.DebtDirection
	Amount              money.Money
	Reason              string
	DueDate             *time.Time
	LinkedTransactionID *uuid.UUID
}

// DebtService manages the peer-debt ledger: lent/borrowed records between the
// owner and individual contacts.
type DebtService struct {
	store   storage.Store
	clock   storage.Clock
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewDebtService creates a new DebtService.
func NewDebtService(store storage.Store, clock storage.Clock, logger *slog.Logger, m *metrics.Metrics) *DebtService {
	return &DebtService{store: store, clock: clock, logger: logger, metrics: m}
}

// RecordPeerDebt records a new debt. The contact must exist in the owner's
// namespace.
func (s *DebtService) RecordPeerDebt(ctx context.Context, ownerID uuid.UUID, in RecordPeerDebtInput) (*models.PeerDebt, error) {
	if _, err := s.store.GetContact(ctx, ownerID, in.ContactID); err != nil {
		return nil, err
	}
	debt, err := models.NewPeerDebt(ownerID, in.ContactID, in.Direction, in.Amount, in.Reason, in.DueDate, s.clock.Now())
	if err != nil {
		return nil, err
	}
	debt.LinkedTransactionID = in.LinkedTransactionID
	if err := s.store.CreateDebt(ctx, debt); err != nil {
		s.logger.Error("failed to record peer debt", "owner_id", ownerID, "contact_id", in.ContactID, "error", err)
		return nil, err
	}
	s.metrics.DebtsRecorded.Inc()
	s.logger.Info("peer debt recorded",
		"owner_id", ownerID,
		"debt_id", debt.ID,
		"contact_id", in.ContactID,
		"direction", in.Direction,
		"amount", in.Amount,
	)
	return debt, nil
}

// GetDebt retrieves one peer debt.
func (s *DebtService) GetDebt(ctx context.Context, ownerID, debtID uuid.UUID) (*models.PeerDebt, error) {
	return s.store.GetDebt(ctx, ownerID, debtID)
}

// ListDebts retrieves all of the owner's peer debts.
func (s *DebtService) ListDebts(ctx context.Context, ownerID uuid.UUID) ([]*models.PeerDebt, error) {
	return s.store.ListDebts(ctx, ownerID)
}

// ListActiveDebts retrieves the owner's debts that still carry a remaining
// amount, cancelled ones excluded.
func (s *DebtService) ListActiveDebts(ctx context.Context, ownerID uuid.UUID) ([]*models.PeerDebt, error) {
	debts, err := s.store.ListDebts(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	active := debts[:0]
	for _, d := range debts {
		switch d.Status() {
		case models.DebtPending, models.DebtPartiallySettled:
			active = append(active, d)
		}
	}
	return active, nil
}

// ListDebtsByContact retrieves the peer debts between the owner and one
// contact.
func (s *DebtService) ListDebtsByContact(ctx context.Context, ownerID, contactID uuid.UUID) ([]*models.PeerDebt, error) {
	return s.store.ListDebtsByContact(ctx, ownerID, contactID)
}

// CancelPeerDebt forgives a debt. Cancelling is terminal; no further
// settlement is accepted against it.
func (s *DebtService) CancelPeerDebt(ctx context.Context, ownerID, debtID uuid.UUID) (*models.PeerDebt, error) {
	debt, err := s.store.GetDebt(ctx, ownerID, debtID)
	if err != nil {
		return nil, err
	}
	debt.Cancel()
	if err := s.store.UpdateDebt(ctx, debt); err != nil {
		return nil, err
	}
	s.logger.Info("peer debt cancelled", "owner_id", ownerID, "debt_id", debtID)
	return debt, nil
}

// GetContactBalance computes the signed per-currency balance between the
// owner and one contact. Positive means the contact owes the owner.
func (s *DebtService) GetContactBalance(ctx context.Context, ownerID, contactID uuid.UUID) (map[string]money.Money, error) {
	if _, err := s.store.GetContact(ctx, ownerID, contactID); err != nil {
		return nil, err
	}
	debts, err := s.store.ListDebtsByContact(ctx, ownerID, contactID)
	if err != nil {
		return nil, err
	}
	return calculator.NetBalances(debts)
}
