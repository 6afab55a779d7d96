package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/tallyup/tallyup/internal/calculator"
	"github.com/tallyup/tallyup/internal/errs"
	"github.com/tallyup/tallyup/internal/metrics"
	"github.com/tallyup/tallyup/internal/models"
	"github.com/tallyup/tallyup/internal/money"
	"github.com/tallyup/tallyup/internal/storage"
)

// RecordGroupExpenseInput is the fully-validated command to record a shared
// expense in a group.
type RecordGroupExpenseInput struct {
	GroupID     uuid.UUID
	Description string
	TotalAmount money.Money

	// PaidByID is the paying participant; models.OwnerParticipant when the
	// owner paid.
	PaidByID uuid.UUID

	Method models.SplitMethod

	// Shares is required for EXACT splits and ignored for EQUAL.
	Shares map[uuid.UUID]money.Money

	Date time.Time
}

// ExpenseService manages expense groups and the group-expense ledger.
type ExpenseService struct {
	store   storage.Store
	clock   storage.Clock
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewExpenseService creates a new ExpenseService.
func NewExpenseService(store storage.Store, clock storage.Clock, logger *slog.Logger, m *metrics.Metrics) *ExpenseService {
	return &ExpenseService{store: store, clock: clock, logger: logger, metrics: m}
}

// CreateGroup creates an expense group. The owner is an implicit member and
// every listed member must be an existing contact.
func (s *ExpenseService) CreateGroup(ctx context.Context, ownerID uuid.UUID, name string, memberIDs []uuid.UUID) (*models.ExpenseGroup, error) {
	group, err := models.NewExpenseGroup(ownerID, name, memberIDs, s.clock.Now())
	if err != nil {
		return nil, err
	}
	for _, id := range group.MemberContactIDs {
		if _, err := s.store.GetContact(ctx, ownerID, id); err != nil {
			return nil, err
		}
	}
	if err := s.store.CreateExpenseGroup(ctx, group); err != nil {
		s.logger.Error("failed to create expense group", "owner_id", ownerID, "error", err)
		return nil, err
	}
	s.logger.Info("expense group created", "owner_id", ownerID, "group_id", group.ID)
	return group, nil
}

// GetGroup retrieves one expense group.
func (s *ExpenseService) GetGroup(ctx context.Context, ownerID, groupID uuid.UUID) (*models.ExpenseGroup, error) {
	return s.store.GetExpenseGroup(ctx, ownerID, groupID)
}

// ListGroups retrieves all of the owner's expense groups.
func (s *ExpenseService) ListGroups(ctx context.Context, ownerID uuid.UUID) ([]*models.ExpenseGroup, error) {
	return s.store.ListExpenseGroups(ctx, ownerID)
}

// AddGroupMember adds a contact to an expense group.
func (s *ExpenseService) AddGroupMember(ctx context.Context, ownerID, groupID, contactID uuid.UUID) (*models.ExpenseGroup, error) {
	group, err := s.store.GetExpenseGroup(ctx, ownerID, groupID)
	if err != nil {
		return nil, err
	}
	if _, err := s.store.GetContact(ctx, ownerID, contactID); err != nil {
		return nil, err
	}
	group.AddMember(contactID)
	if err := s.store.UpdateExpenseGroupMembers(ctx, group); err != nil {
		return nil, err
	}
	return group, nil
}

// RemoveGroupMember removes a contact from an expense group. Members with
// unsettled splits on non-cancelled expenses cannot be removed.
func (s *ExpenseService) RemoveGroupMember(ctx context.Context, ownerID, groupID, contactID uuid.UUID) (*models.ExpenseGroup, error) {
	group, err := s.store.GetExpenseGroup(ctx, ownerID, groupID)
	if err != nil {
		return nil, err
	}
	unsettled, err := s.store.HasUnsettledSplits(ctx, ownerID, groupID, contactID)
	if err != nil {
		return nil, err
	}
	if unsettled {
		return nil, errs.Conflict("contact %s has unsettled splits in group %s", contactID, groupID)
	}
	group.RemoveMember(contactID)
	if err := s.store.UpdateExpenseGroupMembers(ctx, group); err != nil {
		return nil, err
	}
	return group, nil
}

// RecordGroupExpense records a shared expense and generates its splits.
// Expenses are immutable once recorded; corrections are new expenses or a
// cancellation, never edits.
func (s *ExpenseService) RecordGroupExpense(ctx context.Context, ownerID uuid.UUID, in RecordGroupExpenseInput) (*models.GroupExpense, error) {
	group, err := s.store.GetExpenseGroup(ctx, ownerID, in.GroupID)
	if err != nil {
		return nil, err
	}
	expense, err := models.NewGroupExpense(
		ownerID, group, in.Description, in.TotalAmount,
		in.PaidByID, in.Method, in.Shares, in.Date, s.clock.Now(),
	)
	if err != nil {
		return nil, err
	}
	if err := s.store.CreateExpense(ctx, expense); err != nil {
		s.logger.Error("failed to record expense", "owner_id", ownerID, "group_id", in.GroupID, "error", err)
		return nil, err
	}
	s.metrics.ExpensesRecorded.Inc()
	s.logger.Info("group expense recorded",
		"owner_id", ownerID,
		"expense_id", expense.ID,
		"group_id", in.GroupID,
		"total", in.TotalAmount,
		"method", in.Method,
		"splits", len(expense.Splits),
	)
	return expense, nil
}

// GetExpense retrieves one expense with its splits.
func (s *ExpenseService) GetExpense(ctx context.Context, ownerID, expenseID uuid.UUID) (*models.GroupExpense, error) {
	return s.store.GetExpense(ctx, ownerID, expenseID)
}

// ListGroupExpenses retrieves all expenses of one group.
func (s *ExpenseService) ListGroupExpenses(ctx context.Context, ownerID, groupID uuid.UUID) ([]*models.GroupExpense, error) {
	if _, err := s.store.GetExpenseGroup(ctx, ownerID, groupID); err != nil {
		return nil, err
	}
	return s.store.ListExpensesByGroup(ctx, ownerID, groupID)
}

// CancelExpense excludes an expense from all balance computation. Terminal.
func (s *ExpenseService) CancelExpense(ctx context.Context, ownerID, expenseID uuid.UUID) (*models.GroupExpense, error) {
	expense, err := s.store.GetExpense(ctx, ownerID, expenseID)
	if err != nil {
		return nil, err
	}
	expense.Cancel()
	if err := s.store.MarkExpenseCancelled(ctx, expense); err != nil {
		return nil, err
	}
	s.logger.Info("group expense cancelled", "owner_id", ownerID, "expense_id", expenseID)
	return expense, nil
}

// GetGroupBalances computes each participant's signed per-currency net
// position in the group. Positive means the participant is owed money.
func (s *ExpenseService) GetGroupBalances(ctx context.Context, ownerID, groupID uuid.UUID) (map[string]map[uuid.UUID]money.Money, error) {
	if _, err := s.store.GetExpenseGroup(ctx, ownerID, groupID); err != nil {
		return nil, err
	}
	expenses, err := s.store.ListExpensesByGroup(ctx, ownerID, groupID)
	if err != nil {
		return nil, err
	}
	balances, err := calculator.GroupBalances(expenses)
	if err != nil {
		// An unbalanced group is a data-integrity fault, not bad input.
		s.logger.Error("group balance computation failed", "owner_id", ownerID, "group_id", groupID, "error", err)
		return nil, err
	}
	return balances, nil
}
