package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tallyup/tallyup/internal/errs"
	"github.com/tallyup/tallyup/internal/models"
)

func TestRecordSettlementAgainstDebt(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.addContact(t, "Alice")
	debtSvc := f.debts()
	svc := f.settlements()

	debt, err := debtSvc.RecordPeerDebt(ctx, f.owner.ID, RecordPeerDebtInput{
		ContactID: alice.ID,
		Direction: models.DirectionLent,
		Amount:    usd(t, "50.00"),
	})
	require.NoError(t, err)

	_, err = svc.RecordSettlement(ctx, f.owner.ID, RecordSettlementInput{
		FromID: alice.ID,
		ToID:   models.OwnerParticipant,
		Amount: usd(t, "30.00"),
		Targets: []models.SettlementTarget{
			{Kind: models.TargetPeerDebt, TargetID: debt.ID, Applied: usd(t, "30.00")},
		},
		Method: models.MethodUPI,
		Date:   f.clock.Now(),
	})
	require.NoError(t, err)

	got, err := debtSvc.GetDebt(ctx, f.owner.ID, debt.ID)
	require.NoError(t, err)
	assert.Equal(t, models.DebtPartiallySettled, got.Status())
	assert.True(t, got.RemainingAmount().Equal(usd(t, "20.00")))

	// Only 20.00 remains; settling 25.00 more must fail and leave the debt
	// untouched.
	_, err = svc.RecordSettlement(ctx, f.owner.ID, RecordSettlementInput{
		FromID: alice.ID,
		ToID:   models.OwnerParticipant,
		Amount: usd(t, "25.00"),
		Targets: []models.SettlementTarget{
			{Kind: models.TargetPeerDebt, TargetID: debt.ID, Applied: usd(t, "25.00")},
		},
		Method: models.MethodUPI,
		Date:   f.clock.Now(),
	})
	assert.Equal(t, errs.KindOverSettlement, errs.KindOf(err))

	again, err := debtSvc.GetDebt(ctx, f.owner.ID, debt.ID)
	require.NoError(t, err)
	assert.True(t, again.SettledAmount.Equal(usd(t, "30.00")))

	settlements, err := svc.ListSettlementsByContact(ctx, f.owner.ID, alice.ID)
	require.NoError(t, err)
	assert.Len(t, settlements, 1, "rejected settlement must not be recorded")
}

func TestRecordSettlementIsAtomic(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.addContact(t, "Alice")
	debtSvc := f.debts()
	svc := f.settlements()

	first, err := debtSvc.RecordPeerDebt(ctx, f.owner.ID, RecordPeerDebtInput{
		ContactID: alice.ID,
		Direction: models.DirectionLent,
		Amount:    usd(t, "50.00"),
	})
	require.NoError(t, err)
	second, err := debtSvc.RecordPeerDebt(ctx, f.owner.ID, RecordPeerDebtInput{
		ContactID: alice.ID,
		Direction: models.DirectionLent,
		Amount:    usd(t, "10.00"),
	})
	require.NoError(t, err)

	// The second target over-settles, so the whole settlement must roll back,
	// including the valid first application.
	_, err = svc.RecordSettlement(ctx, f.owner.ID, RecordSettlementInput{
		FromID: alice.ID,
		ToID:   models.OwnerParticipant,
		Amount: usd(t, "45.00"),
		Targets: []models.SettlementTarget{
			{Kind: models.TargetPeerDebt, TargetID: first.ID, Applied: usd(t, "30.00")},
			{Kind: models.TargetPeerDebt, TargetID: second.ID, Applied: usd(t, "15.00")},
		},
		Method: models.MethodCash,
		Date:   f.clock.Now(),
	})
	assert.Equal(t, errs.KindOverSettlement, errs.KindOf(err))

	got, err := debtSvc.GetDebt(ctx, f.owner.ID, first.ID)
	require.NoError(t, err)
	assert.True(t, got.SettledAmount.IsZero(), "partial application leaked: %s", got.SettledAmount)
}

func TestRecordSettlementRejectsCancelledExpense(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.addContact(t, "Alice")
	expenseSvc := f.expenses()
	svc := f.settlements()

	group, err := expenseSvc.CreateGroup(ctx, f.owner.ID, "trip", []uuid.UUID{alice.ID})
	require.NoError(t, err)
	expense, err := expenseSvc.RecordGroupExpense(ctx, f.owner.ID, RecordGroupExpenseInput{
		GroupID:     group.ID,
		Description: "dinner",
		TotalAmount: usd(t, "50.00"),
		PaidByID:    models.OwnerParticipant,
		Method:      models.SplitEqual,
		Date:        f.clock.Now(),
	})
	require.NoError(t, err)
	_, err = expenseSvc.CancelExpense(ctx, f.owner.ID, expense.ID)
	require.NoError(t, err)

	split := expense.Splits[1]
	_, err = svc.RecordSettlement(ctx, f.owner.ID, RecordSettlementInput{
		FromID: alice.ID,
		ToID:   models.OwnerParticipant,
		Amount: split.ShareAmount,
		Targets: []models.SettlementTarget{
			{Kind: models.TargetExpenseSplit, TargetID: split.ID, Applied: split.ShareAmount},
		},
		Method: models.MethodCash,
		Date:   f.clock.Now(),
	})
	assert.Equal(t, errs.KindConflict, errs.KindOf(err))
}

func TestRecordSettlementRejectsUnknownParties(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.addContact(t, "Alice")
	debtSvc := f.debts()
	svc := f.settlements()

	debt, err := debtSvc.RecordPeerDebt(ctx, f.owner.ID, RecordPeerDebtInput{
		ContactID: alice.ID,
		Direction: models.DirectionLent,
		Amount:    usd(t, "50.00"),
	})
	require.NoError(t, err)

	targets := []models.SettlementTarget{
		{Kind: models.TargetPeerDebt, TargetID: debt.ID, Applied: usd(t, "30.00")},
	}

	_, err = svc.RecordSettlement(ctx, f.owner.ID, RecordSettlementInput{
		FromID:  uuid.New(),
		ToID:    models.OwnerParticipant,
		Amount:  usd(t, "30.00"),
		Targets: targets,
		Method:  models.MethodCash,
		Date:    f.clock.Now(),
	})
	assert.Equal(t, errs.KindNotFound, errs.KindOf(err))

	_, err = svc.RecordSettlement(ctx, f.owner.ID, RecordSettlementInput{
		FromID:  alice.ID,
		ToID:    uuid.New(),
		Amount:  usd(t, "30.00"),
		Targets: targets,
		Method:  models.MethodCash,
		Date:    f.clock.Now(),
	})
	assert.Equal(t, errs.KindNotFound, errs.KindOf(err))

	// Nothing was applied to the debt.
	got, err := debtSvc.GetDebt(ctx, f.owner.ID, debt.ID)
	require.NoError(t, err)
	assert.True(t, got.SettledAmount.IsZero())
}

func TestReverseSettlement(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.addContact(t, "Alice")
	debtSvc := f.debts()
	svc := f.settlements()

	debt, err := debtSvc.RecordPeerDebt(ctx, f.owner.ID, RecordPeerDebtInput{
		ContactID: alice.ID,
		Direction: models.DirectionLent,
		Amount:    usd(t, "50.00"),
	})
	require.NoError(t, err)

	settlement, err := svc.RecordSettlement(ctx, f.owner.ID, RecordSettlementInput{
		FromID: alice.ID,
		ToID:   models.OwnerParticipant,
		Amount: usd(t, "30.00"),
		Targets: []models.SettlementTarget{
			{Kind: models.TargetPeerDebt, TargetID: debt.ID, Applied: usd(t, "30.00")},
		},
		Method: models.MethodCash,
		Date:   f.clock.Now(),
	})
	require.NoError(t, err)

	reversal, err := svc.ReverseSettlement(ctx, f.owner.ID, settlement.ID, "entered by mistake")
	require.NoError(t, err)
	assert.Equal(t, settlement.ID, *reversal.ReversalOfID)
	assert.Equal(t, models.OwnerParticipant, reversal.FromID)
	assert.Equal(t, alice.ID, reversal.ToID)

	// The debt is back to fully outstanding.
	got, err := debtSvc.GetDebt(ctx, f.owner.ID, debt.ID)
	require.NoError(t, err)
	assert.Equal(t, models.DebtPending, got.Status())
	assert.True(t, got.SettledAmount.IsZero())

	// Reversals cannot themselves be reversed.
	_, err = svc.ReverseSettlement(ctx, f.owner.ID, reversal.ID, "")
	assert.Equal(t, errs.KindConflict, errs.KindOf(err))

	// Both ledger entries remain visible.
	settlements, err := svc.ListSettlements(ctx, f.owner.ID)
	require.NoError(t, err)
	assert.Len(t, settlements, 2)
}

func TestSettlementCurrencyMismatch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.addContact(t, "Alice")
	debtSvc := f.debts()
	svc := f.settlements()

	debt, err := debtSvc.RecordPeerDebt(ctx, f.owner.ID, RecordPeerDebtInput{
		ContactID: alice.ID,
		Direction: models.DirectionLent,
		Amount:    usd(t, "50.00"),
	})
	require.NoError(t, err)

	eur := mustEUR(t, "30.00")
	_, err = svc.RecordSettlement(ctx, f.owner.ID, RecordSettlementInput{
		FromID: alice.ID,
		ToID:   models.OwnerParticipant,
		Amount: eur,
		Targets: []models.SettlementTarget{
			{Kind: models.TargetPeerDebt, TargetID: debt.ID, Applied: eur},
		},
		Method: models.MethodCash,
		Date:   f.clock.Now(),
	})
	assert.Equal(t, errs.KindCurrencyMismatch, errs.KindOf(err))
}
