package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/google/uuid"

	"github.com/tallyup/tallyup/internal/calculator"
	"github.com/tallyup/tallyup/internal/models"
)

func TestDirectSuggestions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.addContact(t, "Alice")
	bob := f.addContact(t, "Bob")
	debtSvc := f.debts()
	svc := f.suggestions()

	// Alice owes 50, the owner owes Bob 20: two direct transfers.
	_, err := debtSvc.RecordPeerDebt(ctx, f.owner.ID, RecordPeerDebtInput{
		ContactID: alice.ID,
		Direction: models.DirectionLent,
		Amount:    usd(t, "50.00"),
	})
	require.NoError(t, err)
	_, err = debtSvc.RecordPeerDebt(ctx, f.owner.ID, RecordPeerDebtInput{
		ContactID: bob.ID,
		Direction: models.DirectionBorrowed,
		Amount:    usd(t, "20.00"),
	})
	require.NoError(t, err)

	suggestions, err := svc.GetSettlementSuggestions(ctx, f.owner.ID)
	require.NoError(t, err)
	require.NotEmpty(t, suggestions)

	// The net position drives every balance to zero: in total Alice pays out
	// 50 and Bob receives 20, with the owner keeping the 30 difference.
	paidByAlice := int64(0)
	receivedByBob := int64(0)
	for _, s := range suggestions {
		assert.Equal(t, calculator.ScopeDirect, s.Scope)
		assert.Nil(t, s.GroupID)
		if s.From == alice.ID {
			paidByAlice += s.Amount.MinorUnits()
		}
		if s.To == bob.ID {
			receivedByBob += s.Amount.MinorUnits()
		}
	}
	assert.Equal(t, int64(5000), paidByAlice)
	assert.Equal(t, int64(2000), receivedByBob)
}

func TestOverdueSuggestionsComeFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.addContact(t, "Alice")
	bob := f.addContact(t, "Bob")
	debtSvc := f.debts()
	svc := f.suggestions()

	pastDue := f.clock.Now().Add(-72 * time.Hour)
	// Bob's small debt is overdue; Alice's large one is not.
	_, err := debtSvc.RecordPeerDebt(ctx, f.owner.ID, RecordPeerDebtInput{
		ContactID: alice.ID,
		Direction: models.DirectionLent,
		Amount:    usd(t, "500.00"),
	})
	require.NoError(t, err)
	_, err = debtSvc.RecordPeerDebt(ctx, f.owner.ID, RecordPeerDebtInput{
		ContactID: bob.ID,
		Direction: models.DirectionLent,
		Amount:    usd(t, "5.00"),
		DueDate:   &pastDue,
	})
	require.NoError(t, err)

	suggestions, err := svc.GetSettlementSuggestions(ctx, f.owner.ID)
	require.NoError(t, err)
	require.Len(t, suggestions, 2)
	assert.Equal(t, bob.ID, suggestions[0].From)
	assert.True(t, suggestions[0].Overdue)
	assert.False(t, suggestions[1].Overdue)
}

func TestGroupSuggestions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.addContact(t, "Alice")
	bob := f.addContact(t, "Bob")
	expenseSvc := f.expenses()
	svc := f.suggestions()

	group, err := expenseSvc.CreateGroup(ctx, f.owner.ID, "trip", []uuid.UUID{alice.ID, bob.ID})
	require.NoError(t, err)
	_, err = expenseSvc.RecordGroupExpense(ctx, f.owner.ID, RecordGroupExpenseInput{
		GroupID:     group.ID,
		Description: "hotel",
		TotalAmount: usd(t, "300.00"),
		PaidByID:    alice.ID,
		Method:      models.SplitEqual,
		Date:        f.clock.Now(),
	})
	require.NoError(t, err)

	suggestions, err := svc.GetSettlementSuggestions(ctx, f.owner.ID)
	require.NoError(t, err)
	require.Len(t, suggestions, 2)

	for _, s := range suggestions {
		assert.Equal(t, calculator.ScopeGroup, s.Scope)
		require.NotNil(t, s.GroupID)
		assert.Equal(t, group.ID, *s.GroupID)
		assert.Equal(t, alice.ID, s.To)
		assert.True(t, s.Amount.Equal(usd(t, "100.00")))
		// Bob paying Alice is between two contacts; the owner cannot
		// execute it.
		assert.Equal(t, s.From == bob.ID, s.Informational)
	}
}

func TestSuggestionsSortedAcrossScopes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.addContact(t, "Alice")
	debtSvc := f.debts()
	expenseSvc := f.expenses()
	svc := f.suggestions()

	// A small direct debt next to a much larger group position: the group
	// transfer must still rank first.
	_, err := debtSvc.RecordPeerDebt(ctx, f.owner.ID, RecordPeerDebtInput{
		ContactID: alice.ID,
		Direction: models.DirectionLent,
		Amount:    usd(t, "5.00"),
	})
	require.NoError(t, err)

	group, err := expenseSvc.CreateGroup(ctx, f.owner.ID, "trip", []uuid.UUID{alice.ID})
	require.NoError(t, err)
	_, err = expenseSvc.RecordGroupExpense(ctx, f.owner.ID, RecordGroupExpenseInput{
		GroupID:     group.ID,
		Description: "hotel",
		TotalAmount: usd(t, "300.00"),
		PaidByID:    alice.ID,
		Method:      models.SplitEqual,
		Date:        f.clock.Now(),
	})
	require.NoError(t, err)

	suggestions, err := svc.GetSettlementSuggestions(ctx, f.owner.ID)
	require.NoError(t, err)
	require.Len(t, suggestions, 2)
	assert.Equal(t, calculator.ScopeGroup, suggestions[0].Scope)
	assert.True(t, suggestions[0].Amount.Equal(usd(t, "150.00")))
	assert.Equal(t, calculator.ScopeDirect, suggestions[1].Scope)
	assert.True(t, suggestions[1].Amount.Equal(usd(t, "5.00")))
}

func TestSuggestionsEmptyLedger(t *testing.T) {
	f := newFixture(t)
	f.addContact(t, "Alice")
	svc := f.suggestions()

	suggestions, err := svc.GetSettlementSuggestions(context.Background(), f.owner.ID)
	require.NoError(t, err)
	assert.Empty(t, suggestions)
}

func TestSettledLedgerYieldsNoSuggestions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.addContact(t, "Alice")
	debtSvc := f.debts()
	settleSvc := f.settlements()
	svc := f.suggestions()

	debt, err := debtSvc.RecordPeerDebt(ctx, f.owner.ID, RecordPeerDebtInput{
		ContactID: alice.ID,
		Direction: models.DirectionLent,
		Amount:    usd(t, "50.00"),
	})
	require.NoError(t, err)
	_, err = settleSvc.RecordSettlement(ctx, f.owner.ID, RecordSettlementInput{
		FromID: alice.ID,
		ToID:   models.OwnerParticipant,
		Amount: usd(t, "50.00"),
		Targets: []models.SettlementTarget{
			{Kind: models.TargetPeerDebt, TargetID: debt.ID, Applied: usd(t, "50.00")},
		},
		Method: models.MethodCash,
		Date:   f.clock.Now(),
	})
	require.NoError(t, err)

	suggestions, err := svc.GetSettlementSuggestions(ctx, f.owner.ID)
	require.NoError(t, err)
	assert.Empty(t, suggestions)
}
