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

func TestRecordPeerDebt(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.addContact(t, "Alice")
	svc := f.debts()

	debt, err := svc.RecordPeerDebt(ctx, f.owner.ID, RecordPeerDebtInput{
		ContactID: alice.ID,
		Direction: models.DirectionLent,
		Amount:    usd(t, "50.00"),
		Reason:    "lunch",
	})
	require.NoError(t, err)
	assert.Equal(t, models.DebtPending, debt.Status())
	assert.Equal(t, f.clock.Now(), debt.CreatedAt)

	got, err := svc.GetDebt(ctx, f.owner.ID, debt.ID)
	require.NoError(t, err)
	assert.True(t, got.OriginalAmount.Equal(usd(t, "50.00")))
}

func TestRecordPeerDebtUnknownContact(t *testing.T) {
	f := newFixture(t)
	svc := f.debts()

	_, err := svc.RecordPeerDebt(context.Background(), f.owner.ID, RecordPeerDebtInput{
		ContactID: uuid.New(),
		Direction: models.DirectionLent,
		Amount:    usd(t, "50.00"),
	})
	assert.Equal(t, errs.KindNotFound, errs.KindOf(err))
}

func TestCancelPeerDebt(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.addContact(t, "Alice")
	svc := f.debts()

	debt, err := svc.RecordPeerDebt(ctx, f.owner.ID, RecordPeerDebtInput{
		ContactID: alice.ID,
		Direction: models.DirectionBorrowed,
		Amount:    usd(t, "20.00"),
	})
	require.NoError(t, err)

	cancelled, err := svc.CancelPeerDebt(ctx, f.owner.ID, debt.ID)
	require.NoError(t, err)
	assert.Equal(t, models.DebtCancelled, cancelled.Status())

	// Cancelled debts drop out of the balance.
	balance, err := svc.GetContactBalance(ctx, f.owner.ID, alice.ID)
	require.NoError(t, err)
	assert.True(t, balance["USD"].IsZero())
}

func TestListActiveDebts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.addContact(t, "Alice")
	svc := f.debts()

	open, err := svc.RecordPeerDebt(ctx, f.owner.ID, RecordPeerDebtInput{
		ContactID: alice.ID,
		Direction: models.DirectionLent,
		Amount:    usd(t, "50.00"),
	})
	require.NoError(t, err)
	forgiven, err := svc.RecordPeerDebt(ctx, f.owner.ID, RecordPeerDebtInput{
		ContactID: alice.ID,
		Direction: models.DirectionLent,
		Amount:    usd(t, "10.00"),
	})
	require.NoError(t, err)
	_, err = svc.CancelPeerDebt(ctx, f.owner.ID, forgiven.ID)
	require.NoError(t, err)

	active, err := svc.ListActiveDebts(ctx, f.owner.ID)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, open.ID, active[0].ID)
}

func TestGetContactBalance(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.addContact(t, "Alice")
	svc := f.debts()

	_, err := svc.RecordPeerDebt(ctx, f.owner.ID, RecordPeerDebtInput{
		ContactID: alice.ID,
		Direction: models.DirectionLent,
		Amount:    usd(t, "50.00"),
	})
	require.NoError(t, err)
	_, err = svc.RecordPeerDebt(ctx, f.owner.ID, RecordPeerDebtInput{
		ContactID: alice.ID,
		Direction: models.DirectionBorrowed,
		Amount:    usd(t, "20.00"),
	})
	require.NoError(t, err)

	balance, err := svc.GetContactBalance(ctx, f.owner.ID, alice.ID)
	require.NoError(t, err)
	assert.True(t, balance["USD"].Equal(usd(t, "30.00")), "balance = %s", balance["USD"])

	_, err = svc.GetContactBalance(ctx, f.owner.ID, uuid.New())
	assert.Equal(t, errs.KindNotFound, errs.KindOf(err))
}
