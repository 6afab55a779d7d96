package calculator

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tallyup/tallyup/internal/models"
	"github.com/tallyup/tallyup/internal/money"
)

func mustGroup(t *testing.T, members ...uuid.UUID) *models.ExpenseGroup {
	t.Helper()
	g, err := models.NewExpenseGroup(uuid.New(), "trip", members, time.Now())
	if err != nil {
		t.Fatalf("NewExpenseGroup failed: %v", err)
	}
	return g
}

func mustExpense(t *testing.T, g *models.ExpenseGroup, total string, currency string, paidBy uuid.UUID) *models.GroupExpense {
	t.Helper()
	e, err := models.NewGroupExpense(g.OwnerID, g, "shared", money.MustParse(total, currency), paidBy, models.SplitEqual, nil, time.Now(), time.Now())
	if err != nil {
		t.Fatalf("NewGroupExpense failed: %v", err)
	}
	return e
}

func TestGroupBalances(t *testing.T) {
	alice := uuid.New()
	bob := uuid.New()
	g := mustGroup(t, alice, bob)

	t.Run("payer credited net of own share", func(t *testing.T) {
		// Alice paid 300 for an equal three-way split: she is owed 200, the
		// owner and Bob each owe 100.
		e := mustExpense(t, g, "300.00", "USD", alice)
		balances, err := GroupBalances([]*models.GroupExpense{e})
		if err != nil {
			t.Fatal(err)
		}
		usd := balances["USD"]
		if !usd[alice].Equal(money.MustParse("200.00", "USD")) {
			t.Errorf("alice = %s, want 200.00", usd[alice])
		}
		if !usd[bob].Equal(money.MustParse("-100.00", "USD")) {
			t.Errorf("bob = %s, want -100.00", usd[bob])
		}
		if !usd[models.OwnerParticipant].Equal(money.MustParse("-100.00", "USD")) {
			t.Errorf("owner = %s, want -100.00", usd[models.OwnerParticipant])
		}
	})

	t.Run("balances sum to zero per currency", func(t *testing.T) {
		expenses := []*models.GroupExpense{
			mustExpense(t, g, "300.00", "USD", alice),
			mustExpense(t, g, "99.99", "USD", bob),
			mustExpense(t, g, "5000", "JPY", models.OwnerParticipant),
		}
		balances, err := GroupBalances(expenses)
		if err != nil {
			t.Fatal(err)
		}
		for cur, perParticipant := range balances {
			sum := decimal.Zero
			for _, m := range perParticipant {
				sum = sum.Add(m.Amount())
			}
			if !sum.IsZero() {
				t.Errorf("%s balances sum to %s, want zero", cur, sum)
			}
		}
	})

	t.Run("cancelled expenses excluded", func(t *testing.T) {
		e1 := mustExpense(t, g, "300.00", "USD", alice)
		e2 := mustExpense(t, g, "600.00", "USD", bob)
		e2.Cancel()
		balances, err := GroupBalances([]*models.GroupExpense{e1, e2})
		if err != nil {
			t.Fatal(err)
		}
		if !balances["USD"][alice].Equal(money.MustParse("200.00", "USD")) {
			t.Errorf("alice = %s, cancelled expense leaked in", balances["USD"][alice])
		}
	})

	t.Run("settled splits reduce positions", func(t *testing.T) {
		e := mustExpense(t, g, "300.00", "USD", alice)
		for i := range e.Splits {
			if e.Splits[i].ParticipantID == bob {
				if err := e.Splits[i].ApplySettlement(money.MustParse("100.00", "USD")); err != nil {
					t.Fatal(err)
				}
			}
		}
		balances, err := GroupBalances([]*models.GroupExpense{e})
		if err != nil {
			t.Fatal(err)
		}
		usd := balances["USD"]
		if !usd[alice].Equal(money.MustParse("100.00", "USD")) {
			t.Errorf("alice = %s, want 100.00 after bob settled", usd[alice])
		}
		if !usd[bob].IsZero() {
			t.Errorf("bob = %s, want zero after settling", usd[bob])
		}
	})

	t.Run("tampered splits fail as unbalanced", func(t *testing.T) {
		e := mustExpense(t, g, "300.00", "USD", alice)
		e.Splits = e.Splits[:2] // drop a share so the set no longer closes
		_, err := GroupBalances([]*models.GroupExpense{e})
		if err == nil {
			t.Fatal("expected unbalanced-ledger error")
		}
	})

	t.Run("no expenses", func(t *testing.T) {
		balances, err := GroupBalances(nil)
		if err != nil {
			t.Fatal(err)
		}
		if len(balances) != 0 {
			t.Errorf("got %d currencies, want none", len(balances))
		}
	})
}
