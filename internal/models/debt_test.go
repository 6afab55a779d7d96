package models

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/tallyup/tallyup/internal/errs"
	"github.com/tallyup/tallyup/internal/money"
)

func newTestDebt(t *testing.T, direction DebtDirection, amount string) *PeerDebt {
	t.Helper()
	d, err := NewPeerDebt(uuid.New(), uuid.New(), direction, money.MustParse(amount, "USD"), "test", nil, time.Now())
	if err != nil {
		t.Fatalf("NewPeerDebt failed: %v", err)
	}
	return d
}

func TestNewPeerDebtValidation(t *testing.T) {
	tests := []struct {
		name      string
		direction DebtDirection
		amount    string
	}{
		{"unknown direction", DebtDirection("sideways"), "10.00"},
		{"zero amount", DirectionLent, "0.00"},
		{"negative amount", DirectionBorrowed, "-5.00"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewPeerDebt(uuid.New(), uuid.New(), tt.direction, money.MustParse(tt.amount, "USD"), "", nil, time.Now())
			if errs.KindOf(err) != errs.KindValidation {
				t.Errorf("got %v, want validation error", err)
			}
		})
	}
}

func TestApplySettlement(t *testing.T) {
	d := newTestDebt(t, DirectionLent, "50.00")
	if d.Status() != DebtPending {
		t.Fatalf("new debt status = %s, want pending", d.Status())
	}

	if err := d.ApplySettlement(money.MustParse("30.00", "USD")); err != nil {
		t.Fatalf("settling 30.00 failed: %v", err)
	}
	if d.Status() != DebtPartiallySettled {
		t.Errorf("status = %s, want partially_settled", d.Status())
	}
	if rem := d.RemainingAmount(); rem.String() != "20.00 USD" {
		t.Errorf("remaining = %s, want 20.00 USD", rem)
	}

	// Only 20.00 remains; 25.00 must be rejected without changing state.
	err := d.ApplySettlement(money.MustParse("25.00", "USD"))
	if errs.KindOf(err) != errs.KindOverSettlement {
		t.Fatalf("got %v, want over-settlement error", err)
	}
	if !d.SettledAmount.Equal(money.MustParse("30.00", "USD")) {
		t.Errorf("settled amount moved on failed settlement: %s", d.SettledAmount)
	}

	if err := d.ApplySettlement(money.MustParse("20.00", "USD")); err != nil {
		t.Fatalf("settling the exact remainder failed: %v", err)
	}
	if d.Status() != DebtSettled {
		t.Errorf("status = %s, want settled", d.Status())
	}
}

func TestApplySettlementRejects(t *testing.T) {
	tests := []struct {
		name   string
		amount money.Money
		want   errs.Kind
	}{
		{"wrong currency", money.MustParse("10.00", "EUR"), errs.KindCurrencyMismatch},
		{"zero amount", money.MustParse("0.00", "USD"), errs.KindValidation},
		{"negative amount", money.MustParse("-1.00", "USD"), errs.KindValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newTestDebt(t, DirectionLent, "50.00")
			if err := d.ApplySettlement(tt.amount); errs.KindOf(err) != tt.want {
				t.Errorf("got %v, want kind %v", err, tt.want)
			}
		})
	}
}

func TestCancelIsTerminal(t *testing.T) {
	d := newTestDebt(t, DirectionBorrowed, "50.00")
	d.Cancel()
	if d.Status() != DebtCancelled {
		t.Fatalf("status = %s, want cancelled", d.Status())
	}

	err := d.ApplySettlement(money.MustParse("10.00", "USD"))
	if errs.KindOf(err) != errs.KindConflict {
		t.Errorf("settling a cancelled debt: got %v, want conflict", err)
	}

	// Idempotent.
	d.Cancel()
	if d.Status() != DebtCancelled {
		t.Errorf("status after second Cancel = %s", d.Status())
	}
}

func TestStatusIsDerived(t *testing.T) {
	d := newTestDebt(t, DirectionLent, "10.00")
	if err := d.ApplySettlement(money.MustParse("4.00", "USD")); err != nil {
		t.Fatal(err)
	}
	// Recomputing never changes the answer.
	for i := 0; i < 3; i++ {
		if d.Status() != DebtPartiallySettled {
			t.Fatalf("status drifted on recompute: %s", d.Status())
		}
	}
}

func TestSignedRemaining(t *testing.T) {
	lent := newTestDebt(t, DirectionLent, "50.00")
	if got := lent.SignedRemaining(); !got.Equal(money.MustParse("50.00", "USD")) {
		t.Errorf("lent signed remaining = %s, want +50.00", got)
	}
	borrowed := newTestDebt(t, DirectionBorrowed, "50.00")
	if got := borrowed.SignedRemaining(); !got.Equal(money.MustParse("-50.00", "USD")) {
		t.Errorf("borrowed signed remaining = %s, want -50.00", got)
	}
}

func TestOverdue(t *testing.T) {
	now := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	past := now.Add(-24 * time.Hour)
	future := now.Add(24 * time.Hour)

	mk := func(due *time.Time) *PeerDebt {
		d, err := NewPeerDebt(uuid.New(), uuid.New(), DirectionLent, money.MustParse("50.00", "USD"), "", due, now)
		if err != nil {
			t.Fatal(err)
		}
		return d
	}

	if mk(nil).Overdue(now) {
		t.Error("debt with no due date should not be overdue")
	}
	if mk(&future).Overdue(now) {
		t.Error("future due date should not be overdue")
	}
	if !mk(&past).Overdue(now) {
		t.Error("past due date with remaining balance should be overdue")
	}

	settled := mk(&past)
	if err := settled.ApplySettlement(money.MustParse("50.00", "USD")); err != nil {
		t.Fatal(err)
	}
	if settled.Overdue(now) {
		t.Error("fully settled debt should not be overdue")
	}

	cancelled := mk(&past)
	cancelled.Cancel()
	if cancelled.Overdue(now) {
		t.Error("cancelled debt should not be overdue")
	}
}

func TestUnapplyBounds(t *testing.T) {
	d := newTestDebt(t, DirectionLent, "50.00")
	if err := d.ApplySettlement(money.MustParse("30.00", "USD")); err != nil {
		t.Fatal(err)
	}

	err := d.Unapply(money.MustParse("40.00", "USD"))
	if errs.KindOf(err) != errs.KindConflict {
		t.Fatalf("unapplying more than settled: got %v, want conflict", err)
	}

	if err := d.Unapply(money.MustParse("30.00", "USD")); err != nil {
		t.Fatalf("unapplying the settled amount failed: %v", err)
	}
	if d.Status() != DebtPending {
		t.Errorf("status after full unapply = %s, want pending", d.Status())
	}
}

func TestDirectionSign(t *testing.T) {
	if DirectionLent.Sign() != 1 {
		t.Error("lent sign should be +1")
	}
	if DirectionBorrowed.Sign() != -1 {
		t.Error("borrowed sign should be -1")
	}
}
