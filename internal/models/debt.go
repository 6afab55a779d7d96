package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/tallyup/tallyup/internal/errs"
	"github.com/tallyup/tallyup/internal/money"
)

// DebtDirection says which way a peer debt runs, from the owner's
// perspective.
type DebtDirection string

const (
	// DirectionLent means the owner lent money; the contact owes the owner.
	DirectionLent DebtDirection = "lent"
	// DirectionBorrowed means the owner borrowed; the owner owes the contact.
	DirectionBorrowed DebtDirection = "borrowed"
)

// Sign is +1 for LENT and -1 for BORROWED, matching the signed-balance
// convention: positive means the contact owes the owner.
func (d DebtDirection) Sign() int {
	if d == DirectionLent {
		return 1
	}
	return -1
}

// Valid reports whether the direction is one of the two known values.
func (d DebtDirection) Valid() bool {
	return d == DirectionLent || d == DirectionBorrowed
}

// DebtStatus is the derived lifecycle state of a peer debt.
type DebtStatus string

const (
	DebtPending          DebtStatus = "pending"
	DebtPartiallySettled DebtStatus = "partially_settled"
	DebtSettled          DebtStatus = "settled"
	DebtCancelled        DebtStatus = "cancelled"
)

// PeerDebt is one lent/borrowed record between the owner and a contact.
// SettledAmount only moves through settlement application; the row itself
// is never deleted, only cancelled.
type PeerDebt struct {
	// ID is the unique identifier for the debt.
	ID uuid.UUID

	// OwnerID is the owner whose namespace this debt lives in.
	OwnerID uuid.UUID

	// ContactID is the counterparty.
	ContactID uuid.UUID

	// Direction says whether the owner lent or borrowed.
	Direction DebtDirection

	// OriginalAmount is the full debt amount, always positive.
	OriginalAmount money.Money

	// SettledAmount is how much has been settled so far, same currency as
	// OriginalAmount, 0 <= SettledAmount <= OriginalAmount.
	SettledAmount money.Money

	// Cancelled marks a forgiven debt. Terminal: no further settlement.
	Cancelled bool

	// Reason is why the debt exists.
	Reason string

	// DueDate, if set, drives the overdue flag on suggestions.
	DueDate *time.Time

	// LinkedTransactionID optionally references a personal-finance
	// transaction in another system. Opaque; no conservation obligation.
	LinkedTransactionID *uuid.UUID

	// CreatedAt is when the debt was recorded.
	CreatedAt time.Time

	// Version is the optimistic-concurrency counter, bumped on every write.
	Version int64
}

// NewPeerDebt creates a pending debt. The amount must be positive.
func NewPeerDebt(ownerID, contactID uuid.UUID, direction DebtDirection, amount money.Money, reason string, dueDate *time.Time, now time.Time) (*PeerDebt, error) {
	if !direction.Valid() {
		return nil, errs.Validation("unknown debt direction %q", direction)
	}
	if !amount.IsPositive() {
		return nil, errs.Validation("debt amount must be positive, got %s", amount)
	}
	zero, err := money.Zero(amount.Currency())
	if err != nil {
		return nil, err
	}
	return &PeerDebt{
		ID:             uuid.New(),
		OwnerID:        ownerID,
		ContactID:      contactID,
		Direction:      direction,
		OriginalAmount: amount,
		SettledAmount:  zero,
		Reason:         reason,
		DueDate:        dueDate,
		CreatedAt:      now,
		Version:        1,
	}, nil
}

// RemainingAmount is OriginalAmount - SettledAmount.
func (d *PeerDebt) RemainingAmount() money.Money {
	rem, err := d.OriginalAmount.Sub(d.SettledAmount)
	if err != nil {
		// Same-currency is a construction invariant; a mismatch here means
		// corrupted state, not a recoverable condition.
		panic(err)
	}
	return rem
}

// Status derives the lifecycle state from the settled amount. It is a pure
// function of state: recomputing it never changes the answer.
func (d *PeerDebt) Status() DebtStatus {
	if d.Cancelled {
		return DebtCancelled
	}
	if d.SettledAmount.Equal(d.OriginalAmount) {
		return DebtSettled
	}
	if d.SettledAmount.IsPositive() {
		return DebtPartiallySettled
	}
	return DebtPending
}

// SignedRemaining is the remaining amount signed by direction: positive
// means the contact owes the owner.
func (d *PeerDebt) SignedRemaining() money.Money {
	rem := d.RemainingAmount()
	if d.Direction.Sign() < 0 {
		return rem.Neg()
	}
	return rem
}

// Overdue reports whether the debt has an unmet due date in the past and
// still carries a remaining balance.
func (d *PeerDebt) Overdue(now time.Time) bool {
	if d.DueDate == nil || d.Cancelled {
		return false
	}
	return d.DueDate.Before(now) && d.RemainingAmount().IsPositive()
}

// ApplySettlement records a partial or full settlement against the debt.
// Rejects cancelled debts and amounts exceeding the remaining balance.
func (d *PeerDebt) ApplySettlement(amount money.Money) error {
	if d.Cancelled {
		return errs.Conflict("debt %s is cancelled and cannot be settled", d.ID)
	}
	if amount.Currency() != d.OriginalAmount.Currency() {
		return errs.CurrencyMismatch(d.OriginalAmount.Currency(), amount.Currency())
	}
	if !amount.IsPositive() {
		return errs.Validation("settlement amount must be positive, got %s", amount)
	}
	remaining := d.RemainingAmount()
	if cmp, _ := amount.Cmp(remaining); cmp > 0 {
		return errs.OverSettlement(amount.String(), remaining.String())
	}
	settled, err := d.SettledAmount.Add(amount)
	if err != nil {
		return err
	}
	d.SettledAmount = settled
	return nil
}

// Unapply reverses a previously applied settlement amount, used when a
// settlement is reversed. The amount must not exceed the settled amount.
func (d *PeerDebt) Unapply(amount money.Money) error {
	if !amount.IsPositive() {
		return errs.Validation("reversal amount must be positive, got %s", amount)
	}
	if cmp, err := amount.Cmp(d.SettledAmount); err != nil {
		return err
	} else if cmp > 0 {
		return errs.Conflict("reversal amount %s exceeds settled amount %s", amount, d.SettledAmount)
	}
	settled, err := d.SettledAmount.Sub(amount)
	if err != nil {
		return err
	}
	d.SettledAmount = settled
	return nil
}

// Cancel forgives the debt. Cancelling is terminal and idempotent.
func (d *PeerDebt) Cancel() {
	d.Cancelled = true
}
