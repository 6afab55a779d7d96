package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/tallyup/tallyup/internal/errs"
	"github.com/tallyup/tallyup/internal/money"
)

// SettlementMethod is how the money actually moved.
type SettlementMethod string

const (
	MethodCash         SettlementMethod = "cash"
	MethodBankTransfer SettlementMethod = "bank_transfer"
	MethodUPI          SettlementMethod = "upi"
	MethodPayPal       SettlementMethod = "paypal"
	MethodVenmo        SettlementMethod = "venmo"
	MethodOther        SettlementMethod = "other"
)

// Valid reports whether the method is a known value.
func (m SettlementMethod) Valid() bool {
	switch m {
	case MethodCash, MethodBankTransfer, MethodUPI, MethodPayPal, MethodVenmo, MethodOther:
		return true
	}
	return false
}

// TargetKind says what a settlement amount was applied against.
type TargetKind string

const (
	TargetPeerDebt     TargetKind = "peer_debt"
	TargetExpenseSplit TargetKind = "expense_split"
)

// SettlementTarget is one (target, applied amount) pair of a settlement.
type SettlementTarget struct {
	// Kind says whether TargetID names a peer debt or an expense split.
	Kind TargetKind

	// TargetID is the debt or split the amount was applied to.
	TargetID uuid.UUID

	// Applied is the portion of the settlement applied to this target.
	Applied money.Money
}

// Settlement records money that actually moved between the owner and a
// contact, applied against one or more outstanding debts and splits.
// Settlements are immutable once created; a mistake is corrected by a
// reversal settlement referencing the original, never by editing.
type Settlement struct {
	// ID is the unique identifier for the settlement.
	ID uuid.UUID

	// OwnerID is the owner whose namespace this settlement lives in.
	OwnerID uuid.UUID

	// FromID is who paid, OwnerParticipant for the owner.
	FromID uuid.UUID

	// ToID is who received, OwnerParticipant for the owner.
	ToID uuid.UUID

	// Amount is the total moved. The sum of Applied over Targets equals
	// Amount exactly.
	Amount money.Money

	// Targets are the debts/splits the amount was applied against.
	Targets []SettlementTarget

	// Method is how the payment was made.
	Method SettlementMethod

	// Date is when the payment happened.
	Date time.Time

	// Notes is free-form commentary.
	Notes string

	// ReversalOfID is set when this settlement undoes an earlier one.
	ReversalOfID *uuid.UUID

	// CreatedAt is when the settlement was recorded.
	CreatedAt time.Time
}

// NewSettlement creates a settlement and checks its internal invariants.
// Target existence and remaining-balance checks happen at application time,
// inside the transactional unit of work.
func NewSettlement(
	ownerID uuid.UUID,
	fromID, toID uuid.UUID,
	amount money.Money,
	targets []SettlementTarget,
	method SettlementMethod,
	date time.Time,
	notes string,
	now time.Time,
) (*Settlement, error) {
	if fromID == toID {
		return nil, errs.Validation("settlement payer and receiver must differ")
	}
	if !amount.IsPositive() {
		return nil, errs.Validation("settlement amount must be positive, got %s", amount)
	}
	if !method.Valid() {
		return nil, errs.Validation("unknown settlement method %q", method)
	}
	if len(targets) == 0 {
		return nil, errs.Validation("settlement must reference at least one debt or split")
	}

	sum, err := money.Zero(amount.Currency())
	if err != nil {
		return nil, err
	}
	seen := make(map[uuid.UUID]bool, len(targets))
	for _, t := range targets {
		if t.Kind != TargetPeerDebt && t.Kind != TargetExpenseSplit {
			return nil, errs.Validation("unknown settlement target kind %q", t.Kind)
		}
		if seen[t.TargetID] {
			return nil, errs.Validation("settlement references target %s twice", t.TargetID)
		}
		seen[t.TargetID] = true
		if !t.Applied.IsPositive() {
			return nil, errs.Validation("applied amount for target %s must be positive", t.TargetID)
		}
		sum, err = sum.Add(t.Applied)
		if err != nil {
			return nil, err
		}
	}
	if !sum.Equal(amount) {
		return nil, errs.Validation("applied amounts sum to %s, settlement amount is %s", sum, amount)
	}

	return &Settlement{
		ID:        uuid.New(),
		OwnerID:   ownerID,
		FromID:    fromID,
		ToID:      toID,
		Amount:    amount,
		Targets:   targets,
		Method:    method,
		Date:      date,
		Notes:     notes,
		CreatedAt: now,
	}, nil
}

// Reversal builds the sign-opposite settlement that undoes this one:
// payer and receiver swap, same amount and targets, ReversalOfID set.
func (s *Settlement) Reversal(notes string, now time.Time) *Settlement {
	targets := make([]SettlementTarget, len(s.Targets))
	copy(targets, s.Targets)
	id := s.ID
	return &Settlement{
		ID:           uuid.New(),
		OwnerID:      s.OwnerID,
		FromID:       s.ToID,
		ToID:         s.FromID,
		Amount:       s.Amount,
		Targets:      targets,
		Method:       s.Method,
		Date:         now,
		Notes:        notes,
		ReversalOfID: &id,
		CreatedAt:    now,
	}
}
