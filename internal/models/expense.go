package models

import (
	"bytes"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tallyup/tallyup/internal/errs"
	"github.com/tallyup/tallyup/internal/money"
)

// OwnerParticipant is the participant id standing in for the owner inside a
// group. The owner is an implicit member of every expense group; uuid.Nil
// keeps them first in ascending-id orderings, which the remainder-cent
// distribution relies on.
var OwnerParticipant = uuid.Nil

// SplitMethod says how a group expense is divided among members.
type SplitMethod string

const (
	// SplitEqual divides the total evenly in minor units; remainder cents
	// go to the first members in ascending participant-id order.
	SplitEqual SplitMethod = "equal"
	// SplitExact uses caller-supplied shares that must sum to the total.
	SplitExact SplitMethod = "exact"
)

// Valid reports whether the method is one of the two supported values.
func (m SplitMethod) Valid() bool {
	return m == SplitEqual || m == SplitExact
}

// ExpenseGroup is a set of contacts sharing expenses. The owner is always an
// implicit member and never appears in MemberContactIDs.
type ExpenseGroup struct {
	// ID is the unique identifier for the group.
	ID uuid.UUID

	// OwnerID is the owner whose namespace this group lives in.
	OwnerID uuid.UUID

	// Name is the group name, e.g. "Lisbon trip".
	Name string

	// MemberContactIDs are the contact members, excluding the owner.
	MemberContactIDs []uuid.UUID

	// CreatedAt is when the group was created.
	CreatedAt time.Time
}

// NewExpenseGroup creates an expense group for the owner.
func NewExpenseGroup(ownerID uuid.UUID, name string, memberIDs []uuid.UUID, now time.Time) (*ExpenseGroup, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errs.Validation("group name is required")
	}
	return &ExpenseGroup{
		ID:               uuid.New(),
		OwnerID:          ownerID,
		Name:             name,
		MemberContactIDs: dedupeIDs(memberIDs),
		CreatedAt:        now,
	}, nil
}

// AddMember adds a contact member if not already present.
func (g *ExpenseGroup) AddMember(contactID uuid.UUID) {
	for _, id := range g.MemberContactIDs {
		if id == contactID {
			return
		}
	}
	g.MemberContactIDs = append(g.MemberContactIDs, contactID)
}

// RemoveMember removes a contact member. Callers must first check the member
// has no unsettled splits in the group.
func (g *ExpenseGroup) RemoveMember(contactID uuid.UUID) {
	for i, id := range g.MemberContactIDs {
		if id == contactID {
			g.MemberContactIDs = append(g.MemberContactIDs[:i], g.MemberContactIDs[i+1:]...)
			return
		}
	}
}

// HasMember reports whether the participant belongs to the group. The owner
// participant is always a member.
func (g *ExpenseGroup) HasMember(participantID uuid.UUID) bool {
	if participantID == OwnerParticipant {
		return true
	}
	for _, id := range g.MemberContactIDs {
		if id == participantID {
			return true
		}
	}
	return false
}

// Participants returns all participant ids including the owner, in ascending
// id order. This is the canonical ordering for split generation.
func (g *ExpenseGroup) Participants() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(g.MemberContactIDs)+1)
	ids = append(ids, OwnerParticipant)
	ids = append(ids, g.MemberContactIDs...)
	SortParticipants(ids)
	return ids
}

// SortParticipants sorts participant ids ascending by byte order, the
// deterministic order used for remainder distribution and tie-breaking.
func SortParticipants(ids []uuid.UUID) {
	sort.Slice(ids, func(i, j int) bool {
		return bytes.Compare(ids[i][:], ids[j][:]) < 0
	})
}

// GroupExpense is a shared expense in a group. Once splits are generated the
// expense is immutable; corrections are new expenses, never edits.
type GroupExpense struct {
	// ID is the unique identifier for the expense.
	ID uuid.UUID

	// OwnerID is the owner whose namespace this expense lives in.
	OwnerID uuid.UUID

	// GroupID is the expense group this belongs to.
	GroupID uuid.UUID

	// Description says what the expense was for.
	Description string

	// TotalAmount is the full expense amount, always positive.
	TotalAmount money.Money

	// PaidByID is the participant who paid (OwnerParticipant for the owner).
	PaidByID uuid.UUID

	// Date is when the expense occurred.
	Date time.Time

	// Method records how the expense was split.
	Method SplitMethod

	// Cancelled excludes the expense from all balance computation.
	Cancelled bool

	// Splits are the per-participant shares. Sum of share amounts equals
	// TotalAmount exactly.
	Splits []ExpenseSplit

	// CreatedAt is when the expense was recorded.
	CreatedAt time.Time
}

// ExpenseSplit is one participant's share of a group expense.
type ExpenseSplit struct {
	// ID is the unique identifier for the split.
	ID uuid.UUID

	// ExpenseID is the expense this split belongs to.
	ExpenseID uuid.UUID

	// ParticipantID is who owes this share (OwnerParticipant for the owner).
	ParticipantID uuid.UUID

	// ShareAmount is this participant's share, same currency as the expense.
	ShareAmount money.Money

	// SettledAmount is how much of the share has been settled,
	// 0 <= SettledAmount <= ShareAmount.
	SettledAmount money.Money

	// Version is the optimistic-concurrency counter, bumped on every write.
	Version int64
}

// RemainingAmount is ShareAmount - SettledAmount.
func (s *ExpenseSplit) RemainingAmount() money.Money {
	rem, err := s.ShareAmount.Sub(s.SettledAmount)
	if err != nil {
		panic(err)
	}
	return rem
}

// SplitStatus is the derived settlement state of a split.
type SplitStatus string

const (
	SplitPending          SplitStatus = "pending"
	SplitPartiallySettled SplitStatus = "partially_settled"
	SplitSettled          SplitStatus = "settled"
)

// Status derives the settlement state from the settled amount.
func (s *ExpenseSplit) Status() SplitStatus {
	if s.SettledAmount.Equal(s.ShareAmount) {
		return SplitSettled
	}
	if s.SettledAmount.IsPositive() {
		return SplitPartiallySettled
	}
	return SplitPending
}

// ApplySettlement records a settlement against the split.
func (s *ExpenseSplit) ApplySettlement(amount money.Money) error {
	if amount.Currency() != s.ShareAmount.Currency() {
		return errs.CurrencyMismatch(s.ShareAmount.Currency(), amount.Currency())
	}
	if !amount.IsPositive() {
		return errs.Validation("settlement amount must be positive, got %s", amount)
	}
	remaining := s.RemainingAmount()
	if cmp, _ := amount.Cmp(remaining); cmp > 0 {
		return errs.OverSettlement(amount.String(), remaining.String())
	}
	settled, err := s.SettledAmount.Add(amount)
	if err != nil {
		return err
	}
	s.SettledAmount = settled
	return nil
}

// Unapply reverses a previously applied settlement amount.
func (s *ExpenseSplit) Unapply(amount money.Money) error {
	if !amount.IsPositive() {
		return errs.Validation("reversal amount must be positive, got %s", amount)
	}
	if cmp, err := amount.Cmp(s.SettledAmount); err != nil {
		return err
	} else if cmp > 0 {
		return errs.Conflict("reversal amount %s exceeds settled amount %s", amount, s.SettledAmount)
	}
	settled, err := s.SettledAmount.Sub(amount)
	if err != nil {
		return err
	}
	s.SettledAmount = settled
	return nil
}

// NewGroupExpense creates an expense with its splits already generated.
//
// For SplitEqual, shares is ignored and the total is divided among all group
// participants in ascending id order, remainder minor units going to the
// first participants. For SplitExact, shares maps participant id to share
// amount and must sum to total exactly.
func NewGroupExpense(
	ownerID uuid.UUID,
	group *ExpenseGroup,
	description string,
	total money.Money,
	paidByID uuid.UUID,
	method SplitMethod,
	shares map[uuid.UUID]money.Money,
	date time.Time,
	now time.Time,
) (*GroupExpense, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return nil, errs.Validation("expense description is required")
	}
	if !total.IsPositive() {
		return nil, errs.Validation("expense total must be positive, got %s", total)
	}
	if !method.Valid() {
		return nil, errs.Validation("unknown split method %q", method)
	}
	if !group.HasMember(paidByID) {
		return nil, errs.Validation("payer %s is not a member of group %s", paidByID, group.ID)
	}

	e := &GroupExpense{
		ID:          uuid.New(),
		OwnerID:     ownerID,
		GroupID:     group.ID,
		Description: description,
		TotalAmount: total,
		PaidByID:    paidByID,
		Date:        date,
		Method:      method,
		CreatedAt:   now,
	}

	var err error
	switch method {
	case SplitEqual:
		err = e.generateEqualSplits(group.Participants())
	case SplitExact:
		err = e.generateExactSplits(group, shares)
	}
	if err != nil {
		return nil, err
	}
	return e, nil
}

func (e *GroupExpense) generateEqualSplits(participants []uuid.UUID) error {
	parts, err := e.TotalAmount.SplitEqual(len(participants))
	if err != nil {
		return err
	}
	zero, err := money.Zero(e.TotalAmount.Currency())
	if err != nil {
		return err
	}
	e.Splits = make([]ExpenseSplit, len(participants))
	for i, pid := range participants {
		e.Splits[i] = ExpenseSplit{
			ID:            uuid.New(),
			ExpenseID:     e.ID,
			ParticipantID: pid,
			ShareAmount:   parts[i],
			SettledAmount: zero,
			Version:       1,
		}
	}
	return nil
}

func (e *GroupExpense) generateExactSplits(group *ExpenseGroup, shares map[uuid.UUID]money.Money) error {
	if len(shares) == 0 {
		return errs.Validation("exact split requires at least one share")
	}
	zero, err := money.Zero(e.TotalAmount.Currency())
	if err != nil {
		return err
	}

	ids := make([]uuid.UUID, 0, len(shares))
	for pid := range shares {
		if !group.HasMember(pid) {
			return errs.Validation("participant %s is not a member of group %s", pid, group.ID)
		}
		ids = append(ids, pid)
	}
	SortParticipants(ids)

	sum := zero
	e.Splits = make([]ExpenseSplit, 0, len(ids))
	for _, pid := range ids {
		share := shares[pid]
		if share.IsNegative() {
			return errs.Validation("share for %s must not be negative, got %s", pid, share)
		}
		if share.Currency() != e.TotalAmount.Currency() {
			return errs.CurrencyMismatch(e.TotalAmount.Currency(), share.Currency())
		}
		sum, err = sum.Add(share)
		if err != nil {
			return err
		}
		e.Splits = append(e.Splits, ExpenseSplit{
			ID:            uuid.New(),
			ExpenseID:     e.ID,
			ParticipantID: pid,
			ShareAmount:   share,
			SettledAmount: zero,
			Version:       1,
		})
	}
	if !sum.Equal(e.TotalAmount) {
		return errs.SplitMismatch(sum.String(), e.TotalAmount.String())
	}
	return nil
}

// Cancel excludes the expense from balances. Terminal and idempotent.
func (e *GroupExpense) Cancel() {
	e.Cancelled = true
}
