package calculator

import (
	"sort"

	"github.com/google/uuid"

	"github.com/tallyup/tallyup/internal/models"
	"github.com/tallyup/tallyup/internal/money"
)

// Scope says which part of the ledger a suggestion settles.
type Scope string

const (
	// ScopeDirect covers balances from peer debts between owner and contact.
	ScopeDirect Scope = "direct"
	// ScopeGroup covers balances inside one expense group.
	ScopeGroup Scope = "group"
)

// overdueBoost lifts overdue suggestions above every amount-only score.
// Amounts are scored in minor units, so this bound holds for any balance
// below ~10 billion major units.
const overdueBoost int64 = 1 << 40

// Suggestion is one proposed settlement, annotated for display.
type Suggestion struct {
	// Scope says whether this settles direct debts or a group.
	Scope Scope

	// GroupID is set for group-scoped suggestions.
	GroupID *uuid.UUID

	// From pays To; models.OwnerParticipant stands for the owner.
	From uuid.UUID
	To   uuid.UUID

	// Amount is the suggested transfer.
	Amount money.Money

	// Overdue is set when an overdue peer debt contributes to the balance.
	Overdue bool

	// Priority orders suggestions: overdue first, then larger amounts.
	Priority int64

	// Informational marks transfers between two contacts; the owner is not
	// a party and cannot execute them.
	Informational bool
}

// BuildSuggestions annotates a settlement plan with scope, overdue and
// priority metadata and returns it sorted by descending priority.
// overdue maps participant ids whose contributing debts are past due; it is
// nil for group scopes, which carry no due dates.
func BuildSuggestions(scope Scope, groupID *uuid.UUID, transfers []Transfer, overdue map[uuid.UUID]bool) []Suggestion {
	suggestions := make([]Suggestion, 0, len(transfers))
	for _, t := range transfers {
		ownerParty := t.From == models.OwnerParticipant || t.To == models.OwnerParticipant
		isOverdue := overdue[t.From] || overdue[t.To]
		priority := t.Amount.MinorUnits()
		if isOverdue {
			priority += overdueBoost
		}
		suggestions = append(suggestions, Suggestion{
			Scope:         scope,
			GroupID:       groupID,
			From:          t.From,
			To:            t.To,
			Amount:        t.Amount,
			Overdue:       isOverdue,
			Priority:      priority,
			Informational: !ownerParty,
		})
	}
	sort.SliceStable(suggestions, func(i, j int) bool {
		return suggestions[i].Priority > suggestions[j].Priority
	})
	return suggestions
}
