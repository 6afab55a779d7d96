package models

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tallyup/tallyup/internal/errs"
)

// Contact is a person the owner lends to, borrows from, or shares expenses
// with. Contacts are soft-archived, never hard-deleted, because debts,
// splits and settlements keep referencing them.
type Contact struct {
	// ID is the unique identifier for the contact.
	ID uuid.UUID

	// OwnerID is the owner whose namespace this contact lives in.
	OwnerID uuid.UUID

	// DisplayName is the contact's name as the owner entered it.
	DisplayName string

	// LinkedUserID optionally points at a registered owner account this
	// contact corresponds to. It is an opaque reference; nothing in the
	// ledger dereferences it.
	LinkedUserID *uuid.UUID

	// Archived hides the contact from pickers. Archived contacts still
	// appear in balances while they have outstanding records.
	Archived bool

	// CreatedAt is when the contact was created.
	CreatedAt time.Time
}

// NewContact creates an active contact for the owner.
func NewContact(ownerID uuid.UUID, displayName string, now time.Time) (*Contact, error) {
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		return nil, errs.Validation("contact name is required")
	}
	return &Contact{
		ID:          uuid.New(),
		OwnerID:     ownerID,
		DisplayName: displayName,
		CreatedAt:   now,
	}, nil
}

// ContactGroup is a pure tagging construct: a named set of contacts.
// It carries no balances of its own.
type ContactGroup struct {
	// ID is the unique identifier for the group.
	ID uuid.UUID

	// OwnerID is the owner whose namespace this group lives in.
	OwnerID uuid.UUID

	// Name is the group name, e.g. "Roommates".
	Name string

	// MemberContactIDs are the contacts in the group.
	MemberContactIDs []uuid.UUID

	// CreatedAt is when the group was created.
	CreatedAt time.Time
}

// NewContactGroup creates a contact group for the owner.
func NewContactGroup(ownerID uuid.UUID, name string, memberIDs []uuid.UUID, now time.Time) (*ContactGroup, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errs.Validation("group name is required")
	}
	return &ContactGroup{
		ID:               uuid.New(),
		OwnerID:          ownerID,
		Name:             name,
		MemberContactIDs: dedupeIDs(memberIDs),
		CreatedAt:        now,
	}, nil
}

// AddMember adds a contact to the group if not already present.
func (g *ContactGroup) AddMember(contactID uuid.UUID) {
	for _, id := range g.MemberContactIDs {
		if id == contactID {
			return
		}
	}
	g.MemberContactIDs = append(g.MemberContactIDs, contactID)
}

// RemoveMember removes a contact from the group.
func (g *ContactGroup) RemoveMember(contactID uuid.UUID) {
	for i, id := range g.MemberContactIDs {
		if id == contactID {
			g.MemberContactIDs = append(g.MemberContactIDs[:i], g.MemberContactIDs[i+1:]...)
			return
		}
	}
}

func dedupeIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
