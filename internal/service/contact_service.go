// Package service holds the command and query operations of the ledger.
// Services validate input, orchestrate the domain models and the store, and
// return typed errors; they know nothing about HTTP.
package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/tallyup/tallyup/internal/errs"
	"github.com/tallyup/tallyup/internal/models"
	"github.com/tallyup/tallyup/internal/storage"
)

// ContactService manages the owner's contact registry and contact groups.
type ContactService struct {
	store  storage.Store
	clock  storage.Clock
	logger *slog.Logger
}

// NewContactService creates a new ContactService.
func NewContactService(store storage.Store, clock storage.Clock, logger *slog.Logger) *ContactService {
	return &ContactService{store: store, clock: clock, logger: logger}
}

// CreateContact registers a new contact for the owner.
func (s *ContactService) CreateContact(ctx context.Context, ownerID uuid.UUID, displayName string) (*models.Contact, error) {
	contact, err := models.NewContact(ownerID, displayName, s.clock.Now())
	if err != nil {
		return nil, err
	}
	if err := s.store.CreateContact(ctx, contact); err != nil {
		s.logger.Error("failed to create contact", "owner_id", ownerID, "error", err)
		return nil, err
	}
	s.logger.Info("contact created", "owner_id", ownerID, "contact_id", contact.ID)
	return contact, nil
}

// GetContact retrieves one contact.
func (s *ContactService) GetContact(ctx context.Context, ownerID, contactID uuid.UUID) (*models.Contact, error) {
	return s.store.GetContact(ctx, ownerID, contactID)
}

// ListContacts retrieves all of the owner's contacts.
func (s *ContactService) ListContacts(ctx context.Context, ownerID uuid.UUID) ([]*models.Contact, error) {
	return s.store.ListContacts(ctx, ownerID)
}

// RenameContact changes the contact's display name.
func (s *ContactService) RenameContact(ctx context.Context, ownerID, contactID uuid.UUID, displayName string) (*models.Contact, error) {
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		return nil, errs.Validation("contact name is required")
	}
	contact, err := s.store.GetContact(ctx, ownerID, contactID)
	if err != nil {
		return nil, err
	}
	contact.DisplayName = displayName
	if err := s.store.UpdateContact(ctx, contact); err != nil {
		return nil, err
	}
	return contact, nil
}

// ArchiveContact soft-archives the contact. Archived contacts stay visible in
// balances while they have outstanding records; the row is never deleted.
func (s *ContactService) ArchiveContact(ctx context.Context, ownerID, contactID uuid.UUID) (*models.Contact, error) {
	contact, err := s.store.GetContact(ctx, ownerID, contactID)
	if err != nil {
		return nil, err
	}
	contact.Archived = true
	if err := s.store.UpdateContact(ctx, contact); err != nil {
		return nil, err
	}
	s.logger.Info("contact archived", "owner_id", ownerID, "contact_id", contactID)
	return contact, nil
}

// RestoreContact clears the archived flag.
func (s *ContactService) RestoreContact(ctx context.Context, ownerID, contactID uuid.UUID) (*models.Contact, error) {
	contact, err := s.store.GetContact(ctx, ownerID, contactID)
	if err != nil {
		return nil, err
	}
	contact.Archived = false
	if err := s.store.UpdateContact(ctx, contact); err != nil {
		return nil, err
	}
	s.logger.Info("contact restored", "owner_id", ownerID, "contact_id", contactID)
	return contact, nil
}

// CreateContactGroup creates a named set of contacts. Every member must be an
// existing contact of the owner.
func (s *ContactService) CreateContactGroup(ctx context.Context, ownerID uuid.UUID, name string, memberIDs []uuid.UUID) (*models.ContactGroup, error) {
	group, err := models.NewContactGroup(ownerID, name, memberIDs, s.clock.Now())
	if err != nil {
		return nil, err
	}
	for _, id := range group.MemberContactIDs {
		if _, err := s.store.GetContact(ctx, ownerID, id); err != nil {
			return nil, err
		}
	}
	if err := s.store.CreateContactGroup(ctx, group); err != nil {
		s.logger.Error("failed to create contact group", "owner_id", ownerID, "error", err)
		return nil, err
	}
	s.logger.Info("contact group created", "owner_id", ownerID, "group_id", group.ID)
	return group, nil
}

// GetContactGroup retrieves one contact group.
func (s *ContactService) GetContactGroup(ctx context.Context, ownerID, groupID uuid.UUID) (*models.ContactGroup, error) {
	return s.store.GetContactGroup(ctx, ownerID, groupID)
}

// ListContactGroups retrieves all of the owner's contact groups.
func (s *ContactService) ListContactGroups(ctx context.Context, ownerID uuid.UUID) ([]*models.ContactGroup, error) {
	return s.store.ListContactGroups(ctx, ownerID)
}

// AddContactGroupMember adds a contact to a group.
func (s *ContactService) AddContactGroupMember(ctx context.Context, ownerID, groupID, contactID uuid.UUID) (*models.ContactGroup, error) {
	group, err := s.store.GetContactGroup(ctx, ownerID, groupID)
	if err != nil {
		return nil, err
	}
	if _, err := s.store.GetContact(ctx, ownerID, contactID); err != nil {
		return nil, err
	}
	group.AddMember(contactID)
	if err := s.store.UpdateContactGroupMembers(ctx, group); err != nil {
		return nil, err
	}
	return group, nil
}

// RemoveContactGroupMember removes a contact from a group. Contact groups
// carry no balances, so removal needs no unsettled check.
func (s *ContactService) RemoveContactGroupMember(ctx context.Context, ownerID, groupID, contactID uuid.UUID) (*models.ContactGroup, error) {
	group, err := s.store.GetContactGroup(ctx, ownerID, groupID)
	if err != nil {
		return nil, err
	}
	group.RemoveMember(contactID)
	if err := s.store.UpdateContactGroupMembers(ctx, group); err != nil {
		return nil, err
	}
	return group, nil
}
