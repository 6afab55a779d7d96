package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tallyup/tallyup/internal/errs"
	"github.com/tallyup/tallyup/internal/models"
	"github.com/tallyup/tallyup/internal/storage"
)

// CreateContact persists a new contact.
func (s *SQLiteStore) CreateContact(ctx context.Context, contact *models.Contact) error {
	_, err := s.q.ExecContext(ctx,
		`INSERT INTO contacts (id, owner_id, display_name, linked_user_id, archived, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		contact.ID.String(), contact.OwnerID.String(), contact.DisplayName,
		nullUUID(contact.LinkedUserID), boolInt(contact.Archived), contact.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert contact: %w", err)
	}
	return nil
}

// GetContact retrieves a contact within the owner's namespace.
func (s *SQLiteStore) GetContact(ctx context.Context, ownerID, id uuid.UUID) (*models.Contact, error) {
	row := s.q.QueryRowContext(ctx,
		`SELECT id, owner_id, display_name, linked_user_id, archived, created_at
		 FROM contacts WHERE id = ? AND owner_id = ?`,
		id.String(), ownerID.String(),
	)
	contact, err := scanContact(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errs.NotFound("contact", id.String())
	}
	return contact, err
}

// UpdateContact writes mutable contact fields.
func (s *SQLiteStore) UpdateContact(ctx context.Context, contact *models.Contact) error {
	res, err := s.q.ExecContext(ctx,
		`UPDATE contacts SET display_name = ?, linked_user_id = ?, archived = ?
		 WHERE id = ? AND owner_id = ?`,
		contact.DisplayName, nullUUID(contact.LinkedUserID), boolInt(contact.Archived),
		contact.ID.String(), contact.OwnerID.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to update contact: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check contact update: %w", err)
	}
	if n == 0 {
		return errs.NotFound("contact", contact.ID.String())
	}
	return nil
}

// ListContacts retrieves all of the owner's contacts, archived included.
func (s *SQLiteStore) ListContacts(ctx context.Context, ownerID uuid.UUID) ([]*models.Contact, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT id, owner_id, display_name, linked_user_id, archived, created_at
		 FROM contacts WHERE owner_id = ? ORDER BY display_name, id`,
		ownerID.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list contacts: %w", err)
	}
	defer rows.Close()

	var contacts []*models.Contact
	for rows.Next() {
		contact, err := scanContact(rows.Scan)
		if err != nil {
			return nil, err
		}
		contacts = append(contacts, contact)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate contacts: %w", err)
	}
	return contacts, nil
}

func scanContact(scan func(...any) error) (*models.Contact, error) {
	var (
		contact   models.Contact
		id, owner string
		linked    sql.NullString
		archived  int
		createdAt int64
	)
	if err := scan(&id, &owner, &contact.DisplayName, &linked, &archived, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan contact: %w", err)
	}
	var err error
	if contact.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("corrupt contact id %q: %w", id, err)
	}
	if contact.OwnerID, err = uuid.Parse(owner); err != nil {
		return nil, fmt.Errorf("corrupt owner id %q: %w", owner, err)
	}
	if contact.LinkedUserID, err = scanNullUUID(linked); err != nil {
		return nil, err
	}
	contact.Archived = archived != 0
	contact.CreatedAt = time.Unix(createdAt, 0).UTC()
	return &contact, nil
}

// CreateContactGroup persists a contact group and its membership.
func (s *SQLiteStore) CreateContactGroup(ctx context.Context, group *models.ContactGroup) error {
	return s.InTx(ctx, func(tx storage.Store) error {
		st := tx.(*SQLiteStore)
		if _, err := st.q.ExecContext(ctx,
			`INSERT INTO contact_groups (id, owner_id, name, created_at) VALUES (?, ?, ?, ?)`,
			group.ID.String(), group.OwnerID.String(), group.Name, group.CreatedAt.Unix(),
		); err != nil {
			return fmt.Errorf("failed to insert contact group: %w", err)
		}
		return st.replaceGroupMembers(ctx, "contact_group_members", group.ID, group.MemberContactIDs)
	})
}

// GetContactGroup retrieves a contact group with its membership.
func (s *SQLiteStore) GetContactGroup(ctx context.Context, ownerID, id uuid.UUID) (*models.ContactGroup, error) {
	var (
		group     models.ContactGroup
		createdAt int64
	)
	err := s.q.QueryRowContext(ctx,
		`SELECT name, created_at FROM contact_groups WHERE id = ? AND owner_id = ?`,
		id.String(), ownerID.String(),
	).Scan(&group.Name, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errs.NotFound("contact group", id.String())
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get contact group: %w", err)
	}
	group.ID = id
	group.OwnerID = ownerID
	group.CreatedAt = time.Unix(createdAt, 0).UTC()

	group.MemberContactIDs, err = s.groupMembers(ctx, "contact_group_members", id)
	return &group, err
}

// UpdateContactGroupMembers rewrites the group's membership.
func (s *SQLiteStore) UpdateContactGroupMembers(ctx context.Context, group *models.ContactGroup) error {
	return s.InTx(ctx, func(tx storage.Store) error {
		st := tx.(*SQLiteStore)
		if _, err := st.q.ExecContext(ctx,
			`DELETE FROM contact_group_members WHERE group_id = ?`, group.ID.String(),
		); err != nil {
			return fmt.Errorf("failed to clear contact group members: %w", err)
		}
		return st.replaceGroupMembers(ctx, "contact_group_members", group.ID, group.MemberContactIDs)
	})
}

// ListContactGroups retrieves all of the owner's contact groups.
func (s *SQLiteStore) ListContactGroups(ctx context.Context, ownerID uuid.UUID) ([]*models.ContactGroup, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT id, name, created_at FROM contact_groups WHERE owner_id = ? ORDER BY name, id`,
		ownerID.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list contact groups: %w", err)
	}
	defer rows.Close()

	var groups []*models.ContactGroup
	for rows.Next() {
		var (
			group     models.ContactGroup
			id        string
			createdAt int64
		)
		if err := rows.Scan(&id, &group.Name, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan contact group: %w", err)
		}
		if group.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("corrupt group id %q: %w", id, err)
		}
		group.OwnerID = ownerID
		group.CreatedAt = time.Unix(createdAt, 0).UTC()
		groups = append(groups, &group)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate contact groups: %w", err)
	}

	for _, g := range groups {
		if g.MemberContactIDs, err = s.groupMembers(ctx, "contact_group_members", g.ID); err != nil {
			return nil, err
		}
	}
	return groups, nil
}

func (s *SQLiteStore) replaceGroupMembers(ctx context.Context, table string, groupID uuid.UUID, memberIDs []uuid.UUID) error {
	for _, contactID := range memberIDs {
		if _, err := s.q.ExecContext(ctx,
			`INSERT INTO `+table+` (group_id, contact_id) VALUES (?, ?)`,
			groupID.String(), contactID.String(),
		); err != nil {
			return fmt.Errorf("failed to insert group member: %w", err)
		}
	}
	return nil
}

func (s *SQLiteStore) groupMembers(ctx context.Context, table string, groupID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT contact_id FROM `+table+` WHERE group_id = ? ORDER BY contact_id`,
		groupID.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get group members: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("failed to scan group member: %w", err)
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("corrupt member id %q: %w", raw, err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate group members: %w", err)
	}
	return ids, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
