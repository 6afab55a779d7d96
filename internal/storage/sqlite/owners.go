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
)

// CreateOwner persists a new owner account.
func (s *SQLiteStore) CreateOwner(ctx context.Context, owner *models.Owner) error {
	_, err := s.q.ExecContext(ctx,
		`INSERT INTO owners (id, email, display_name, password_hash, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		owner.ID.String(), owner.Email, owner.DisplayName, owner.PasswordHash, owner.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert owner: %w", err)
	}
	return nil
}

// GetOwnerByEmail retrieves an owner by login email.
func (s *SQLiteStore) GetOwnerByEmail(ctx context.Context, email string) (*models.Owner, error) {
	return s.scanOwner(s.q.QueryRowContext(ctx,
		`SELECT id, email, display_name, password_hash, created_at FROM owners WHERE email = ?`,
		email,
	), email)
}

// GetOwnerByID retrieves an owner by id.
func (s *SQLiteStore) GetOwnerByID(ctx context.Context, id uuid.UUID) (*models.Owner, error) {
	return s.scanOwner(s.q.QueryRowContext(ctx,
		`SELECT id, email, display_name, password_hash, created_at FROM owners WHERE id = ?`,
		id.String(),
	), id.String())
}

func (s *SQLiteStore) scanOwner(row *sql.Row, ref string) (*models.Owner, error) {
	var (
		owner     models.Owner
		id        string
		createdAt int64
	)
	err := row.Scan(&id, &owner.Email, &owner.DisplayName, &owner.PasswordHash, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errs.NotFound("owner", ref)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get owner: %w", err)
	}
	owner.ID, err = uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("corrupt owner id %q: %w", id, err)
	}
	owner.CreatedAt = time.Unix(createdAt, 0).UTC()
	return &owner, nil
}
