package models

import (
	"time"

	"github.com/google/uuid"
)

// Owner is a registered account. Every contact, debt, expense and settlement
// belongs to exactly one owner; cross-owner references cannot be constructed.
type Owner struct {
	// ID is the unique identifier for the owner.
	ID uuid.UUID

	// Email is the login email, unique across owners.
	Email string

	// DisplayName is the human-readable name.
	DisplayName string

	// PasswordHash is the bcrypt hash of the owner's password.
	PasswordHash string

	// CreatedAt is when the account was created.
	CreatedAt time.Time
}

// NewOwner creates an owner with a fresh ID.
func NewOwner(email, displayName, passwordHash string, now time.Time) *Owner {
	return &Owner{
		ID:           uuid.New(),
		Email:        email,
		DisplayName:  displayName,
		PasswordHash: passwordHash,
		CreatedAt:    now,
	}
}
