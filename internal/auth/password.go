package auth

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/tallyup/tallyup/internal/models"
	"github.com/tallyup/tallyup/internal/storage"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrWeakPassword       = errors.New("password must be at least 8 characters")
	ErrEmailExists        = errors.New("email already registered")
)

// OwnerStorage defines the interface for owner persistence operations.
// This allows the authenticator to be independent of the storage
// implementation.
type OwnerStorage interface {
	CreateOwner(ctx context.Context, owner *models.Owner) error
	GetOwnerByEmail(ctx context.Context, email string) (*models.Owner, error)
}

// PasswordAuthenticator implements password-based authentication using bcrypt.
type PasswordAuthenticator struct {
	storage OwnerStorage
	clock   storage.Clock
}

// NewPasswordAuthenticator creates a new password-based authenticator.
func NewPasswordAuthenticator(store OwnerStorage, clock storage.Clock) *PasswordAuthenticator {
	return &PasswordAuthenticator{
		storage: store,
		clock:   clock,
	}
}

// ValidateCredential checks if the password meets minimum requirements.
func (a *PasswordAuthenticator) ValidateCredential(credential string) error {
	if len(credential) < 8 {
		return ErrWeakPassword
	}
	return nil
}

// Register creates a new owner account with a hashed password.
func (a *PasswordAuthenticator) Register(ctx context.Context, email, displayName, credential string) (*models.Owner, error) {
	// Validate password strength
	if err := a.ValidateCredential(credential); err != nil {
		return nil, err
	}

	// Check if email already exists
	existing, err := a.storage.GetOwnerByEmail(ctx, email)
	if err == nil && existing != nil {
		return nil, ErrEmailExists
	}

	// Hash the password
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(credential), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	owner := models.NewOwner(email, displayName, string(hashedPassword), a.clock.Now())

	if err := a.storage.CreateOwner(ctx, owner); err != nil {
		return nil, fmt.Errorf("failed to create owner: %w", err)
	}

	return owner, nil
}

// Authenticate verifies the email and password, returning the owner if valid.
func (a *PasswordAuthenticator) Authenticate(ctx context.Context, email, credential string) (*models.Owner, error) {
	owner, err := a.storage.GetOwnerByEmail(ctx, email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(owner.PasswordHash), []byte(credential)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return owner, nil
}
