package auth

import (
	"context"

	"github.com/tallyup/tallyup/internal/models"
)

// Authenticator defines the interface for authentication implementations.
// This abstraction allows swapping between different auth methods (password,
// passkeys, OAuth, etc.) without changing the service layer code.
type Authenticator interface {
	// Register creates a new owner account with the given email and credential.
	// The credential format depends on the implementation.
	Register(ctx context.Context, email, displayName, credential string) (*models.Owner, error)

	// Authenticate verifies the owner's credentials and returns the owner if
	// successful.
	Authenticate(ctx context.Context, email, credential string) (*models.Owner, error)

	// ValidateCredential checks if the credential meets the implementation's
	// requirements. For passwords: length checks and the like.
	ValidateCredential(credential string) error
}
