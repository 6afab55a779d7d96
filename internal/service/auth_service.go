package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/tallyup/tallyup/internal/auth"
	"github.com/tallyup/tallyup/internal/errs"
	"github.com/tallyup/tallyup/internal/models"
	"github.com/tallyup/tallyup/internal/storage"
)

// AuthService handles owner registration and login.
type AuthService struct {
	authenticator auth.Authenticator
	jwtManager    *auth.JWTManager
	store         storage.Store
	logger        *slog.Logger
}

// NewAuthService creates a new authentication service.
func NewAuthService(authenticator auth.Authenticator, jwtManager *auth.JWTManager, store storage.Store, logger *slog.Logger) *AuthService {
	return &AuthService{
		authenticator: authenticator,
		jwtManager:    jwtManager,
		store:         store,
		logger:        logger,
	}
}

// Register creates a new owner account and returns it with a session token.
func (s *AuthService) Register(ctx context.Context, email, displayName, password string) (*models.Owner, string, error) {
	if email == "" {
		return nil, "", errs.Validation("email is required")
	}
	if displayName == "" {
		return nil, "", errs.Validation("display name is required")
	}

	owner, err := s.authenticator.Register(ctx, email, displayName, password)
	if err != nil {
		s.logger.Warn("registration failed", "email", email, "error", err)
		switch err {
		case auth.ErrEmailExists:
			return nil, "", errs.Wrap(errs.KindConflict, err, "email already registered")
		case auth.ErrWeakPassword:
			return nil, "", errs.Wrap(errs.KindValidation, err, "password too weak")
		}
		return nil, "", err
	}

	token, err := s.jwtManager.Generate(owner)
	if err != nil {
		s.logger.Error("failed to generate token", "owner_id", owner.ID, "error", err)
		return nil, "", err
	}

	s.logger.Info("owner registered", "owner_id", owner.ID, "email", owner.Email)
	return owner, token, nil
}

// Login authenticates an owner and returns a session token.
func (s *AuthService) Login(ctx context.Context, email, password string) (*models.Owner, string, error) {
	if email == "" || password == "" {
		return nil, "", errs.Validation("email and password are required")
	}

	owner, err := s.authenticator.Authenticate(ctx, email, password)
	if err != nil {
		s.logger.Warn("login failed", "email", email, "error", err)
		return nil, "", auth.ErrInvalidCredentials
	}

	token, err := s.jwtManager.Generate(owner)
	if err != nil {
		s.logger.Error("failed to generate token", "owner_id", owner.ID, "error", err)
		return nil, "", err
	}

	s.logger.Info("owner logged in", "owner_id", owner.ID, "email", owner.Email)
	return owner, token, nil
}

// GetCurrentOwner returns the authenticated owner's account.
func (s *AuthService) GetCurrentOwner(ctx context.Context, ownerID uuid.UUID) (*models.Owner, error) {
	return s.store.GetOwnerByID(ctx, ownerID)
}
