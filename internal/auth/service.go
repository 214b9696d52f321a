// internal/auth/service.go
package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	apperrors "adstrategy-service/internal/common/errors"
	"adstrategy-service/internal/common/logger"
	"adstrategy-service/internal/common/validation"
	"adstrategy-service/internal/models"
)

const minPasswordLength = 8

// Service implements the account and session operations.
type Service struct {
	users      UserStore
	sessions   SessionStore
	sessionTTL time.Duration
	bcryptCost int
	logger     logger.Logger
}

func NewService(users UserStore, sessions SessionStore, sessionTTL time.Duration, bcryptCost int, log logger.Logger) *Service {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Service{
		users:      users,
		sessions:   sessions,
		sessionTTL: sessionTTL,
		bcryptCost: bcryptCost,
		logger:     log,
	}
}

// SignUp creates an account. The email must be unused and the password at
// least eight characters.
func (s *Service) SignUp(ctx context.Context, email, password string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if !validation.ValidateEmail(email) {
		return nil, apperrors.NewValidationError("Invalid email address", "email")
	}
	if len(password) < minPasswordLength {
		return nil, apperrors.NewValidationError("Password must be at least 8 characters", "password")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	user := &models.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, ErrEmailTaken) {
			return nil, apperrors.NewEmailTakenError(email)
		}
		return nil, apperrors.NewStoreFailureError(err)
	}

	s.logger.Info("account created", map[string]interface{}{"userId": user.ID})
	return user, nil
}

// SignIn verifies credentials and opens a session. Unknown email and wrong
// password are indistinguishable to the caller.
func (s *Service) SignIn(ctx context.Context, email, password string) (*models.Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, apperrors.NewInvalidCredentialsError()
		}
		return nil, apperrors.NewStoreFailureError(err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, apperrors.NewInvalidCredentialsError()
	}

	now := time.Now().UTC()
	session := &models.Session{
		Token:        uuid.NewString(),
		UserID:       user.ID,
		Email:        user.Email,
		CreatedAt:    now,
		ExpiresAt:    now.Add(s.sessionTTL),
		LastActivity: now,
	}
	if err := s.sessions.Save(ctx, session, s.sessionTTL); err != nil {
		return nil, apperrors.NewStoreFailureError(err)
	}

	s.logger.Info("session opened", map[string]interface{}{"userId": user.ID})
	return session, nil
}

// SignOut closes the session. Signing out an unknown token is a no-op.
func (s *Service) SignOut(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.sessions.Delete(ctx, token); err != nil {
		return apperrors.NewStoreFailureError(err)
	}
	return nil
}

// Identity resolves a token to its session and slides the expiry forward.
func (s *Service) Identity(ctx context.Context, token string) (*models.Session, error) {
	if token == "" {
		return nil, apperrors.NewUnauthorizedError("missing session token")
	}

	session, err := s.sessions.Get(ctx, token)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return nil, apperrors.NewUnauthorizedError("session expired or unknown")
		}
		return nil, apperrors.NewStoreFailureError(err)
	}

	if session.IsExpired() {
		_ = s.sessions.Delete(ctx, token)
		return nil, apperrors.NewUnauthorizedError("session expired")
	}

	session.UpdateActivity()
	session.ExpiresAt = time.Now().UTC().Add(s.sessionTTL)
	if err := s.sessions.Save(ctx, session, s.sessionTTL); err != nil {
		s.logger.WithError(err).Warn("failed to slide session expiry", nil)
	}

	return session, nil
}
