package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/sentinelhq/sentinel-api/internal/database"
	"github.com/sentinelhq/sentinel-api/internal/models"
)

const minPasswordLength = 8

// Service implements the sign-up, sign-in and sign-out flows. Failures that
// the caller should surface come back as *models.AuthError; anything else is
// an internal error.
type Service struct {
	users  database.UserRepositoryInterface
	tokens *TokenService
	logger *zap.Logger
}

// NewService creates an auth service
func NewService(users database.UserRepositoryInterface, tokens *TokenService, logger *zap.Logger) *Service {
	return &Service{
		users:  users,
		tokens: tokens,
		logger: logger,
	}
}

// SignUp registers a new account and returns the user with a fresh token
func (s *Service) SignUp(ctx context.Context, email, password string, name *string) (*models.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, "", &models.AuthError{Type: models.AuthErrorSignUp, Message: "a valid email address is required"}
	}
	if len(password) < minPasswordLength {
		return nil, "", &models.AuthError{
			Type:    models.AuthErrorSignUp,
			Message: fmt.Sprintf("password must be at least %d characters", minPasswordLength),
		}
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, "", &models.AuthError{Type: models.AuthErrorSignUp, Message: "email is already registered"}
	} else if !errors.Is(err, database.ErrNotFound) {
		return nil, "", fmt.Errorf("failed to check existing user: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Email:        email,
		Name:         name,
		PasswordHash: string(hash),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, "", fmt.Errorf("failed to create user: %w", err)
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, "", fmt.Errorf("failed to issue token: %w", err)
	}

	s.logger.Info("user signed up", zap.String("user_id", user.ID.String()))
	return user, token, nil
}

// SignIn authenticates an existing account. Unknown emails and wrong
// passwords produce the same message.
func (s *Service) SignIn(ctx context.Context, email, password string) (*models.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, database.ErrNotFound) {
		return nil, "", &models.AuthError{Type: models.AuthErrorSignIn, Message: "invalid email or password"}
	}
	if err != nil {
		return nil, "", fmt.Errorf("failed to look up user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, "", &models.AuthError{Type: models.AuthErrorSignIn, Message: "invalid email or password"}
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, "", fmt.Errorf("failed to issue token: %w", err)
	}

	s.logger.Info("user signed in", zap.String("user_id", user.ID.String()))
	return user, token, nil
}

// SignOut revokes the presented token
func (s *Service) SignOut(ctx context.Context, tokenString string) error {
	claims, err := s.tokens.Verify(ctx, tokenString)
	if err != nil {
		return &models.AuthError{Type: models.AuthErrorSignOut, Message: "invalid session token"}
	}
	if err := s.tokens.Revoke(ctx, claims); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}

	s.logger.Info("user signed out", zap.String("user_id", claims.UserID.String()))
	return nil
}
