package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// ErrInvalidCredentials is returned when the username or password does not match
var ErrInvalidCredentials = errors.New("invalid username or password")

// LoginResult is an issued access token
type LoginResult struct {
	AccessToken string
	ExpiresAt   time.Time
}

// AuthService authenticates the single configured operator account.
type AuthService struct {
	username     string
	passwordHash string
	tokenManager TokenManager
	logger       *slog.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(username, passwordHash string, tokenManager TokenManager, logger *slog.Logger) *AuthService {
	return &AuthService{
		username:     username,
		passwordHash: passwordHash,
		tokenManager: tokenManager,
		logger:       logger,
	}
}

// Login checks the operator credentials and issues an access token.
func (s *AuthService) Login(_ context.Context, username, password string) (*LoginResult, error) {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(s.username)) == 1
	// Compare the hash even when the username is wrong.
	passOK := ComparePassword(s.passwordHash, password)
	if !userOK || !passOK {
		s.logger.Warn("rejected login", slog.String("username", username))
		return nil, ErrInvalidCredentials
	}

	token, expiresAt, err := s.tokenManager.GenerateAccessToken(username)
	if err != nil {
		return nil, err
	}

	s.logger.Info("operator logged in", slog.String("username", username))
	return &LoginResult{AccessToken: token, ExpiresAt: expiresAt}, nil
}

// ValidateAccessToken validates an access token and returns its claims.
func (s *AuthService) ValidateAccessToken(_ context.Context, accessToken string) (*Claims, error) {
	if accessToken == "" {
		return nil, fmt.Errorf("%w: access token required", ErrInvalidToken)
	}
	return s.tokenManager.ValidateAccessToken(accessToken)
}

// ValidateUsername validates an access token and returns the username it was issued to
func (s *AuthService) ValidateUsername(ctx context.Context, accessToken string) (string, error) {
	claims, err := s.ValidateAccessToken(ctx, accessToken)
	if err != nil {
		return "", err
	}
	return claims.Username, nil
}
