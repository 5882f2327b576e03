package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) *AuthService {
	t.Helper()
	hash, err := HashPassword("titkos-jelszo")
	require.NoError(t, err)

	tm := NewTokenManager([]byte("test-secret"), time.Hour)
	return NewAuthService("operator", hash, tm, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestAuthService_Login(t *testing.T) {
	svc := newTestService(t)

	tests := []struct {
		name     string
		username string
		password string
		wantErr  error
	}{
		{"valid credentials", "operator", "titkos-jelszo", nil},
		{"wrong password", "operator", "rossz", ErrInvalidCredentials},
		{"wrong username", "admin", "titkos-jelszo", ErrInvalidCredentials},
		{"empty", "", "", ErrInvalidCredentials},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := svc.Login(context.Background(), tt.username, tt.password)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, result.AccessToken)

			claims, err := svc.ValidateAccessToken(context.Background(), result.AccessToken)
			require.NoError(t, err)
			assert.Equal(t, "operator", claims.Username)
		})
	}
}

func TestTokenManager_RejectsBadTokens(t *testing.T) {
	tm := NewTokenManager([]byte("secret-a"), time.Hour)
	other := NewTokenManager([]byte("secret-b"), time.Hour)

	token, _, err := other.GenerateAccessToken("operator")
	require.NoError(t, err)

	_, err = tm.ValidateAccessToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = tm.ValidateAccessToken("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenManager_Expired(t *testing.T) {
	m := &tokenManager{secret: []byte("secret"), ttl: time.Minute, now: time.Now}
	m.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	token, _, err := m.GenerateAccessToken("operator")
	require.NoError(t, err)

	m.now = time.Now
	_, err = m.ValidateAccessToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenManager_RejectsNoneAlgorithm(t *testing.T) {
	tm := NewTokenManager([]byte("secret"), time.Hour)

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{Username: "operator"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = tm.ValidateAccessToken(unsigned)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateAccessToken_Empty(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.ValidateAccessToken(context.Background(), "")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
