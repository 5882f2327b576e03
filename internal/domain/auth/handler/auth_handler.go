package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"mime"
	"net/http"
	"time"

	"github.com/FACorreiaa/invoice-ledger/internal/domain/auth/service"
	"github.com/FACorreiaa/invoice-ledger/pkg/interceptors"
)

// Authenticator issues access tokens for valid credentials
type Authenticator interface {
	Login(ctx context.Context, username, password string) (*service.LoginResult, error)
}

// TokenResponse is the body returned by a successful login
type TokenResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AuthHandler serves the token endpoint
type AuthHandler struct {
	auth         Authenticator
	secureCookie bool
	logger       *slog.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(auth Authenticator, secureCookie bool, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, secureCookie: secureCookie, logger: logger}
}

// Register mounts the handler's routes on mux
func (h *AuthHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /auth/token", h.Token)
}

// Token exchanges a username and password, sent as a form or as JSON, for an access token.
// The token is also set as the access_token cookie.
func (h *AuthHandler) Token(w http.ResponseWriter, r *http.Request) {
	creds, err := readCredentials(w, r)
	if err != nil || creds.Username == "" || creds.Password == "" {
		interceptors.WriteDetail(w, http.StatusBadRequest, "username and password are required")
		return
	}

	result, err := h.auth.Login(r.Context(), creds.Username, creds.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			w.Header().Set("WWW-Authenticate", "Bearer")
			interceptors.WriteDetail(w, http.StatusUnauthorized, "Incorrect username or password")
			return
		}
		h.logger.ErrorContext(r.Context(), "failed to issue token", slog.Any("error", err))
		interceptors.WriteDetail(w, http.StatusInternalServerError, "Could not issue token")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     interceptors.AccessTokenCookie,
		Value:    result.AccessToken,
		Path:     "/",
		Expires:  result.ExpiresAt,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	interceptors.WriteJSON(w, http.StatusOK, TokenResponse{
		AccessToken: result.AccessToken,
		TokenType:   "bearer",
		ExpiresAt:   result.ExpiresAt,
	})
}

func readCredentials(w http.ResponseWriter, r *http.Request) (credentials, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		var creds credentials
		err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&creds)
		return creds, err
	}

	if err := r.ParseForm(); err != nil {
		return credentials{}, err
	}
	return credentials{
		Username: r.PostFormValue("username"),
		Password: r.PostFormValue("password"),
	}, nil
}
