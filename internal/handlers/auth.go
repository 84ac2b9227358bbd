package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/sentinelhq/sentinel-api/internal/auth"
	"github.com/sentinelhq/sentinel-api/internal/middleware"
	"github.com/sentinelhq/sentinel-api/internal/models"
)

// AuthHandler handles authentication-related requests
type AuthHandler struct {
	service *auth.Service
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(service *auth.Service) *AuthHandler {
	return &AuthHandler{service: service}
}

// RegisterRoutes registers public auth routes on the given router
// The router should already have the /auth prefix
func (h *AuthHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/signup", h.SignUp).Methods("POST")
	r.HandleFunc("/signin", h.SignIn).Methods("POST")
	r.HandleFunc("/signout", h.SignOut).Methods("POST")
}

// RegisterProtectedRoutes registers auth routes that require a valid token
func (h *AuthHandler) RegisterProtectedRoutes(r *mux.Router) {
	r.HandleFunc("/me", h.GetMe).Methods("GET")
}

// CredentialsRequest represents a signup or signin request
type CredentialsRequest struct {
	Email    string  `json:"email"`
	Password string  `json:"password"`
	Name     *string `json:"name,omitempty"`
}

// SessionResponse is returned on successful signup or signin
type SessionResponse struct {
	User  *models.User `json:"user"`
	Token string       `json:"token"`
}

// SignUp creates a new account and returns a session token
func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req CredentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid request body")
		return
	}

	user, token, err := h.service.SignUp(r.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		respondAuthError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, SessionResponse{User: user, Token: token})
}

// SignIn verifies credentials and returns a session token
func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req CredentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid request body")
		return
	}

	user, token, err := h.service.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		respondAuthError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, SessionResponse{User: user, Token: token})
}

// SignOut revokes the presented token. Idempotent from the client's point of
// view; an already-revoked token still signs out with an error status.
func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token == "" {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "Missing bearer token")
		return
	}

	if err := h.service.SignOut(r.Context(), token); err != nil {
		respondAuthError(w, err)
		return
	}

	respondJSONMessage(w, http.StatusOK, nil, "Signed out")
}

// GetMe returns current user information
func (h *AuthHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	respondJSON(w, http.StatusOK, user)
}

// respondAuthError maps auth flow errors to HTTP statuses. Signin failures
// are always 401 so the response never reveals whether the account exists.
func respondAuthError(w http.ResponseWriter, err error) {
	var authErr *models.AuthError
	if !errors.As(err, &authErr) {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Authentication failed")
		return
	}

	switch authErr.Type {
	case models.AuthErrorSignIn, models.AuthErrorSignOut:
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", authErr.Message)
	default:
		respondJSONError(w, http.StatusBadRequest, "Bad Request", authErr.Message)
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return parts[1]
}
