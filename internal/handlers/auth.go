package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/nikhil/teamglow/internal/demo"
	"github.com/nikhil/teamglow/internal/logger"
)

type AuthHandler struct {
	Store  *demo.Store
	Tokens *demo.TokenIssuer
	Log    *logger.Logger
}

// NewAuthHandler creates a new instance of AuthHandler
func NewAuthHandler(store *demo.Store, tokens *demo.TokenIssuer, log *logger.Logger) *AuthHandler {
	return &AuthHandler{Store: store, Tokens: tokens, Log: log}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login handles the user authentication request
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var credentials loginRequest
	if err := json.NewDecoder(r.Body).Decode(&credentials); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	user, err := h.Store.Authenticate(credentials.Email, credentials.Password)
	if errors.Is(err, demo.ErrInvalidCredentials) {
		h.Log.WithContext(r.Context()).Warn("Login rejected", "email", credentials.Email)
		respondWithError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	if err != nil {
		h.Log.Error("Login failed", "error", err)
		respondWithError(w, http.StatusInternalServerError, "Login failed")
		return
	}

	token, err := h.Tokens.Issue(user.ID)
	if err != nil {
		h.Log.Error("Failed to sign token", "error", err)
		respondWithError(w, http.StatusInternalServerError, "Login failed")
		return
	}

	h.Log.WithContext(r.Context()).WithUser(user.ID).Info("User logged in", "role", user.Role)
	respondWithJSON(w, http.StatusOK, map[string]interface{}{"access_token": token, "user": user})
}
