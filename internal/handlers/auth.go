package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/tungdibui2609/saritaqr/internal/services/central"
	"github.com/tungdibui2609/saritaqr/internal/store"
)

// LoginRequest represents a login request
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// login trades operator credentials for a central-server session and stores
// it encrypted, so the device stays signed in across shifts.
func (r *Router) login(w http.ResponseWriter, req *http.Request) {
	var body LoginRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if body.Username == "" || body.Password == "" {
		respondError(w, http.StatusBadRequest, "Username and password are required")
		return
	}

	token, err := r.central.Login(req.Context(), body.Username, body.Password)
	if err != nil {
		var apiErr *central.APIError
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized {
			respondError(w, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		respondError(w, http.StatusBadGateway, "Central server unreachable: "+err.Error())
		return
	}

	if err := r.creds.Set(store.Credentials{
		Username: body.Username,
		Token:    token,
		SavedAt:  time.Now().UTC(),
	}); err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to store session")
		return
	}

	response := map[string]interface{}{
		"username": body.Username,
	}
	if exp, ok := store.TokenExpiry(token); ok {
		response["expiresAt"] = exp
	}
	respondJSON(w, http.StatusOK, response)
}

// logout drops the stored session. Queued mutations stay; they sync after
// the next login.
func (r *Router) logout(w http.ResponseWriter, req *http.Request) {
	if err := r.creds.Clear(); err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to clear session")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}
