// register.go - User registration handler.
package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// bcryptCost is the bcrypt work factor for password hashing. Moderate on
// purpose: slow enough against brute force, fast enough per request.
const bcryptCost = 10

// registerRequest is the JSON payload for POST /register.
type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// registeredUser is the public view of a created account. The password
// hash and email are deliberately absent; they never leave the server.
type registeredUser struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
}

// registerHandler handles POST /register. Validation is presence-only —
// no length or format rules — but username and email are trimmed first,
// so whitespace-only values count as missing.
func (cfg Config) registerHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}

		var req registerRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		req.Username = strings.TrimSpace(req.Username)
		req.Email = strings.TrimSpace(req.Email)

		if req.Username == "" || req.Email == "" || req.Password == "" {
			writeError(w, http.StatusBadRequest, "all fields are required")
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
		if err != nil {
			rid := RequestIDFromContext(r.Context())
			Error("password_hash_failed", map[string]any{"rid": rid}, err)
			writeError(w, http.StatusInternalServerError, "internal server error")
			return
		}

		user, err := cfg.Users.Create(req.Username, req.Email, string(hash))
		if err != nil {
			if errors.Is(err, ErrUsernameTaken) {
				writeError(w, http.StatusConflict, "username already taken")
				return
			}
			rid := RequestIDFromContext(r.Context())
			Error("user_create_failed", map[string]any{"rid": rid}, err)
			writeError(w, http.StatusInternalServerError, "internal server error")
			return
		}

		GetMetrics().RecordRegistration()
		writeJSON(w, http.StatusCreated, map[string]any{
			"message": "user registered successfully",
			"user":    registeredUser{ID: user.ID, Username: user.Username},
		})
	})
}
