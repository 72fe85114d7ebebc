// auth.go - Login handler, token issuance, and the bearer-token guard.
//
// Tokens are stateless HS256 JWTs: nothing is stored server-side, validity
// is signature + expiry only, and there is no revocation. A token stays
// valid for its full lifetime regardless of later account changes.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// AuthConfig holds the token signing secret and lifetime. The secret comes
// from process configuration and must never be logged or hard-coded.
type AuthConfig struct {
	Secret   string
	TokenTTL time.Duration
}

// tokenClaims is the JWT payload: the authenticated user's id plus the
// registered issued-at/expiry claims.
type tokenClaims struct {
	UserID int `json:"userId"`
	jwt.RegisteredClaims
}

const userIDKey ctxKey = "user_id"

// UserIDFromContext returns the authenticated user id attached by
// requireAuth, or 0 if the request was not guarded.
func UserIDFromContext(ctx context.Context) int {
	if id, ok := ctx.Value(userIDKey).(int); ok {
		return id
	}
	return 0
}

func (a AuthConfig) ttl() time.Duration {
	if a.TokenTTL <= 0 {
		return time.Hour
	}
	return a.TokenTTL
}

// issueToken signs a token asserting userID, expiring after the configured
// TTL (one hour by default).
func (a AuthConfig) issueToken(userID int, now time.Time) (string, error) {
	claims := tokenClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl())),
		},
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tok.SignedString([]byte(a.Secret))
}

// verifyToken checks signature and expiry and returns the embedded user id.
// Only HS256 is accepted; anything else (including alg=none) fails.
func (a AuthConfig) verifyToken(raw string) (int, error) {
	var claims tokenClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		return []byte(a.Secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return 0, err
	}
	if claims.UserID < 1 {
		return 0, errors.New("token has no subject")
	}
	return claims.UserID, nil
}

// loginRequest is the JSON payload for POST /login.
type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// loginHandler handles POST /login. Unknown usernames and wrong passwords
// produce byte-identical responses so the endpoint cannot be used to
// enumerate accounts.
func (cfg Config) loginHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}

		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		if req.Username == "" || req.Password == "" {
			writeError(w, http.StatusBadRequest, "username and password are required")
			return
		}

		user, found := cfg.Users.FindByUsername(req.Username)
		if !found {
			GetMetrics().RecordLoginAttempt(false)
			writeError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}

		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
			GetMetrics().RecordLoginAttempt(false)
			writeError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}

		token, err := cfg.Auth.issueToken(user.ID, time.Now())
		if err != nil {
			rid := RequestIDFromContext(r.Context())
			Error("token_sign_failed", map[string]any{"rid": rid, "user_id": user.ID}, err)
			writeError(w, http.StatusInternalServerError, "internal server error")
			return
		}

		GetMetrics().RecordLoginAttempt(true)
		writeJSON(w, http.StatusOK, map[string]any{
			"message": "login successful",
			"token":   token,
		})
	})
}

// requireAuth guards a route with bearer-token authentication. A missing or
// malformed Authorization header is 401; a token that fails signature or
// expiry checks is 403. On success the verified user id is attached to the
// request context for the downstream handler.
func (a AuthConfig) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, ok := bearerToken(r.Header.Get("Authorization"))
		if !ok {
			writeError(w, http.StatusUnauthorized, "access denied: no token provided")
			return
		}

		userID, err := a.verifyToken(raw)
		if err != nil {
			writeError(w, http.StatusForbidden, "invalid or expired token")
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// bearerToken extracts the token from an "Authorization: Bearer <token>"
// header. Reports false when the header is absent, uses another scheme, or
// has no token segment after the scheme prefix.
func bearerToken(header string) (string, bool) {
	if header == "" {
		return "", false
	}
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", false
	}
	return token, true
}
