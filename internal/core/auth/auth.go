// Package auth provides HMAC-based API key authentication for the HTTP API.
package auth

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// contextKey is a typed key for context values to avoid collisions.
type contextKey string

// keyNameKey is the context key for storing the authenticated key name.
const keyNameKey = contextKey("key_name")

// Queries interface defines database operations needed for authentication.
// Implemented by *db.Queries to allow query loading via LoadQueries().
type Queries interface {
	Get(name string, dest interface{}, args ...interface{}) error
	Exec(name string, args ...interface{}) (sql.Result, error)
}

// Authenticator validates API keys using HMAC-SHA256 signatures.
// Holds in-memory secret map for O(1) lookup and queries for key verification.
type Authenticator struct {
	secrets map[string][]byte
	queries Queries
}

// NewAuthenticator creates an authenticator with HMAC secrets and query interface.
func NewAuthenticator(secrets map[string][]byte, queries Queries) *Authenticator {
	return &Authenticator{
		secrets: secrets,
		queries: queries,
	}
}

// Authenticate validates an API key and returns the key's name on success.
// Returns a specific error for each failure mode (5-tier taxonomy).
func (a *Authenticator) Authenticate(ctx context.Context, apiKey string) (string, error) {
	secretID, _, err := ParseAPIKey(apiKey)
	if err != nil {
		return "", err
	}

	// O(1) lookup of HMAC secret using secret_id from key format
	secret, ok := a.secrets[secretID]
	if !ok {
		return "", ErrUnknownKey
	}

	computedHash := ComputeHMAC(secret, apiKey)

	// Query database by key_hash using named query (unique constraint ensures single result)
	var result struct {
		APIKeyID   string       `db:"api_key_id"`
		KeyName    string       `db:"key_name"`
		RevokedAt  sql.NullTime `db:"revoked_at"`
		LastUsedAt sql.NullTime `db:"last_used_at"`
	}

	err = a.queries.Get("get-api-key-by-hash", &result, computedHash)
	if err == sql.ErrNoRows {
		return "", ErrInvalidKey
	}
	if err != nil {
		return "", fmt.Errorf("database error: %w", err)
	}

	// Check revocation status
	if result.RevokedAt.Valid {
		return "", ErrKeyRevoked
	}

	// Update last_used_at if >1 minute since last update.
	// The throttle reduces write amplification for chatty clients.
	if shouldUpdateLastUsed(result.LastUsedAt) {
		_, _ = a.queries.Exec("update-last-used", time.Now().UTC(), result.APIKeyID)
	}

	return result.KeyName, nil
}

// shouldUpdateLastUsed implements the 1-minute last_used_at throttle.
func shouldUpdateLastUsed(lastUsed sql.NullTime) bool {
	if !lastUsed.Valid {
		return true
	}
	return time.Since(lastUsed.Time) > time.Minute
}

// Middleware wraps an HTTP handler with API key authentication. Requests
// carry the key in the X-Api-Key header; the authenticated key name is
// injected into the request context for downstream handlers.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		apiKey := r.Header.Get("X-Api-Key")
		if apiKey == "" {
			writeAuthError(w, http.StatusUnauthorized, ErrMissingKey)
			return
		}

		keyName, err := a.Authenticate(r.Context(), apiKey)
		if err != nil {
			switch {
			case errors.Is(err, ErrKeyRevoked):
				writeAuthError(w, http.StatusForbidden, err)
			case strings.Contains(err.Error(), "database error"):
				// Storage trouble is not the caller's fault.
				writeAuthError(w, http.StatusServiceUnavailable, err)
			default:
				writeAuthError(w, http.StatusUnauthorized, err)
			}
			return
		}

		ctx := context.WithValue(r.Context(), keyNameKey, keyName)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// KeyNameFromContext extracts the authenticated key name from context.
// Returns empty string if not found.
func KeyNameFromContext(ctx context.Context) string {
	if name, ok := ctx.Value(keyNameKey).(string); ok {
		return name
	}
	return ""
}

func writeAuthError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}

// CreateKey mints a new API key under secretID, stores its HMAC, and returns
// the plaintext key and its record ID. The plaintext is never persisted; this
// is the only moment it can be copied.
func (a *Authenticator) CreateKey(secretID, name string) (apiKey, keyID string, err error) {
	secret, ok := a.secrets[secretID]
	if !ok {
		return "", "", ErrUnknownKey
	}

	apiKey, err = GenerateAPIKey(secretID)
	if err != nil {
		return "", "", err
	}

	keyID = uuid.New().String()
	hash := ComputeHMAC(secret, apiKey)
	if _, err := a.queries.Exec("insert-api-key", keyID, name, hash, secretID, time.Now().UTC()); err != nil {
		return "", "", fmt.Errorf("store API key: %w", err)
	}
	return apiKey, keyID, nil
}

// RevokeKey marks the key with the given record ID as revoked. Revoked keys
// keep their row so the hash stays burned.
func (a *Authenticator) RevokeKey(keyID string) error {
	res, err := a.queries.Exec("revoke-api-key", time.Now().UTC(), keyID)
	if err != nil {
		return fmt.Errorf("revoke API key: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("API key %s not found", keyID)
	}
	return nil
}
