package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"strings"

	"github.com/alexedwards/scs/v2"
	"golang.org/x/crypto/bcrypt"

	"github.com/zhaobenny/babylog/server/internal/store"
)

type contextKey string

const userKey contextKey = "user"

// SessionUserKey is the session key holding the logged in user's ID
const SessionUserKey = "userID"

// HashPassword hashes a password using bcrypt
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword compares a password with a hash
func CheckPassword(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// GenerateAPIKey generates a random API key
func GenerateAPIKey() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return "babylog_" + hex.EncodeToString(bytes), nil
}

// Middleware authenticates requests against the account store
type Middleware struct {
	store      *store.Store
	sessionMgr *scs.SessionManager
}

// NewMiddleware creates a new auth middleware
func NewMiddleware(s *store.Store, sessionMgr *scs.SessionManager) *Middleware {
	return &Middleware{
		store:      s,
		sessionMgr: sessionMgr,
	}
}

// RequireAuth middleware requires a valid session
func (m *Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := m.sessionMgr.GetString(r.Context(), SessionUserKey)
		if userID == "" {
			// Fragment requests come from fetch(), which cannot follow a redirect to a full page
			if strings.HasPrefix(r.URL.Path, "/partial/") {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}

		user := m.store.GetUserByID(userID)
		if user == nil {
			m.sessionMgr.Destroy(r.Context())
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
	})
}

// RequireAPIKey middleware requires a valid API key in X-API-Key or a bearer token
func (m *Middleware) RequireAPIKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		apiKey := r.Header.Get("X-API-Key")
		if apiKey == "" {
			if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
				apiKey = strings.TrimPrefix(h, "Bearer ")
			}
		}

		if apiKey == "" {
			http.Error(w, "API key required", http.StatusUnauthorized)
			return
		}

		user := m.store.GetUserByAPIKey(apiKey)
		if user == nil {
			http.Error(w, "Invalid API key", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
	})
}

// WithUser returns a context carrying user
func WithUser(ctx context.Context, user *store.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// GetUser returns the user from context
func GetUser(ctx context.Context) *store.User {
	if user, ok := ctx.Value(userKey).(*store.User); ok {
		return user
	}
	return nil
}
