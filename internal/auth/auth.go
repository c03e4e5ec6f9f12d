// Package auth implements the static user registry and the role gate:
// editors may mutate the ledger, viewers only read it.
package auth

import (
	"context"
	"crypto/subtle"
	"fmt"
	"net/http"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Role is an access level from the user registry
type Role string

const (
	// RoleEditor may call every mutating operation
	RoleEditor Role = "editor"
	// RoleViewer is restricted to read-only operations
	RoleViewer Role = "viewer"
)

// User is one registry entry
type User struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Role     Role   `yaml:"role"`
}

// CanEdit reports whether the user may mutate the ledger
func (u *User) CanEdit() bool {
	return u.Role == RoleEditor
}

// Registry holds the static users loaded at startup
type Registry struct {
	users map[string]User
}

// NewRegistry builds a registry from explicit users
func NewRegistry(users []User) (*Registry, error) {
	byName := make(map[string]User, len(users))
	for _, u := range users {
		if u.Username == "" || u.Password == "" {
			return nil, fmt.Errorf("pengguna tanpa nama atau kata sandi")
		}
		if u.Role != RoleEditor && u.Role != RoleViewer {
			return nil, fmt.Errorf("peran tidak dikenal untuk %q: %s", u.Username, u.Role)
		}
		if _, exists := byName[u.Username]; exists {
			return nil, fmt.Errorf("pengguna ganda: %s", u.Username)
		}
		byName[u.Username] = u
	}
	return &Registry{users: byName}, nil
}

// DefaultRegistry returns the built-in user table used when no user file
// is configured. Deployments should replace these credentials.
// Daftar pengguna bawaan saat berkas pengguna tidak ada
func DefaultRegistry() *Registry {
	registry, err := NewRegistry([]User{
		{Username: "admin", Password: "admin123", Role: RoleEditor},
		{Username: "viewer1", Password: "viewer123", Role: RoleViewer},
	})
	if err != nil {
		panic(err)
	}
	return registry
}

// LoadRegistry reads the YAML user file. A missing file falls back to the
// default registry; a present but malformed file is an error.
func LoadRegistry(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return DefaultRegistry(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("gagal membaca berkas pengguna: %w", err)
	}

	var users []User
	if err := yaml.Unmarshal(data, &users); err != nil {
		return nil, fmt.Errorf("gagal mengurai berkas pengguna: %w", err)
	}
	return NewRegistry(users)
}

// Authenticate verifies a username/password pair in constant time
func (r *Registry) Authenticate(username, password string) (*User, bool) {
	u, ok := r.users[username]
	if !ok {
		// burn the comparison anyway
		subtle.ConstantTimeCompare([]byte(password), []byte(password))
		return nil, false
	}
	if subtle.ConstantTimeCompare([]byte(u.Password), []byte(password)) != 1 {
		return nil, false
	}
	return &u, true
}

type ctxKey int

const userKey ctxKey = 0

// WithUser stores the authenticated user on the request context
func WithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, userKey, u)
}

// UserFrom retrieves the authenticated user from the request context
func UserFrom(ctx context.Context) (*User, bool) {
	u, ok := ctx.Value(userKey).(*User)
	return u, ok
}

// Middleware authenticates every request with HTTP basic auth against
// the registry and attaches the user to the request context.
func Middleware(registry *Registry, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			username, password, ok := r.BasicAuth()
			if !ok {
				w.Header().Set("WWW-Authenticate", `Basic realm="gudang"`)
				http.Error(w, "autentikasi diperlukan", http.StatusUnauthorized)
				return
			}

			user, ok := registry.Authenticate(username, password)
			if !ok {
				logger.Warn("autentikasi gagal", zap.String("pengguna", username))
				w.Header().Set("WWW-Authenticate", `Basic realm="gudang"`)
				http.Error(w, "autentikasi gagal", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}
