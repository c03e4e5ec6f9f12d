package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testRegistry(t *testing.T) *Registry {
	t.Helper()
	registry, err := NewRegistry([]User{
		{Username: "admin", Password: "rahasia", Role: RoleEditor},
		{Username: "tamu", Password: "lihat", Role: RoleViewer},
	})
	require.NoError(t, err)
	return registry
}

func TestRegistry_Authenticate(t *testing.T) {
	registry := testRegistry(t)

	user, ok := registry.Authenticate("admin", "rahasia")
	require.True(t, ok)
	assert.True(t, user.CanEdit())

	user, ok = registry.Authenticate("tamu", "lihat")
	require.True(t, ok)
	assert.False(t, user.CanEdit())

	_, ok = registry.Authenticate("admin", "salah")
	assert.False(t, ok)

	_, ok = registry.Authenticate("hantu", "rahasia")
	assert.False(t, ok)
}

func TestLoadRegistry_MissingFileFallsBack(t *testing.T) {
	registry, err := LoadRegistry("/tidak/ada/users.yaml")
	require.NoError(t, err)

	user, ok := registry.Authenticate("admin", "admin123")
	require.True(t, ok)
	assert.True(t, user.CanEdit())
}

func TestNewRegistry_RejectsUnknownRole(t *testing.T) {
	_, err := NewRegistry([]User{{Username: "x", Password: "y", Role: "superadmin"}})
	assert.Error(t, err)
}

func TestMiddleware(t *testing.T) {
	registry := testRegistry(t)
	var gotRole Role
	handler := Middleware(registry, zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := UserFrom(r.Context())
		require.True(t, ok)
		gotRole = user.Role
		w.WriteHeader(http.StatusOK)
	}))

	// tanpa kredensial
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/barang", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Header().Get("WWW-Authenticate"), "Basic")

	// kredensial salah
	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/barang", nil)
	req.SetBasicAuth("admin", "salah")
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// kredensial benar, peran terpasang di konteks
	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/barang", nil)
	req.SetBasicAuth("tamu", "lihat")
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, RoleViewer, gotRole)
}
