package drivesync

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func writeTempDB(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "inventory_rumah.db")
	require.NoError(t, os.WriteFile(path, []byte("isi basis data"), 0o644))
	return path
}

func TestUploader_AfterWrite(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, r.ParseMultipartForm(1 << 20))
		_, header, err := r.FormFile("file")
		require.NoError(t, err)
		assert.Equal(t, "inventory_rumah.db", header.Filename)
		assert.Equal(t, "inventory_rumah.db", r.FormValue("nama_berkas"))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	uploader := New(server.URL, "token-rahasia", 5*time.Second, zap.NewNop())
	err := uploader.AfterWrite(context.Background(), writeTempDB(t))

	assert.NoError(t, err)
	assert.Equal(t, "Bearer token-rahasia", gotAuth)
}

func TestUploader_AfterWrite_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	uploader := New(server.URL, "", 5*time.Second, zap.NewNop())
	err := uploader.AfterWrite(context.Background(), writeTempDB(t))

	assert.Error(t, err)
}

func TestUploader_Disabled(t *testing.T) {
	uploader := New("", "", 5*time.Second, zap.NewNop())

	assert.NoError(t, uploader.AfterWrite(context.Background(), "inventory_rumah.db"))
}

func TestUploader_SkipsMemoryStore(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("tidak boleh ada unggahan untuk penyimpanan memori")
	}))
	defer server.Close()

	uploader := New(server.URL, "", 5*time.Second, zap.NewNop())
	assert.NoError(t, uploader.AfterWrite(context.Background(), ":memory:"))
}
